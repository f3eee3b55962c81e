// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/specgate/specgate/adapters/clock"
	apihttp "github.com/specgate/specgate/adapters/http"
	"github.com/specgate/specgate/adapters/idgen"
	"github.com/specgate/specgate/adapters/memory"
	"github.com/specgate/specgate/adapters/metrics"
	"github.com/specgate/specgate/adapters/sqlite"
	"github.com/specgate/specgate/app"
	"github.com/specgate/specgate/config"
	"github.com/specgate/specgate/core/registry"
	"github.com/specgate/specgate/core/spec"
	"github.com/specgate/specgate/ports"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	Controllers *registry.Registry
	Dispatcher  *app.Dispatcher
	SpecHolder  *spec.Holder

	violations ports.ViolationStore
}

// New creates and initializes the application. The registry carries the
// handler modules the service dispatches to; it may gain or lose modules
// after startup.
func New(cfg *config.Config, controllers *registry.Registry) (*App, error) {
	logger := SetupLogger(cfg.Logging)

	logger.Info().Str("spec", cfg.Spec.Path).Msg("initializing specgate")

	a := &App{
		Logger:      logger,
		Config:      cfg,
		Controllers: controllers,
	}

	holder, err := spec.NewHolder(cfg.Spec.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	a.SpecHolder = holder

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	if err := a.initViolationStore(); err != nil {
		return nil, fmt.Errorf("init violation store: %w", err)
	}

	dispatcher, err := app.NewDispatcher(app.DispatchDeps{
		Controllers: controllers,
		Logger:      logger,
		Metrics:     metricsOrNil(a.Metrics),
		Violations:  a.violations,
		Clock:       clock.Real{},
		IDGen:       idgen.UUID{},
	}, app.DispatchConfig{
		Document:      holder.Get(),
		DefaultModule: cfg.Dispatch.DefaultModule,
		CaptureLimit:  cfg.Dispatch.CaptureLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("init dispatcher: %w", err)
	}
	a.Dispatcher = dispatcher

	// Reparsed documents flow into the dispatcher; a schema-compile failure
	// keeps the previous document serving.
	holder.OnChange(func(doc *spec.Document) {
		if err := dispatcher.UpdateDocument(doc); err != nil {
			logger.Error().Err(err).Msg("document update rejected, keeping previous")
			if a.Metrics != nil {
				a.Metrics.RecordSpecReload(false)
			}
			return
		}
		if a.Metrics != nil {
			a.Metrics.RecordSpecReload(true)
		}
	})

	if cfg.Spec.Watch {
		if err := holder.WatchFile(); err != nil {
			logger.Warn().Err(err).Msg("document watch unavailable")
		}
	}
	holder.WatchSignals()

	a.initHTTPServer()

	return a, nil
}

func (a *App) initViolationStore() error {
	cfg := a.Config

	if cfg.Database.Driver == "memory" {
		a.violations = memory.NewViolationStore(cfg.Violations.MaxEntries)
		a.Logger.Info().Msg("using in-memory violation store")
		return nil
	}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return err
	}
	a.DB = db

	store := sqlite.NewViolationStore(db)
	a.violations = store

	if cfg.Violations.Retention > 0 {
		cutoff := time.Now().Add(-cfg.Violations.Retention)
		purged, err := store.Purge(context.Background(), cutoff)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("startup violation purge failed")
		} else if purged > 0 {
			a.Logger.Info().Int64("purged", purged).Msg("pruned expired violations")
		}
	}

	a.Logger.Info().Str("dsn", cfg.Database.DSN).Msg("using sqlite violation store")
	return nil
}

func (a *App) initHTTPServer() {
	cfg := a.Config

	gate := apihttp.NewGateHandler(a.Dispatcher, a.Logger)

	var checker apihttp.ReadinessChecker
	if a.DB != nil {
		checker = a.DB
	}
	health := apihttp.NewHealthHandler(checker)

	routerCfg := apihttp.RouterConfig{
		Metrics:    a.Metrics,
		Violations: apihttp.NewViolationsHandler(a.violations, a.Logger),
	}
	if cfg.OpenAPI.Enabled {
		routerCfg.OpenAPIHandler = apihttp.NewOpenAPIHandler(a.Dispatcher)
		routerCfg.EnableSwagger = true
	}

	router := apihttp.NewRouterWithConfig(gate, health, a.Logger, routerCfg)

	a.HTTPServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// Run starts the HTTP server and blocks until interrupted.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.SpecHolder != nil {
		a.SpecHolder.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// Reload reparses the document from disk and swaps it into the dispatcher.
func (a *App) Reload() error {
	return a.SpecHolder.Reload()
}

// SetupLogger builds the root logger from logging configuration.
func SetupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// metricsOrNil keeps the nil check in one place: a typed nil pointer must
// not reach the ports.Metrics interface.
func metricsOrNil(m *metrics.Collector) ports.Metrics {
	if m == nil {
		return nil
	}
	return m
}
