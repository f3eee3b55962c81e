// Package app provides application services that orchestrate core logic.
package app

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/specgate/specgate/core/contract"
	"github.com/specgate/specgate/core/registry"
	"github.com/specgate/specgate/core/resolve"
	"github.com/specgate/specgate/core/spec"
	"github.com/specgate/specgate/ports"
)

// dispatchState is the hot-swappable pair of document and compiled
// validator. Both change together on reload.
type dispatchState struct {
	doc       *spec.Document
	validator *contract.Validator
}

// Dispatcher is the per-request entry point: it resolves the handler module
// and operation for the matched document entry, installs the response
// interceptor, invokes the handler, and validates what was sent.
//
// A Dispatcher is constructed once and reused across requests.
type Dispatcher struct {
	controllers *registry.Registry
	resolver    *resolve.Resolver

	log        zerolog.Logger
	metrics    ports.Metrics
	violations ports.ViolationStore
	clock      ports.Clock
	idGen      ports.IDGenerator

	captureLimit int

	state atomic.Pointer[dispatchState]
}

// DispatchDeps contains dependencies for Dispatcher.
type DispatchDeps struct {
	Controllers *registry.Registry
	Logger      zerolog.Logger
	Metrics     ports.Metrics
	Violations  ports.ViolationStore
	Clock       ports.Clock
	IDGen       ports.IDGenerator
}

// DispatchConfig contains configuration for Dispatcher.
type DispatchConfig struct {
	// Document is the loaded service document. Required.
	Document *spec.Document

	// DefaultModule overrides the fallback handler-module name.
	DefaultModule string

	// CaptureLimit bounds the per-response validation copy in bytes.
	CaptureLimit int
}

// NewDispatcher creates a dispatcher for the given document. Schema
// compilation happens here so malformed documents fail at startup.
func NewDispatcher(deps DispatchDeps, cfg DispatchConfig) (*Dispatcher, error) {
	d := &Dispatcher{
		controllers:  deps.Controllers,
		resolver:     resolve.New(deps.Controllers, cfg.DefaultModule),
		log:          deps.Logger,
		metrics:      deps.Metrics,
		violations:   deps.Violations,
		clock:        deps.Clock,
		idGen:        deps.IDGen,
		captureLimit: cfg.CaptureLimit,
	}
	if err := d.UpdateDocument(cfg.Document); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateDocument swaps in a new document and its compiled validator. Safe to
// call while requests are in flight; a compile failure keeps the previous
// state active.
func (d *Dispatcher) UpdateDocument(doc *spec.Document) error {
	if doc == nil {
		return fmt.Errorf("dispatch: nil document")
	}
	v, err := contract.NewValidator(doc)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	d.state.Store(&dispatchState{doc: doc, validator: v})
	return nil
}

// Document returns the currently active document.
func (d *Dispatcher) Document() *spec.Document {
	return d.state.Load().doc
}

// Handle serves one matched request. The transport layer must have attached
// the route via WithRoute; its absence is a wiring error surfaced through
// next. Handler errors likewise flow through next to the transport's error
// boundary.
func (d *Dispatcher) Handle(w http.ResponseWriter, r *http.Request, next registry.Next) {
	rt, ok := RouteFrom(r.Context())
	if !ok {
		next(fmt.Errorf("dispatch: no resolved route in request context for %s %s", r.Method, r.URL.Path))
		return
	}
	st := d.state.Load()
	op := rt.Match.Operation

	res := d.resolver.Resolve(op, rt.Match.Template)
	d.log.Debug().
		Str("request_id", rt.RequestID).
		Str("method", r.Method).
		Str("template", rt.Match.Template).
		Str("module", res.Module).
		Str("module_source", res.ModuleSource).
		Str("operation", res.Operation).
		Str("operation_source", res.OperationSource).
		Msg("operation resolved")

	mod, ok := d.controllers.Lookup(res.Module)
	if !ok {
		next(&registry.UnknownModuleError{Module: res.Module})
		return
	}
	handler, ok := mod.Operation(res.Operation)
	if !ok {
		next(&registry.UnknownOperationError{Module: res.Module, Operation: res.Operation})
		return
	}

	// The interceptor must wrap the writer before the handler runs; anything
	// emitted through the bare writer escapes validation.
	iw := NewInterceptor(w, d.captureLimit)
	start := d.clock.Now()

	errored := false
	handler(iw, r, func(err error) {
		if err != nil {
			errored = true
		}
		next(err)
	})

	if d.metrics != nil {
		d.metrics.RecordRequest(r.Method, rt.Match.Template, iw.Status(), d.clock.Now().Sub(start))
	}
	if errored || !iw.Committed() {
		return
	}
	d.observe(r, rt, res, st, iw)
}

// observe validates the delivered response and records the outcome. The
// client already has its bytes; nothing here can affect delivery.
func (d *Dispatcher) observe(r *http.Request, rt *Route, res resolve.Resolution, st *dispatchState, iw *Interceptor) {
	if iw.Truncated() {
		d.log.Debug().
			Str("request_id", rt.RequestID).
			Int64("bytes", iw.BytesWritten()).
			Msg("response body exceeds capture limit, validation skipped")
		return
	}

	rep := st.validator.Check(rt.Match.Operation.Method, rt.Match.Template, iw.Status(), iw.Body())
	switch {
	case rep.Skipped && rep.Reason == contract.ReasonUnspecifiedStatus:
		d.log.Warn().
			Str("request_id", rt.RequestID).
			Str("method", r.Method).
			Str("template", rt.Match.Template).
			Int("status", iw.Status()).
			Msg("response status not declared in document")
		if d.metrics != nil {
			d.metrics.RecordUnspecifiedStatus(r.Method, rt.Match.Template, iw.Status())
		}
		d.record(r, rt, res, iw.Status(), ports.ViolationKindUnspecifiedStatus, "")

	case rep.Skipped:
		d.log.Debug().
			Str("request_id", rt.RequestID).
			Int("status", iw.Status()).
			Msg("no response schema declared, nothing to validate")

	case rep.OK():
		d.log.Debug().
			Str("request_id", rt.RequestID).
			Int("status", iw.Status()).
			Msg("response conforms to contract")

	default:
		d.log.Warn().
			Str("request_id", rt.RequestID).
			Str("method", r.Method).
			Str("template", rt.Match.Template).
			Int("status", iw.Status()).
			Str("violations", rep.Message()).
			Msg("response violates contract")
		if d.metrics != nil {
			d.metrics.RecordViolation(r.Method, rt.Match.Template, iw.Status())
		}
		d.record(r, rt, res, iw.Status(), ports.ViolationKindSchema, rep.Message())
	}
}

func (d *Dispatcher) record(r *http.Request, rt *Route, res resolve.Resolution, status int, kind, detail string) {
	if d.violations == nil {
		return
	}
	v := ports.ContractViolation{
		ID:          d.idGen.New(),
		RequestID:   rt.RequestID,
		Method:      r.Method,
		Path:        r.URL.Path,
		Template:    rt.Match.Template,
		Module:      res.Module,
		OperationID: res.Operation,
		Status:      status,
		Kind:        kind,
		Detail:      detail,
		OccurredAt:  d.clock.Now(),
	}
	if err := d.violations.Record(r.Context(), v); err != nil {
		d.log.Error().Err(err).Str("request_id", rt.RequestID).Msg("record contract violation")
	}
}
