package spec

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Holder provides thread-safe access to a specification document with hot
// reload support. A failed reload keeps the previous document.
type Holder struct {
	mu       sync.RWMutex
	doc      *Document
	path     string
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange []func(*Document)
	stopCh   chan struct{}
}

// NewHolder loads the initial document and returns a holder for it.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	return &Holder{
		doc:    doc,
		path:   absPath,
		logger: logger,
		stopCh: make(chan struct{}),
	}, nil
}

// Get returns the current document (thread-safe).
func (h *Holder) Get() *Document {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.doc
}

// OnChange registers a callback invoked after a successful reload.
func (h *Holder) OnChange(fn func(*Document)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// Reload re-reads the document from disk. On error the old document stays
// in place.
func (h *Holder) Reload() error {
	h.logger.Info().Str("path", h.path).Msg("reloading specification")

	doc, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Msg("spec reload failed, keeping old document")
		return fmt.Errorf("reload spec: %w", err)
	}

	h.mu.Lock()
	h.doc = doc
	callbacks := h.onChange
	h.mu.Unlock()

	for _, fn := range callbacks {
		fn(doc)
	}

	h.logger.Info().
		Int("paths", len(doc.Paths())).
		Msg("specification reloaded")
	return nil
}

// WatchFile starts watching the spec file for changes. Changes trigger an
// automatic reload.
func (h *Holder) WatchFile() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	// Watch the directory (more reliable for editors that do atomic saves)
	dir := filepath.Dir(h.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go h.watchLoop()

	h.logger.Info().Str("path", h.path).Msg("watching specification for changes")
	return nil
}

// WatchSignals starts listening for SIGHUP to trigger reload.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, reloading specification")
				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("SIGHUP reload failed")
				}
			case <-h.stopCh:
				signal.Stop(sigCh)
				return
			}
		}
	}()
}

// Stop stops watching for file changes and signals.
func (h *Holder) Stop() {
	close(h.stopCh)
	if h.watcher != nil {
		h.watcher.Close()
	}
}

func (h *Holder) watchLoop() {
	filename := filepath.Base(h.path)

	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			// Write or create (atomic save = create)
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				h.logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("spec file changed")

				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("file watch reload failed")
				}
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("file watcher error")

		case <-h.stopCh:
			return
		}
	}
}
