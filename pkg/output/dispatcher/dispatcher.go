// Package dispatcher provides the central event routing for output.
// It receives events from the conversion pipeline and routes them to
// registered writers and hooks. Writers produce files (JUnit, SARIF, JSON,
// etc.), while hooks observe the run (logging, metrics, tracing).
package dispatcher

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
)

// ErrClosed is returned by Dispatch after Close.
var ErrClosed = errors.New("dispatcher: closed")

// Writer is the interface for all output writers.
type Writer interface {
	// Write writes an event to the output.
	Write(event events.Event) error

	// Flush ensures all buffered events are written.
	Flush() error

	// Close closes the writer and releases any resources.
	Close() error

	// SupportsEvent returns true if the writer handles this event type.
	SupportsEvent(eventType events.EventType) bool
}

// Hook is the interface for event hooks.
type Hook interface {
	// OnEvent is called for each matching event.
	OnEvent(ctx context.Context, event events.Event) error

	// EventTypes returns the event types this hook handles.
	// Return nil or empty slice to receive all events.
	EventTypes() []events.EventType
}

// Dispatcher routes events to writers and hooks synchronously, in
// registration order. It is safe for concurrent use.
type Dispatcher struct {
	writers []Writer
	hooks   []Hook
	mu      sync.RWMutex
	closed  bool
	logger  *zap.Logger
}

// Config configures the dispatcher.
type Config struct {
	// Logger receives hook failures. Nil disables logging.
	Logger *zap.Logger
}

// New creates a new event dispatcher with the given configuration.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{logger: logger}
}

// RegisterWriter adds a writer to the dispatcher.
func (d *Dispatcher) RegisterWriter(w Writer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writers = append(d.writers, w)
}

// RegisterHook adds a hook to the dispatcher.
func (d *Dispatcher) RegisterHook(h Hook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, h)
}

// WriterCount returns the number of registered writers.
func (d *Dispatcher) WriterCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.writers)
}

// HookCount returns the number of registered hooks.
func (d *Dispatcher) HookCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.hooks)
}

// Dispatch sends an event to all registered writers and hooks.
// Every writer receives the event even when an earlier one fails; writer
// errors are joined and returned. Hook errors are logged and dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, event events.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClosed
	}

	var errs []error
	for _, w := range d.writers {
		if !w.SupportsEvent(event.EventType()) {
			continue
		}
		if err := w.Write(event); err != nil {
			errs = append(errs, err)
		}
	}

	for _, h := range d.hooks {
		if !hookSupportsEvent(h, event.EventType()) {
			continue
		}
		if err := h.OnEvent(ctx, event); err != nil {
			d.logger.Warn("hook failed",
				zap.String("event", string(event.EventType())),
				zap.Error(err))
		}
	}

	return errors.Join(errs...)
}

// hookSupportsEvent checks if a hook handles the given event type.
func hookSupportsEvent(h Hook, eventType events.EventType) bool {
	types := h.EventTypes()
	if len(types) == 0 {
		return true
	}
	for _, et := range types {
		if et == eventType {
			return true
		}
	}
	return false
}

// Flush flushes all registered writers.
func (d *Dispatcher) Flush() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var errs []error
	for _, w := range d.writers {
		if err := w.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close flushes and closes all writers, even when some fail, and returns
// the joined errors. Calling Close again is a no-op.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	var errs []error
	for _, w := range d.writers {
		if err := w.Flush(); err != nil {
			errs = append(errs, err)
		}
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Abort stops routing events without flushing or closing any writer, so
// buffered output is never rendered. The caller owns the destinations.
// Close after Abort is a no-op.
func (d *Dispatcher) Abort() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}
