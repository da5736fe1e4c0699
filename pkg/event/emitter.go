// Package event implements a reentrant-safe emitter used for "offer
// filled" notifications.
package event

import (
	"sync"

	"github.com/rs/zerolog"
)

// Listener receives emitted values.
type Listener[T any] func(value T)

// Emitter delivers a value to all registered listeners. It tolerates
// listeners registering more listeners from inside a delivery and emit
// calls made recursively from inside a listener: both are buffered while
// a delivery pass is in flight and flushed once it completes, preserving
// emission order. A panicking listener is logged and does not prevent
// delivery to the remaining listeners.
type Emitter[T any] struct {
	mu sync.Mutex
	// emitting is the Idle/Emitting state flag; while set, listener
	// registrations and nested emits land in the pending buffers.
	emitting         bool
	listeners        []Listener[T]
	pendingListeners []Listener[T]
	pendingValues    []T
	logger           zerolog.Logger
}

// NewEmitter creates an emitter reporting listener failures to logger.
func NewEmitter[T any](logger zerolog.Logger) *Emitter[T] {
	return &Emitter[T]{logger: logger}
}

// Listen registers a listener. If a delivery pass is in flight the
// listener is attached after the pass completes and does not receive
// the value currently being delivered.
func (e *Emitter[T]) Listen(fn Listener[T]) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.emitting {
		e.pendingListeners = append(e.pendingListeners, fn)
		return
	}
	e.listeners = append(e.listeners, fn)
}

// Len returns the number of attached listeners, pending ones included.
func (e *Emitter[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners) + len(e.pendingListeners)
}

// Emit delivers value to every listener registered before the call. A
// nested Emit from inside a listener queues its value; the outermost
// call drains the queue sequentially before returning.
func (e *Emitter[T]) Emit(value T) {
	e.mu.Lock()
	if e.emitting {
		e.pendingValues = append(e.pendingValues, value)
		e.mu.Unlock()
		return
	}
	e.emitting = true

	for {
		listeners := make([]Listener[T], len(e.listeners))
		copy(listeners, e.listeners)
		e.mu.Unlock()

		for _, fn := range listeners {
			e.deliver(fn, value)
		}

		e.mu.Lock()
		e.listeners = append(e.listeners, e.pendingListeners...)
		e.pendingListeners = nil

		if len(e.pendingValues) == 0 {
			e.emitting = false
			e.mu.Unlock()
			return
		}
		value = e.pendingValues[0]
		e.pendingValues = e.pendingValues[1:]
	}
}

// deliver runs one listener, isolating its failure.
func (e *Emitter[T]) deliver(fn Listener[T], value T) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Msg("Listener panicked during delivery")
		}
	}()
	fn(value)
}
