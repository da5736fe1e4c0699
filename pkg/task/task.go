// Package task provides the asynchronous result type the service API is
// built on. A Task is eventually exactly one of success or failure;
// observers may attach before or after completion and completion happens
// at most once.
package task

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrPending is returned by Result when the task has not completed yet.
var ErrPending = errors.New("task still pending")

// Task is a write-once future. The zero value is not usable; construct
// with New, Go, Completed or Failed.
type Task[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	value     T
	err       error
	completed bool
	observers []func(T, error)
}

// New creates an unresolved task.
func New[T any]() *Task[T] {
	return &Task[T]{done: make(chan struct{})}
}

// Completed creates a task already resolved with value.
func Completed[T any](value T) *Task[T] {
	t := New[T]()
	t.Resolve(value)
	return t
}

// Failed creates a task already failed with err.
func Failed[T any](err error) *Task[T] {
	t := New[T]()
	t.Fail(err)
	return t
}

// Go runs fn on a new goroutine and returns the task for its outcome.
func Go[T any](fn func() (T, error)) *Task[T] {
	t := New[T]()
	go func() {
		t.complete(fn())
	}()
	return t
}

// Resolve completes the task successfully. Returns false if the task was
// already completed.
func (t *Task[T]) Resolve(value T) bool {
	return t.complete(value, nil)
}

// Fail completes the task with an error. Returns false if the task was
// already completed.
func (t *Task[T]) Fail(err error) bool {
	var zero T
	return t.complete(zero, err)
}

func (t *Task[T]) complete(value T, err error) bool {
	t.mu.Lock()
	if t.completed {
		t.mu.Unlock()
		return false
	}

	t.value = value
	t.err = err
	t.completed = true
	observers := t.observers
	t.observers = nil
	close(t.done)
	t.mu.Unlock()

	for _, fn := range observers {
		fn(value, err)
	}
	return true
}

// Done returns a channel closed on completion.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Result returns the outcome, or ErrPending if the task has not
// completed.
func (t *Task[T]) Result() (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.completed {
		var zero T
		return zero, ErrPending
	}
	return t.value, t.err
}

// Wait blocks until the task completes or ctx is canceled.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnComplete registers an observer. If the task has already completed
// the observer runs immediately on the calling goroutine; otherwise it
// runs on the goroutine that completes the task.
func (t *Task[T]) OnComplete(fn func(T, error)) {
	t.mu.Lock()
	if !t.completed {
		t.observers = append(t.observers, fn)
		t.mu.Unlock()
		return
	}
	value, err := t.value, t.err
	t.mu.Unlock()

	fn(value, err)
}

// Then composes a task with a synchronous continuation. The returned
// task fails with the source task's error without invoking fn.
func Then[T, U any](src *Task[T], fn func(T) (U, error)) *Task[U] {
	out := New[U]()
	src.OnComplete(func(value T, err error) {
		if err != nil {
			out.Fail(err)
			return
		}
		out.complete(fn(value))
	})
	return out
}

// Delay re-resolves a task after d has elapsed, preserving its outcome.
// Used by the instability decorator to inject latency without touching
// the wrapped service.
func Delay[T any](src *Task[T], d time.Duration) *Task[T] {
	out := New[T]()
	src.OnComplete(func(value T, err error) {
		time.AfterFunc(d, func() {
			out.complete(value, err)
		})
	})
	return out
}
