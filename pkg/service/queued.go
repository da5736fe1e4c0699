package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nahkd123/stonks-sub001/pkg/event"
	"github.com/nahkd123/stonks-sub001/pkg/market"
	"github.com/nahkd123/stonks-sub001/pkg/task"
)

// Spawn starts a worker on some execution context. The default spawns a
// goroutine; tests substitute their own to control scheduling.
type Spawn func(fn func())

// Queued wraps a Service so that at most one task is ever in flight
// against it. Submitting never blocks: every call appends an entry to a
// FIFO queue and returns its future immediately. A single worker drains
// the queue in submission order, awaiting each underlying task before
// starting the next, then stops when the queue is empty. One entry's
// failure is isolated to its own future and never halts draining.
//
// Read-only queries route through the same queue, trading parallelism
// for a consistent serialized view of book state.
type Queued struct {
	inner Service
	spawn Spawn

	mu      sync.Mutex
	entries []func()
	// running is the worker-ownership flag. It only transitions to
	// false while mu is held (see drain), so the append-then-CAS in
	// submit can never strand an entry without a worker.
	running atomic.Bool
}

// QueuedOption configures a Queued wrapper.
type QueuedOption func(*Queued)

// WithSpawn overrides the execution context workers start on.
func WithSpawn(spawn Spawn) QueuedOption {
	return func(q *Queued) { q.spawn = spawn }
}

// NewQueued wraps inner with a serialized task queue.
func NewQueued(inner Service, opts ...QueuedOption) *Queued {
	q := &Queued{
		inner: inner,
		spawn: func(fn func()) { go fn() },
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// submit appends an entry and ensures exactly one worker is draining.
func (q *Queued) submit(run func()) {
	q.mu.Lock()
	q.entries = append(q.entries, run)
	q.mu.Unlock()

	if q.running.CompareAndSwap(false, true) {
		q.spawn(q.drain)
	}
}

// drain pops entries in submission order until the queue is empty, then
// releases worker ownership. The empty-check and the flag clear happen
// under the same lock as submit's append, so a racing submit either
// hands its entry to this worker or wins the CAS and starts the next.
func (q *Queued) drain() {
	for {
		q.mu.Lock()
		if len(q.entries) == 0 {
			q.running.Store(false)
			q.mu.Unlock()
			return
		}
		run := q.entries[0]
		q.entries = q.entries[1:]
		q.mu.Unlock()

		run()
	}
}

// enqueue routes a task factory through q's queue. The factory runs on
// the worker; the worker then waits for the produced task so the next
// entry does not begin until the current one's underlying operation
// completes.
func enqueue[T any](q *Queued, factory func() *task.Task[T]) *task.Task[T] {
	out := task.New[T]()
	q.submit(func() {
		defer func() {
			if r := recover(); r != nil {
				out.Fail(fmt.Errorf("queued task panicked: %v", r))
			}
		}()

		value, err := factory().Wait(context.Background())
		if err != nil {
			out.Fail(err)
			return
		}
		out.Resolve(value)
	})
	return out
}

// Pending returns the number of entries waiting in the queue.
func (q *Queued) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Flush submits a barrier and waits until every entry submitted before
// it has completed.
func (q *Queued) Flush(ctx context.Context) error {
	_, err := enqueue(q, func() *task.Task[struct{}] {
		return task.Completed(struct{}{})
	}).Wait(ctx)
	return err
}

// QueryCatalogue implements Service.
func (q *Queued) QueryCatalogue(ctx context.Context) *task.Task[[]*market.Category] {
	return enqueue(q, func() *task.Task[[]*market.Category] { return q.inner.QueryCatalogue(ctx) })
}

// QueryOrders implements Service.
func (q *Queued) QueryOrders(ctx context.Context, user string) *task.Task[[]*market.Offer] {
	return enqueue(q, func() *task.Task[[]*market.Offer] { return q.inner.QueryOrders(ctx, user) })
}

// QueryOrder implements Service.
func (q *Queued) QueryOrder(ctx context.Context, id string) *task.Task[*market.Offer] {
	return enqueue(q, func() *task.Task[*market.Offer] { return q.inner.QueryOrder(ctx, id) })
}

// QuerySummary implements Service.
func (q *Queued) QuerySummary(ctx context.Context, productID string) *task.Task[*market.ProductSummary] {
	return enqueue(q, func() *task.Task[*market.ProductSummary] { return q.inner.QuerySummary(ctx, productID) })
}

// MakeBuyOrder implements Service.
func (q *Queued) MakeBuyOrder(ctx context.Context, user, productID string, units, pricePerUnit int64) *task.Task[*market.Offer] {
	return enqueue(q, func() *task.Task[*market.Offer] {
		return q.inner.MakeBuyOrder(ctx, user, productID, units, pricePerUnit)
	})
}

// MakeSellOrder implements Service.
func (q *Queued) MakeSellOrder(ctx context.Context, user, productID string, units, pricePerUnit int64) *task.Task[*market.Offer] {
	return enqueue(q, func() *task.Task[*market.Offer] {
		return q.inner.MakeSellOrder(ctx, user, productID, units, pricePerUnit)
	})
}

// ClaimOrder implements Service.
func (q *Queued) ClaimOrder(ctx context.Context, user, id string) *task.Task[*ClaimResult] {
	return enqueue(q, func() *task.Task[*ClaimResult] { return q.inner.ClaimOrder(ctx, user, id) })
}

// InstantBuy implements Service.
func (q *Queued) InstantBuy(ctx context.Context, user, productID string, units, balance int64) *task.Task[*InstantResult] {
	return enqueue(q, func() *task.Task[*InstantResult] {
		return q.inner.InstantBuy(ctx, user, productID, units, balance)
	})
}

// InstantSell implements Service.
func (q *Queued) InstantSell(ctx context.Context, user, productID string, units int64) *task.Task[*InstantResult] {
	return enqueue(q, func() *task.Task[*InstantResult] {
		return q.inner.InstantSell(ctx, user, productID, units)
	})
}

// OnOrderFilled implements Service. The emitter itself is reentrant-safe
// so it is exposed directly rather than routed through the queue.
func (q *Queued) OnOrderFilled() *event.Emitter[*market.Offer] {
	return q.inner.OnOrderFilled()
}

// Close flushes the queue and closes the wrapped service.
func (q *Queued) Close() error {
	if err := q.Flush(context.Background()); err != nil {
		return err
	}
	return q.inner.Close()
}
