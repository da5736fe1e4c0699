package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nahkd123/stonks-sub001/pkg/event"
	"github.com/nahkd123/stonks-sub001/pkg/market"
	"github.com/nahkd123/stonks-sub001/pkg/task"
)

// Unstable wraps a Service and independently injects bounded random
// latency and probabilistic failure into every call. It exists to
// validate that the queue and its dependents propagate delayed success
// and injected failure without deadlocking or reordering; it is a test
// harness, not production logic.
type Unstable struct {
	inner    Service
	failRate float64
	maxDelay time.Duration
	logger   zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewUnstable wraps inner. failRate is the probability in [0, 1] that a
// call fails with ErrUnstable; maxDelay bounds the injected latency.
func NewUnstable(inner Service, failRate float64, maxDelay time.Duration, logger zerolog.Logger) *Unstable {
	return &Unstable{
		inner:    inner,
		failRate: failRate,
		maxDelay: maxDelay,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (u *Unstable) delay() time.Duration {
	if u.maxDelay <= 0 {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return time.Duration(u.rng.Int63n(int64(u.maxDelay)))
}

func (u *Unstable) shouldFail() bool {
	if u.failRate <= 0 {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rng.Float64() < u.failRate
}

// destabilize composes the wrapped task with a delay stage and a
// conditional-failure stage.
func destabilize[T any](u *Unstable, t *task.Task[T]) *task.Task[T] {
	if d := u.delay(); d > 0 {
		t = task.Delay(t, d)
	}

	if u.shouldFail() {
		u.logger.Debug().Msg("Injecting failure")
		return task.Then(t, func(T) (T, error) {
			var zero T
			return zero, market.ErrUnstable
		})
	}
	return t
}

// QueryCatalogue implements Service.
func (u *Unstable) QueryCatalogue(ctx context.Context) *task.Task[[]*market.Category] {
	return destabilize(u, u.inner.QueryCatalogue(ctx))
}

// QueryOrders implements Service.
func (u *Unstable) QueryOrders(ctx context.Context, user string) *task.Task[[]*market.Offer] {
	return destabilize(u, u.inner.QueryOrders(ctx, user))
}

// QueryOrder implements Service.
func (u *Unstable) QueryOrder(ctx context.Context, id string) *task.Task[*market.Offer] {
	return destabilize(u, u.inner.QueryOrder(ctx, id))
}

// QuerySummary implements Service.
func (u *Unstable) QuerySummary(ctx context.Context, productID string) *task.Task[*market.ProductSummary] {
	return destabilize(u, u.inner.QuerySummary(ctx, productID))
}

// MakeBuyOrder implements Service.
func (u *Unstable) MakeBuyOrder(ctx context.Context, user, productID string, units, pricePerUnit int64) *task.Task[*market.Offer] {
	return destabilize(u, u.inner.MakeBuyOrder(ctx, user, productID, units, pricePerUnit))
}

// MakeSellOrder implements Service.
func (u *Unstable) MakeSellOrder(ctx context.Context, user, productID string, units, pricePerUnit int64) *task.Task[*market.Offer] {
	return destabilize(u, u.inner.MakeSellOrder(ctx, user, productID, units, pricePerUnit))
}

// ClaimOrder implements Service.
func (u *Unstable) ClaimOrder(ctx context.Context, user, id string) *task.Task[*ClaimResult] {
	return destabilize(u, u.inner.ClaimOrder(ctx, user, id))
}

// InstantBuy implements Service.
func (u *Unstable) InstantBuy(ctx context.Context, user, productID string, units, balance int64) *task.Task[*InstantResult] {
	return destabilize(u, u.inner.InstantBuy(ctx, user, productID, units, balance))
}

// InstantSell implements Service.
func (u *Unstable) InstantSell(ctx context.Context, user, productID string, units int64) *task.Task[*InstantResult] {
	return destabilize(u, u.inner.InstantSell(ctx, user, productID, units))
}

// OnOrderFilled implements Service.
func (u *Unstable) OnOrderFilled() *event.Emitter[*market.Offer] {
	return u.inner.OnOrderFilled()
}

// Close implements Service.
func (u *Unstable) Close() error {
	return u.inner.Close()
}
