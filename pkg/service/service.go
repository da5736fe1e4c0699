// Package service defines the asynchronous market API surface and its
// implementations: the book-owning Market, the serializing Queued
// wrapper and the fault-injecting Unstable decorator.
package service

import (
	"context"
	"errors"

	"github.com/nahkd123/stonks-sub001/pkg/event"
	"github.com/nahkd123/stonks-sub001/pkg/market"
	"github.com/nahkd123/stonks-sub001/pkg/task"
)

// Errors
var (
	ErrProviderExists  = errors.New("service provider already registered")
	ErrUnknownProvider = errors.New("unknown service provider")
	ErrClosed          = errors.New("service closed")
)

// ClaimResult describes what settling an offer transferred back to its
// owner. A buy offer pays out units and refunds unspent money; a sell
// offer pays out money and refunds unsold units.
type ClaimResult struct {
	Offer          *market.Offer `json:"offer"`
	UnitsReceived  int64         `json:"unitsReceived"`
	AmountReceived int64         `json:"amountReceived"`
	UnitsRefunded  int64         `json:"unitsRefunded"`
	AmountRefunded int64         `json:"amountRefunded"`
}

// InstantResult describes an instant execution from the caller's point
// of view: units moved and money spent or received.
type InstantResult struct {
	Product        *market.Product `json:"product"`
	UnitsRequested int64           `json:"unitsRequested"`
	UnitsMoved     int64           `json:"unitsMoved"`
	UnitsLeft      int64           `json:"unitsLeft"`
	// MoneyMoved is the amount spent on an instant buy or received on
	// an instant sell.
	MoneyMoved int64 `json:"moneyMoved"`
	// BalanceLeft is what remains of the submitted balance. Only
	// meaningful for instant buys.
	BalanceLeft int64 `json:"balanceLeft"`
}

// Service is the complete market API surface. Every operation returns a
// task so callers never block; failures surface through the task's
// failure channel, never by panicking or silently dropping the call.
//
// Implementations other than Queued are not safe for concurrent use;
// production assemblies wrap them with NewQueued so book mutations are
// serialized through a single worker.
type Service interface {
	// QueryCatalogue returns the current categories and products.
	QueryCatalogue(ctx context.Context) *task.Task[[]*market.Category]

	// QueryOrders returns snapshots of every offer belonging to user,
	// including filled offers awaiting claim.
	QueryOrders(ctx context.Context, user string) *task.Task[[]*market.Offer]

	// QueryOrder returns a snapshot of one offer by id.
	QueryOrder(ctx context.Context, id string) *task.Task[*market.Offer]

	// QuerySummary aggregates a product's book into depth buckets and
	// instant prices.
	QuerySummary(ctx context.Context, productID string) *task.Task[*market.ProductSummary]

	// MakeBuyOrder books a new resting buy offer and returns a
	// snapshot of it.
	MakeBuyOrder(ctx context.Context, user, productID string, units, pricePerUnit int64) *task.Task[*market.Offer]

	// MakeSellOrder books a new resting sell offer.
	MakeSellOrder(ctx context.Context, user, productID string, units, pricePerUnit int64) *task.Task[*market.Offer]

	// ClaimOrder settles an offer for its owner: filled value is paid
	// out, the unfilled remainder is refunded and the offer is removed.
	ClaimOrder(ctx context.Context, user, id string) *task.Task[*ClaimResult]

	// InstantBuy matches a buy request against the product's sell side
	// within the given balance.
	InstantBuy(ctx context.Context, user, productID string, units, balance int64) *task.Task[*InstantResult]

	// InstantSell matches a sell request against the product's buy side.
	InstantSell(ctx context.Context, user, productID string, units int64) *task.Task[*InstantResult]

	// OnOrderFilled exposes the emitter that fires whenever an offer
	// reaches full fill.
	OnOrderFilled() *event.Emitter[*market.Offer]

	// Close releases the service's resources.
	Close() error
}
