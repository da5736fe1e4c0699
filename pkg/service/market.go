package service

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nahkd123/stonks-sub001/pkg/event"
	"github.com/nahkd123/stonks-sub001/pkg/logging"
	"github.com/nahkd123/stonks-sub001/pkg/market"
	"github.com/nahkd123/stonks-sub001/pkg/task"
)

// Market is the book-owning Service implementation. It resolves every
// call synchronously and returns already-completed tasks; asynchrony
// and write serialization come from the Queued wrapper around it.
type Market struct {
	catalogue *market.Catalogue
	books     map[string]*market.Book
	// offers indexes every live offer, including fully filled ones
	// that left the book and are awaiting claim.
	offers map[string]*market.Offer
	filled *event.Emitter[*market.Offer]
	logger zerolog.Logger
}

// NewMarket creates a Market with one empty book per catalogue product.
func NewMarket(catalogue *market.Catalogue, logger zerolog.Logger) *Market {
	books := make(map[string]*market.Book)
	for _, p := range catalogue.Products() {
		books[p.ID()] = market.NewBook(p)
	}

	return &Market{
		catalogue: catalogue,
		books:     books,
		offers:    make(map[string]*market.Offer),
		filled:    event.NewEmitter[*market.Offer](logger),
		logger:    logger,
	}
}

// Restore places a previously persisted offer back on its book.
func (m *Market) Restore(offer *market.Offer) error {
	book, ok := m.books[offer.Product().ID()]
	if !ok {
		return market.ErrUnknownProduct
	}

	if _, exists := m.offers[offer.ID()]; exists {
		return market.ErrOfferExists
	}

	m.offers[offer.ID()] = offer
	if offer.IsFilled() {
		// Filled offers stay claimable but never rejoin the book.
		return nil
	}
	return book.Insert(offer)
}

// LiveOffers returns snapshots of every indexed offer, for persistence.
func (m *Market) LiveOffers() []*market.Offer {
	offers := make([]*market.Offer, 0, len(m.offers))
	for _, o := range m.offers {
		offers = append(offers, o.Clone())
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].ID() < offers[j].ID() })
	return offers
}

// QueryCatalogue returns the current categories and products.
func (m *Market) QueryCatalogue(ctx context.Context) *task.Task[[]*market.Category] {
	return task.Completed(m.catalogue.Categories())
}

// QueryOrders returns snapshots of user's offers.
func (m *Market) QueryOrders(ctx context.Context, user string) *task.Task[[]*market.Offer] {
	owned := make([]*market.Offer, 0)
	for _, o := range m.offers {
		if o.Offerer() == user {
			owned = append(owned, o)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID() < owned[j].ID() })

	out := make([]*market.Offer, len(owned))
	for i, o := range owned {
		out[i] = o.Clone()
	}
	return task.Completed(out)
}

// QueryOrder returns a snapshot of one offer by id.
func (m *Market) QueryOrder(ctx context.Context, id string) *task.Task[*market.Offer] {
	offer, ok := m.offers[id]
	if !ok {
		return task.Failed[*market.Offer](market.ErrUnknownOffer)
	}
	return task.Completed(offer.Clone())
}

// QuerySummary aggregates a product's book.
func (m *Market) QuerySummary(ctx context.Context, productID string) *task.Task[*market.ProductSummary] {
	book, ok := m.books[productID]
	if !ok {
		return task.Failed[*market.ProductSummary](market.ErrUnknownProduct)
	}
	return task.Completed(market.Summarize(book))
}

// MakeBuyOrder books a resting buy offer.
func (m *Market) MakeBuyOrder(ctx context.Context, user, productID string, units, pricePerUnit int64) *task.Task[*market.Offer] {
	return m.makeOrder(ctx, user, productID, market.TypeBuy, units, pricePerUnit)
}

// MakeSellOrder books a resting sell offer.
func (m *Market) MakeSellOrder(ctx context.Context, user, productID string, units, pricePerUnit int64) *task.Task[*market.Offer] {
	return m.makeOrder(ctx, user, productID, market.TypeSell, units, pricePerUnit)
}

func (m *Market) makeOrder(ctx context.Context, user, productID string, offerType market.OfferType, units, pricePerUnit int64) *task.Task[*market.Offer] {
	logger := logging.FromContext(ctx)

	product, err := m.catalogue.Product(productID)
	if err != nil {
		return task.Failed[*market.Offer](err)
	}

	offer, err := market.NewOffer(uuid.NewString(), user, product, offerType, units, pricePerUnit)
	if err != nil {
		return task.Failed[*market.Offer](err)
	}

	book := m.books[productID]
	if err := book.Insert(offer); err != nil {
		return task.Failed[*market.Offer](err)
	}
	m.offers[offer.ID()] = offer

	logger.Info().
		Str("offer_id", offer.ID()).
		Str("user", user).
		Str("product", productID).
		Str("type", offerType.String()).
		Int64("units", units).
		Int64("price", pricePerUnit).
		Msg("Booked resting offer")

	return task.Completed(offer.Clone())
}

// ClaimOrder settles an offer for its owner and removes it.
func (m *Market) ClaimOrder(ctx context.Context, user, id string) *task.Task[*ClaimResult] {
	logger := logging.FromContext(ctx)

	offer, ok := m.offers[id]
	if !ok {
		return task.Failed[*ClaimResult](market.ErrUnknownOffer)
	}

	if offer.Offerer() != user {
		return task.Failed[*ClaimResult](market.ErrNotOfferOwner)
	}

	// A claim must never leave a ghost offer matchable; filled offers
	// already left the book when their last fill landed.
	if !offer.IsFilled() {
		m.books[offer.Product().ID()].Remove(offer)
	}
	delete(m.offers, id)

	result := &ClaimResult{Offer: offer.Clone()}
	filled := offer.FilledUnits()
	unfilled := offer.TotalUnits() - filled

	if offer.Type() == market.TypeBuy {
		result.UnitsReceived = filled
		result.AmountRefunded = unfilled * offer.PricePerUnit()
	} else {
		result.AmountReceived = filled * offer.PricePerUnit()
		result.UnitsRefunded = unfilled
	}

	logger.Info().
		Str("offer_id", id).
		Str("user", user).
		Int64("units_received", result.UnitsReceived).
		Int64("amount_received", result.AmountReceived).
		Int64("units_refunded", result.UnitsRefunded).
		Int64("amount_refunded", result.AmountRefunded).
		Msg("Claimed offer")

	return task.Completed(result)
}

// InstantBuy matches against the product's sell side.
func (m *Market) InstantBuy(ctx context.Context, user, productID string, units, balance int64) *task.Task[*InstantResult] {
	book, ok := m.books[productID]
	if !ok {
		return task.Failed[*InstantResult](market.ErrUnknownProduct)
	}

	touched := book.Offers(market.TypeSell)
	res, err := market.ExecuteInstantBuy(book.Iterator(market.TypeSell), balance, units)
	if err != nil {
		return task.Failed[*InstantResult](err)
	}
	m.notifyFills(touched)

	logger := logging.FromContext(ctx)
	logger.Info().
		Str("user", user).
		Str("product", productID).
		Int64("units_moved", res.UnitsMoved).
		Int64("spent", balance-res.Balance).
		Msg("Instant buy executed")

	return task.Completed(&InstantResult{
		Product:        book.Product(),
		UnitsRequested: units,
		UnitsMoved:     res.UnitsMoved,
		UnitsLeft:      res.UnitsLeft,
		MoneyMoved:     balance - res.Balance,
		BalanceLeft:    res.Balance,
	})
}

// InstantSell matches against the product's buy side.
func (m *Market) InstantSell(ctx context.Context, user, productID string, units int64) *task.Task[*InstantResult] {
	book, ok := m.books[productID]
	if !ok {
		return task.Failed[*InstantResult](market.ErrUnknownProduct)
	}

	touched := book.Offers(market.TypeBuy)
	res, err := market.ExecuteInstantSell(book.Iterator(market.TypeBuy), units)
	if err != nil {
		return task.Failed[*InstantResult](err)
	}
	m.notifyFills(touched)

	logger := logging.FromContext(ctx)
	logger.Info().
		Str("user", user).
		Str("product", productID).
		Int64("units_moved", res.UnitsMoved).
		Int64("earned", res.Balance).
		Msg("Instant sell executed")

	return task.Completed(&InstantResult{
		Product:        book.Product(),
		UnitsRequested: units,
		UnitsMoved:     res.UnitsMoved,
		UnitsLeft:      res.UnitsLeft,
		MoneyMoved:     res.Balance,
	})
}

// notifyFills emits a fill event for every offer the executor filled
// completely. touched is the side snapshot taken before execution;
// filled offers form its prefix but the scan is cheap either way.
func (m *Market) notifyFills(touched []*market.Offer) {
	for _, offer := range touched {
		if offer.IsFilled() {
			m.filled.Emit(offer.Clone())
		}
	}
}

// OnOrderFilled exposes the fill emitter.
func (m *Market) OnOrderFilled() *event.Emitter[*market.Offer] {
	return m.filled
}

// Close implements Service.
func (m *Market) Close() error {
	return nil
}
