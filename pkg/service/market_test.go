package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahkd123/stonks-sub001/pkg/market"
	"github.com/nahkd123/stonks-sub001/pkg/task"
)

func testCatalogue() *market.Catalogue {
	iron := market.NewProduct("iron_ingot", "Iron Ingot", "minecraft:iron_ingot")
	gold := market.NewProduct("gold_ingot", "Gold Ingot", "minecraft:gold_ingot")
	return market.NewCatalogue([]*market.Category{
		market.NewCategory("metals", "Metals", []*market.Product{iron, gold}),
	})
}

func newTestMarket() *Market {
	return NewMarket(testCatalogue(), zerolog.Nop())
}

// mustResult unwraps a completed task, failing the test on error or on a
// task that is still pending.
func mustResult[T any](t *testing.T, tk *task.Task[T]) T {
	t.Helper()
	value, err := tk.Result()
	require.NoError(t, err)
	return value
}

func TestQueryCatalogue(t *testing.T) {
	m := newTestMarket()

	categories := mustResult(t, m.QueryCatalogue(context.Background()))
	require.Len(t, categories, 1)
	assert.Equal(t, "metals", categories[0].ID())
	assert.Len(t, categories[0].Products(), 2)
}

func TestMakeOrderAndQuery(t *testing.T) {
	m := newTestMarket()
	ctx := context.Background()

	offer := mustResult(t, m.MakeSellOrder(ctx, "alice", "iron_ingot", 10, 5))
	assert.NotEmpty(t, offer.ID())
	assert.Equal(t, "alice", offer.Offerer())
	assert.Equal(t, market.TypeSell, offer.Type())

	got := mustResult(t, m.QueryOrder(ctx, offer.ID()))
	assert.Equal(t, offer.ID(), got.ID())

	owned := mustResult(t, m.QueryOrders(ctx, "alice"))
	require.Len(t, owned, 1)
	assert.Empty(t, mustResult(t, m.QueryOrders(ctx, "bob")))
}

func TestMakeOrderValidation(t *testing.T) {
	m := newTestMarket()
	ctx := context.Background()

	_, err := m.MakeBuyOrder(ctx, "alice", "no_such_product", 10, 5).Result()
	assert.ErrorIs(t, err, market.ErrUnknownProduct)

	_, err = m.MakeBuyOrder(ctx, "alice", "iron_ingot", 0, 5).Result()
	assert.ErrorIs(t, err, market.ErrInvalidUnits)

	_, err = m.MakeBuyOrder(ctx, "alice", "iron_ingot", 10, 0).Result()
	assert.ErrorIs(t, err, market.ErrInvalidPrice)
}

func TestQueryOrderUnknown(t *testing.T) {
	m := newTestMarket()

	_, err := m.QueryOrder(context.Background(), "missing").Result()
	assert.ErrorIs(t, err, market.ErrUnknownOffer)
}

func TestQuerySummaryReflectsBook(t *testing.T) {
	m := newTestMarket()
	ctx := context.Background()

	mustResult(t, m.MakeSellOrder(ctx, "alice", "iron_ingot", 10, 5))
	mustResult(t, m.MakeSellOrder(ctx, "bob", "iron_ingot", 4, 5))

	summary := mustResult(t, m.QuerySummary(ctx, "iron_ingot"))
	require.Len(t, summary.SellSummary, 1)
	assert.Equal(t, int64(14), summary.SellSummary[0].TotalUnits)
	assert.Equal(t, int64(5), summary.InstantBuyPrice)

	_, err := m.QuerySummary(ctx, "no_such_product").Result()
	assert.ErrorIs(t, err, market.ErrUnknownProduct)
}

func TestInstantBuyFlow(t *testing.T) {
	m := newTestMarket()
	ctx := context.Background()

	mustResult(t, m.MakeSellOrder(ctx, "alice", "iron_ingot", 10, 5))
	mustResult(t, m.MakeSellOrder(ctx, "alice", "iron_ingot", 5, 7))

	result := mustResult(t, m.InstantBuy(ctx, "bob", "iron_ingot", 12, 100))
	assert.Equal(t, int64(12), result.UnitsMoved)
	assert.Equal(t, int64(0), result.UnitsLeft)
	assert.Equal(t, int64(64), result.MoneyMoved)
	assert.Equal(t, int64(36), result.BalanceLeft)

	// Books on other products are untouched.
	summary := mustResult(t, m.QuerySummary(ctx, "gold_ingot"))
	assert.Empty(t, summary.SellSummary)
}

func TestInstantSellFlow(t *testing.T) {
	m := newTestMarket()
	ctx := context.Background()

	mustResult(t, m.MakeBuyOrder(ctx, "alice", "iron_ingot", 8, 6))

	result := mustResult(t, m.InstantSell(ctx, "bob", "iron_ingot", 3))
	assert.Equal(t, int64(3), result.UnitsMoved)
	assert.Equal(t, int64(18), result.MoneyMoved)
	assert.Equal(t, int64(0), result.UnitsLeft)
}

func TestFilledOfferStaysClaimable(t *testing.T) {
	m := newTestMarket()
	ctx := context.Background()

	offer := mustResult(t, m.MakeSellOrder(ctx, "alice", "iron_ingot", 10, 5))
	mustResult(t, m.InstantBuy(ctx, "bob", "iron_ingot", 10, 100))

	// Filled and off the book, but still visible and claimable.
	summary := mustResult(t, m.QuerySummary(ctx, "iron_ingot"))
	assert.Empty(t, summary.SellSummary)

	got := mustResult(t, m.QueryOrder(ctx, offer.ID()))
	assert.True(t, got.IsFilled())

	claim := mustResult(t, m.ClaimOrder(ctx, "alice", offer.ID()))
	assert.Equal(t, int64(50), claim.AmountReceived)
	assert.Equal(t, int64(0), claim.UnitsRefunded)

	_, err := m.QueryOrder(ctx, offer.ID()).Result()
	assert.ErrorIs(t, err, market.ErrUnknownOffer)
}

func TestClaimPartiallyFilledSell(t *testing.T) {
	m := newTestMarket()
	ctx := context.Background()

	offer := mustResult(t, m.MakeSellOrder(ctx, "alice", "iron_ingot", 10, 5))
	mustResult(t, m.InstantBuy(ctx, "bob", "iron_ingot", 4, 100))

	claim := mustResult(t, m.ClaimOrder(ctx, "alice", offer.ID()))
	assert.Equal(t, int64(20), claim.AmountReceived)
	assert.Equal(t, int64(6), claim.UnitsRefunded)
	assert.Equal(t, int64(0), claim.UnitsReceived)

	// The claimed offer is off the book.
	summary := mustResult(t, m.QuerySummary(ctx, "iron_ingot"))
	assert.Empty(t, summary.SellSummary)
}

func TestClaimPartiallyFilledBuy(t *testing.T) {
	m := newTestMarket()
	ctx := context.Background()

	offer := mustResult(t, m.MakeBuyOrder(ctx, "alice", "iron_ingot", 10, 5))
	mustResult(t, m.InstantSell(ctx, "bob", "iron_ingot", 3))

	claim := mustResult(t, m.ClaimOrder(ctx, "alice", offer.ID()))
	assert.Equal(t, int64(3), claim.UnitsReceived)
	assert.Equal(t, int64(35), claim.AmountRefunded)
	assert.Equal(t, int64(0), claim.AmountReceived)
}

func TestClaimRequiresOwnership(t *testing.T) {
	m := newTestMarket()
	ctx := context.Background()

	offer := mustResult(t, m.MakeSellOrder(ctx, "alice", "iron_ingot", 10, 5))

	_, err := m.ClaimOrder(ctx, "mallory", offer.ID()).Result()
	assert.ErrorIs(t, err, market.ErrNotOfferOwner)

	_, err = m.ClaimOrder(ctx, "alice", "missing").Result()
	assert.ErrorIs(t, err, market.ErrUnknownOffer)
}

func TestOnOrderFilledEmitsOnFullFill(t *testing.T) {
	m := newTestMarket()
	ctx := context.Background()

	var filled []*market.Offer
	m.OnOrderFilled().Listen(func(o *market.Offer) { filled = append(filled, o) })

	small := mustResult(t, m.MakeSellOrder(ctx, "alice", "iron_ingot", 2, 5))
	big := mustResult(t, m.MakeSellOrder(ctx, "alice", "iron_ingot", 100, 6))

	mustResult(t, m.InstantBuy(ctx, "bob", "iron_ingot", 5, 1000))

	// Only the exhausted offer fires; the partially filled one does not.
	require.Len(t, filled, 1)
	assert.Equal(t, small.ID(), filled[0].ID())
	assert.True(t, filled[0].IsFilled())
	_ = big
}

func TestRestoreRebuildsState(t *testing.T) {
	m := newTestMarket()
	catalogue := testCatalogue()
	product, err := catalogue.Product("iron_ingot")
	require.NoError(t, err)

	resting, err := market.RestoreOffer("o1", "alice", product, market.TypeSell, 10, 4, 5)
	require.NoError(t, err)
	filled, err := market.RestoreOffer("o2", "alice", product, market.TypeBuy, 3, 3, 9)
	require.NoError(t, err)

	require.NoError(t, m.Restore(resting))
	require.NoError(t, m.Restore(filled))

	// The partially filled sell rejoins the book; the fully filled buy
	// stays claimable only.
	summary := mustResult(t, m.QuerySummary(context.Background(), "iron_ingot"))
	require.Len(t, summary.SellSummary, 1)
	assert.Equal(t, int64(6), summary.SellSummary[0].TotalUnits)
	assert.Empty(t, summary.BuySummary)

	assert.ErrorIs(t, m.Restore(resting), market.ErrOfferExists)

	live := m.LiveOffers()
	require.Len(t, live, 2)
	assert.Equal(t, "o1", live[0].ID())
	assert.Equal(t, "o2", live[1].ID())
}
