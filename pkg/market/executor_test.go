package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestInstantBuyWalksAscendingPrices(t *testing.T) {
	book := NewBook(testProduct())
	cheap := mustOffer(t, book, "cheap", TypeSell, 10, 5)
	pricey := mustOffer(t, book, "pricey", TypeSell, 5, 7)

	result, err := ExecuteInstantBuy(book.Iterator(TypeSell), 100, 12)
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.UnitsLeft)
	assert.Equal(t, int64(12), result.UnitsMoved)
	// 10 units at 5 then 2 units at 7: 100 - 50 - 14.
	assert.Equal(t, int64(36), result.Balance)

	assert.True(t, cheap.IsFilled())
	assert.Equal(t, int64(2), pricey.FilledUnits())
	assert.Equal(t, 1, book.Len(TypeSell))
	assert.Equal(t, "pricey", book.Offers(TypeSell)[0].ID())
}

func TestInstantBuyStopsWhenUnaffordable(t *testing.T) {
	book := NewBook(testProduct())
	offer := mustOffer(t, book, "a", TypeSell, 10, 5)

	result, err := ExecuteInstantBuy(book.Iterator(TypeSell), 20, 100)
	require.NoError(t, err)

	// Only 4 units fit in a balance of 20.
	assert.Equal(t, int64(4), result.UnitsMoved)
	assert.Equal(t, int64(96), result.UnitsLeft)
	assert.Equal(t, int64(0), result.Balance)

	assert.Equal(t, int64(4), offer.FilledUnits())
	assert.Equal(t, 1, book.Len(TypeSell))
}

func TestInstantBuyEmptyBook(t *testing.T) {
	book := NewBook(testProduct())

	result, err := ExecuteInstantBuy(book.Iterator(TypeSell), 100, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(10), result.UnitsLeft)
	assert.Equal(t, int64(0), result.UnitsMoved)
	assert.Equal(t, int64(100), result.Balance)
}

func TestInstantBuyShortCircuitsOnPrice(t *testing.T) {
	book := NewBook(testProduct())
	mustOffer(t, book, "a", TypeSell, 1, 3)
	untouched := mustOffer(t, book, "b", TypeSell, 1, 50)

	result, err := ExecuteInstantBuy(book.Iterator(TypeSell), 10, 5)
	require.NoError(t, err)

	// The second level is unaffordable, so the walk stops there even
	// though units remain.
	assert.Equal(t, int64(1), result.UnitsMoved)
	assert.Equal(t, int64(7), result.Balance)
	assert.Equal(t, int64(0), untouched.FilledUnits())
}

func TestInstantBuyValidation(t *testing.T) {
	book := NewBook(testProduct())

	_, err := ExecuteInstantBuy(book.Iterator(TypeSell), 100, 0)
	assert.ErrorIs(t, err, ErrInvalidUnits)

	_, err = ExecuteInstantBuy(book.Iterator(TypeSell), -1, 10)
	assert.ErrorIs(t, err, ErrInvalidBalance)
}

func TestInstantSellWalksDescendingPrices(t *testing.T) {
	book := NewBook(testProduct())
	best := mustOffer(t, book, "best", TypeBuy, 4, 9)
	rest := mustOffer(t, book, "rest", TypeBuy, 10, 6)

	result, err := ExecuteInstantSell(book.Iterator(TypeBuy), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.UnitsLeft)
	assert.Equal(t, int64(7), result.UnitsMoved)
	// 4 units at 9 then 3 units at 6.
	assert.Equal(t, int64(54), result.Balance)

	assert.True(t, best.IsFilled())
	assert.Equal(t, int64(3), rest.FilledUnits())
	assert.Equal(t, 1, book.Len(TypeBuy))
}

func TestInstantSellExhaustsSide(t *testing.T) {
	book := NewBook(testProduct())
	mustOffer(t, book, "a", TypeBuy, 5, 6)

	result, err := ExecuteInstantSell(book.Iterator(TypeBuy), 20)
	require.NoError(t, err)

	assert.Equal(t, int64(15), result.UnitsLeft)
	assert.Equal(t, int64(5), result.UnitsMoved)
	assert.Equal(t, int64(30), result.Balance)
	assert.Equal(t, 0, book.Len(TypeBuy))
}

func TestInstantSellValidation(t *testing.T) {
	book := NewBook(testProduct())

	_, err := ExecuteInstantSell(book.Iterator(TypeBuy), 0)
	assert.ErrorIs(t, err, ErrInvalidUnits)
}

func TestInstantBuyConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		product := testProduct()
		book := NewBook(product)

		count := rapid.IntRange(0, 20).Draw(t, "offers")
		var totalResting int64
		for i := 0; i < count; i++ {
			units := rapid.Int64Range(1, 50).Draw(t, "units")
			price := rapid.Int64Range(1, 30).Draw(t, "price")
			offer, err := NewOffer(rapid.StringMatching(`o[0-9a-f]{8}`).Draw(t, "id"),
				"seller", product, TypeSell, units, price)
			if err != nil {
				t.Fatalf("offer: %v", err)
			}
			if err := book.Insert(offer); err != nil {
				t.Fatalf("insert: %v", err)
			}
			totalResting += units
		}

		offers := book.Offers(TypeSell)
		balance := rapid.Int64Range(0, 5000).Draw(t, "balance")
		units := rapid.Int64Range(1, 200).Draw(t, "units")

		result, err := ExecuteInstantBuy(book.Iterator(TypeSell), balance, units)
		if err != nil {
			t.Fatalf("execute: %v", err)
		}

		if result.UnitsMoved+result.UnitsLeft != units {
			t.Fatalf("units not conserved: moved=%d left=%d requested=%d",
				result.UnitsMoved, result.UnitsLeft, units)
		}

		var moved, spent int64
		for _, o := range offers {
			moved += o.FilledUnits()
			spent += o.FilledUnits() * o.PricePerUnit()
			if o.FilledUnits() > o.TotalUnits() {
				t.Fatalf("offer %s over-filled", o.ID())
			}
		}
		if moved != result.UnitsMoved {
			t.Fatalf("fills disagree with result: %d vs %d", moved, result.UnitsMoved)
		}
		if balance-spent != result.Balance {
			t.Fatalf("money not conserved: balance=%d spent=%d result=%d",
				balance, spent, result.Balance)
		}
		if result.Balance < 0 {
			t.Fatalf("balance went negative: %d", result.Balance)
		}

		// Cheaper offers fill before pricier ones: a partially touched
		// offer means everything cheaper is fully filled.
		for i := 1; i < len(offers); i++ {
			if offers[i].FilledUnits() > 0 && !offers[i-1].IsFilled() {
				t.Fatalf("filled %s before exhausting cheaper %s",
					offers[i].ID(), offers[i-1].ID())
			}
		}
	})
}
