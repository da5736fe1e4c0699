package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeEmptyBook(t *testing.T) {
	book := NewBook(testProduct())

	summary := Summarize(book)
	assert.Empty(t, summary.BuySummary)
	assert.Empty(t, summary.SellSummary)
	assert.Equal(t, int64(0), summary.InstantBuyPrice)
	assert.Equal(t, int64(0), summary.InstantSellPrice)
}

func TestSummarizeGroupsPriceLevels(t *testing.T) {
	book := NewBook(testProduct())
	mustOffer(t, book, "a", TypeSell, 10, 5)
	mustOffer(t, book, "b", TypeSell, 4, 5)
	mustOffer(t, book, "c", TypeSell, 3, 7)

	summary := Summarize(book)
	require.Len(t, summary.SellSummary, 2)
	assert.Equal(t, SummaryEntry{PricePerUnit: 5, TotalUnits: 14}, summary.SellSummary[0])
	assert.Equal(t, SummaryEntry{PricePerUnit: 7, TotalUnits: 3}, summary.SellSummary[1])
}

func TestSummarizeCountsAvailableNotTotal(t *testing.T) {
	book := NewBook(testProduct())
	partial := mustOffer(t, book, "a", TypeSell, 10, 5)
	require.NoError(t, partial.Fill(6))

	summary := Summarize(book)
	require.Len(t, summary.SellSummary, 1)
	assert.Equal(t, int64(4), summary.SellSummary[0].TotalUnits)
}

func TestSummarizeSkipsFilledOffers(t *testing.T) {
	book := NewBook(testProduct())
	filled := mustOffer(t, book, "a", TypeSell, 10, 5)
	require.NoError(t, filled.Fill(10))
	mustOffer(t, book, "b", TypeSell, 2, 6)

	summary := Summarize(book)
	require.Len(t, summary.SellSummary, 1)
	assert.Equal(t, int64(6), summary.SellSummary[0].PricePerUnit)
}

func TestSummaryInstantPricesTruncate(t *testing.T) {
	book := NewBook(testProduct())
	mustOffer(t, book, "a", TypeSell, 2, 5)
	mustOffer(t, book, "b", TypeSell, 1, 6)

	// (2*5 + 1*6) / 3 = 16/3 truncated to 5.
	summary := Summarize(book)
	assert.Equal(t, int64(5), summary.InstantBuyPrice)
}

func TestSummaryInstantPricesPerSide(t *testing.T) {
	book := NewBook(testProduct())
	mustOffer(t, book, "s", TypeSell, 4, 10)
	mustOffer(t, book, "b", TypeBuy, 4, 7)

	summary := Summarize(book)
	assert.Equal(t, int64(10), summary.InstantBuyPrice)
	assert.Equal(t, int64(7), summary.InstantSellPrice)
	require.Len(t, summary.BuySummary, 1)
	require.Len(t, summary.SellSummary, 1)
}
