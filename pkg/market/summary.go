package market

// SummaryEntry is one aggregation bucket: a distinct price level and the
// open units resting at it. Derived, never persisted.
type SummaryEntry struct {
	PricePerUnit int64 `json:"pricePerUnit"`
	TotalUnits   int64 `json:"totalUnits"`
}

// ProductSummary is a read-only view of a book's depth and implied
// instant prices. Both summaries keep the book's sort order, so the
// first entry is always best-price. Computed at construction time and
// immutable afterward.
type ProductSummary struct {
	Product     *Product       `json:"product"`
	BuySummary  []SummaryEntry `json:"buySummary"`
	SellSummary []SummaryEntry `json:"sellSummary"`

	// InstantBuyPrice is the volume-weighted average over the sell
	// side: what a buyer would pay per unit right now. Zero when the
	// sell side is empty.
	InstantBuyPrice int64 `json:"instantBuyPrice"`
	// InstantSellPrice is the volume-weighted average over the buy
	// side. Zero when the buy side is empty.
	InstantSellPrice int64 `json:"instantSellPrice"`
}

// Summarize reduces the current book state into a ProductSummary.
func Summarize(book *Book) *ProductSummary {
	buy := summarizeSide(book, TypeBuy)
	sell := summarizeSide(book, TypeSell)

	return &ProductSummary{
		Product:          book.Product(),
		BuySummary:       buy,
		SellSummary:      sell,
		InstantBuyPrice:  volumeWeightedPrice(sell),
		InstantSellPrice: volumeWeightedPrice(buy),
	}
}

// summarizeSide groups a side's offers by price level. Offers arrive in
// priority order, so equal prices are always adjacent.
func summarizeSide(book *Book, t OfferType) []SummaryEntry {
	entries := make([]SummaryEntry, 0)
	for _, offer := range book.Offers(t) {
		units := offer.AvailableUnits()
		if units == 0 {
			continue
		}

		if n := len(entries); n > 0 && entries[n-1].PricePerUnit == offer.PricePerUnit() {
			entries[n-1].TotalUnits += units
			continue
		}

		entries = append(entries, SummaryEntry{
			PricePerUnit: offer.PricePerUnit(),
			TotalUnits:   units,
		})
	}
	return entries
}

// volumeWeightedPrice computes sum(units*price)/sum(units), truncated
// toward zero. Zero total units yields zero, a defined outcome rather
// than a division error.
func volumeWeightedPrice(entries []SummaryEntry) int64 {
	var totalUnits, totalValue int64
	for _, e := range entries {
		totalUnits += e.TotalUnits
		totalValue += e.TotalUnits * e.PricePerUnit
	}

	if totalUnits == 0 {
		return 0
	}

	return totalValue / totalUnits
}
