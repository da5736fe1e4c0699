package market

// InstantResult reports what an instant execution moved. Partial fills
// are a normal terminal state, not an error.
type InstantResult struct {
	// Units still unmatched when the walk stopped.
	UnitsLeft int64
	// Units matched against resting offers.
	UnitsMoved int64
	// Balance after the walk. For buys this is what remains of the
	// caller's balance; for sells it is the proceeds credited.
	Balance int64
}

// ExecuteInstantBuy greedily matches a buy request against sell offers
// delivered by the iterator in ascending price order. Each step buys
// min(offer available, affordable at that price, units remaining); a
// zero step means the best remaining price is unaffordable and, since
// prices only increase further down the side, the walk short-circuits.
// Fully filled offers are removed through the iterator so they are never
// matched again.
//
// Must only run inside the serialized service worker; the iterator
// mutates live book state.
func ExecuteInstantBuy(it *SideIterator, balance, units int64) (*InstantResult, error) {
	if units <= 0 {
		return nil, ErrInvalidUnits
	}

	if balance < 0 {
		return nil, ErrInvalidBalance
	}

	remaining := units
	for remaining > 0 && it.Next() {
		offer := it.Offer()
		price := offer.PricePerUnit()

		affordable := balance / price
		toBuy := min(offer.AvailableUnits(), affordable, remaining)
		if toBuy == 0 {
			break
		}

		if err := offer.Fill(toBuy); err != nil {
			return nil, err
		}

		balance -= toBuy * price
		remaining -= toBuy

		if offer.IsFilled() {
			it.Remove()
		}
	}

	return &InstantResult{
		UnitsLeft:  remaining,
		UnitsMoved: units - remaining,
		Balance:    balance,
	}, nil
}

// ExecuteInstantSell matches a sell request against buy offers delivered
// in descending price order. Unlike the buy walk there is no
// affordability constraint on the seller; the walk stops only when units
// run out or the side is exhausted.
func ExecuteInstantSell(it *SideIterator, units int64) (*InstantResult, error) {
	if units <= 0 {
		return nil, ErrInvalidUnits
	}

	var earned int64
	remaining := units
	for remaining > 0 && it.Next() {
		offer := it.Offer()

		toSell := min(offer.AvailableUnits(), remaining)
		if err := offer.Fill(toSell); err != nil {
			return nil, err
		}

		earned += toSell * offer.PricePerUnit()
		remaining -= toSell

		if offer.IsFilled() {
			it.Remove()
		}
	}

	return &InstantResult{
		UnitsLeft:  remaining,
		UnitsMoved: units - remaining,
		Balance:    earned,
	}, nil
}
