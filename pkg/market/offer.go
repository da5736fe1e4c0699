package market

import "encoding/json"

// OfferType represents the side of a resting offer.
type OfferType int

// Offer types
const (
	TypeSell OfferType = iota
	TypeBuy
)

// String returns the offer type as string
func (t OfferType) String() string {
	switch t {
	case TypeBuy:
		return "BUY"
	case TypeSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the other side of the book.
func (t OfferType) Opposite() OfferType {
	if t == TypeBuy {
		return TypeSell
	}
	return TypeBuy
}

// Offer stores a single resting order. Units and prices are integral:
// units are whole item counts and prices are minor currency units.
// Instances are owned by the book that holds them; callers outside the
// service only ever see clones.
type Offer struct {
	id           string
	offerer      string
	product      *Product
	offerType    OfferType
	totalUnits   int64
	filledUnits  int64
	pricePerUnit int64
	seq          uint64
}

// NewOffer creates a resting offer with no filled units.
func NewOffer(id, offerer string, product *Product, offerType OfferType, totalUnits, pricePerUnit int64) (*Offer, error) {
	if totalUnits <= 0 {
		return nil, ErrInvalidUnits
	}

	if pricePerUnit <= 0 {
		return nil, ErrInvalidPrice
	}

	return &Offer{
		id:           id,
		offerer:      offerer,
		product:      product,
		offerType:    offerType,
		totalUnits:   totalUnits,
		pricePerUnit: pricePerUnit,
	}, nil
}

// RestoreOffer rebuilds an offer from persisted state, including a
// partially filled one.
func RestoreOffer(id, offerer string, product *Product, offerType OfferType, totalUnits, filledUnits, pricePerUnit int64) (*Offer, error) {
	if filledUnits < 0 || filledUnits > totalUnits {
		return nil, ErrInvalidUnits
	}

	offer, err := NewOffer(id, offerer, product, offerType, totalUnits, pricePerUnit)
	if err != nil {
		return nil, err
	}

	offer.filledUnits = filledUnits
	return offer, nil
}

// ID returns the offer identifier.
func (o *Offer) ID() string {
	return o.id
}

// Offerer returns the identifier of the user that placed the offer.
func (o *Offer) Offerer() string {
	return o.offerer
}

// Product returns the product the offer trades.
func (o *Offer) Product() *Product {
	return o.product
}

// Type returns BUY or SELL.
func (o *Offer) Type() OfferType {
	return o.offerType
}

// TotalUnits returns the quantity the offer was placed with.
func (o *Offer) TotalUnits() int64 {
	return o.totalUnits
}

// FilledUnits returns how many units have been matched so far.
func (o *Offer) FilledUnits() int64 {
	return o.filledUnits
}

// AvailableUnits returns the units still open for matching.
func (o *Offer) AvailableUnits() int64 {
	return o.totalUnits - o.filledUnits
}

// PricePerUnit returns the offer price in minor currency units.
func (o *Offer) PricePerUnit() int64 {
	return o.pricePerUnit
}

// IsFilled reports whether every unit has been matched.
func (o *Offer) IsFilled() bool {
	return o.filledUnits == o.totalUnits
}

// Fill records units matched against this offer. The no-over-fill
// invariant is enforced here rather than trusted to callers.
func (o *Offer) Fill(units int64) error {
	if units < 0 {
		return ErrInvalidUnits
	}

	if o.filledUnits+units > o.totalUnits {
		return ErrOverfill
	}

	o.filledUnits += units
	return nil
}

// Clone returns a snapshot copy safe to hand outside the serialized
// writer. The sequence number is not part of the snapshot.
func (o *Offer) Clone() *Offer {
	clone := *o
	clone.seq = 0
	return &clone
}

// MarshalJSON implements json.Marshaler.
func (o *Offer) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID           string `json:"id"`
		Offerer      string `json:"offerer"`
		ProductID    string `json:"productId"`
		Type         string `json:"type"`
		TotalUnits   int64  `json:"totalUnits"`
		FilledUnits  int64  `json:"filledUnits"`
		PricePerUnit int64  `json:"pricePerUnit"`
	}{
		ID:           o.id,
		Offerer:      o.offerer,
		ProductID:    o.product.ID(),
		Type:         o.offerType.String(),
		TotalUnits:   o.totalUnits,
		FilledUnits:  o.filledUnits,
		PricePerUnit: o.pricePerUnit,
	})
}

// String implements fmt.Stringer interface
func (o *Offer) String() string {
	j, _ := o.MarshalJSON()
	return string(j)
}
