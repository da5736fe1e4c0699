package market

import (
	"fmt"
	"strings"

	"github.com/google/btree"
)

const sideTreeDegree = 16

// buyLess orders the buy side best-bid first: price descending, then
// insertion sequence ascending (FIFO at a price level).
func buyLess(a, b *Offer) bool {
	if a.pricePerUnit != b.pricePerUnit {
		return a.pricePerUnit > b.pricePerUnit
	}
	return a.seq < b.seq
}

// sellLess orders the sell side best-ask first: price ascending, then
// insertion sequence ascending.
func sellLess(a, b *Offer) bool {
	if a.pricePerUnit != b.pricePerUnit {
		return a.pricePerUnit < b.pricePerUnit
	}
	return a.seq < b.seq
}

// bookSide holds one side of a product's book in priority order.
type bookSide struct {
	tree *btree.BTreeG[*Offer]
}

func newBookSide(offerType OfferType) *bookSide {
	less := sellLess
	if offerType == TypeBuy {
		less = buyLess
	}
	return &bookSide{tree: btree.NewG(sideTreeDegree, less)}
}

// Book is the per-product collection of resting offers, split by side.
// The book exclusively owns its Offer instances and is only ever mutated
// from inside the serialized service worker, so it carries no lock of
// its own.
type Book struct {
	product *Product
	buys    *bookSide
	sells   *bookSide
	nextSeq uint64
}

// NewBook creates an empty book for the given product.
func NewBook(product *Product) *Book {
	return &Book{
		product: product,
		buys:    newBookSide(TypeBuy),
		sells:   newBookSide(TypeSell),
	}
}

// Product returns the product this book trades.
func (b *Book) Product() *Product {
	return b.product
}

func (b *Book) side(t OfferType) *bookSide {
	if t == TypeBuy {
		return b.buys
	}
	return b.sells
}

// Insert adds an offer to its side of the book, stamping the insertion
// sequence that breaks price-level ties.
func (b *Book) Insert(offer *Offer) error {
	if offer.product.ID() != b.product.ID() {
		return ErrUnknownProduct
	}

	b.nextSeq++
	offer.seq = b.nextSeq
	b.side(offer.offerType).tree.ReplaceOrInsert(offer)
	return nil
}

// Remove deletes an offer from its side. Returns false if the offer was
// not resting on the book.
func (b *Book) Remove(offer *Offer) bool {
	_, removed := b.side(offer.offerType).tree.Delete(offer)
	return removed
}

// Len returns the number of resting offers on one side.
func (b *Book) Len(t OfferType) int {
	return b.side(t).tree.Len()
}

// Offers returns one side's offers in priority order (best price first).
func (b *Book) Offers(t OfferType) []*Offer {
	side := b.side(t)
	out := make([]*Offer, 0, side.tree.Len())
	side.tree.Ascend(func(o *Offer) bool {
		out = append(out, o)
		return true
	})
	return out
}

// Iterator returns a removal-capable iterator over one side in priority
// order. This is the only view of the book the instant executor gets.
func (b *Book) Iterator(t OfferType) *SideIterator {
	return &SideIterator{
		side:   b.side(t),
		offers: b.Offers(t),
		idx:    -1,
	}
}

// String implements fmt.Stringer interface
func (b *Book) String() string {
	sb := strings.Builder{}

	sb.WriteString("Sell:")
	for _, o := range b.Offers(TypeSell) {
		sb.WriteString(fmt.Sprintf("\n%d -> %d/%d units", o.pricePerUnit, o.AvailableUnits(), o.totalUnits))
	}
	sb.WriteString("\nBuy:")
	for _, o := range b.Offers(TypeBuy) {
		sb.WriteString(fmt.Sprintf("\n%d -> %d/%d units", o.pricePerUnit, o.AvailableUnits(), o.totalUnits))
	}

	return sb.String()
}

// SideIterator walks one book side in priority order and can remove the
// offer it currently points at. It iterates over a snapshot taken at
// creation, so removal does not disturb the walk.
type SideIterator struct {
	side   *bookSide
	offers []*Offer
	idx    int
}

// Next advances the iterator. Returns false when the side is exhausted.
func (it *SideIterator) Next() bool {
	it.idx++
	return it.idx < len(it.offers)
}

// Offer returns the offer at the current position.
func (it *SideIterator) Offer() *Offer {
	return it.offers[it.idx]
}

// Remove deletes the current offer from the underlying book side.
func (it *SideIterator) Remove() {
	it.side.tree.Delete(it.offers[it.idx])
}
