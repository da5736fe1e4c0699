// Package persist serializes offers to a version-tagged binary record
// stream and provides file and Redis snapshot stores over it.
package persist

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/nahkd123/stonks-sub001/pkg/market"
)

// Record layout (little-endian):
//
//	version   uint8   (recordVersion, or recordSentinel for end-of-stream)
//	id        uint16 length + bytes
//	offerer   uint16 length + bytes
//	productId uint16 length + bytes
//	type      uint8   (0 = SELL, 1 = BUY)
//	total     int64
//	filled    int64
//	price     int64
const (
	recordVersion  = 1
	recordSentinel = 0

	maxStringLen = math.MaxUint16
)

// ErrUnknownVersion is returned when a record carries a version tag this
// build does not understand.
var ErrUnknownVersion = errors.New("unknown offer record version")

// ProductResolver maps a product id back to a live Product. The
// catalogue satisfies this.
type ProductResolver interface {
	Product(id string) (*market.Product, error)
}

// Writer emits offer records to a stream. Close writes the sentinel
// record that marks end-of-stream.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteOffer appends one offer record.
func (w *Writer) WriteOffer(offer *market.Offer) error {
	if err := w.w.WriteByte(recordVersion); err != nil {
		return err
	}

	for _, s := range []string{offer.ID(), offer.Offerer(), offer.Product().ID()} {
		if err := writeString(w.w, s); err != nil {
			return err
		}
	}

	var offerType byte
	if offer.Type() == market.TypeBuy {
		offerType = 1
	}
	if err := w.w.WriteByte(offerType); err != nil {
		return err
	}

	for _, v := range []int64{offer.TotalUnits(), offer.FilledUnits(), offer.PricePerUnit()} {
		if err := binary.Write(w.w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

// Close writes the end-of-stream sentinel and flushes. It does not close
// the underlying stream.
func (w *Writer) Close() error {
	if err := w.w.WriteByte(recordSentinel); err != nil {
		return err
	}
	return w.w.Flush()
}

func writeString(w *bufio.Writer, s string) error {
	if len(s) > maxStringLen {
		return fmt.Errorf("string field of %d bytes exceeds record limit", len(s))
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}

// Reader decodes offer records, resolving product ids through a
// ProductResolver.
type Reader struct {
	r        *bufio.Reader
	resolver ProductResolver
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader, resolver ProductResolver) *Reader {
	return &Reader{r: bufio.NewReader(r), resolver: resolver}
}

// ReadOffer decodes the next record. Returns io.EOF at the sentinel.
func (r *Reader) ReadOffer() (*market.Offer, error) {
	version, err := r.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			// A truncated stream with no sentinel still ends cleanly;
			// the caller decides whether that is worth reporting.
			return nil, io.EOF
		}
		return nil, err
	}

	switch version {
	case recordSentinel:
		return nil, io.EOF
	case recordVersion:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, version)
	}

	id, err := readString(r.r)
	if err != nil {
		return nil, err
	}
	offerer, err := readString(r.r)
	if err != nil {
		return nil, err
	}
	productID, err := readString(r.r)
	if err != nil {
		return nil, err
	}

	typeByte, err := r.r.ReadByte()
	if err != nil {
		return nil, corrupt(err)
	}
	offerType := market.TypeSell
	if typeByte == 1 {
		offerType = market.TypeBuy
	}

	var total, filled, price int64
	for _, dst := range []*int64{&total, &filled, &price} {
		if err := binary.Read(r.r, binary.LittleEndian, dst); err != nil {
			return nil, corrupt(err)
		}
	}

	product, err := r.resolver.Product(productID)
	if err != nil {
		return nil, fmt.Errorf("record references %q: %w", productID, err)
	}

	offer, err := market.RestoreOffer(id, offerer, product, offerType, total, filled, price)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", market.ErrCorruptOfferRecord, err)
	}
	return offer, nil
}

// ReadAll decodes records until end-of-stream.
func (r *Reader) ReadAll() ([]*market.Offer, error) {
	var offers []*market.Offer
	for {
		offer, err := r.ReadOffer()
		if errors.Is(err, io.EOF) {
			return offers, nil
		}
		if err != nil {
			return offers, err
		}
		offers = append(offers, offer)
	}
}

func readString(r *bufio.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", corrupt(err)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", corrupt(err)
	}
	return string(buf), nil
}

// corrupt maps a mid-record stream end to the corrupt-record error.
func corrupt(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return market.ErrCorruptOfferRecord
	}
	return err
}
