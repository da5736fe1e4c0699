// Package messaging defines the fill-notification contract that
// decouples the engine from the Kafka transport in the kafka
// subpackage.
package messaging

import (
	"context"

	"github.com/nahkd123/stonks-sub001/pkg/market"
)

// MessageSender defines an interface for publishing fill messages.
type MessageSender interface {
	SendFillMessage(ctx context.Context, msg *FillMessage) error
	Close() error
}

// FillMessage describes an offer that reached full fill.
type FillMessage struct {
	OfferID      string `json:"offerId"`
	Offerer      string `json:"offerer"`
	ProductID    string `json:"productId"`
	Type         string `json:"type"`
	TotalUnits   int64  `json:"totalUnits"`
	PricePerUnit int64  `json:"pricePerUnit"`
}

// NewFillMessage builds the wire message for a filled offer.
func NewFillMessage(offer *market.Offer) *FillMessage {
	return &FillMessage{
		OfferID:      offer.ID(),
		Offerer:      offer.Offerer(),
		ProductID:    offer.Product().ID(),
		Type:         offer.Type().String(),
		TotalUnits:   offer.TotalUnits(),
		PricePerUnit: offer.PricePerUnit(),
	}
}
