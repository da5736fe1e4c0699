package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahkd123/stonks-sub001/pkg/market"
)

func TestNewFillMessage(t *testing.T) {
	product := market.NewProduct("iron_ingot", "Iron Ingot", "minecraft:iron_ingot")
	offer, err := market.RestoreOffer("o1", "alice", product, market.TypeSell, 10, 10, 5)
	require.NoError(t, err)

	msg := NewFillMessage(offer)
	assert.Equal(t, &FillMessage{
		OfferID:      "o1",
		Offerer:      "alice",
		ProductID:    "iron_ingot",
		Type:         "SELL",
		TotalUnits:   10,
		PricePerUnit: 5,
	}, msg)
}

func TestMockMessageSenderRecords(t *testing.T) {
	sender := NewMockMessageSender()
	ctx := context.Background()

	require.NoError(t, sender.SendFillMessage(ctx, &FillMessage{OfferID: "a"}))
	require.NoError(t, sender.SendFillMessage(ctx, &FillMessage{OfferID: "b"}))

	messages := sender.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "a", messages[0].OfferID)
	assert.Equal(t, "b", messages[1].OfferID)
	assert.NoError(t, sender.Close())
}
