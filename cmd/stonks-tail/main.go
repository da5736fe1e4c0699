// Command stonks-tail follows the fill-notification topic and pretty
// prints every message, for development against a local broker.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nahkd123/stonks-sub001/pkg/messaging"
	"github.com/nahkd123/stonks-sub001/pkg/messaging/kafka"
)

func main() {
	brokers := flag.String("brokers", "localhost:9092", "Comma-separated Kafka broker list")
	topic := flag.String("topic", "stonks-fills", "Fill topic to follow")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	consumer, err := kafka.NewFillConsumer(strings.Split(*brokers, ","), *topic, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect consumer")
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	logger.Info().Str("topic", *topic).Msg("Following fill messages")
	err = consumer.ConsumeFillMessages(ctx, func(msg *messaging.FillMessage) error {
		logger.Info().
			Str("offer_id", msg.OfferID).
			Str("offerer", msg.Offerer).
			Str("product", msg.ProductID).
			Str("type", msg.Type).
			Int64("units", msg.TotalUnits).
			Int64("price", msg.PricePerUnit).
			Msg("Offer filled")
		return nil
	})
	if err != nil && err != context.Canceled {
		logger.Error().Err(err).Msg("Consumer stopped")
	}
}
