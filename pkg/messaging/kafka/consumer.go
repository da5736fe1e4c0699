package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/nahkd123/stonks-sub001/pkg/messaging"
)

// FillConsumer reads fill messages back off Kafka. Used by the tail
// tool and by soak tests that assert end-to-end delivery.
type FillConsumer struct {
	consumer sarama.Consumer
	topic    string
	logger   zerolog.Logger
}

// NewFillConsumer connects a consumer to the given brokers.
func NewFillConsumer(brokers []string, topic string, logger zerolog.Logger) (*FillConsumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Return.Errors = true

	consumer, err := sarama.NewConsumer(brokers, config)
	if err != nil {
		return nil, err
	}

	return &FillConsumer{
		consumer: consumer,
		topic:    topic,
		logger:   logger,
	}, nil
}

// ConsumeFillMessages reads new messages from every partition and hands
// decoded fills to handle until ctx is canceled. A message that fails to
// decode or a handler error is logged and skipped.
func (c *FillConsumer) ConsumeFillMessages(ctx context.Context, handle func(*messaging.FillMessage) error) error {
	partitions, err := c.consumer.Partitions(c.topic)
	if err != nil {
		return err
	}

	messages := make(chan *sarama.ConsumerMessage)
	for _, partition := range partitions {
		pc, err := c.consumer.ConsumePartition(c.topic, partition, sarama.OffsetNewest)
		if err != nil {
			return err
		}
		defer pc.Close()

		go func(pc sarama.PartitionConsumer) {
			for {
				select {
				case msg, ok := <-pc.Messages():
					if !ok {
						return
					}
					select {
					case messages <- msg:
					case <-ctx.Done():
						return
					}
				case err := <-pc.Errors():
					c.logger.Error().Err(err).Msg("Kafka consumer error")
				case <-ctx.Done():
					return
				}
			}
		}(pc)
	}

	for {
		select {
		case msg := <-messages:
			var fill messaging.FillMessage
			if err := json.Unmarshal(msg.Value, &fill); err != nil {
				c.logger.Warn().Err(err).Msg("Skipping undecodable fill message")
				continue
			}
			if err := handle(&fill); err != nil {
				c.logger.Error().Err(err).Str("offer_id", fill.OfferID).Msg("Fill handler failed")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close shuts the consumer down.
func (c *FillConsumer) Close() error {
	return c.consumer.Close()
}
