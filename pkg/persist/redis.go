package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nahkd123/stonks-sub001/pkg/market"
)

// RedisStore snapshots offers into Redis: one binary record per offer
// under "{prefix}:offer:{id}" plus a "{prefix}:offers" id set. Like the
// file store, load failures degrade to an empty book.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisStore creates a store using client under the given key prefix.
func NewRedisStore(client *redis.Client, prefix string, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (s *RedisStore) offerKey(id string) string {
	return s.prefix + ":offer:" + id
}

func (s *RedisStore) setKey() string {
	return s.prefix + ":offers"
}

// Save replaces the stored snapshot with offers.
func (s *RedisStore) Save(ctx context.Context, offers []*market.Offer) error {
	stale, err := s.client.SMembers(ctx, s.setKey()).Result()
	if err != nil && err != redis.Nil {
		s.logger.Error("Failed to list existing offer keys",
			zap.String("prefix", s.prefix),
			zap.Error(err))
		return err
	}

	pipe := s.client.TxPipeline()
	for _, id := range stale {
		pipe.Del(ctx, s.offerKey(id))
	}
	pipe.Del(ctx, s.setKey())

	for _, offer := range offers {
		data, err := encodeOffer(offer)
		if err != nil {
			s.logger.Error("Failed to encode offer",
				zap.String("offerID", offer.ID()),
				zap.Error(err))
			return err
		}
		pipe.Set(ctx, s.offerKey(offer.ID()), data, 0)
		pipe.SAdd(ctx, s.setKey(), offer.ID())
	}

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("Failed to save offer snapshot",
			zap.String("prefix", s.prefix),
			zap.Error(err))
		return err
	}

	s.logger.Debug("Saved offer snapshot",
		zap.String("prefix", s.prefix),
		zap.Int("offers", len(offers)))
	return nil
}

// Load reads the snapshot back. Individual unreadable records are
// skipped and logged rather than failing the whole load.
func (s *RedisStore) Load(ctx context.Context, resolver ProductResolver) []*market.Offer {
	ids, err := s.client.SMembers(ctx, s.setKey()).Result()
	if err != nil && err != redis.Nil {
		s.logger.Error("Failed to load offer snapshot, starting empty",
			zap.String("prefix", s.prefix),
			zap.Error(err))
		return nil
	}

	offers := make([]*market.Offer, 0, len(ids))
	for _, id := range ids {
		data, err := s.client.Get(ctx, s.offerKey(id)).Bytes()
		if err != nil {
			s.logger.Warn("Skipping unreadable offer record",
				zap.String("offerID", id),
				zap.Error(err))
			continue
		}

		offer, err := decodeOffer(data, resolver)
		if err != nil {
			s.logger.Warn("Skipping corrupt offer record",
				zap.String("offerID", id),
				zap.Error(err))
			continue
		}
		offers = append(offers, offer)
	}

	s.logger.Info("Loaded offer snapshot",
		zap.String("prefix", s.prefix),
		zap.Int("offers", len(offers)))
	return offers
}

// encodeOffer renders one offer as a single-record stream.
func encodeOffer(offer *market.Offer) ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteOffer(offer); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeOffer reads one offer from a single-record stream.
func decodeOffer(data []byte, resolver ProductResolver) (*market.Offer, error) {
	offer, err := NewReader(bytes.NewReader(data), resolver).ReadOffer()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty record", market.ErrCorruptOfferRecord)
	}
	if err != nil {
		return nil, err
	}
	return offer, nil
}
