package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"go.uber.org/zap"

	"github.com/nahkd123/stonks-sub001/config"
	"github.com/nahkd123/stonks-sub001/pkg/catalogue"
	"github.com/nahkd123/stonks-sub001/pkg/logging"
	"github.com/nahkd123/stonks-sub001/pkg/market"
	"github.com/nahkd123/stonks-sub001/pkg/messaging"
	"github.com/nahkd123/stonks-sub001/pkg/messaging/kafka"
	"github.com/nahkd123/stonks-sub001/pkg/persist"
	"github.com/nahkd123/stonks-sub001/pkg/service"
)

// snapshotStore abstracts the file and Redis stores for the autosave
// loop.
type snapshotStore interface {
	Save(offers []*market.Offer) error
	Load(resolver persist.ProductResolver) []*market.Offer
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup logging
	logging.Setup(logging.Config{
		Level:  cfg.Server.LogLevel,
		Pretty: cfg.Server.LogFormat == "pretty",
	})
	logger := zlog.Logger

	ctx := logger.WithContext(context.Background())

	cat, err := catalogue.Load(cfg.Market.CataloguePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Market.CataloguePath).Msg("Failed to load catalogue")
	}
	logger.Info().Int("products", len(cat.Products())).Msg("Catalogue loaded")

	// Assemble the service through the provider registry.
	registry := service.NewRegistry()
	if err := registry.Register("memory", func(cat *market.Catalogue, logger zerolog.Logger) (service.Service, error) {
		return service.NewMarket(cat, logger), nil
	}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register memory provider")
	}

	inner, err := registry.New(cfg.Market.Provider, cat, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.Market.Provider).Msg("Failed to create service")
	}

	mkt, ok := inner.(*service.Market)
	if !ok {
		logger.Fatal().Str("provider", cfg.Market.Provider).Msg("Provider does not support snapshots")
	}

	store := setupStore(cfg, logger)
	for _, offer := range store.Load(cat) {
		if err := mkt.Restore(offer); err != nil {
			logger.Warn().Err(err).Str("offer_id", offer.ID()).Msg("Skipping unrestorable offer")
		}
	}

	var svc service.Service = inner
	if cfg.Instability.Enabled {
		logger.Warn().
			Float64("fail_rate", cfg.Instability.FailRate).
			Dur("max_delay", cfg.Instability.MaxDelay).
			Msg("Instability injection enabled")
		svc = service.NewUnstable(svc, cfg.Instability.FailRate, cfg.Instability.MaxDelay, logger)
	}
	queued := service.NewQueued(svc)

	// Forward fills to Kafka if configured.
	var sender messaging.MessageSender
	if cfg.Kafka.Enabled {
		sender, err = kafka.NewKafkaMessageSender(cfg.Kafka.BrokerAddr, cfg.Kafka.Topic)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create Kafka sender - continuing without Kafka support")
		} else {
			defer sender.Close()
			forwardFills(ctx, queued, sender, logger)
		}
	}

	// Autosave loop.
	autosaveCtx, stopAutosave := context.WithCancel(ctx)
	defer stopAutosave()
	go func() {
		ticker := time.NewTicker(cfg.Persist.AutosaveEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				saveSnapshot(autosaveCtx, queued, mkt, store, logger)
			case <-autosaveCtx.Done():
				return
			}
		}
	}()

	logger.Info().Str("provider", cfg.Market.Provider).Msg("Market service running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")

	stopAutosave()
	saveSnapshot(ctx, queued, mkt, store, logger)
	if err := queued.Close(); err != nil {
		logger.Error().Err(err).Msg("Service shutdown error")
	}
	logger.Info().Msg("Shutdown complete")
}

func setupStore(cfg *config.Config, logger zerolog.Logger) snapshotStore {
	if cfg.Persist.UseRedisBackend {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Persist.RedisAddr,
			Password: cfg.Persist.RedisPassword,
			DB:       cfg.Persist.RedisDB,
		})
		zapLogger, _ := zap.NewProduction()
		return &redisStoreAdapter{
			store: persist.NewRedisStore(client, cfg.Persist.RedisKeyPrefix, zapLogger),
		}
	}
	return persist.NewFileStore(cfg.Persist.SnapshotPath, logger)
}

// redisStoreAdapter binds the context-taking Redis store to the
// snapshotStore shape.
type redisStoreAdapter struct {
	store *persist.RedisStore
}

func (a *redisStoreAdapter) Save(offers []*market.Offer) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.store.Save(ctx, offers)
}

func (a *redisStoreAdapter) Load(resolver persist.ProductResolver) []*market.Offer {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.store.Load(ctx, resolver)
}

// forwardFills publishes every full fill to Kafka. Sending happens off
// the emitter's goroutine so a slow broker cannot stall the matching
// worker.
func forwardFills(ctx context.Context, svc service.Service, sender messaging.MessageSender, logger zerolog.Logger) {
	svc.OnOrderFilled().Listen(func(offer *market.Offer) {
		msg := messaging.NewFillMessage(offer)
		go func() {
			if err := sender.SendFillMessage(ctx, msg); err != nil {
				logger.Error().Err(err).Str("offer_id", msg.OfferID).Msg("Failed to publish fill message")
			}
		}()
	})
}

// saveSnapshot drains the queue before reading book state so the
// snapshot never observes a half-applied mutation.
func saveSnapshot(ctx context.Context, queued *service.Queued, mkt *service.Market, store snapshotStore, logger zerolog.Logger) {
	flushCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := queued.Flush(flushCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to flush queue before snapshot")
		return
	}

	if err := store.Save(mkt.LiveOffers()); err != nil {
		logger.Error().Err(err).Msg("Snapshot save failed")
	}
}
