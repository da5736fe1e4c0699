// Command loadtest hammers the serialized queue with concurrent
// submitters and reports completion-latency percentiles.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/nahkd123/stonks-sub001/pkg/market"
	"github.com/nahkd123/stonks-sub001/pkg/service"
)

func main() {
	workers := flag.Int("workers", 64, "Number of concurrent submitters")
	ordersPerWorker := flag.Int("orders", 500, "Orders submitted per worker")
	maxRate := flag.Float64("rate", 10000, "Max submissions per second")
	flag.Parse()

	logger := zerolog.New(os.Stderr).Level(zerolog.ErrorLevel)

	product := market.NewProduct("load", "Load Test Product", "")
	cat := market.NewCatalogue([]*market.Category{
		market.NewCategory("load", "Load", []*market.Product{product}),
	})
	svc := service.NewQueued(service.NewMarket(cat, logger))
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*maxRate), int(*maxRate))
	hist := hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3)
	var histMu sync.Mutex

	var wg sync.WaitGroup
	start := time.Now()
	log.Printf("Starting %d workers, %d orders per worker...", *workers, *ordersPerWorker)

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(workerID)))

			for j := 0; j < *ordersPerWorker; j++ {
				if err := limiter.Wait(ctx); err != nil {
					return
				}

				user := fmt.Sprintf("worker-%d", workerID)
				units := rng.Int63n(20) + 1
				price := rng.Int63n(50) + 1

				submitted := time.Now()
				var err error
				switch rng.Intn(4) {
				case 0:
					_, err = svc.MakeBuyOrder(ctx, user, product.ID(), units, price).Wait(ctx)
				case 1:
					_, err = svc.MakeSellOrder(ctx, user, product.ID(), units, price).Wait(ctx)
				case 2:
					_, err = svc.InstantBuy(ctx, user, product.ID(), units, units*price).Wait(ctx)
				default:
					_, err = svc.InstantSell(ctx, user, product.ID(), units).Wait(ctx)
				}
				if err != nil {
					log.Printf("submission failed: %v", err)
					continue
				}

				histMu.Lock()
				_ = hist.RecordValue(time.Since(submitted).Microseconds())
				histMu.Unlock()
			}
		}(i)
	}

	wg.Wait()
	duration := time.Since(start)
	total := *workers * *ordersPerWorker

	log.Printf("Load test completed in %v", duration)
	log.Printf("Total orders: %d (%.0f/sec)", total, float64(total)/duration.Seconds())
	log.Printf("Latency p50: %v", time.Duration(hist.ValueAtQuantile(50))*time.Microsecond)
	log.Printf("Latency p95: %v", time.Duration(hist.ValueAtQuantile(95))*time.Microsecond)
	log.Printf("Latency p99: %v", time.Duration(hist.ValueAtQuantile(99))*time.Microsecond)
	log.Printf("Latency max: %v", time.Duration(hist.Max())*time.Microsecond)
}
