// Command stonks runs an in-process demo of the market service: it
// books a few resting offers, executes instant orders against them and
// prints the resulting product summary.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/nahkd123/stonks-sub001/pkg/market"
	"github.com/nahkd123/stonks-sub001/pkg/service"
)

func main() {
	color.NoColor = false
	cyan := color.New(color.FgCyan).SprintfFunc()
	red := color.New(color.FgRed).SprintfFunc()
	green := color.New(color.FgGreen).SprintfFunc()
	yellow := color.New(color.FgYellow).SprintfFunc()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)

	iron := market.NewProduct("iron_ingot", "Iron Ingot", "minecraft:iron_ingot")
	gold := market.NewProduct("gold_ingot", "Gold Ingot", "minecraft:gold_ingot")
	cat := market.NewCatalogue([]*market.Category{
		market.NewCategory("ores", "Ores", []*market.Product{iron, gold}),
	})

	svc := service.NewQueued(service.NewMarket(cat, logger))
	defer svc.Close()
	ctx := context.Background()

	svc.OnOrderFilled().Listen(func(offer *market.Offer) {
		fmt.Printf("%s %s filled completely (%d units @ %d)\n",
			green("[FILL]"), offer.ID()[:8], offer.TotalUnits(), offer.PricePerUnit())
	})

	fmt.Println(cyan("Booking sell offers for %s...", iron.DisplayName()))
	for _, o := range []struct{ units, price int64 }{{10, 5}, {5, 7}, {20, 6}} {
		offer, err := svc.MakeSellOrder(ctx, "alice", iron.ID(), o.units, o.price).Wait(ctx)
		if err != nil {
			fmt.Println(red("failed to book offer: %v", err))
			os.Exit(1)
		}
		fmt.Printf("  booked %s: %d units @ %d\n", offer.ID()[:8], offer.TotalUnits(), offer.PricePerUnit())
	}

	printSummary(ctx, svc, iron.ID(), yellow)

	fmt.Println(cyan("Instant buying 12 units with balance 100..."))
	res, err := svc.InstantBuy(ctx, "bob", iron.ID(), 12, 100).Wait(ctx)
	if err != nil {
		fmt.Println(red("instant buy failed: %v", err))
		os.Exit(1)
	}
	fmt.Printf("  bought %d/%d units, spent %d, balance left %d\n",
		res.UnitsMoved, res.UnitsRequested, res.MoneyMoved, res.BalanceLeft)

	printSummary(ctx, svc, iron.ID(), yellow)

	fmt.Println(cyan("Claiming alice's offers..."))
	offers, err := svc.QueryOrders(ctx, "alice").Wait(ctx)
	if err != nil {
		fmt.Println(red("query failed: %v", err))
		os.Exit(1)
	}
	for _, offer := range offers {
		claim, err := svc.ClaimOrder(ctx, "alice", offer.ID()).Wait(ctx)
		if err != nil {
			fmt.Println(red("claim failed: %v", err))
			continue
		}
		fmt.Printf("  claimed %s: received %d money, refunded %d units\n",
			claim.Offer.ID()[:8], claim.AmountReceived, claim.UnitsRefunded)
	}
}

func printSummary(ctx context.Context, svc service.Service, productID string, paint func(string, ...interface{}) string) {
	summary, err := svc.QuerySummary(ctx, productID).Wait(ctx)
	if err != nil {
		fmt.Printf("summary failed: %v\n", err)
		return
	}

	fmt.Println(paint("Summary for %s:", summary.Product.DisplayName()))
	fmt.Printf("  instant buy price: %d, instant sell price: %d\n",
		summary.InstantBuyPrice, summary.InstantSellPrice)
	for _, e := range summary.SellSummary {
		fmt.Printf("  ask %d x %d units\n", e.PricePerUnit, e.TotalUnits)
	}
	for _, e := range summary.BuySummary {
		fmt.Printf("  bid %d x %d units\n", e.PricePerUnit, e.TotalUnits)
	}
}
