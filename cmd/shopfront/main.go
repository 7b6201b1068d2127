package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jchen-labs/shopfront/internal/cartview"
	"github.com/jchen-labs/shopfront/internal/checkout"
	"github.com/jchen-labs/shopfront/internal/orders"
	"github.com/jchen-labs/shopfront/internal/snapshot"
	"github.com/jchen-labs/shopfront/pkg/config"
	"github.com/jchen-labs/shopfront/pkg/logger"
	"github.com/jchen-labs/shopfront/pkg/metrics"
	"github.com/jchen-labs/shopfront/pkg/storeapi"
)

// Headless smoke driver: loads the user's cart from the configured
// storefront, selects everything, and reports the aggregate the checkout
// assembler would stage. It never dispatches a checkout.
func main() {
	logg := logger.New(logger.Options{ServiceName: "shopfront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "shopfront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	userKey := cfg.Store.UserKey
	if userKey == "" {
		logg.Error(context.Background(), "no user key configured", nil)
		os.Exit(1)
	}

	client, err := storeapi.NewClient(cfg.Store, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create store client", err)
		os.Exit(1)
	}

	cartMetrics := metrics.NewCartMetrics(prometheus.DefaultRegisterer)
	view := cartview.NewView(cartMetrics)

	loader, err := snapshot.NewLoader(client, view, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create snapshot loader", err)
		os.Exit(1)
	}
	assembler, err := checkout.NewAssembler(client, loader, cartMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout assembler", err)
		os.Exit(1)
	}
	history, err := orders.NewService(client, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	ctx := logg.WithUserKey(context.Background(), userKey)

	if err := loader.Reload(ctx, userKey); err != nil {
		logg.Error(ctx, "cart snapshot load failed", err)
		os.Exit(1)
	}

	for _, item := range view.Items() {
		itemCtx := logg.WithFields(ctx, map[string]any{
			"product":  item.Name,
			"quantity": item.Quantity,
			"subtotal": item.SubtotalAmount(),
		})
		logg.Info(itemCtx, "cart line")
	}

	view.SetAllSelected(true)
	pending, err := assembler.Prepare(view)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "reason", err.Error()), "checkout would be refused")
	} else {
		logg.Info(logg.WithField(ctx, "total", pending.TotalAmount), "checkout stage total")
	}

	entries, err := history.List(ctx, userKey)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "reason", err.Error()), "order history unavailable")
		return
	}
	logg.Info(logg.WithField(ctx, "orders", len(entries)), "order history loaded")
}
