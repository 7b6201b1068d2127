package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/jchen-labs/shopfront/internal/stubstore"
	"github.com/jchen-labs/shopfront/pkg/config"
	"github.com/jchen-labs/shopfront/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "stubstore"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "stubstore",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	store := stubstore.NewStore()
	if cfg.Stub.SeedProduct {
		store.SeedDemo()
	}

	srv, err := stubstore.NewServer(store, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stub server", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Stub.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting stub storefront backend")

	server := &http.Server{
		Addr:    addr,
		Handler: srv.Handler(),
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "stub server stopped unexpectedly", err)
		os.Exit(1)
	}
}
