package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-canteen-orders/internal/catalog"
	"github.com/ariefcatur/go-canteen-orders/internal/config"
	"github.com/ariefcatur/go-canteen-orders/internal/httpx"
	"github.com/ariefcatur/go-canteen-orders/internal/logging"
	"github.com/ariefcatur/go-canteen-orders/internal/observability"
	"github.com/ariefcatur/go-canteen-orders/internal/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load("catalog")
	log := logging.Must(cfg.ServiceName, cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("catalog exited", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.ServiceName, cfg.OtelEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	var store catalog.Store = catalog.NewMemoryStore()
	if cfg.PostgresDSN != "" {
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db, catalog.Schema); err != nil {
			return err
		}
		store = &catalog.PGStore{DB: db}
	}
	if cfg.SeedData {
		n, err := catalog.Seed(ctx, store)
		if err != nil {
			return err
		}
		log.Info("catalog seeded", zap.Int("items", n))
	}

	router := httpx.NewRouter(log, cfg.RequestTimeout)
	(&httpx.CatalogHandler{Store: store, Log: log}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	return httpx.Serve(ctx, srv, log)
}
