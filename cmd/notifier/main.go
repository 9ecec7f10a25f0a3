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
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-canteen-orders/internal/config"
	"github.com/ariefcatur/go-canteen-orders/internal/httpx"
	kafkax "github.com/ariefcatur/go-canteen-orders/internal/kafka"
	"github.com/ariefcatur/go-canteen-orders/internal/logging"
	"github.com/ariefcatur/go-canteen-orders/internal/notify"
	"github.com/ariefcatur/go-canteen-orders/internal/observability"
	"github.com/ariefcatur/go-canteen-orders/internal/postgres"
	"github.com/ariefcatur/go-canteen-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load("notifier")
	log := logging.Must(cfg.ServiceName, cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("notifier exited", zap.Error(err))
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

	var store notify.Store = notify.NewMemoryStore()
	if cfg.PostgresDSN != "" {
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db, notify.Schema); err != nil {
			return err
		}
		store = &notify.PGStore{DB: db}
	}

	rdb := redisx.New(cfg.RedisAddr)
	if rdb != nil {
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			log.Warn("redis unreachable, dedup degraded", zap.Error(err))
		}
	}

	svc := &notify.Service{Store: store, Redis: rdb, ServiceName: cfg.ServiceName, Log: log}
	g, gctx := errgroup.WithContext(ctx)

	if len(cfg.KafkaBrokers) > 0 {
		prod := kafkax.NewProducer(cfg.KafkaBrokers, notify.TopicOutbound, 1024, log)
		prod.Start()
		defer prod.WaitClosed()
		defer prod.Close()
		svc.Producer = prod

		d := &notify.Dispatcher{Redis: rdb, ServiceName: cfg.ServiceName, Log: log}
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifyGroup, notify.TopicOutbound, cfg.NotifyWorkers, log)
		g.Go(func() error {
			log.Info("dispatcher started",
				zap.String("group", cfg.NotifyGroup), zap.Int("workers", cfg.NotifyWorkers))
			return cons.Start(gctx, d.HandleMessage)
		})
	}

	router := httpx.NewRouter(log, cfg.RequestTimeout)
	(&httpx.NotifyHandler{Service: svc, Log: log}).Register(router)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	g.Go(func() error { return httpx.Serve(gctx, srv, log) })

	return g.Wait()
}
