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
	kafkax "github.com/ariefcatur/go-canteen-orders/internal/kafka"
	"github.com/ariefcatur/go-canteen-orders/internal/ledger"
	"github.com/ariefcatur/go-canteen-orders/internal/logging"
	"github.com/ariefcatur/go-canteen-orders/internal/notify"
	"github.com/ariefcatur/go-canteen-orders/internal/observability"
	"github.com/ariefcatur/go-canteen-orders/internal/orders"
	"github.com/ariefcatur/go-canteen-orders/internal/postgres"
	"github.com/ariefcatur/go-canteen-orders/internal/redisx"
	"github.com/ariefcatur/go-canteen-orders/internal/saga"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load("api")
	log := logging.Must(cfg.ServiceName, cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("api exited", zap.Error(err))
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

	// Order log
	var olog orders.Log = orders.NewMemoryLog()
	if cfg.PostgresDSN != "" {
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db, orders.Schema); err != nil {
			return err
		}
		olog = &orders.PGLog{DB: db}
	}

	// Redis: history cache + idempotency keys
	var idem *redisx.IdempotencyStore
	if rdb := redisx.New(cfg.RedisAddr); rdb != nil {
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			log.Warn("redis unreachable, cache and idempotency degraded", zap.Error(err))
		}
		olog = orders.NewCachedLog(olog, rdb, log)
		idem = redisx.NewIdempotencyStore(rdb)
	}

	// Kafka: OrderPlaced events
	var events kafkax.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024, log)
		prod.Start()
		defer prod.WaitClosed()
		defer prod.Close()
		events = prod
	}

	sg := saga.New(
		catalog.NewClient(cfg.CatalogURL, cfg.CallTimeout),
		ledger.NewClient(cfg.LedgerURL, cfg.CallTimeout),
		olog,
		notify.NewClient(cfg.NotifierURL, cfg.CallTimeout),
		saga.WithCallTimeout(cfg.CallTimeout),
		saga.WithLogger(log.Named("saga")),
	)

	router := httpx.NewRouter(log, cfg.RequestTimeout)
	(&httpx.OrdersHandler{
		Saga:     sg,
		Orders:   olog,
		Idem:     idem,
		Producer: events,
		Service:  cfg.ServiceName,
		Log:      log,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	return httpx.Serve(ctx, srv, log)
}
