package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr     string
	PostgresDSN  string // empty -> in-memory store
	RedisAddr    string // empty -> no cache / idempotency / dedup
	KafkaBrokers []string
	ServiceName  string

	LogLevel  string
	LogFormat string

	CatalogURL  string
	LedgerURL   string
	NotifierURL string

	CallTimeout    time.Duration // per remote call made by the saga
	RequestTimeout time.Duration // per inbound HTTP request

	OtelEndpoint string

	NotifyGroup   string
	NotifyWorkers int

	SeedData bool
}

// Load reads the environment. service picks the default listen address and
// service name, so every binary can run with no variables set at all.
func Load(service string) Config {
	return Config{
		HTTPAddr:     getenv("HTTP_ADDR", defaultAddr(service)),
		PostgresDSN:  getenv("POSTGRES_DSN", ""),
		RedisAddr:    getenv("REDIS_ADDR", ""),
		KafkaBrokers: splitCSV(getenv("KAFKA_BROKERS", "")),
		ServiceName:  getenv("SERVICE_NAME", service),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		CatalogURL:  getenv("CATALOG_URL", "http://localhost:8081"),
		LedgerURL:   getenv("LEDGER_URL", "http://localhost:8082"),
		NotifierURL: getenv("NOTIFIER_URL", "http://localhost:8084"),

		CallTimeout:    getduration("CALL_TIMEOUT", 2*time.Second),
		RequestTimeout: getduration("REQUEST_TIMEOUT", 15*time.Second),

		OtelEndpoint: getenv("OTEL_ENDPOINT", ""),

		NotifyGroup:   getenv("NOTIFY_GROUP", "notifier-dispatch"),
		NotifyWorkers: getint("NOTIFY_WORKERS", 4),

		SeedData: getbool("SEED_DATA", true),
	}
}

func defaultAddr(service string) string {
	switch service {
	case "catalog":
		return ":8081"
	case "ledger":
		return ":8082"
	case "notifier":
		return ":8084"
	default:
		return ":8080"
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	i, err := strconv.Atoi(os.Getenv(k))
	if err != nil || i <= 0 {
		return def
	}
	return i
}

func getbool(k string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return def
	}
	return b
}

func getduration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
