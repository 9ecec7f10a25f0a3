package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("CALL_TIMEOUT", "")

	cfg := Load("ledger")

	assert.Equal(t, ":8082", cfg.HTTPAddr)
	assert.Equal(t, "ledger", cfg.ServiceName)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 2*time.Second, cfg.CallTimeout)
	assert.True(t, cfg.SeedData)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("CALL_TIMEOUT", "750ms")
	t.Setenv("NOTIFY_WORKERS", "nope")
	t.Setenv("SEED_DATA", "false")

	cfg := Load("api")

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 750*time.Millisecond, cfg.CallTimeout)
	assert.Equal(t, 4, cfg.NotifyWorkers)
	assert.False(t, cfg.SeedData)
}
