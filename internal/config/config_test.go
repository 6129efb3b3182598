package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/SAP-F-2025/question-bank-service/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.Stats.RecomputeOnUpdate)
	assert.False(t, cfg.Lock.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Lock.Wait)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("STATS_RECOMPUTE_ON_UPDATE", "false")
	t.Setenv("SCOPE_LOCK_ENABLED", "true")
	t.Setenv("SCOPE_LOCK_WAIT", "500ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.Stats.RecomputeOnUpdate)
	assert.True(t, cfg.Lock.Enabled)
	assert.Equal(t, 500*time.Millisecond, cfg.Lock.Wait)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.Brokers)
	assert.Len(t, cfg.CORSAllowedOrigins, 2)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Setenv("CASDOOR_ENABLED", "true")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnknownPublisher(t *testing.T) {
	t.Setenv("EVENTS_PUBLISHER", "carrier-pigeon")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "EVENTS_PUBLISHER")

	t.Setenv("EVENTS_ENABLED", "false")
	_, err = LoadConfig()
	assert.NoError(t, err)
}

func TestEventConfigValidate(t *testing.T) {
	assert.Error(t, EventConfig{Enabled: true, Publisher: PublisherKafka, Topic: "t"}.validate())
	assert.NoError(t, EventConfig{Enabled: true, Publisher: PublisherKafka, Brokers: []string{"k:9092"}, Topic: "t"}.validate())
	assert.NoError(t, EventConfig{Enabled: true, Publisher: PublisherMemory}.validate())
}

func TestNewPublisherKeepsEventsInMemory(t *testing.T) {
	for _, cfg := range []EventConfig{
		{Enabled: false, Publisher: PublisherKafka},
		{Enabled: true, Publisher: PublisherMemory},
	} {
		publisher, err := cfg.NewPublisher(slog.Default())
		require.NoError(t, err)
		assert.IsType(t, &events.MemoryPublisher{}, publisher)
	}
}
