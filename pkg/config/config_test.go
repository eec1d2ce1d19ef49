package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "PUSH_PROVIDER", "PRESENCE_TTL", "OFFLINE_GRACE_PERIOD",
		"TRANSPORT_TIMEOUT", "DEFAULT_LIST_LIMIT", "MAX_LIST_LIMIT",
		"BROADCAST_CONCURRENCY",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "webpush", cfg.PushProvider)
	assert.Equal(t, 5*time.Minute, cfg.PresenceTTL)
	assert.Equal(t, 5*time.Minute, cfg.OfflineGracePeriod)
	assert.Equal(t, 10*time.Second, cfg.TransportTimeout)
	assert.Equal(t, 50, cfg.DefaultListLimit)
	assert.Equal(t, 100, cfg.MaxListLimit)
	assert.Equal(t, 16, cfg.BroadcastConcurrency)
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("PUSH_PROVIDER", "fcm")
	t.Setenv("PRESENCE_TTL", "90s")
	t.Setenv("MAX_LIST_LIMIT", "25")
	t.Setenv("BROADCAST_CONCURRENCY", "lots") // unparsable falls back

	cfg := Load()

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "fcm", cfg.PushProvider)
	assert.Equal(t, 90*time.Second, cfg.PresenceTTL)
	assert.Equal(t, 25, cfg.MaxListLimit)
	assert.Equal(t, 16, cfg.BroadcastConcurrency)
}

func TestInitDBRequiresConnectionStrings(t *testing.T) {
	_, err := InitDB(&Config{MongoURI: "mongodb://localhost:27017"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_CONN_STR")

	_, err = InitDB(&Config{PostgresURL: "postgres://localhost:5432/app"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")
}
