package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults without config file", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "does-not-exist.json")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, ":5000", cfg.ServerAddress)
		assert.False(t, cfg.UsePostgres())
		assert.Equal(t, "mongodb://localhost:27017", cfg.DocumentStore.URI)
		assert.Equal(t, "X-API-Key", cfg.Security.APIKeyHeader)
		assert.Equal(t, 8, cfg.Sync.MaxParallelResolves)
		assert.Equal(t, 10*time.Second, cfg.Sync.QueryTimeout())
		assert.True(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
		assert.Equal(t, "development", cfg.Telemetry.Environment)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "does-not-exist.json")
		t.Setenv("DATABASE_URL", "postgres://fieldsync:secret@db/fieldsync")
		t.Setenv("DOCSTORE_URI", "mongodb://docstore:27017")
		t.Setenv("DOCSTORE_DATABASE", "fieldsync_prod")
		t.Setenv("SYNC_MAX_PARALLEL_RESOLVES", "3")
		t.Setenv("SYNC_QUERY_TIMEOUT_SECONDS", "5")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
		t.Setenv("OTEL_ENABLED", "false")
		t.Setenv("ENVIRONMENT", "production")

		cfg, err := Load()
		require.NoError(t, err)

		assert.True(t, cfg.UsePostgres())
		assert.Equal(t, "mongodb://docstore:27017", cfg.DocumentStore.URI)
		assert.Equal(t, "fieldsync_prod", cfg.DocumentStore.Database)
		assert.Equal(t, 3, cfg.Sync.MaxParallelResolves)
		assert.Equal(t, 5*time.Second, cfg.Sync.QueryTimeout())
		assert.False(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "collector:4317", cfg.Telemetry.OTLPEndpoint)
		assert.Equal(t, "production", cfg.Telemetry.Environment)
	})

	t.Run("invalid numeric overrides are ignored", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "does-not-exist.json")
		t.Setenv("SYNC_MAX_PARALLEL_RESOLVES", "zero")
		t.Setenv("SYNC_QUERY_TIMEOUT_SECONDS", "-1")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8, cfg.Sync.MaxParallelResolves)
		assert.Equal(t, 10*time.Second, cfg.Sync.QueryTimeout())
	})
}
