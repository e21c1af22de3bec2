package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	ServerAddress string        `json:"serverAddress"`
	DatabasePath  string        `json:"databasePath"`
	DatabaseURL   string        `json:"databaseUrl"`
	DocumentStore DocumentStore `json:"documentStore"`
	Security      Security      `json:"security"`
	Sync          Sync          `json:"sync"`
	Telemetry     Telemetry     `json:"telemetry"`
}

// DocumentStore configuration for the sync-session snapshot store
type DocumentStore struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

// Security configuration
type Security struct {
	APIKeyHeader string `json:"apiKeyHeader"`
}

// Telemetry export settings
type Telemetry struct {
	Enabled      bool   `json:"enabled"`
	OTLPEndpoint string `json:"otlpEndpoint"`
	Environment  string `json:"environment"`
}

// Sync engine tuning
type Sync struct {
	MaxParallelResolves int `json:"maxParallelResolves"`
	QueryTimeoutSeconds int `json:"queryTimeoutSeconds"`
}

// QueryTimeout is the per-call timeout applied to store lookups
func (s Sync) QueryTimeout() time.Duration {
	return time.Duration(s.QueryTimeoutSeconds) * time.Second
}

// UsePostgres returns true if PostgreSQL should be used
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// Default configuration
func defaultConfig() *Config {
	return &Config{
		ServerAddress: ":5000",
		DatabasePath:  "fieldsync.db",
		DocumentStore: DocumentStore{
			URI:      "mongodb://localhost:27017",
			Database: "fieldsync",
		},
		Security: Security{
			APIKeyHeader: "X-API-Key",
		},
		Sync: Sync{
			MaxParallelResolves: 8,
			QueryTimeoutSeconds: 10,
		},
		Telemetry: Telemetry{
			Enabled:      true,
			OTLPEndpoint: "localhost:4317",
			Environment:  "development",
		},
	}
}

// Load loads configuration from file or environment
func Load() (*Config, error) {
	cfg := defaultConfig()

	// Try to load from config file
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Override from environment variables
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		cfg.ServerAddress = addr
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if uri := os.Getenv("DOCSTORE_URI"); uri != "" {
		cfg.DocumentStore.URI = uri
	}
	if db := os.Getenv("DOCSTORE_DATABASE"); db != "" {
		cfg.DocumentStore.Database = db
	}
	if parallel := os.Getenv("SYNC_MAX_PARALLEL_RESOLVES"); parallel != "" {
		if n, err := strconv.Atoi(parallel); err == nil && n > 0 {
			cfg.Sync.MaxParallelResolves = n
		}
	}
	if timeout := os.Getenv("SYNC_QUERY_TIMEOUT_SECONDS"); timeout != "" {
		if n, err := strconv.Atoi(timeout); err == nil && n > 0 {
			cfg.Sync.QueryTimeoutSeconds = n
		}
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		cfg.Telemetry.OTLPEndpoint = endpoint
	}
	if enabled := os.Getenv("OTEL_ENABLED"); enabled != "" {
		cfg.Telemetry.Enabled = enabled == "true" || enabled == "1"
	}
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		cfg.Telemetry.Environment = env
	}

	return cfg, nil
}
