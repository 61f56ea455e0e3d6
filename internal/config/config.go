// Package config loads and validates process configuration from
// environment variables, following the teacher's getEnv/getEnvInt/
// getEnvBool helper style in cmd/sercha-core/main.go, promoted to its
// own package since both binaries (serve, seed) share it.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config is the full set of spec §6.3 keys this repository recognizes.
type Config struct {
	Port int

	DatabaseURL     string
	DatabaseSSL     bool
	DatabasePoolMin int
	DatabasePoolMax int

	ClusterWorkers int

	ETLBatchSize           int
	ETLRetryAttempts       int
	ETLRetryDelayMs        int
	ETLFlushDelayMs        int
	ETLPoolIdleTimeoutMs   int

	SearchMaxCandidates      int
	SearchShortQueryMaxLength int

	RedisURL string // optional; empty disables the search cache

	IngestOperatorTokenHash string // optional; empty disables the ingest endpoint's auth guard
	IngestJWTSigningKey     string // required when IngestOperatorTokenHash is set
}

// Load reads every recognized key from the environment and validates
// it. Per spec §6.3, invalid configuration fails fast: the caller is
// expected to os.Exit(1) (or log.Fatalf) on a non-nil error, matching
// the teacher's fail-fast startup in main.go.
func Load() (Config, error) {
	cfg := Config{
		Port: getEnvInt("PORT", 3000),

		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DatabaseSSL:     getEnvBool("DATABASE_SSL", false),
		DatabasePoolMin: getEnvInt("DATABASE_POOL_MIN", 2),
		DatabasePoolMax: getEnvInt("DATABASE_POOL_MAX", 10),

		ClusterWorkers: getEnvInt("CLUSTER_WORKERS", 0),

		ETLBatchSize:         getEnvInt("ETL_BATCH_SIZE", 5000),
		ETLRetryAttempts:     getEnvInt("ETL_RETRY_ATTEMPTS", 3),
		ETLRetryDelayMs:      getEnvInt("ETL_RETRY_DELAY_MS", 1000),
		ETLFlushDelayMs:      getEnvInt("ETL_FLUSH_DELAY_MS", 200),
		ETLPoolIdleTimeoutMs: getEnvInt("ETL_POOL_IDLE_TIMEOUT_MS", 240000),

		SearchMaxCandidates:       getEnvInt("SEARCH_MAX_CANDIDATES", 5000),
		SearchShortQueryMaxLength: getEnvInt("SEARCH_SHORT_QUERY_MAX_LENGTH", 3),

		RedisURL: getEnv("REDIS_URL", ""),

		IngestOperatorTokenHash: getEnv("INGEST_OPERATOR_TOKEN_HASH", ""),
		IngestJWTSigningKey:     getEnv("INGEST_JWT_SIGNING_KEY", ""),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: PORT must be in [1,65535], got %d", c.Port)
	}
	if c.ClusterWorkers < 0 {
		return fmt.Errorf("config: CLUSTER_WORKERS must be >= 0, got %d", c.ClusterWorkers)
	}
	if c.ETLBatchSize < 1 {
		return fmt.Errorf("config: ETL_BATCH_SIZE must be >= 1, got %d", c.ETLBatchSize)
	}
	if c.SearchMaxCandidates < 100 || c.SearchMaxCandidates > 50000 {
		return fmt.Errorf("config: SEARCH_MAX_CANDIDATES must be in [100,50000], got %d", c.SearchMaxCandidates)
	}
	if c.IngestOperatorTokenHash != "" && c.IngestJWTSigningKey == "" {
		return fmt.Errorf("config: INGEST_JWT_SIGNING_KEY is required when INGEST_OPERATOR_TOKEN_HASH is set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
