// Package config provides the tunables used to construct trustgraph core
// services. Loading is Viper-based, scoped down: the core never parses CLI
// flags or reads os.Args itself, since CLI and config loading belongs to
// the embedding service — Load only binds environment variables and an
// optional file path handed to it by the caller.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the tunables for the trustgraph core.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Query    QueryConfig    `mapstructure:"query"`
	Events   EventsConfig   `mapstructure:"events"`
}

// DatabaseConfig holds PostgreSQL connection pool settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// CacheConfig holds the graph cache's eviction tunables.
type CacheConfig struct {
	// MaxBytes bounds the summed byte-footprint of resident graphs.
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// IngestConfig holds ingestion-pipeline tunables.
type IngestConfig struct {
	// ChunkSize bounds the number of rows per batch-upsert statement.
	ChunkSize int `mapstructure:"chunk_size"`
	// MaxRetries bounds the bounded-retry count for serialization failures.
	MaxRetries int `mapstructure:"max_retries"`
	// RetryBaseDelay is the starting delay for the exponential backoff schedule.
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
}

// QueryConfig holds traversal/query defaults.
type QueryConfig struct {
	// DefaultDepth is the traversal depth used when a caller does not specify one.
	DefaultDepth int `mapstructure:"default_depth"`
	// DefaultPageSize is the page size used when a caller does not specify one.
	DefaultPageSize int `mapstructure:"default_page_size"`
	// MaxPageSize bounds the page size a caller may request.
	MaxPageSize int `mapstructure:"max_page_size"`
}

// EventsConfig holds the Kafka event-publication tunables.
type EventsConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Default returns the tunables used when no override is supplied.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Cache: CacheConfig{
			MaxBytes: 256 << 20, // 256MiB
		},
		Ingest: IngestConfig{
			ChunkSize:      500,
			MaxRetries:     5,
			RetryBaseDelay: 50 * time.Millisecond,
		},
		Query: QueryConfig{
			DefaultDepth:    1,
			DefaultPageSize: 25,
			MaxPageSize:     200,
		},
		Events: EventsConfig{
			Topic: "trustgraph.events",
		},
	}
}

// Load binds environment variables (prefixed TRUSTGRAPH_) over the defaults,
// optionally merging a config file first if filePath is non-empty.
func Load(filePath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("trustgraph")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about, so bind each one explicitly.
	for _, key := range []string{
		"database.url", "database.max_open_conns", "database.max_idle_conns", "database.conn_max_lifetime",
		"cache.max_bytes", "ingest.chunk_size", "ingest.max_retries", "ingest.retry_base_delay",
		"query.default_depth", "query.default_page_size", "query.max_page_size",
		"events.brokers", "events.topic",
	} {
		if err := v.BindEnv(key); err != nil {
			return cfg, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if filePath != "" {
		v.SetConfigFile(filePath)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}
