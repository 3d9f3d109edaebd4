package config

import "time"

// GathererConfig is the root configuration for a gatherer instance.
type GathererConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Ingest   IngestConfig   `yaml:"ingest"`
	History  HistoryConfig  `yaml:"history"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// InstanceConfig identifies this gatherer.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds Hyperliquid info endpoint settings.
type APIConfig struct {
	EndpointURL  string        `yaml:"endpoint_url"`
	FallbackURLs []string      `yaml:"fallback_urls"` // Relay endpoints tried after the direct one
	Timeout      time.Duration `yaml:"timeout"`
	RateLimit    float64       `yaml:"rate_limit"` // Requests per second
	RateBurst    int           `yaml:"rate_burst"`
}

// DatabaseConfig holds the Postgres connection for persisted state.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RedisConfig holds the optional snapshot read cache.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// IngestConfig holds snapshot refresh settings.
type IngestConfig struct {
	RefreshInterval  time.Duration `yaml:"refresh_interval"`
	VenueConcurrency int           `yaml:"venue_concurrency"`
	TradFiSymbols    []string      `yaml:"tradfi_symbols"` // Overrides the built-in set when non-empty
}

// HistoryConfig holds funding-history scheduler settings.
type HistoryConfig struct {
	BatchSize  int           `yaml:"batch_size"`
	BatchDelay time.Duration `yaml:"batch_delay"`
	PageDelay  time.Duration `yaml:"page_delay"`
	Cooldown   time.Duration `yaml:"cooldown"` // Pause after an upstream rate limit
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// LogConfig holds logging settings. When File is set, output is rotated with
// lumberjack instead of going to stdout.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}
