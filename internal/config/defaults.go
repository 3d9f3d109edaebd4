package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultEndpointURL      = "https://api.hyperliquid.xyz/info"
	DefaultAPITimeout       = 30 * time.Second
	DefaultRateLimit        = 10.0
	DefaultRateBurst        = 5
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 10
	DefaultMinConns         = 2
	DefaultRedisTTL         = 30 * time.Second
	DefaultRefreshInterval  = 5 * time.Minute
	DefaultVenueConcurrency = 4
	DefaultBatchSize        = 3
	DefaultBatchDelay       = 500 * time.Millisecond
	DefaultPageDelay        = 200 * time.Millisecond
	DefaultCooldown         = 30 * time.Second
	DefaultServerPort       = 8000
	DefaultLogLevel         = "info"
	DefaultLogMaxSizeMB     = 100
	DefaultLogMaxBackups    = 5
)

// DefaultTradFiSymbols is the built-in set of traditional-finance symbols used
// for categorization when the config does not supply its own.
var DefaultTradFiSymbols = []string{
	"AAPL", "AMZN", "AMD", "AVGO", "COIN", "GLD", "GOOGL", "HOOD", "INTC",
	"META", "MSFT", "MSTR", "NFLX", "NVDA", "PLTR", "QQQ", "SLV", "SPY",
	"TSLA", "USO", "XAU", "XAG",
}

func (c *GathererConfig) applyDefaults() {
	// API defaults
	if c.API.EndpointURL == "" {
		c.API.EndpointURL = DefaultEndpointURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.RateLimit == 0 {
		c.API.RateLimit = DefaultRateLimit
	}
	if c.API.RateBurst == 0 {
		c.API.RateBurst = DefaultRateBurst
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Redis defaults
	if c.Redis.TTL == 0 {
		c.Redis.TTL = DefaultRedisTTL
	}

	// Ingest defaults
	if c.Ingest.RefreshInterval == 0 {
		c.Ingest.RefreshInterval = DefaultRefreshInterval
	}
	if c.Ingest.VenueConcurrency == 0 {
		c.Ingest.VenueConcurrency = DefaultVenueConcurrency
	}
	if len(c.Ingest.TradFiSymbols) == 0 {
		c.Ingest.TradFiSymbols = DefaultTradFiSymbols
	}

	// History defaults
	if c.History.BatchSize == 0 {
		c.History.BatchSize = DefaultBatchSize
	}
	if c.History.BatchDelay == 0 {
		c.History.BatchDelay = DefaultBatchDelay
	}
	if c.History.PageDelay == 0 {
		c.History.PageDelay = DefaultPageDelay
	}
	if c.History.Cooldown == 0 {
		c.History.Cooldown = DefaultCooldown
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = DefaultLogMaxBackups
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
