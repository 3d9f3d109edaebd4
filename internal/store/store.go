package store

import (
	"context"

	"github.com/rverma/hyperliquid-data/internal/model"
)

// Stats summarizes the stored funding series.
type Stats struct {
	Coins        int   `json:"coins"`
	TotalRecords int64 `json:"totalRecords"`
	OldestUpdate int64 `json:"oldestUpdate"` // ms since epoch, 0 when empty
	NewestUpdate int64 `json:"newestUpdate"`
}

// Store is the keyed persistence contract. All puts are last-write-wins
// whole-value replacement.
type Store interface {
	// Scalar metadata.
	GetMeta(ctx context.Context, key string) (value string, ok bool, err error)
	PutMeta(ctx context.Context, key, value string) error

	// Instrument snapshot. ReplaceSnapshot swaps the whole collection
	// atomically; readers never observe a partial snapshot.
	GetSnapshot(ctx context.Context) ([]model.Instrument, error)
	ReplaceSnapshot(ctx context.Context, instruments []model.Instrument) error

	// Funding series, keyed by namespaced symbol. GetSeries returns
	// (nil, nil) when no series exists.
	GetSeries(ctx context.Context, coin string) (*model.FundingSeries, error)
	PutSeries(ctx context.Context, series *model.FundingSeries) error
	SeriesKeys(ctx context.Context) ([]string, error)
	SeriesUpdateTimes(ctx context.Context) (map[string]int64, error)

	// User preference lists (favorites, blacklist, newtokens).
	GetPreference(ctx context.Context, name string) ([]string, error)
	PutPreference(ctx context.Context, name string, values []string) error

	// Aggregates and maintenance.
	Stats(ctx context.Context) (Stats, error)
	Clear(ctx context.Context) error
}
