package market

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rverma/hyperliquid-data/internal/api"
	"github.com/rverma/hyperliquid-data/internal/model"
)

// VenueError records one auxiliary venue that could not be fetched.
type VenueError struct {
	Venue string
	Err   error
}

func (e *VenueError) Error() string {
	return fmt.Sprintf("venue %s: %v", e.Venue, e.Err)
}

func (e *VenueError) Unwrap() error { return e.Err }

// Snapshot is the merged, deduplicated cross-venue instrument set.
type Snapshot struct {
	Instruments []model.Instrument
	Errors      []VenueError // Auxiliary venues that failed this round
	FetchedAt   int64        // ms since epoch
}

// Config holds snapshot fetcher settings.
type Config struct {
	VenueConcurrency int // Max auxiliary venues fetched at once
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{VenueConcurrency: 4}
}

// Fetcher builds market snapshots.
type Fetcher struct {
	cfg    Config
	client *api.Client
	tradfi TradFiSet
	logger *slog.Logger
}

// NewFetcher creates a snapshot fetcher. tradfi drives categorization.
func NewFetcher(cfg Config, client *api.Client, tradfi TradFiSet, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.VenueConcurrency < 1 {
		cfg.VenueConcurrency = 1
	}
	return &Fetcher{
		cfg:    cfg,
		client: client,
		tradfi: tradfi,
		logger: logger,
	}
}

// ListVenues discovers auxiliary venue tags in upstream order. Discovery
// failure degrades to no auxiliary venues; the primary data set must still
// load.
func (f *Fetcher) ListVenues(ctx context.Context) []string {
	dexs, err := f.client.PerpDexs(ctx)
	if err != nil {
		f.logger.Warn("venue discovery failed, continuing with primary only", "err", err)
		return nil
	}

	venues := make([]string, 0, len(dexs))
	for _, d := range dexs {
		venues = append(venues, d.Name)
	}
	return venues
}

// FetchSnapshot fetches the primary venue and every auxiliary venue, then
// categorizes and deduplicates the union. A failed auxiliary venue is
// reported in Snapshot.Errors; only a primary-venue failure is fatal.
func (f *Fetcher) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	primary, err := f.fetchVenue(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("fetch primary venue: %w", err)
	}

	venues := f.ListVenues(ctx)

	// Results keyed by venue index so dedup order stays the discovery order
	// regardless of completion order.
	byVenue := make([][]model.Instrument, len(venues))
	var (
		mu        sync.Mutex
		venueErrs []VenueError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.VenueConcurrency)
	for i, venue := range venues {
		i, venue := i, venue
		g.Go(func() error {
			instruments, err := f.fetchVenue(gctx, venue)
			if err != nil {
				f.logger.Warn("auxiliary venue fetch failed", "venue", venue, "err", err)
				mu.Lock()
				venueErrs = append(venueErrs, VenueError{Venue: venue, Err: err})
				mu.Unlock()
				return nil
			}
			byVenue[i] = instruments
			return nil
		})
	}
	g.Wait()

	merged := primary
	for _, instruments := range byVenue {
		merged = append(merged, instruments...)
	}

	for i := range merged {
		merged[i].Category = Categorize(merged[i].Symbol, f.tradfi)
	}
	deduped := Dedupe(merged)

	f.logger.Info("snapshot fetched",
		"venues", len(venues)+1,
		"venue_errors", len(venueErrs),
		"raw", len(merged),
		"instruments", len(deduped),
		"duration", time.Since(start),
	)

	return &Snapshot{
		Instruments: deduped,
		Errors:      venueErrs,
		FetchedAt:   time.Now().UnixMilli(),
	}, nil
}

// fetchVenue retrieves one venue's meta+context and converts it to raw
// instruments.
func (f *Fetcher) fetchVenue(ctx context.Context, venue string) ([]model.Instrument, error) {
	snap, err := f.client.MetaAndAssetCtxs(ctx, venue)
	if err != nil {
		return nil, err
	}
	return snap.Instruments(venue), nil
}
