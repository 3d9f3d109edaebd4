package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/rverma/hyperliquid-data/internal/history"
	"github.com/rverma/hyperliquid-data/internal/market"
	"github.com/rverma/hyperliquid-data/internal/metrics"
	"github.com/rverma/hyperliquid-data/internal/model"
	"github.com/rverma/hyperliquid-data/internal/store"
)

var (
	// ErrNoSnapshot means no market snapshot has been stored yet, so there
	// are no history targets to fetch.
	ErrNoSnapshot = errors.New("no market snapshot stored")

	// ErrSeriesNotFound means the requested symbol has no stored history.
	ErrSeriesNotFound = errors.New("funding series not found")

	// ErrRunInProgress means a history run is already active.
	ErrRunInProgress = errors.New("history run already in progress")
)

// Service exposes the ingestion operations used by the daemon's periodic
// jobs and the HTTP API.
type Service struct {
	fetcher   *market.Fetcher
	scheduler *history.Scheduler
	db        store.Store
	logger    *slog.Logger

	mu      sync.Mutex
	running bool // At most one history run at a time
}

// NewService creates a Service over the given collaborators.
func NewService(fetcher *market.Fetcher, scheduler *history.Scheduler, db store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher:   fetcher,
		scheduler: scheduler,
		db:        db,
		logger:    logger,
	}
}

// RefreshSnapshot fetches the current market snapshot across all venues and
// replaces the stored instrument collection. Metadata is updated so
// MissingOnly history runs can tell which series are stale.
func (s *Service) RefreshSnapshot(ctx context.Context) (*market.Snapshot, error) {
	snap, err := s.fetcher.FetchSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot: %w", err)
	}

	if err := s.db.ReplaceSnapshot(ctx, snap.Instruments); err != nil {
		return nil, fmt.Errorf("storing snapshot: %w", err)
	}
	if err := s.db.PutMeta(ctx, model.MetaMarketDataLastUpdate, strconv.FormatInt(snap.FetchedAt, 10)); err != nil {
		return nil, fmt.Errorf("storing snapshot time: %w", err)
	}
	if err := s.bumpCacheVersion(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("snapshot refreshed",
		"instruments", len(snap.Instruments),
		"venue_errors", len(snap.Errors),
	)
	return snap, nil
}

// FetchHistories starts a history run over every symbol in the stored
// snapshot and returns its progress stream. Only one run may be active at a
// time; a second call while one is running fails with ErrRunInProgress.
func (s *Service) FetchHistories(ctx context.Context, mode history.Mode) (<-chan history.ProgressEvent, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}

	instruments, err := s.db.GetSnapshot(ctx)
	if err != nil {
		release()
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if len(instruments) == 0 {
		release()
		return nil, ErrNoSnapshot
	}

	// The namespaced symbol is the key the history endpoint accepts.
	targets := make([]string, 0, len(instruments))
	for _, inst := range instruments {
		targets = append(targets, inst.Symbol)
	}

	events := s.scheduler.Run(ctx, targets, mode)

	out := make(chan history.ProgressEvent)
	go func() {
		defer close(out)
		defer release()
		for ev := range events {
			out <- ev
		}
	}()
	return out, nil
}

// GetMetrics computes funding metrics for one symbol from its stored series.
func (s *Service) GetMetrics(ctx context.Context, symbol string) (metrics.Metrics, error) {
	series, err := s.db.GetSeries(ctx, symbol)
	if err != nil {
		return metrics.Metrics{}, fmt.Errorf("loading series %s: %w", symbol, err)
	}
	if series == nil {
		return metrics.Metrics{}, fmt.Errorf("%w: %s", ErrSeriesNotFound, symbol)
	}
	return metrics.Compute(series), nil
}

// Stats reports aggregates over the stored funding series.
func (s *Service) Stats(ctx context.Context) (store.Stats, error) {
	return s.db.Stats(ctx)
}

// Clear wipes market data, funding histories, and metadata. User
// preferences survive.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.db.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("stored data cleared")
	return nil
}

func (s *Service) bumpCacheVersion(ctx context.Context) error {
	var version int64
	if v, ok, err := s.db.GetMeta(ctx, model.MetaCacheVersion); err != nil {
		return fmt.Errorf("reading cache version: %w", err)
	} else if ok {
		version, _ = strconv.ParseInt(v, 10, 64)
	}
	return s.db.PutMeta(ctx, model.MetaCacheVersion, strconv.FormatInt(version+1, 10))
}
