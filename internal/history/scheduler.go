package history

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rverma/hyperliquid-data/internal/api"
	"github.com/rverma/hyperliquid-data/internal/model"
	"github.com/rverma/hyperliquid-data/internal/store"
)

// Config holds scheduler settings.
type Config struct {
	BatchSize  int           // Symbols fetched concurrently per batch
	BatchDelay time.Duration // Delay between the start of successive batches
	PageDelay  time.Duration // Delay between pages of one symbol
	Cooldown   time.Duration // Minimum pause after an upstream rate limit
	PageSize   int           // Full-page threshold; a shorter page ends a symbol
}

// DefaultConfig returns the defaults tuned for the upstream rate limit.
func DefaultConfig() Config {
	return Config{
		BatchSize:  3,
		BatchDelay: 500 * time.Millisecond,
		PageDelay:  200 * time.Millisecond,
		Cooldown:   30 * time.Second,
		PageSize:   api.MaxHistoryPage,
	}
}

// Scheduler fetches funding histories in rate-limit-aware batches.
type Scheduler struct {
	cfg    Config
	client *api.Client
	db     store.Store
	logger *slog.Logger
}

// New creates a Scheduler.
func New(cfg Config, client *api.Client, db store.Store, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = api.MaxHistoryPage
	}
	return &Scheduler{
		cfg:    cfg,
		client: client,
		db:     db,
		logger: logger,
	}
}

// Run starts a history run over targets and returns its progress stream.
// The stream closes once every target has reached a terminal status.
// Cancellation is honored between batches; the current batch's in-flight
// symbols are allowed to finish.
func (s *Scheduler) Run(ctx context.Context, targets []string, mode Mode) <-chan ProgressEvent {
	runID := uuid.New()
	events := newEventBuffer(64)
	out := make(chan ProgressEvent)

	go func() {
		defer close(out)
		for {
			ev, ok := events.Receive()
			if !ok {
				return
			}
			out <- ev
		}
	}()

	go func() {
		defer events.Close()
		s.run(ctx, runID, targets, mode, events)
	}()

	return out
}

func (s *Scheduler) run(ctx context.Context, runID uuid.UUID, targets []string, mode Mode, events *eventBuffer) {
	start := time.Now()

	queue := targets
	if mode == MissingOnly {
		var err error
		queue, err = s.filterStale(ctx, targets)
		if err != nil {
			s.logger.Warn("staleness filter failed, fetching all targets", "err", err)
			queue = targets
		}
	}

	s.logger.Info("history run starting",
		"run_id", runID,
		"mode", mode.String(),
		"targets", len(targets),
		"queued", len(queue),
	)

	started := make(map[string]bool, len(queue))
	var completed, failed int

	for len(queue) > 0 {
		// Cancellation is checked only here, between batches.
		if ctx.Err() != nil {
			for _, coin := range queue {
				events.Send(ProgressEvent{RunID: runID, Coin: coin, Status: StatusFailed, Err: ctx.Err()})
				failed++
			}
			break
		}

		n := s.cfg.BatchSize
		if n > len(queue) {
			n = len(queue)
		}
		batch := queue[:n]
		queue = queue[n:]

		for _, coin := range batch {
			if !started[coin] {
				started[coin] = true
				events.Send(ProgressEvent{RunID: runID, Coin: coin, Status: StatusStarted})
			}
		}

		var (
			wg          sync.WaitGroup
			mu          sync.Mutex
			retry       []string
			rateLimited bool
			retryAfter  time.Duration
		)

		for _, coin := range batch {
			wg.Add(1)
			go func(coin string) {
				defer wg.Done()

				err := s.fetchCoin(ctx, runID, coin, mode, events)
				if err == nil {
					mu.Lock()
					completed++
					mu.Unlock()
					return
				}

				var rl *api.RateLimitError
				if errors.As(err, &rl) {
					// Re-queue; progress already persisted survives.
					mu.Lock()
					rateLimited = true
					if rl.RetryAfter > retryAfter {
						retryAfter = rl.RetryAfter
					}
					retry = append(retry, coin)
					mu.Unlock()
					return
				}

				events.Send(ProgressEvent{RunID: runID, Coin: coin, Status: StatusFailed, Err: err})
				s.logger.Warn("history fetch failed", "run_id", runID, "coin", coin, "err", err)
				mu.Lock()
				failed++
				mu.Unlock()
			}(coin)
		}
		wg.Wait()

		queue = append(queue, retry...)

		if rateLimited {
			wait := s.cfg.Cooldown
			if retryAfter > wait {
				wait = retryAfter
			}
			s.logger.Warn("rate limited, suspending dispatch", "run_id", runID, "cooldown", wait)
			if !sleepCtx(ctx, wait) {
				continue // Next loop iteration drains the queue as failed.
			}
		} else if len(queue) > 0 {
			if !sleepCtx(ctx, s.cfg.BatchDelay) {
				continue
			}
		}
	}

	s.logger.Info("history run finished",
		"run_id", runID,
		"completed", completed,
		"failed", failed,
		"duration", time.Since(start),
	)
}

// fetchCoin pulls one symbol's history page by page, merging and persisting
// after every page. A rate-limit error is returned for the batch loop to
// handle; any other failure is terminal for the symbol.
func (s *Scheduler) fetchCoin(ctx context.Context, runID uuid.UUID, coin string, mode Mode, events *eventBuffer) error {
	series, err := s.db.GetSeries(ctx, coin)
	if err != nil {
		return err
	}
	if series == nil {
		series = &model.FundingSeries{Coin: coin}
	}

	var startTime int64
	switch mode {
	case ForceAll:
		startTime = series.FirstTime()
	default:
		if last, ok := series.Latest(); ok {
			startTime = last.Time + 1
		}
	}

	pages := 0
	for {
		page, err := s.client.FundingHistory(ctx, coin, startTime)
		if err != nil {
			return err
		}
		pages++

		if len(page) > 0 {
			records := make([]model.FundingRecord, 0, len(page))
			for _, e := range page {
				records = append(records, e.ToRecord())
			}

			series.History = MergeRecords(series.History, records)
			series.RecordCount = len(series.History)
			series.LastUpdate = time.Now().UnixMilli()
			if err := s.db.PutSeries(ctx, series); err != nil {
				return err
			}

			startTime = page[len(page)-1].Time + 1
		}

		events.Send(ProgressEvent{
			RunID:   runID,
			Coin:    coin,
			Status:  StatusPageFetched,
			Pages:   pages,
			Records: len(series.History),
		})

		if len(page) < s.cfg.PageSize {
			break
		}

		if !sleepCtx(ctx, s.cfg.PageDelay) {
			return ctx.Err()
		}
	}

	events.Send(ProgressEvent{
		RunID:   runID,
		Coin:    coin,
		Status:  StatusCompleted,
		Pages:   pages,
		Records: len(series.History),
	})
	return nil
}

// filterStale drops targets whose series is at least as fresh as the current
// market snapshot. Targets with no stored series always stay.
func (s *Scheduler) filterStale(ctx context.Context, targets []string) ([]string, error) {
	var snapshotTime int64
	if v, ok, err := s.db.GetMeta(ctx, model.MetaMarketDataLastUpdate); err != nil {
		return nil, err
	} else if ok {
		snapshotTime, _ = strconv.ParseInt(v, 10, 64)
	}

	updates, err := s.db.SeriesUpdateTimes(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(targets))
	for _, coin := range targets {
		last, exists := updates[coin]
		if !exists || last < snapshotTime {
			out = append(out, coin)
		}
	}
	return out, nil
}

// sleepCtx sleeps for d, returning false if ctx was canceled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
