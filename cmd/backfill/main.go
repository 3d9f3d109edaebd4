package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rverma/hyperliquid-data/internal/api"
	"github.com/rverma/hyperliquid-data/internal/config"
	"github.com/rverma/hyperliquid-data/internal/history"
	"github.com/rverma/hyperliquid-data/internal/ingest"
	"github.com/rverma/hyperliquid-data/internal/market"
	"github.com/rverma/hyperliquid-data/internal/store"
	"github.com/rverma/hyperliquid-data/internal/version"
)

// backfill is a one-shot funding-history run: refresh the market snapshot,
// then pull histories for every instrument (or an explicit coin list) and
// print progress as it happens.
func main() {
	configPath := flag.String("config", "configs/gatherer.local.yaml", "path to config file")
	force := flag.Bool("force", false, "refetch every series from its earliest record")
	coins := flag.String("coins", "", "comma-separated symbols to fetch instead of the full snapshot")
	dryRun := flag.Bool("dry-run", false, "run against an in-memory store, discarding results")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	_ = godotenv.Load()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "interrupted, finishing current batch")
		cancel()
	}()

	var db store.Store
	if *dryRun {
		fmt.Fprintln(os.Stderr, "dry run: results will be discarded")
		db = store.NewMemory()
	} else {
		pool, err := store.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := store.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to migrate schema: %v\n", err)
			os.Exit(1)
		}
		db = pg
	}

	apiClient := api.NewClient(
		cfg.API.EndpointURL,
		api.WithFallbacks(cfg.API.FallbackURLs...),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst),
		api.WithLogger(logger),
	)

	fetcher := market.NewFetcher(
		market.Config{VenueConcurrency: cfg.Ingest.VenueConcurrency},
		apiClient,
		market.NewTradFiSet(cfg.Ingest.TradFiSymbols),
		logger,
	)
	scheduler := history.New(
		history.Config{
			BatchSize:  cfg.History.BatchSize,
			BatchDelay: cfg.History.BatchDelay,
			PageDelay:  cfg.History.PageDelay,
			Cooldown:   cfg.History.Cooldown,
			PageSize:   api.MaxHistoryPage,
		},
		apiClient,
		db,
		logger,
	)
	svc := ingest.NewService(fetcher, scheduler, db, logger)

	targets, err := resolveTargets(ctx, svc, *coins)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve targets: %v\n", err)
		os.Exit(1)
	}
	if len(targets) == 0 {
		fmt.Fprintln(os.Stderr, "no targets to fetch")
		os.Exit(1)
	}

	mode := history.MissingOnly
	if *force {
		mode = history.ForceAll
	}
	fmt.Printf("backfilling %d symbols (%s)\n", len(targets), mode)

	var completed, failed int
	for ev := range scheduler.Run(ctx, targets, mode) {
		switch ev.Status {
		case history.StatusPageFetched:
			fmt.Printf("  %-16s page %d, %d records\n", ev.Coin, ev.Pages, ev.Records)
		case history.StatusCompleted:
			completed++
			fmt.Printf("✓ %-16s %d records\n", ev.Coin, ev.Records)
		case history.StatusFailed:
			failed++
			fmt.Printf("✗ %-16s %v\n", ev.Coin, ev.Err)
		}
	}
	fmt.Printf("done: %d completed, %d failed\n", completed, failed)

	if failed > 0 {
		os.Exit(1)
	}
}

// resolveTargets either parses the explicit -coins list or refreshes the
// market snapshot through the ingestion service, so the stored snapshot and
// its metadata stay consistent, and uses every instrument's namespaced
// symbol.
func resolveTargets(ctx context.Context, svc *ingest.Service, coins string) ([]string, error) {
	if coins != "" {
		var out []string
		for _, c := range strings.Split(coins, ",") {
			if c = strings.TrimSpace(c); c != "" {
				out = append(out, c)
			}
		}
		return out, nil
	}

	snap, err := svc.RefreshSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(snap.Instruments))
	for _, inst := range snap.Instruments {
		out = append(out, inst.Symbol)
	}
	return out, nil
}
