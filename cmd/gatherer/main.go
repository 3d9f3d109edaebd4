package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rverma/hyperliquid-data/internal/api"
	"github.com/rverma/hyperliquid-data/internal/config"
	"github.com/rverma/hyperliquid-data/internal/history"
	"github.com/rverma/hyperliquid-data/internal/ingest"
	"github.com/rverma/hyperliquid-data/internal/market"
	"github.com/rverma/hyperliquid-data/internal/server"
	"github.com/rverma/hyperliquid-data/internal/store"
	"github.com/rverma/hyperliquid-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/gatherer.local.yaml", "path to config file")
	flag.Parse()

	// Optional .env for local development; ignored when absent.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting gatherer",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", cfg.Instance.ID,
		"config", *configPath,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Postgres.Host,
		"port", cfg.Database.Postgres.Port,
		"database", cfg.Database.Postgres.Name,
	)

	pool, err := store.Connect(ctx, cfg.Database.Postgres)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	pg := store.NewPostgres(pool)
	if err := pg.Migrate(ctx); err != nil {
		logger.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// Optional Redis read cache in front of the snapshot path.
	var db store.Store = pg
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		db = store.NewSnapshotCache(pg, rdb, cfg.Redis.TTL, logger)
		logger.Info("redis snapshot cache enabled", "addr", cfg.Redis.Addr)
	}

	// Create API client
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

	// Periodic ingestion: refresh the snapshot, then top up any stale
	// funding histories.
	jobs, err := gocron.NewScheduler()
	if err != nil {
		logger.Error("failed to create job scheduler", "error", err)
		os.Exit(1)
	}
	_, err = jobs.NewJob(
		gocron.DurationJob(cfg.Ingest.RefreshInterval),
		gocron.NewTask(func() { runIngestion(ctx, svc, logger) }),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		logger.Error("failed to schedule ingestion job", "error", err)
		os.Exit(1)
	}
	jobs.Start()
	defer func() { _ = jobs.Shutdown() }()

	// HTTP API
	srv := server.New(svc, db, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(cfg.Server.CORSOrigins...),
	}

	go func() {
		logger.Info("starting http server", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}
	logger.Info("gatherer stopped")
}

// runIngestion is one periodic pass: snapshot refresh, then a missing-only
// history run drained to completion.
func runIngestion(ctx context.Context, svc *ingest.Service, logger *slog.Logger) {
	if ctx.Err() != nil {
		return
	}

	if _, err := svc.RefreshSnapshot(ctx); err != nil {
		logger.Error("snapshot refresh failed", "error", err)
		return
	}

	events, err := svc.FetchHistories(ctx, history.MissingOnly)
	if err != nil {
		if errors.Is(err, ingest.ErrRunInProgress) {
			logger.Warn("skipping history run, previous run still active")
			return
		}
		logger.Error("history run failed to start", "error", err)
		return
	}

	var completed, failed int
	for ev := range events {
		switch ev.Status {
		case history.StatusCompleted:
			completed++
		case history.StatusFailed:
			failed++
			logger.Warn("history fetch failed", "coin", ev.Coin, "error", ev.Err)
		}
	}
	logger.Info("ingestion pass finished", "completed", completed, "failed", failed)
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}
