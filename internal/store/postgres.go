package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rverma/hyperliquid-data/internal/config"
	"github.com/rverma/hyperliquid-data/internal/model"
)

// Postgres is the durable Store adapter.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}

// Connect creates a connection pool and verifies it.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Pool exposes the underlying pool for health checks.
func (p *Postgres) Pool() *pgxpool.Pool { return p.pool }

// Migrate creates the schema if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS market_data (
			coin TEXT PRIMARY KEY,
			data JSONB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS funding_history (
			coin TEXT PRIMARY KEY,
			history JSONB NOT NULL,
			last_update BIGINT NOT NULL DEFAULT 0,
			record_count INT NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at BIGINT NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS user_preferences (
			key TEXT PRIMARY KEY,
			value JSONB NOT NULL,
			updated_at BIGINT NOT NULL DEFAULT 0
		);
	`
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (p *Postgres) GetMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.pool.QueryRow(ctx, `SELECT value FROM metadata WHERE key = $1`, key).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, true, nil
}

func (p *Postgres) PutMeta(ctx context.Context, key, value string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO metadata (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = $3
	`, key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put meta %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) GetSnapshot(ctx context.Context) ([]model.Instrument, error) {
	rows, err := p.pool.Query(ctx, `SELECT data FROM market_data`)
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	defer rows.Close()

	var out []model.Instrument
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		var inst model.Instrument
		if err := json.Unmarshal(data, &inst); err != nil {
			return nil, fmt.Errorf("decode instrument: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// ReplaceSnapshot swaps the whole collection in one transaction so readers
// never observe a half-written snapshot.
func (p *Postgres) ReplaceSnapshot(ctx context.Context, instruments []model.Instrument) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM market_data`); err != nil {
		return fmt.Errorf("clear market data: %w", err)
	}

	batch := &pgx.Batch{}
	for _, inst := range instruments {
		data, err := json.Marshal(inst)
		if err != nil {
			return fmt.Errorf("encode instrument %s: %w", inst.Symbol, err)
		}
		batch.Queue(`INSERT INTO market_data (coin, data) VALUES ($1, $2)`, inst.Symbol, data)
	}

	results := tx.SendBatch(ctx, batch)
	for range instruments {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert instrument: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	return tx.Commit(ctx)
}

func (p *Postgres) GetSeries(ctx context.Context, coin string) (*model.FundingSeries, error) {
	var (
		history     []byte
		lastUpdate  int64
		recordCount int
	)
	err := p.pool.QueryRow(ctx, `
		SELECT history, last_update, record_count FROM funding_history WHERE coin = $1
	`, coin).Scan(&history, &lastUpdate, &recordCount)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get series %s: %w", coin, err)
	}

	s := &model.FundingSeries{
		Coin:        coin,
		LastUpdate:  lastUpdate,
		RecordCount: recordCount,
	}
	if err := json.Unmarshal(history, &s.History); err != nil {
		return nil, fmt.Errorf("decode series %s: %w", coin, err)
	}
	return s, nil
}

func (p *Postgres) PutSeries(ctx context.Context, series *model.FundingSeries) error {
	history, err := json.Marshal(series.History)
	if err != nil {
		return fmt.Errorf("encode series %s: %w", series.Coin, err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO funding_history (coin, history, last_update, record_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (coin) DO UPDATE SET history = $2, last_update = $3, record_count = $4
	`, series.Coin, history, series.LastUpdate, series.RecordCount)
	if err != nil {
		return fmt.Errorf("put series %s: %w", series.Coin, err)
	}
	return nil
}

func (p *Postgres) SeriesKeys(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT coin FROM funding_history`)
	if err != nil {
		return nil, fmt.Errorf("series keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var coin string
		if err := rows.Scan(&coin); err != nil {
			return nil, err
		}
		keys = append(keys, coin)
	}
	return keys, rows.Err()
}

func (p *Postgres) SeriesUpdateTimes(ctx context.Context) (map[string]int64, error) {
	rows, err := p.pool.Query(ctx, `SELECT coin, last_update FROM funding_history`)
	if err != nil {
		return nil, fmt.Errorf("series update times: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			coin string
			ts   int64
		)
		if err := rows.Scan(&coin, &ts); err != nil {
			return nil, err
		}
		out[coin] = ts
	}
	return out, rows.Err()
}

func (p *Postgres) GetPreference(ctx context.Context, name string) ([]string, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM user_preferences WHERE key = $1`, name).Scan(&data)
	if err == pgx.ErrNoRows {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preference %s: %w", name, err)
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode preference %s: %w", name, err)
	}
	return values, nil
}

func (p *Postgres) PutPreference(ctx context.Context, name string, values []string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode preference %s: %w", name, err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO user_preferences (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = $3
	`, name, data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put preference %s: %w", name, err)
	}
	return nil
}

func (p *Postgres) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(record_count), 0),
		       COALESCE(MIN(last_update), 0),
		       COALESCE(MAX(last_update), 0)
		FROM funding_history
	`).Scan(&st.Coins, &st.TotalRecords, &st.OldestUpdate, &st.NewestUpdate)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// Clear drops ingested data. Preferences survive, matching the store's
// clear-all contract.
func (p *Postgres) Clear(ctx context.Context) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"market_data", "funding_history", "metadata"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit(ctx)
}
