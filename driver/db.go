package driver

import (
	"context"
	"fmt"

	"reddit-listener/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InitDB opens the connection pool and makes sure the schema exists.
func InitDB(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// EnsureSchema creates the threads table on startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	schema := `
		CREATE TABLE IF NOT EXISTS threads (
			id               UUID PRIMARY KEY,
			permalink        TEXT NOT NULL UNIQUE,
			subreddit        TEXT NOT NULL,
			title            TEXT NOT NULL,
			author           TEXT NOT NULL DEFAULT '',
			flair            TEXT NOT NULL DEFAULT '',
			body             TEXT NOT NULL DEFAULT '',
			posted_at        TIMESTAMPTZ NOT NULL,
			posted_precision SMALLINT NOT NULL DEFAULT 0,
			raw_posted_text  TEXT NOT NULL DEFAULT '',
			summary          TEXT,
			fetched_at       TIMESTAMPTZ NOT NULL,
			summarized_at    TIMESTAMPTZ
		)
	`

	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	return nil
}
