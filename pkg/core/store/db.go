// Package store persists built models: PostgreSQL when a pool is
// configured, JSON files on disk otherwise.
package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// InitDB initializes the database connection pool. An empty dsn falls back
// to the DATABASE_URL environment variable.
func InitDB(ctx context.Context, dsn string) error {
	var err error
	once.Do(func() {
		if dsn == "" {
			dsn = os.Getenv("DATABASE_URL")
		}
		if dsn == "" {
			err = fmt.Errorf("no DSN given and DATABASE_URL environment variable not set")
			return
		}

		config, parseErr := pgxpool.ParseConfig(dsn)
		if parseErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			return
		}
		err = EnsureSchema(ctx, pool)
	})
	return err
}

// GetPool returns the database connection pool
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS model_runs (
	run_id      UUID PRIMARY KEY,
	case_name   TEXT NOT NULL,
	scenario    TEXT NOT NULL,
	balanced    BOOLEAN NOT NULL,
	snapshot    JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS model_runs_case_idx ON model_runs (case_name, created_at DESC);
`

// EnsureSchema creates the model_runs table if it does not exist.
func EnsureSchema(ctx context.Context, p *pgxpool.Pool) error {
	if _, err := p.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
