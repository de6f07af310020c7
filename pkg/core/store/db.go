// Package store connects the pivot engine to relational backends: a pgx
// pool for PostgreSQL and an embedded SQLite database. Both execute
// synthesized query text as pivot.RowSource and bulk load extracted values.
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

// InitDB initializes the shared connection pool. An empty dbURL falls back
// to the DATABASE_URL environment variable.
func InitDB(ctx context.Context, dbURL string) error {
	var err error
	once.Do(func() {
		if dbURL == "" {
			dbURL = os.Getenv("DATABASE_URL")
		}
		pool, err = Connect(ctx, dbURL)
	})
	return err
}

// Connect opens a new pool for dbURL and verifies it with a ping.
func Connect(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return p, nil
}

// GetPool returns the shared connection pool
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the shared connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}
