// Package database manages the console's metadata store, the PostgreSQL
// database holding saved queries, menu items, roles, users, widgets, and
// KPI definitions. The reporting datasource the saved SQL runs against is a
// separate connection entirely (see pkg/datasource); nothing here ever
// touches customer data.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool settings applied when the corresponding Config field is zero. The
// metadata store sees short bursty queries from the console UI, so
// connections recycle rather than idle.
const (
	defaultMaxConns     = 25
	defaultConnLifetime = time.Hour
	defaultConnIdleTime = 30 * time.Minute
)

// DB wraps a pgxpool connection pool over the metadata store.
type DB struct {
	*pgxpool.Pool
}

// Config holds metadata store connection configuration.
type Config struct {
	URL             string
	MaxConnections  int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// NewConnection opens the metadata store pool and verifies it answers a
// ping before handing it out.
func NewConnection(ctx context.Context, cfg *Config) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = orDefault(cfg.MaxConnections, defaultMaxConns)
	poolConfig.MaxConnLifetime = orDefault(cfg.MaxConnLifetime, defaultConnLifetime)
	poolConfig.MaxConnIdleTime = orDefault(cfg.MaxConnIdleTime, defaultConnIdleTime)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

func orDefault[T int32 | time.Duration](v, fallback T) T {
	if v == 0 {
		return fallback
	}
	return v
}

// Healthy reports whether the metadata store currently answers a ping.
// The readiness endpoint bounds the probe's context.
func (db *DB) Healthy(ctx context.Context) error {
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("metadata store unreachable: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}
