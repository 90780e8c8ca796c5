package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolSettings configures the Postgres connection pool for the directory
// source.
type PoolSettings struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// ConnectPool opens a pgx pool against the given connection string and
// verifies connectivity.
func ConnectPool(ctx context.Context, connString string, s PoolSettings) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	if s.MaxConns > 0 {
		config.MaxConns = int32(s.MaxConns)
	}
	if s.MinConns > 0 {
		config.MinConns = int32(s.MinConns)
	}
	if s.MaxConnLifetime > 0 {
		config.MaxConnLifetime = s.MaxConnLifetime
	}
	if s.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = s.MaxConnIdleTime
	}
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return pool, nil
}

// LoadPostgres reads the store directory from the stores table, preserving
// the table's insertion order as directory order.
func LoadPostgres(ctx context.Context, pool *pgxpool.Pool) (*Directory, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, name, latitude, longitude
		FROM stores
		ORDER BY position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying stores: %w", err)
	}
	defer rows.Close()

	var out []Store
	for rows.Next() {
		var s Store
		if err := rows.Scan(&s.ID, &s.Name, &s.Lat, &s.Lon); err != nil {
			return nil, fmt.Errorf("scanning store: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stores: %w", err)
	}

	return NewDirectory(out), nil
}
