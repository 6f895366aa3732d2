// Package db stores state vector snapshots recorded by the collector in
// PostgreSQL.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/unklstewy/opensky/pkg/config"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a database connection with helper methods.
type DB struct {
	*sql.DB
	config config.DatabaseConfig
}

// ConnString builds the lib/pq connection string for cfg.
func ConnString(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)
}

// Connect establishes a connection to the PostgreSQL database.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	sqlDB, err := sql.Open("postgres", ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: sqlDB, config: cfg}, nil
}

// New wraps an already open connection.
func New(sqlDB *sql.DB) *DB {
	return &DB{DB: sqlDB}
}

// InitSchema creates or updates the database schema.
// This should be called once at application startup.
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// PruneSnapshots deletes snapshots (and, by cascade, their vectors) fetched
// before now minus maxAge, and forgets aircraft not seen since then.
// It returns the number of snapshots removed.
func (db *DB) PruneSnapshots(ctx context.Context, maxAge time.Duration, now time.Time) (int64, error) {
	cutoff := now.UTC().Add(-maxAge)

	res, err := db.ExecContext(ctx,
		`DELETE FROM state_snapshots WHERE fetched_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old snapshots: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted snapshots: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		`DELETE FROM aircraft WHERE last_seen < $1`,
		cutoff,
	); err != nil {
		return removed, fmt.Errorf("failed to delete stale aircraft: %w", err)
	}

	return removed, nil
}

// Stats summarises stored data.
type Stats struct {
	Snapshots    int64
	StateVectors int64
	Aircraft     int64
	Oldest       *time.Time
	Newest       *time.Time
}

// GetStats returns database statistics.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	var (
		s              Stats
		oldest, newest sql.NullTime
	)

	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(fetched_at), MAX(fetched_at) FROM state_snapshots`,
	).Scan(&s.Snapshots, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("failed to count snapshots: %w", err)
	}
	if oldest.Valid {
		s.Oldest = &oldest.Time
	}
	if newest.Valid {
		s.Newest = &newest.Time
	}

	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM state_vectors`).Scan(&s.StateVectors); err != nil {
		return nil, fmt.Errorf("failed to count state vectors: %w", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM aircraft`).Scan(&s.Aircraft); err != nil {
		return nil, fmt.Errorf("failed to count aircraft: %w", err)
	}

	return &s, nil
}
