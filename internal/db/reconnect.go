package db

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/unklstewy/opensky/pkg/config"
)

// connect is swapped out in tests.
var connect = Connect

// ReconnectWithRetry attempts to connect to the database with exponential
// backoff, capped at 60 seconds between attempts.
//
// Parameters:
//   - cfg: Database configuration
//   - maxRetries: Maximum number of connection attempts (0 = until ctx is done)
//   - initialDelay: Initial wait time between retries
func ReconnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration, log logrus.FieldLogger) (*DB, error) {
	delay := initialDelay
	attempt := 0

	for {
		attempt++
		log.WithField("attempt", attempt).Debug("connecting to database")

		db, err := connect(ctx, cfg)
		if err == nil {
			log.WithField("attempt", attempt).Info("database connected")
			return db, nil
		}

		if maxRetries > 0 && attempt >= maxRetries {
			return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempt, err)
		}

		log.WithError(err).WithField("retry_in", delay).Warn("database connection failed")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > 60*time.Second {
			delay = 60 * time.Second
		}
	}
}

// EnsureConnection checks if the database connection is alive and reconnects if needed.
// It returns the connection to use from now on, either db or a new one.
func EnsureConnection(ctx context.Context, db *DB, cfg config.DatabaseConfig, log logrus.FieldLogger) (*DB, error) {
	if db == nil {
		log.Warn("database connection is nil, reconnecting")
		return ReconnectWithRetry(ctx, cfg, 3, time.Second, log)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		log.WithError(err).Warn("database connection lost, reconnecting")
		db.Close()
		return ReconnectWithRetry(ctx, cfg, 3, time.Second, log)
	}

	return db, nil
}

// HealthCheck reports whether the database answers a ping and a trivial query.
func HealthCheck(ctx context.Context, db *DB) error {
	if db == nil {
		return fmt.Errorf("health check: no connection")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("health check ping: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("health check query: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("health check: unexpected result %d", result)
	}
	return nil
}
