package db

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/unklstewy/opensky/internal/logging"
	"github.com/unklstewy/opensky/pkg/config"
)

// newMock forwards opts to sqlmock.New. sqlmock's option type has an
// unexported parameter and cannot be named here, so it is passed via reflect.
func newMock(t *testing.T, opts ...any) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	args := make([]reflect.Value, len(opts))
	for i, o := range opts {
		args[i] = reflect.ValueOf(o)
	}
	out := reflect.ValueOf(sqlmock.New).Call(args)
	sqlDB, _ := out[0].Interface().(*sql.DB)
	mock, _ := out[1].Interface().(sqlmock.Sqlmock)
	if err, _ := out[2].Interface().(error); err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return New(sqlDB), mock
}

// TestConnString tests connection string construction.
func TestConnString(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.example.com",
		Port:     5433,
		Username: "opensky",
		Password: "secret",
		Database: "tracks",
		SSLMode:  "require",
	}
	got := ConnString(cfg)
	want := "host=db.example.com port=5433 user=opensky password=secret dbname=tracks sslmode=require"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

// TestInitSchema tests that the embedded schema is executed.
func TestInitSchema(t *testing.T) {
	if !strings.Contains(schemaSQL, "CREATE TABLE IF NOT EXISTS state_vectors") {
		t.Fatal("Expected embedded schema to define state_vectors")
	}

	db, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS state_snapshots").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := db.InitSchema(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

// TestPruneSnapshots tests retention cleanup.
func TestPruneSnapshots(t *testing.T) {
	now := time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)

	t.Run("Deletes old rows", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec("DELETE FROM state_snapshots WHERE fetched_at < \\$1").
			WithArgs(cutoff).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec("DELETE FROM aircraft WHERE last_seen < \\$1").
			WithArgs(cutoff).
			WillReturnResult(sqlmock.NewResult(0, 5))

		removed, err := db.PruneSnapshots(context.Background(), 24*time.Hour, now)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if removed != 3 {
			t.Errorf("Expected 3 snapshots removed, got %d", removed)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("Delete failure", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec("DELETE FROM state_snapshots").WillReturnError(errors.New("disk full"))

		if _, err := db.PruneSnapshots(context.Background(), time.Hour, now); err == nil {
			t.Error("Expected error, got nil")
		}
	})
}

// TestGetStats tests database statistics retrieval.
func TestGetStats(t *testing.T) {
	db, mock := newMock(t)
	oldest := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	newest := oldest.Add(time.Hour)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\), MIN\\(fetched_at\\), MAX\\(fetched_at\\) FROM state_snapshots").
		WillReturnRows(sqlmock.NewRows([]string{"count", "min", "max"}).AddRow(12, oldest, newest))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM state_vectors").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(340))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM aircraft").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(57))

	stats, err := db.GetStats(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stats.Snapshots != 12 || stats.StateVectors != 340 || stats.Aircraft != 57 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if stats.Oldest == nil || !stats.Oldest.Equal(oldest) || stats.Newest == nil || !stats.Newest.Equal(newest) {
		t.Errorf("Unexpected time range %v - %v", stats.Oldest, stats.Newest)
	}
}

// TestHealthCheck tests ping and query checks.
func TestHealthCheck(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		db, mock := newMock(t, sqlmock.MonitorPingsOption(true))
		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		if err := HealthCheck(context.Background(), db); err != nil {
			t.Errorf("Expected healthy database, got %v", err)
		}
	})

	t.Run("Ping fails", func(t *testing.T) {
		db, mock := newMock(t, sqlmock.MonitorPingsOption(true))
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		if err := HealthCheck(context.Background(), db); err == nil {
			t.Error("Expected error, got nil")
		}
	})

	t.Run("Nil connection", func(t *testing.T) {
		if err := HealthCheck(context.Background(), nil); err == nil {
			t.Error("Expected error for nil connection")
		}
	})
}

// TestReconnectWithRetry tests retry counting and backoff.
func TestReconnectWithRetry(t *testing.T) {
	original := connect
	t.Cleanup(func() { connect = original })

	t.Run("Succeeds after failures", func(t *testing.T) {
		attempts := 0
		connect = func(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("connection refused")
			}
			return &DB{config: cfg}, nil
		}

		db, err := ReconnectWithRetry(context.Background(), config.DatabaseConfig{Host: "h"}, 5, time.Millisecond, logging.Discard())
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if attempts != 3 {
			t.Errorf("Expected 3 attempts, got %d", attempts)
		}
		if db.config.Host != "h" {
			t.Errorf("Expected config to be kept, got %+v", db.config)
		}
	})

	t.Run("Gives up", func(t *testing.T) {
		attempts := 0
		connect = func(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
			attempts++
			return nil, errors.New("connection refused")
		}

		if _, err := ReconnectWithRetry(context.Background(), config.DatabaseConfig{}, 2, time.Millisecond, logging.Discard()); err == nil {
			t.Fatal("Expected error, got nil")
		}
		if attempts != 2 {
			t.Errorf("Expected 2 attempts, got %d", attempts)
		}
	})

	t.Run("Stops on cancel", func(t *testing.T) {
		connect = func(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
			return nil, errors.New("connection refused")
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := ReconnectWithRetry(ctx, config.DatabaseConfig{}, 0, time.Hour, logging.Discard())
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})
}

// TestEnsureConnection tests that a live connection is kept and a dead one replaced.
func TestEnsureConnection(t *testing.T) {
	original := connect
	t.Cleanup(func() { connect = original })

	replacement := &DB{config: config.DatabaseConfig{Host: "replacement"}}
	dials := 0
	connect = func(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
		dials++
		return replacement, nil
	}

	t.Run("Alive", func(t *testing.T) {
		dials = 0
		db, mock := newMock(t, sqlmock.MonitorPingsOption(true))
		mock.ExpectPing()

		got, err := EnsureConnection(context.Background(), db, config.DatabaseConfig{}, logging.Discard())
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if got != db {
			t.Error("Expected the same connection to be returned")
		}
		if dials != 0 {
			t.Errorf("Expected no reconnect, got %d dials", dials)
		}
	})

	t.Run("Ping fails", func(t *testing.T) {
		dials = 0
		db, mock := newMock(t, sqlmock.MonitorPingsOption(true))
		mock.ExpectPing().WillReturnError(errors.New("connection reset"))
		mock.ExpectClose()

		got, err := EnsureConnection(context.Background(), db, config.DatabaseConfig{}, logging.Discard())
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if got != replacement {
			t.Error("Expected the reconnected database")
		}
		if dials != 1 {
			t.Errorf("Expected 1 dial, got %d", dials)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("Nil connection", func(t *testing.T) {
		dials = 0
		got, err := EnsureConnection(context.Background(), nil, config.DatabaseConfig{}, logging.Discard())
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if got != replacement || dials != 1 {
			t.Errorf("Expected 1 dial returning the replacement, got %d dials", dials)
		}
	})
}
