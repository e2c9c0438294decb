package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/sirupsen/logrus"
)

// PoolOptions tunes the connection pool and the startup connectivity check.
type PoolOptions struct {
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectAttempts int
	RetryDelay      time.Duration // doubled after every failed ping
	PingTimeout     time.Duration
}

func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxOpenConns:    25,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: time.Minute,
		ConnectAttempts: 5,
		RetryDelay:      time.Second,
		PingTimeout:     5 * time.Second,
	}
}

// NewPostgresConnection opens a pool and waits until the server answers a ping.
// The database container often comes up after the app, so failed pings are retried.
func NewPostgresConnection(ctx context.Context, dataSourceName string, opts PoolOptions, logger *logrus.Entry) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxOpenConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	if err := waitForPing(ctx, db, opts, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func waitForPing(ctx context.Context, db *sql.DB, opts PoolOptions, logger *logrus.Entry) error {
	attempts := opts.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := opts.RetryDelay

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		logger.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"retry_in": delay.String(),
		}).Warn("Database not reachable yet")

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to ping database: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("failed to ping database after %d attempts: %w", attempts, err)
}
