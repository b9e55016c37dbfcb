package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

const dbRetryDelay = 2 * time.Second

// normalizeDatabaseURL rewrites postgresql:// to postgres:// and defaults sslmode to disable.
func normalizeDatabaseURL(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgresql:") {
		databaseURL = "postgres" + strings.TrimPrefix(databaseURL, "postgresql")
	}
	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "?"
		if strings.Contains(databaseURL, "?") {
			separator = "&"
		}
		databaseURL = databaseURL + separator + "sslmode=disable"
	}
	return databaseURL
}

// openDB connects to PostgreSQL, waiting for it to come up.
func openDB(ctx context.Context, databaseURL string, attempts int, logger *slog.Logger) (*sql.DB, error) {
	config, err := pgx.ParseConfig(normalizeDatabaseURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	db := stdlib.OpenDB(*config)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	err = retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(dbRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("database not ready, retrying",
				"attempt", n+1,
				"max_attempts", attempts,
				"delay", dbRetryDelay,
				"error", err,
			)
		}),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, err)
	}

	logger.Info("database connection established", "host", config.Host, "database", config.Database)
	return db, nil
}

// initDB opens the database and brings the schema up to date.
func initDB(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := openDB(ctx, cfg.DatabaseURL, cfg.DBConnectAttempts, logger)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
