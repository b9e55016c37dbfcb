package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// runMigrations applies every pending migration in migrations/.
// It uses its own connection because closing the migrator closes the database handle.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	config, err := pgx.ParseConfig(normalizeDatabaseURL(databaseURL))
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}
	migrateDB := stdlib.OpenDB(*config)

	driver, err := pgxmigrate.WithInstance(migrateDB, &pgxmigrate.Config{})
	if err != nil {
		migrateDB.Close()
		return fmt.Errorf("create pgx migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		driver.Close()
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		driver.Close()
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	logger.Info("schema up to date", "version", version, "dirty", dirty)
	return nil
}

// setupDatabase is the -migrate entry point: wait for the database, then migrate.
func setupDatabase(ctx context.Context, cfg Config, logger *slog.Logger) error {
	db, err := openDB(ctx, cfg.DatabaseURL, cfg.DBConnectAttempts, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("creating database schema")
	return runMigrations(cfg.DatabaseURL, logger)
}
