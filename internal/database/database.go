package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"token-monitor/internal/config"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ReportStore persists token creation reports to Postgres
type ReportStore struct {
	db     *sql.DB
	dbName string
	logger *zerolog.Logger
}

// Open opens and pings the database connection
func Open(cfg config.DatabaseConfig, logger *zerolog.Logger) (*ReportStore, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	return NewReportStore(db, cfg.DBName, logger), nil
}

// NewReportStore wraps an existing connection
func NewReportStore(db *sql.DB, dbName string, logger *zerolog.Logger) *ReportStore {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ReportStore{db: db, dbName: dbName, logger: logger}
}

// Migrate runs the embedded up migrations
func (s *ReportStore) Migrate() error {
	driver, err := postgres.WithInstance(s.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create database driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, s.dbName, driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run up migrations: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *ReportStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
