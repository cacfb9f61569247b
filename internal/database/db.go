// Package database provides SQLite-backed storage for prayer records.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// memoryPath opens a private in-memory database. It lives only as long as
// its single connection, so it must be used with MaxOpenConns=1.
const memoryPath = ":memory:"

// DB is the prayer record store.
type DB struct {
	*sql.DB
	logger *slog.Logger
}

// Config holds connection settings for the record store.
type Config struct {
	Path            string // file path or ":memory:"
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns the settings used by the server and import tool.
// The store has a single writer and at most MaxRecords rows, so one
// connection is enough.
func DefaultConfig(path string) Config {
	return Config{
		Path:            path,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}
}

// dsn builds the go-sqlite3 connection string. WAL has no effect on an
// in-memory database and is only requested for files.
func (c Config) dsn() string {
	if c.Path == memoryPath {
		return memoryPath + "?_busy_timeout=5000"
	}
	return c.Path + "?_journal_mode=WAL&_busy_timeout=5000"
}

// Open connects to the record store at cfg.Path, creating its parent
// directory if needed. Call Migrate before use and Close when done.
func Open(cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Path != memoryPath {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create record store directory: %w", err)
			}
		}
	}

	sqlDB, err := sql.Open("sqlite3", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping record store: %w", err)
	}

	logger.Info("record store opened", slog.String("path", cfg.Path))

	return &DB{DB: sqlDB, logger: logger}, nil
}

// Close releases the connection pool.
func (db *DB) Close() error {
	db.logger.Info("closing record store")
	return db.DB.Close()
}

// HealthReport describes the store as seen by Health.
type HealthReport struct {
	SchemaVersion int `json:"schema_version"`
	Records       int `json:"records"`
}

// Health checks that the store answers queries and reports its schema
// version and how many prayer records it holds.
func (db *DB) Health(ctx context.Context) (*HealthReport, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var report HealthReport
	err := db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&report.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("read schema version: %w", err)
	}

	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM prayer_records").Scan(&report.Records)
	if err != nil {
		return nil, fmt.Errorf("count prayer records: %w", err)
	}

	db.logger.Debug("record store healthy",
		slog.Int("schema_version", report.SchemaVersion),
		slog.Int("records", report.Records),
	)
	return &report, nil
}

// =============================================================================
// Migrations
// =============================================================================

// Migrate applies every migration newer than the recorded schema version in
// one transaction and returns how many were applied. Versions run in
// ascending order and must be contiguous from 1.
func (db *DB) Migrate(ctx context.Context) (int, error) {
	applied := 0
	err := db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INTEGER PRIMARY KEY,
				applied_at TEXT NOT NULL DEFAULT (datetime('now'))
			)
		`)
		if err != nil {
			return fmt.Errorf("create schema_migrations: %w", err)
		}

		var current int
		err = tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}

		for version := current + 1; version <= len(migrationsSQL); version++ {
			stmt, ok := migrationsSQL[version]
			if !ok {
				return fmt.Errorf("migration %d missing", version)
			}

			db.logger.Info("applying migration", slog.Int("version", version))
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %d: %w", version, err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
				return fmt.Errorf("record migration %d: %w", version, err)
			}
			applied++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	db.logger.Info("record store schema current",
		slog.Int("applied", applied),
		slog.Int("version", len(migrationsSQL)),
	)
	return applied, nil
}

// =============================================================================
// Transactions
// =============================================================================

// Tx is a transaction on the record store.
type Tx struct {
	*sql.Tx
}

// WithTx runs fn in a transaction, committing if it returns nil and rolling
// back otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(*Tx) error) error {
	sqlTx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	tx := &Tx{sqlTx}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ErrNotFound is returned when no prayer record has the requested ID.
var ErrNotFound = errors.New("prayer record not found")

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
