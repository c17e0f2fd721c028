// Package repository persists decisions and the audit log in embedded sqlite.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

type Config struct {
	Path        string // file path, or ":memory:" for tests
	BusyTimeout time.Duration
}

// Open connects to the sqlite database and applies pending migrations.
// The pool is capped at one connection: the store is a single local file
// written by a single scheduled runner.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	logger.Info("opening database", "path", cfg.Path)
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		_ = db.Close()
		return nil, err
	}

	if err := Migrate(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("database ready", "path", cfg.Path)
	return db, nil
}

// Close closes the database connection gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
		return
	}
	logger.Info("database closed")
}

type migration struct {
	version int
	name    string
	apply   func(ctx context.Context, tx *sql.Tx) error
}

// Migrations run once at startup, in order, independent of any query path.
// They only ever add; existing rows and columns are never dropped.
var migrations = []migration{
	{
		version: 1,
		name:    "create kyc_records",
		apply: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS kyc_records (
					customer_id       TEXT PRIMARY KEY,
					email_date        TEXT,
					status            TEXT NOT NULL,
					name              TEXT,
					dob               TEXT,
					id_number         TEXT,
					id_type           TEXT,
					id_expiry         TEXT,
					address           TEXT,
					documents         TEXT NOT NULL DEFAULT '[]',
					flags             TEXT NOT NULL DEFAULT '[]',
					compliance_report TEXT,
					missing_documents TEXT NOT NULL DEFAULT '[]',
					data_consistency  TEXT,
					processed_at      TEXT NOT NULL
				)`)
			return err
		},
	},
	{
		version: 2,
		name:    "create kyc_logs",
		apply: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS kyc_logs (
					id          INTEGER PRIMARY KEY AUTOINCREMENT,
					timestamp   TEXT NOT NULL,
					customer_id TEXT NOT NULL,
					action      TEXT NOT NULL,
					details     TEXT
				)`)
			return err
		},
	},
	{
		// customer_email arrived after initial deployment; pre-existing
		// databases gain the column non-destructively.
		version: 3,
		name:    "add kyc_records.customer_email",
		apply: func(ctx context.Context, tx *sql.Tx) error {
			ok, err := hasColumn(ctx, tx, "kyc_records", "customer_email")
			if err != nil || ok {
				return err
			}
			_, err = tx.ExecContext(ctx, `ALTER TABLE kyc_records ADD COLUMN customer_email TEXT`)
			return err
		},
	},
}

// Migrate applies all migrations newer than the recorded schema version.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if err := m.apply(ctx, tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			m.version, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
		logger.Info("applied migration", "version", m.version, "name", m.name)
	}
	return nil
}

func hasColumn(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
