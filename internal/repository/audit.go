package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kyc-compliance/kyc-intake/internal/entity"
)

// AuditRepository is the append-only action log. Entries are never updated
// or deleted, except by the explicit retention prune.
type AuditRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewAuditRepository(db *sql.DB, logger *slog.Logger) *AuditRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditRepository{db: db, logger: logger, now: time.Now}
}

// Log appends one entry for a state transition.
func (a *AuditRepository) Log(ctx context.Context, customerID, action, details string) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO kyc_logs (timestamp, customer_id, action, details) VALUES (?, ?, ?, ?)`,
		a.now().UTC().Format(time.RFC3339), customerID, action, details)
	if err != nil {
		return fmt.Errorf("append log for %s: %w", customerID, err)
	}
	return nil
}

// Recent returns the newest entries, newest first.
func (a *AuditRepository) Recent(ctx context.Context, limit int) ([]entity.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, timestamp, customer_id, action, details
		FROM kyc_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ForCustomer returns every entry for one customer in insertion order.
func (a *AuditRepository) ForCustomer(ctx context.Context, customerID string) ([]entity.AuditEntry, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, timestamp, customer_id, action, details
		FROM kyc_logs WHERE customer_id = ? ORDER BY id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list logs for %s: %w", customerID, err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Prune deletes entries older than the cutoff and returns how many went.
// A zero retention setting means the log grows unbounded and Prune is
// never called.
func (a *AuditRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := a.db.ExecContext(ctx,
		`DELETE FROM kyc_logs WHERE timestamp < ?`,
		olderThan.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("prune logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		a.logger.Info("pruned audit log", "removed", n, "older_than", olderThan)
	}
	return n, nil
}

func scanEntries(rows *sql.Rows) ([]entity.AuditEntry, error) {
	var out []entity.AuditEntry
	for rows.Next() {
		var (
			e       entity.AuditEntry
			ts      string
			details sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &e.CustomerID, &e.Action, &details); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("decode timestamp: %w", err)
		}
		e.Timestamp = parsed
		e.Details = details.String
		out = append(out, e)
	}
	return out, rows.Err()
}
