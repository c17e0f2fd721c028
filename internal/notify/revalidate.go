package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kyc-compliance/kyc-intake/constants"
	"github.com/kyc-compliance/kyc-intake/internal/entity"
	"github.com/kyc-compliance/kyc-intake/internal/llm"
	"github.com/kyc-compliance/kyc-intake/internal/validate"
)

type DecisionStore interface {
	ListWithExpiry(ctx context.Context) ([]entity.KycRecord, error)
	UpdateDecision(ctx context.Context, customerID string, status constants.Status, flags []string, report string) error
}

// Revalidator re-checks every stored expiry date against today and rewrites
// decisions that drifted stale, using the same override rule the validator
// applies at intake time.
type Revalidator struct {
	records DecisionStore
	audit   AuditLogger
	logger  *slog.Logger
	now     func() time.Time
}

func NewRevalidator(records DecisionStore, audit AuditLogger, logger *slog.Logger) *Revalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Revalidator{records: records, audit: audit, logger: logger, now: time.Now}
}

// RevalidateAll returns the number of records whose decision changed.
// Re-running against the same date is a no-op.
func (r *Revalidator) RevalidateAll(ctx context.Context) (int, error) {
	recs, err := r.records.ListWithExpiry(ctx)
	if err != nil {
		return 0, fmt.Errorf("list records with expiry: %w", err)
	}
	r.logger.Info("revalidate.start", "candidates", len(recs))

	today := r.now()
	changed := 0
	for _, rec := range recs {
		if ctx.Err() != nil {
			return changed, ctx.Err()
		}

		v := llm.Verdict{
			IDExpiry:         rec.IDExpiry,
			ValidationStatus: rec.Status,
			Flags:            rec.Flags,
			ComplianceReport: rec.ComplianceReport,
		}
		if !validate.ApplyExpiryOverride(&v, today, r.logger) {
			continue
		}

		if err := r.records.UpdateDecision(ctx, rec.CustomerID,
			v.ValidationStatus, v.Flags, v.ComplianceReport); err != nil {
			r.logger.Error("decision update failed", "customer_id", rec.CustomerID, "error", err)
			continue
		}
		changed++
		details := fmt.Sprintf("status %s -> %s", rec.Status, v.ValidationStatus)
		if r.audit != nil {
			if aerr := r.audit.Log(ctx, rec.CustomerID, constants.ActionRevalidated, details); aerr != nil {
				r.logger.Warn("audit write failed", "customer_id", rec.CustomerID, "error", aerr)
			}
		}
		r.logger.Info("decision revalidated", "customer_id", rec.CustomerID, "change", details)
	}

	r.logger.Info("revalidate.done", "candidates", len(recs), "changed", changed)
	return changed, nil
}
