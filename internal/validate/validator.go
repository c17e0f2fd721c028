// Package validate wraps the reasoning-service verdict with the deterministic
// expiry rule. The service's temporal judgment drifts, so expiry classification
// is always recomputed locally against today's date.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kyc-compliance/kyc-intake/constants"
	"github.com/kyc-compliance/kyc-intake/internal/expiry"
	"github.com/kyc-compliance/kyc-intake/internal/llm"
)

// AuditLogger records one entry per meaningful state transition.
type AuditLogger interface {
	Log(ctx context.Context, customerID, action, details string) error
}

type Validator struct {
	extractor llm.VerdictExtractor
	audit     AuditLogger
	logger    *slog.Logger
	now       func() time.Time
}

func NewValidator(extractor llm.VerdictExtractor, audit AuditLogger, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		extractor: extractor,
		audit:     audit,
		logger:    logger,
		now:       time.Now,
	}
}

// Validate sends the extracted texts to the reasoning service, applies the
// expiry override, and records the final status in the audit log.
func (v *Validator) Validate(ctx context.Context, req llm.ValidateRequest) (llm.Verdict, error) {
	verdict, _, err := v.extractor.ExtractVerdict(ctx, req)
	if err != nil {
		return llm.Verdict{}, err
	}

	ApplyExpiryOverride(&verdict, v.now(), v.logger)

	if v.audit != nil {
		details := fmt.Sprintf("status=%s flags=%d", verdict.ValidationStatus, len(verdict.Flags))
		if aerr := v.audit.Log(ctx, req.CustomerID, constants.ActionLLMValidation, details); aerr != nil {
			v.logger.Warn("audit write failed", "customer_id", req.CustomerID, "error", aerr)
		}
	}
	return verdict, nil
}

// ApplyExpiryOverride rewrites the verdict from the expiry date alone,
// independent of what the reasoning service concluded. Reports whether the
// verdict was changed. Calling it twice with the same date is a no-op the
// second time: flags are inserted only when absent, and the rejection notice
// is prepended only alongside a newly inserted flag.
func ApplyExpiryOverride(verdict *llm.Verdict, today time.Time, logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}
	if verdict.IDExpiry == "" {
		return false
	}

	cls, err := expiry.Classify(verdict.IDExpiry, today)
	if err != nil {
		// unparsable date leaves the verdict untouched
		logger.Warn("unparsable id_expiry, skipping override", "id_expiry", verdict.IDExpiry, "error", err)
		return false
	}

	changed := false
	switch cls.State {
	case expiry.Expired:
		daysExpired := -cls.Days
		flag := expiry.ExpiredFlag(daysExpired, verdict.IDExpiry)
		if !containsString(verdict.Flags, flag) {
			verdict.Flags = append(verdict.Flags, flag)
			verdict.ComplianceReport = expiry.RejectionNotice(daysExpired) + verdict.ComplianceReport
			changed = true
		}
		if verdict.ValidationStatus != constants.StatusRejected {
			verdict.ValidationStatus = constants.StatusRejected
			changed = true
		}
	case expiry.ExpiringSoon:
		flag := expiry.ExpiringFlag(cls.Days)
		if !containsString(verdict.Flags, flag) {
			verdict.Flags = append(verdict.Flags, flag)
			changed = true
		}
	}
	return changed
}

func containsString(in []string, s string) bool {
	for _, e := range in {
		if e == s {
			return true
		}
	}
	return false
}
