// Package notify scans stored records for expiry conditions: the sweep sends
// reminder emails, the re-validation pass flips stale approvals. Both lean on
// the same expiry classification the validator uses.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kyc-compliance/kyc-intake/constants"
	"github.com/kyc-compliance/kyc-intake/internal/entity"
	"github.com/kyc-compliance/kyc-intake/internal/expiry"
	"github.com/kyc-compliance/kyc-intake/internal/mail"
)

type RecordSource interface {
	ListWithExpiry(ctx context.Context) ([]entity.KycRecord, error)
}

type AuditLogger interface {
	Log(ctx context.Context, customerID, action, details string) error
}

type SweepOptions struct {
	OverrideAddress string // used when UseSavedEmails is false
	UseSavedEmails  bool   // resolve targets from the stored customer_email
}

// Sweeper emails customers whose identification is expired or expiring soon.
// It never mutates stored records; at most one message goes out per customer
// per sweep.
type Sweeper struct {
	records RecordSource
	mailer  mail.Mailer
	audit   AuditLogger
	logger  *slog.Logger
	now     func() time.Time
}

func NewSweeper(records RecordSource, mailer mail.Mailer, audit AuditLogger, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{records: records, mailer: mailer, audit: audit, logger: logger, now: time.Now}
}

// Sweep returns the number of successfully sent messages. Skips and send
// failures are logged and never abort the scan.
func (s *Sweeper) Sweep(ctx context.Context, opts SweepOptions) (int, error) {
	recs, err := s.records.ListWithExpiry(ctx)
	if err != nil {
		return 0, fmt.Errorf("list records with expiry: %w", err)
	}
	s.logger.Info("sweep.start", "candidates", len(recs), "use_saved_emails", opts.UseSavedEmails)

	today := s.now()
	sent := 0
	for _, rec := range recs {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		log := s.logger.With("customer_id", rec.CustomerID)

		addr := opts.OverrideAddress
		if opts.UseSavedEmails {
			addr = rec.CustomerEmail
		}
		if addr == "" {
			log.Warn("no target address, skipping")
			continue
		}

		cls, err := expiry.Classify(rec.IDExpiry, today)
		if err != nil {
			log.Warn("unparsable id_expiry, skipping", "id_expiry", rec.IDExpiry, "error", err)
			continue
		}

		var subject, body string
		switch cls.State {
		case expiry.Expired:
			subject, body = mail.ExpiredNotice(rec.Name, rec.IDExpiry, -cls.Days)
		case expiry.ExpiringSoon:
			subject, body = mail.ExpiringNotice(rec.Name, rec.IDExpiry, cls.Days)
		default:
			continue
		}

		if err := s.mailer.SendEmail(addr, subject, body); err != nil {
			log.Error("reminder send failed", "to", addr, "error", err)
			s.auditLog(ctx, rec.CustomerID, constants.ActionEmailFailed,
				fmt.Sprintf("to=%s state=%s: %v", addr, cls.State, err))
			continue
		}
		sent++
		s.auditLog(ctx, rec.CustomerID, constants.ActionEmailSent,
			fmt.Sprintf("to=%s state=%s", addr, cls.State))
	}

	s.logger.Info("sweep.done", "candidates", len(recs), "sent", sent)
	return sent, nil
}

func (s *Sweeper) auditLog(ctx context.Context, customerID, action, details string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, customerID, action, details); err != nil {
		s.logger.Warn("audit write failed", "customer_id", customerID, "error", err)
	}
}
