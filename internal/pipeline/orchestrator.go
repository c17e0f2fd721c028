// Package pipeline ties intake to extraction, validation, and storage for a
// batch of customers.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kyc-compliance/kyc-intake/constants"
	"github.com/kyc-compliance/kyc-intake/internal/llm"
	"github.com/kyc-compliance/kyc-intake/internal/mail"
	"github.com/kyc-compliance/kyc-intake/internal/ocr"
	"github.com/kyc-compliance/kyc-intake/internal/repository"
)

type TextExtractor interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

type VerdictValidator interface {
	Validate(ctx context.Context, req llm.ValidateRequest) (llm.Verdict, error)
}

type RecordStore interface {
	Upsert(ctx context.Context, req repository.UpsertRequest) error
}

type AuditLogger interface {
	Log(ctx context.Context, customerID, action, details string) error
}

type Orchestrator struct {
	inbox     mail.Inbox
	extractor TextExtractor
	validator VerdictValidator
	records   RecordStore
	audit     AuditLogger
	batchSize int
	logger    *slog.Logger
}

func NewOrchestrator(inbox mail.Inbox, extractor TextExtractor, validator VerdictValidator,
	records RecordStore, audit AuditLogger, batchSize int, logger *slog.Logger) *Orchestrator {
	if batchSize <= 0 {
		batchSize = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		inbox:     inbox,
		extractor: extractor,
		validator: validator,
		records:   records,
		audit:     audit,
		batchSize: batchSize,
		logger:    logger,
	}
}

// RunBatch processes all currently pending submissions, up to the batch size.
// A failure while processing one customer is logged against that customer and
// the loop continues; only the initial inbox fetch can fail the whole batch.
// There is no retry within a batch, the next scheduled run is the retry.
func (o *Orchestrator) RunBatch(ctx context.Context) (int, error) {
	start := time.Now()
	subs, err := o.inbox.ListPending(ctx, o.batchSize)
	if err != nil {
		o.logger.Error("batch.fetch_failed", "error", err)
		return 0, fmt.Errorf("list pending submissions: %w", err)
	}
	o.logger.Info("batch.start", "pending", len(subs), "batch_size", o.batchSize)

	processed := 0
	for _, sub := range subs {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if o.processSubmission(ctx, sub) {
			processed++
		}
	}

	o.logger.Info("batch.done",
		"pending", len(subs),
		"processed", processed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return processed, nil
}

func (o *Orchestrator) processSubmission(ctx context.Context, sub mail.Submission) bool {
	log := o.logger.With("customer_id", sub.CustomerID)
	o.auditLog(ctx, sub.CustomerID, constants.ActionEmailFetched, "subject="+sub.Subject)

	if len(sub.Attachments) == 0 {
		log.Warn("submission has no attachments, skipping")
		o.auditLog(ctx, sub.CustomerID, constants.ActionSkipped, "no attachments")
		o.ack(ctx, sub, log)
		return false
	}

	texts := make(map[string]string, len(sub.Attachments))
	for _, att := range sub.Attachments {
		res, err := o.extractor.Extract(ctx, att.Path)
		if err != nil {
			// one unreadable document must not sink its siblings
			log.Warn("document extraction failed", "file", att.Filename, "error", err)
			continue
		}
		if res.Text == "" {
			log.Warn("document yielded no text", "file", att.Filename, "method", res.Method)
			continue
		}
		texts[att.Filename] = res.Text
	}
	o.auditLog(ctx, sub.CustomerID, constants.ActionDocumentsExtracted,
		fmt.Sprintf("extracted %d/%d documents", len(texts), len(sub.Attachments)))

	if len(texts) == 0 {
		log.Warn("no extractable text in any attachment, skipping")
		o.auditLog(ctx, sub.CustomerID, constants.ActionSkipped, "no extractable text")
		o.ack(ctx, sub, log)
		return false
	}

	verdict, err := o.validator.Validate(ctx, llm.ValidateRequest{
		CustomerID:    sub.CustomerID,
		DocumentsText: texts,
	})
	if err != nil {
		// no partial record; the submission stays pending for the next run
		log.Error("validation failed", "error", err)
		o.auditLog(ctx, sub.CustomerID, constants.ActionError, "validation: "+err.Error())
		return false
	}

	docNames := make([]string, 0, len(sub.Attachments))
	for _, att := range sub.Attachments {
		docNames = append(docNames, att.Filename)
	}
	if err := o.records.Upsert(ctx, repository.UpsertRequest{
		CustomerID:    sub.CustomerID,
		CustomerEmail: sub.CustomerEmail,
		EmailDate:     sub.Date,
		Verdict:       verdict,
		Documents:     docNames,
	}); err != nil {
		log.Error("record upsert failed", "error", err)
		o.auditLog(ctx, sub.CustomerID, constants.ActionError, "upsert: "+err.Error())
		return false
	}
	o.auditLog(ctx, sub.CustomerID, constants.ActionDBUpdated,
		"status="+string(verdict.ValidationStatus))

	o.ack(ctx, sub, log)
	log.Info("submission processed", "status", verdict.ValidationStatus,
		"documents", len(docNames), "flags", len(verdict.Flags))
	return true
}

func (o *Orchestrator) ack(ctx context.Context, sub mail.Submission, log *slog.Logger) {
	if err := o.inbox.Ack(ctx, sub.ID); err != nil {
		log.Warn("failed to acknowledge submission", "error", err)
	}
}

func (o *Orchestrator) auditLog(ctx context.Context, customerID, action, details string) {
	if o.audit == nil {
		return
	}
	if err := o.audit.Log(ctx, customerID, action, details); err != nil {
		o.logger.Warn("audit write failed", "customer_id", customerID, "action", action, "error", err)
	}
}
