// kycd runs the intake pipeline on a schedule until interrupted.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/kyc-compliance/kyc-intake/internal/common"
	"github.com/kyc-compliance/kyc-intake/internal/llm/groq"
	"github.com/kyc-compliance/kyc-intake/internal/mail"
	"github.com/kyc-compliance/kyc-intake/internal/ocr"
	"github.com/kyc-compliance/kyc-intake/internal/pipeline"
	repo "github.com/kyc-compliance/kyc-intake/internal/repository"
	"github.com/kyc-compliance/kyc-intake/internal/validate"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := repo.Open(ctx, repo.Config{Path: cfg.Database.Path}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, logger)

	records := repo.NewRecordRepository(db, logger)
	audit := repo.NewAuditRepository(db, logger)

	inbox := mail.NewDirInbox(mail.DirInboxConfig{
		Dir:          cfg.Intake.DropDir,
		ProcessedDir: cfg.Intake.ProcessedDir,
		Marker:       cfg.Intake.Marker,
	}, logger)

	extractor := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Mutool:        cfg.OCR.Mutool,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)

	client := groq.NewClient(groq.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	validator := validate.NewValidator(client, audit, logger)

	orch := pipeline.NewOrchestrator(inbox, extractor, validator, records, audit,
		cfg.Intake.BatchSize, logger)

	prune := func() {
		if cfg.Database.LogRetentionDays <= 0 {
			return
		}
		cutoff := time.Now().AddDate(0, 0, -cfg.Database.LogRetentionDays)
		if _, err := audit.Prune(ctx, cutoff); err != nil {
			logger.Warn("audit prune failed", "error", err)
		}
	}

	runOnce := func() {
		prune()
		if _, err := orch.RunBatch(ctx); err != nil && ctx.Err() == nil {
			logger.Error("batch failed", "error", err)
		}
	}

	logger.Info("kycd started",
		"interval", cfg.Scheduler.Interval.String(),
		"drop_dir", cfg.Intake.DropDir,
		"db", cfg.Database.Path,
	)
	runOnce()

	ticker := time.NewTicker(cfg.Scheduler.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
