// kyc-revalidate re-checks all stored expiry dates against today and flips
// stale approvals.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/kyc-compliance/kyc-intake/internal/common"
	"github.com/kyc-compliance/kyc-intake/internal/notify"
	repo "github.com/kyc-compliance/kyc-intake/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()

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

	changed, err := notify.NewRevalidator(records, audit, logger).RevalidateAll(ctx)
	if err != nil {
		logger.Error("revalidation failed", "error", err)
		os.Exit(1)
	}
	logger.Info("revalidation complete", "changed", changed)
}
