// kyc-report prints a status summary and optionally writes an XLSX export.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/kyc-compliance/kyc-intake/internal/common"
	"github.com/kyc-compliance/kyc-intake/internal/report"
	repo "github.com/kyc-compliance/kyc-intake/internal/repository"
)

func main() {
	var xlsxPath = flag.String("xlsx", "", "write the full record export to this XLSX file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
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

	svc := report.NewService(repo.NewRecordRepository(db, logger), logger)

	sum, err := svc.Summarize(ctx)
	if err != nil {
		logger.Error("summary failed", "error", err)
		os.Exit(1)
	}

	fmt.Println("KYC COMPLIANCE SUMMARY")
	fmt.Println("======================")
	fmt.Printf("Total customers:      %d\n", sum.Total)
	fmt.Printf("Approved:             %d\n", sum.Approved)
	fmt.Printf("Rejected:             %d\n", sum.Rejected)
	fmt.Printf("Human review needed:  %d\n", sum.HumanReview)
	fmt.Printf("Flagged:              %d\n", sum.Flagged)
	fmt.Printf("ID expired:           %d\n", sum.Expired)
	fmt.Printf("ID expiring soon:     %d\n", sum.ExpiringSoon)

	if *xlsxPath == "" {
		return
	}
	out, err := svc.ExportXLSX(ctx)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*xlsxPath, out, 0o644); err != nil {
		logger.Error("failed to write export", "path", *xlsxPath, "error", err)
		os.Exit(1)
	}
	fmt.Printf("\nExport written to %s\n", *xlsxPath)
}
