// kyc-notify runs one notification sweep over stored records.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/kyc-compliance/kyc-intake/internal/common"
	"github.com/kyc-compliance/kyc-intake/internal/mail"
	"github.com/kyc-compliance/kyc-intake/internal/notify"
	repo "github.com/kyc-compliance/kyc-intake/internal/repository"
)

func main() {
	var (
		to       = flag.String("to", "", "send every reminder to this address instead of the saved customer emails")
		useSaved = flag.Bool("use-saved", false, "resolve targets from each record's saved customer email")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *to == "" && !*useSaved {
		logger.Error("either -to or -use-saved is required")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if err := cfg.ValidateSMTP(); err != nil {
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
	mailer := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		From:     cfg.SMTP.From,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
	}, logger)

	sweeper := notify.NewSweeper(records, mailer, audit, logger)
	sent, err := sweeper.Sweep(ctx, notify.SweepOptions{
		OverrideAddress: *to,
		UseSavedEmails:  *useSaved,
	})
	if err != nil {
		logger.Error("sweep failed", "error", err)
		os.Exit(1)
	}
	logger.Info("sweep complete", "sent", sent)
}
