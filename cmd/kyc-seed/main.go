// kyc-seed fills the database with sample records so the report, sweep, and
// re-validation entry points can be exercised without a live inbox.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/kyc-compliance/kyc-intake/constants"
	"github.com/kyc-compliance/kyc-intake/internal/common"
	"github.com/kyc-compliance/kyc-intake/internal/llm"
	repo "github.com/kyc-compliance/kyc-intake/internal/repository"
)

type seed struct {
	customerID string
	email      string
	documents  []string
	verdict    llm.Verdict
}

var seeds = []seed{
	{
		customerID: "CUST001",
		email:      "john.doe@example.com",
		documents:  []string{"passport.pdf", "address_proof.pdf", "photo.jpg"},
		verdict: llm.Verdict{
			Name:             "John Doe",
			DOB:              "1990-05-15",
			IDType:           "passport",
			IDNumber:         "P12345678",
			IDExpiry:         "2027-05-15",
			Address:          "123 Main Street, Dubai, UAE",
			ValidationStatus: constants.StatusApproved,
			Flags:            []string{},
			ComplianceReport: "All documents are valid and match. ID is not expired. Address proof is recent.",
			MissingDocuments: []string{},
			DataConsistency:  "All data is consistent across documents",
		},
	},
	{
		customerID: "CUST002",
		email:      "jane.smith@example.com",
		documents:  []string{"emirates_id.jpg", "utility_bill.pdf"},
		verdict: llm.Verdict{
			Name:             "Jane Smith",
			DOB:              "1985-08-20",
			IDType:           "emirates_id",
			IDNumber:         "784-1985-1234567-1",
			IDExpiry:         "2023-08-20",
			Address:          "456 Palm Street, Abu Dhabi, UAE",
			ValidationStatus: constants.StatusRejected,
			Flags:            []string{"ID expired", "Requires renewal"},
			ComplianceReport: "Emirates ID has expired on 2023-08-20. Customer must renew ID before KYC can be approved.",
			MissingDocuments: []string{},
			DataConsistency:  "Data matches across documents",
		},
	},
	{
		customerID: "CUST003",
		email:      "ahmed.hassan@example.com",
		documents:  []string{"passport_blurry.jpg", "address_unclear.pdf"},
		verdict: llm.Verdict{
			Name:             "Ahmed Hassan",
			DOB:              "1992-12-10",
			IDType:           "passport",
			IDNumber:         "A9876543",
			IDExpiry:         "2026-12-10",
			Address:          "Partial address visible",
			ValidationStatus: constants.StatusHumanReview,
			Flags:            []string{"Document quality poor", "Address proof unclear", "Name spelling mismatch"},
			ComplianceReport: "Passport image quality is poor making some details difficult to read. Address proof document is unclear. Name on passport shows 'Ahmed Hasan' but address proof shows 'Ahmad Hassan'. Human verification required.",
			MissingDocuments: []string{"Photo ID"},
			DataConsistency:  "Inconsistencies detected in name spelling",
		},
	},
	{
		customerID: "CUST004",
		email:      "",
		documents:  []string{"pan_card.jpg"},
		verdict: llm.Verdict{
			Name:             "Sarah Johnson",
			DOB:              "1988-03-25",
			IDType:           "pan_card",
			IDNumber:         "ABCDE1234F",
			IDExpiry:         "",
			Address:          "Not provided",
			ValidationStatus: constants.StatusHumanReview,
			Flags:            []string{"Missing address proof", "Missing photo", "Incomplete submission"},
			ComplianceReport: "Only PAN card was submitted. Missing required documents: address proof and photograph. KYC cannot be completed.",
			MissingDocuments: []string{"Address proof", "Photograph"},
			DataConsistency:  "Insufficient documents to verify consistency",
		},
	},
	{
		customerID: "CUST005",
		email:      "mohammed.ali@example.com",
		documents:  []string{"passport.pdf", "utility_bill.pdf", "photo.jpg"},
		verdict: llm.Verdict{
			Name:             "Mohammed Ali",
			DOB:              "1995-07-18",
			IDType:           "passport",
			IDNumber:         "K5566778",
			IDExpiry:         "2028-07-18",
			Address:          "789 Beach Road, Sharjah, UAE",
			ValidationStatus: constants.StatusApproved,
			Flags:            []string{},
			ComplianceReport: "All documents verified successfully. Passport is valid. Address proof is recent (dated within 3 months). All information matches across documents.",
			MissingDocuments: []string{},
			DataConsistency:  "Perfect match across all documents",
		},
	},
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()

	ctx := context.Background()
	db, err := repo.Open(ctx, repo.Config{Path: cfg.Database.Path}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, logger)

	records := repo.NewRecordRepository(db, logger)
	audit := repo.NewAuditRepository(db, logger)
	now := time.Now().UTC().Format(time.RFC3339)

	for _, s := range seeds {
		if err := records.Upsert(ctx, repo.UpsertRequest{
			CustomerID:    s.customerID,
			CustomerEmail: s.email,
			EmailDate:     now,
			Verdict:       s.verdict,
			Documents:     s.documents,
		}); err != nil {
			logger.Error("seed failed", "customer_id", s.customerID, "error", err)
			os.Exit(1)
		}
		if err := audit.Log(ctx, s.customerID, constants.ActionDBUpdated,
			"seeded sample record, status="+string(s.verdict.ValidationStatus)); err != nil {
			logger.Warn("audit write failed", "customer_id", s.customerID, "error", err)
		}
		logger.Info("seeded", "customer_id", s.customerID, "status", s.verdict.ValidationStatus)
	}
	logger.Info("sample data ready", "records", len(seeds), "db", cfg.Database.Path)
}
