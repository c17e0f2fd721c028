package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyc-compliance/kyc-intake/constants"
	"github.com/kyc-compliance/kyc-intake/internal/common"
	"github.com/kyc-compliance/kyc-intake/internal/llm"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), Config{Path: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleUpsert(customerID string) UpsertRequest {
	return UpsertRequest{
		CustomerID:    customerID,
		CustomerEmail: "ahmed@example.com",
		EmailDate:     "2026-03-14T09:30:00Z",
		Documents:     []string{"passport.pdf", "utility_bill.pdf"},
		Verdict: llm.Verdict{
			Name:             "Ahmed Al Maktoum",
			DOB:              "1985-03-12",
			IDType:           "Emirates ID",
			IDNumber:         "784-1985-1234567-1",
			IDExpiry:         "2027-05-15",
			Address:          "Villa 12, Jumeirah, Dubai",
			ValidationStatus: constants.StatusApproved,
			Flags:            []string{"Address proof is 2 months old"},
			ComplianceReport: "All checks passed.",
			MissingDocuments: []string{},
			DataConsistency:  "Consistent",
		},
	}
}

func TestUpsertGetRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewRecordRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, sampleUpsert("CUST001")))

	rec, err := repo.Get(ctx, "CUST001")
	require.NoError(t, err)
	assert.Equal(t, "CUST001", rec.CustomerID)
	assert.Equal(t, "ahmed@example.com", rec.CustomerEmail)
	assert.Equal(t, constants.StatusApproved, rec.Status)
	assert.Equal(t, "Ahmed Al Maktoum", rec.Name)
	assert.Equal(t, "2027-05-15", rec.IDExpiry)
	assert.Equal(t, []string{"passport.pdf", "utility_bill.pdf"}, rec.Documents)
	assert.Equal(t, []string{"Address proof is 2 months old"}, rec.Flags)
	assert.Equal(t, []string{}, rec.MissingDocuments)
	assert.False(t, rec.ProcessedAt.IsZero())
}

func TestUpsertFullyReplacesRow(t *testing.T) {
	db := openTestDB(t)
	repo := NewRecordRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, sampleUpsert("CUST001")))

	second := sampleUpsert("CUST001")
	second.CustomerEmail = ""
	second.Documents = []string{"visa.png"}
	second.Verdict.ValidationStatus = constants.StatusRejected
	second.Verdict.Flags = []string{"ID expired 10 days ago on 2026-03-05"}
	second.Verdict.IDExpiry = "2026-03-05"
	require.NoError(t, repo.Upsert(ctx, second))

	rec, err := repo.Get(ctx, "CUST001")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusRejected, rec.Status)
	assert.Equal(t, []string{"visa.png"}, rec.Documents)
	assert.Equal(t, []string{"ID expired 10 days ago on 2026-03-05"}, rec.Flags)
	assert.Empty(t, rec.CustomerEmail) // no merging with the first write

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpsertRejectsInvalidStatus(t *testing.T) {
	db := openTestDB(t)
	repo := NewRecordRepository(db, nil)

	req := sampleUpsert("CUST001")
	req.Verdict.ValidationStatus = "MAYBE"
	assert.Error(t, repo.Upsert(context.Background(), req))
}

func TestGetMissingRecordIsNotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewRecordRepository(db, nil)

	_, err := repo.Get(context.Background(), "NOPE")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListWithExpiryFiltersEmptyDates(t *testing.T) {
	db := openTestDB(t)
	repo := NewRecordRepository(db, nil)
	ctx := context.Background()

	withExpiry := sampleUpsert("CUST001")
	require.NoError(t, repo.Upsert(ctx, withExpiry))

	noExpiry := sampleUpsert("CUST002")
	noExpiry.Verdict.IDExpiry = ""
	require.NoError(t, repo.Upsert(ctx, noExpiry))

	recs, err := repo.ListWithExpiry(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "CUST001", recs[0].CustomerID)
}

func TestUpdateDecision(t *testing.T) {
	db := openTestDB(t)
	repo := NewRecordRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, sampleUpsert("CUST001")))

	flags := []string{"ID expired 12 days ago on 2026-03-03"}
	require.NoError(t, repo.UpdateDecision(ctx, "CUST001",
		constants.StatusRejected, flags, "REJECTED: ID expired 12 days ago. All checks passed."))

	rec, err := repo.Get(ctx, "CUST001")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusRejected, rec.Status)
	assert.Equal(t, flags, rec.Flags)
	// identity fields survive a decision update
	assert.Equal(t, "Ahmed Al Maktoum", rec.Name)
	assert.Equal(t, "2027-05-15", rec.IDExpiry)

	err = repo.UpdateDecision(ctx, "MISSING", constants.StatusRejected, nil, "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMigrateAddsEmailColumnToLegacySchema(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	// legacy deployment: records table predates the customer_email column
	_, err = db.ExecContext(ctx, `
		CREATE TABLE kyc_records (
			customer_id       TEXT PRIMARY KEY,
			email_date        TEXT,
			status            TEXT NOT NULL,
			name              TEXT,
			dob               TEXT,
			id_number         TEXT,
			id_type           TEXT,
			id_expiry         TEXT,
			address           TEXT,
			documents         TEXT NOT NULL DEFAULT '[]',
			flags             TEXT NOT NULL DEFAULT '[]',
			compliance_report TEXT,
			missing_documents TEXT NOT NULL DEFAULT '[]',
			data_consistency  TEXT,
			processed_at      TEXT NOT NULL
		)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		`CREATE TABLE schema_migrations (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		`INSERT INTO schema_migrations VALUES (1, '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, db, nil))

	repo := NewRecordRepository(db, nil)
	require.NoError(t, repo.Upsert(ctx, sampleUpsert("CUST001")))
	rec, err := repo.Get(ctx, "CUST001")
	require.NoError(t, err)
	assert.Equal(t, "ahmed@example.com", rec.CustomerEmail)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(context.Background(), db, nil))
}

func TestAuditLogAppendAndRead(t *testing.T) {
	db := openTestDB(t)
	audit := NewAuditRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, audit.Log(ctx, "CUST001", constants.ActionEmailFetched, "subject=KYC: CUST001"))
	require.NoError(t, audit.Log(ctx, "CUST001", constants.ActionLLMValidation, "status=APPROVED flags=0"))
	require.NoError(t, audit.Log(ctx, "CUST002", constants.ActionSkipped, "no attachments"))

	forCust, err := audit.ForCustomer(ctx, "CUST001")
	require.NoError(t, err)
	require.Len(t, forCust, 2)
	assert.Equal(t, constants.ActionEmailFetched, forCust[0].Action)
	assert.Equal(t, constants.ActionLLMValidation, forCust[1].Action)

	recent, err := audit.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "CUST002", recent[0].CustomerID) // newest first
}

func TestAuditPrune(t *testing.T) {
	db := openTestDB(t)
	audit := NewAuditRepository(db, nil)
	ctx := context.Background()

	old := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	audit.now = func() time.Time { return old }
	require.NoError(t, audit.Log(ctx, "CUST001", constants.ActionError, "stale"))

	audit.now = time.Now
	require.NoError(t, audit.Log(ctx, "CUST001", constants.ActionDBUpdated, "fresh"))

	removed, err := audit.Prune(ctx, time.Now().AddDate(0, -6, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	left, err := audit.ForCustomer(ctx, "CUST001")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "fresh", left[0].Details)
}
