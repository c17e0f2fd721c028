package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kyc-compliance/kyc-intake/constants"
	"github.com/kyc-compliance/kyc-intake/internal/common"
	"github.com/kyc-compliance/kyc-intake/internal/entity"
	"github.com/kyc-compliance/kyc-intake/internal/llm"
)

// UpsertRequest carries everything a validation pass produces for one customer.
type UpsertRequest struct {
	CustomerID    string
	CustomerEmail string
	EmailDate     string
	Verdict       llm.Verdict
	Documents     []string
}

type RecordRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewRecordRepository(db *sql.DB, logger *slog.Logger) *RecordRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordRepository{db: db, logger: logger, now: time.Now}
}

const recordColumns = `customer_id, customer_email, email_date, status, name, dob,
	id_number, id_type, id_expiry, address, documents, flags,
	compliance_report, missing_documents, data_consistency, processed_at`

// Upsert fully replaces the row for the customer. Last write wins; each
// validation pass is authoritative end-to-end, so nothing is merged.
func (r *RecordRepository) Upsert(ctx context.Context, req UpsertRequest) error {
	if !req.Verdict.ValidationStatus.Valid() {
		return fmt.Errorf("refusing to store invalid status %q for %s",
			req.Verdict.ValidationStatus, req.CustomerID)
	}

	docs, err := marshalStrings(req.Documents)
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	flags, err := marshalStrings(req.Verdict.Flags)
	if err != nil {
		return fmt.Errorf("encode flags: %w", err)
	}
	missing, err := marshalStrings(req.Verdict.MissingDocuments)
	if err != nil {
		return fmt.Errorf("encode missing_documents: %w", err)
	}
	processedAt := r.now().UTC().Format(time.RFC3339)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO kyc_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(customer_id) DO UPDATE SET
			customer_email    = excluded.customer_email,
			email_date        = excluded.email_date,
			status            = excluded.status,
			name              = excluded.name,
			dob               = excluded.dob,
			id_number         = excluded.id_number,
			id_type           = excluded.id_type,
			id_expiry         = excluded.id_expiry,
			address           = excluded.address,
			documents         = excluded.documents,
			flags             = excluded.flags,
			compliance_report = excluded.compliance_report,
			missing_documents = excluded.missing_documents,
			data_consistency  = excluded.data_consistency,
			processed_at      = excluded.processed_at`,
		req.CustomerID, req.CustomerEmail, req.EmailDate,
		string(req.Verdict.ValidationStatus), req.Verdict.Name, req.Verdict.DOB,
		req.Verdict.IDNumber, req.Verdict.IDType, req.Verdict.IDExpiry,
		req.Verdict.Address, docs, flags,
		req.Verdict.ComplianceReport, missing, req.Verdict.DataConsistency,
		processedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert record %s: %w", req.CustomerID, err)
	}
	r.logger.Debug("record upserted", "customer_id", req.CustomerID,
		"status", req.Verdict.ValidationStatus)
	return nil
}

// Get returns the record for the customer, or common.ErrNotFound.
func (r *RecordRepository) Get(ctx context.Context, customerID string) (*entity.KycRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM kyc_records WHERE customer_id = ?`, customerID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: record %s", common.ErrNotFound, customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", customerID, err)
	}
	return rec, nil
}

// ListAll returns every record, ordered by customer identifier.
func (r *RecordRepository) ListAll(ctx context.Context) ([]entity.KycRecord, error) {
	return r.list(ctx, `SELECT `+recordColumns+` FROM kyc_records ORDER BY customer_id`)
}

// ListWithExpiry returns records carrying an expiry date, the input set for
// the notification sweep and the re-validation pass.
func (r *RecordRepository) ListWithExpiry(ctx context.Context) ([]entity.KycRecord, error) {
	return r.list(ctx, `SELECT `+recordColumns+` FROM kyc_records
		WHERE id_expiry IS NOT NULL AND id_expiry != '' ORDER BY customer_id`)
}

func (r *RecordRepository) list(ctx context.Context, query string) ([]entity.KycRecord, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []entity.KycRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// UpdateDecision rewrites only the decision fields of an existing row; the
// re-validation pass uses it so extracted identity fields stay untouched.
func (r *RecordRepository) UpdateDecision(ctx context.Context, customerID string, status constants.Status, flags []string, report string) error {
	if !status.Valid() {
		return fmt.Errorf("refusing to store invalid status %q for %s", status, customerID)
	}
	fl, err := marshalStrings(flags)
	if err != nil {
		return fmt.Errorf("encode flags: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE kyc_records
		SET status = ?, flags = ?, compliance_report = ?, processed_at = ?
		WHERE customer_id = ?`,
		string(status), fl, report, r.now().UTC().Format(time.RFC3339), customerID)
	if err != nil {
		return fmt.Errorf("update decision %s: %w", customerID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: record %s", common.ErrNotFound, customerID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*entity.KycRecord, error) {
	var (
		rec         entity.KycRecord
		email       sql.NullString
		emailDate   sql.NullString
		status      string
		docs        string
		flags       string
		missing     string
		report      sql.NullString
		consistency sql.NullString
		name        sql.NullString
		dob         sql.NullString
		idNumber    sql.NullString
		idType      sql.NullString
		idExpiry    sql.NullString
		address     sql.NullString
		processedAt string
	)
	if err := row.Scan(&rec.CustomerID, &email, &emailDate, &status, &name, &dob,
		&idNumber, &idType, &idExpiry, &address, &docs, &flags,
		&report, &missing, &consistency, &processedAt); err != nil {
		return nil, err
	}

	rec.CustomerEmail = email.String
	rec.EmailDate = emailDate.String
	rec.Status = constants.Status(status)
	rec.Name = name.String
	rec.DOB = dob.String
	rec.IDNumber = idNumber.String
	rec.IDType = idType.String
	rec.IDExpiry = idExpiry.String
	rec.Address = address.String
	rec.ComplianceReport = report.String
	rec.DataConsistency = consistency.String

	var err error
	if rec.Documents, err = unmarshalStrings(docs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	if rec.Flags, err = unmarshalStrings(flags); err != nil {
		return nil, fmt.Errorf("decode flags: %w", err)
	}
	if rec.MissingDocuments, err = unmarshalStrings(missing); err != nil {
		return nil, fmt.Errorf("decode missing_documents: %w", err)
	}
	if rec.ProcessedAt, err = time.Parse(time.RFC3339, processedAt); err != nil {
		return nil, fmt.Errorf("decode processed_at: %w", err)
	}
	return &rec, nil
}

func marshalStrings(in []string) (string, error) {
	if in == nil {
		in = []string{}
	}
	b, err := json.Marshal(in)
	return string(b), err
}

func unmarshalStrings(in string) ([]string, error) {
	if in == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(in), &out); err != nil {
		return nil, err
	}
	return out, nil
}
