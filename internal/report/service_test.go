package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kyc-compliance/kyc-intake/constants"
	"github.com/kyc-compliance/kyc-intake/internal/entity"
)

type fakeRecords struct {
	recs []entity.KycRecord
}

func (f *fakeRecords) ListAll(_ context.Context) ([]entity.KycRecord, error) {
	return f.recs, nil
}

var today = time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

func TestSummarize(t *testing.T) {
	records := &fakeRecords{recs: []entity.KycRecord{
		{CustomerID: "CUST001", Status: constants.StatusApproved, IDExpiry: "2030-01-01"},
		{CustomerID: "CUST002", Status: constants.StatusApproved, IDExpiry: "2026-03-30",
			Flags: []string{"ID expires in 15 days"}},
		{CustomerID: "CUST003", Status: constants.StatusRejected, IDExpiry: "2023-08-20",
			Flags: []string{"ID expired 938 days ago on 2023-08-20"}},
		{CustomerID: "CUST004", Status: constants.StatusHumanReview},
	}}

	s := NewService(records, nil)
	s.now = func() time.Time { return today }

	sum, err := s.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{
		Total:        4,
		Approved:     2,
		Rejected:     1,
		HumanReview:  1,
		Expired:      1,
		ExpiringSoon: 1,
		Flagged:      2,
	}, sum)
}

func TestExportXLSX(t *testing.T) {
	records := &fakeRecords{recs: []entity.KycRecord{
		{
			CustomerID: "CUST001",
			Name:       "Ahmed Al Maktoum",
			Status:     constants.StatusApproved,
			IDType:     "Emirates ID",
			IDNumber:   "784-1985-1234567-1",
			IDExpiry:   "2027-05-15",
			Documents:  []string{"passport.pdf", "bill.pdf"},
			Flags:      []string{},
		},
		{
			CustomerID: "CUST002",
			Name:       "Fatima Hassan",
			Status:     constants.StatusRejected,
			Flags:      []string{"ID expired 10 days ago on 2026-03-05"},
		},
	}}

	s := NewService(records, nil)
	out, err := s.ExportXLSX(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, out)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("KYC Records")
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 records
	assert.Equal(t, "Customer ID", rows[0][0])
	assert.Equal(t, "CUST001", rows[1][0])
	assert.Equal(t, "APPROVED", rows[1][2])
	assert.Equal(t, "passport.pdf, bill.pdf", rows[1][7])
	assert.Equal(t, "CUST002", rows[2][0])
	assert.Contains(t, rows[2][8], "ID expired 10 days ago")
}
