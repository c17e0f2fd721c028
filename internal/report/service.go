// Package report summarizes stored decisions and exports them as an XLSX
// workbook for the compliance team.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kyc-compliance/kyc-intake/constants"
	"github.com/kyc-compliance/kyc-intake/internal/entity"
	"github.com/kyc-compliance/kyc-intake/internal/expiry"
)

type RecordSource interface {
	ListAll(ctx context.Context) ([]entity.KycRecord, error)
}

// Service is a tiny façade over the record repository that produces
// summaries and XLSX bytes.
type Service struct {
	records RecordSource
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(records RecordSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, logger: logger, now: time.Now}
}

// Summary is the status breakdown over all stored records.
type Summary struct {
	Total        int
	Approved     int
	Rejected     int
	HumanReview  int
	Expired      int
	ExpiringSoon int
	Flagged      int // records carrying at least one flag
}

func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	recs, err := s.records.ListAll(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list records: %w", err)
	}

	today := s.now()
	var sum Summary
	sum.Total = len(recs)
	for _, rec := range recs {
		switch rec.Status {
		case constants.StatusApproved:
			sum.Approved++
		case constants.StatusRejected:
			sum.Rejected++
		case constants.StatusHumanReview:
			sum.HumanReview++
		}
		if len(rec.Flags) > 0 {
			sum.Flagged++
		}
		if rec.IDExpiry == "" {
			continue
		}
		cls, err := expiry.Classify(rec.IDExpiry, today)
		if err != nil {
			continue
		}
		switch cls.State {
		case expiry.Expired:
			sum.Expired++
		case expiry.ExpiringSoon:
			sum.ExpiringSoon++
		}
	}
	return sum, nil
}

// ExportXLSX returns an XLSX workbook (as bytes) with one row per record.
func (s *Service) ExportXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()
	recs, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "KYC Records"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defaultIndex, _ := f.GetSheetIndex("Sheet1"); defaultIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Customer ID",
		"Name",
		"Status",
		"ID Type",
		"ID Number",
		"ID Expiry",
		"Email",
		"Documents",
		"Flags",
		"Processed At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, rec := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, rec.CustomerID)
		write(2, rec.Name)
		write(3, string(rec.Status))
		write(4, rec.IDType)
		write(5, rec.IDNumber)
		write(6, rec.IDExpiry)
		write(7, rec.CustomerEmail)
		write(8, strings.Join(rec.Documents, ", "))
		write(9, strings.Join(rec.Flags, "; "))
		if !rec.ProcessedAt.IsZero() {
			write(10, rec.ProcessedAt.Format("2006-01-02 15:04:05"))
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "B", 24)
	_ = f.SetColWidth(sheet, "G", "G", 26)
	_ = f.SetColWidth(sheet, "H", "I", 40)
	_ = f.SetColWidth(sheet, "J", "J", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("report.export.ok",
		"records", len(recs),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
