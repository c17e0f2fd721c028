package llm

import (
	"context"

	"github.com/kyc-compliance/kyc-intake/constants"
)

// Verdict is the normalized validation outcome for one customer's document set.
type Verdict struct {
	Name             string           `json:"name"`
	DOB              string           `json:"dob"` // YYYY-MM-DD
	IDType           string           `json:"id_type"`
	IDNumber         string           `json:"id_number"`
	IDExpiry         string           `json:"id_expiry,omitempty"` // YYYY-MM-DD, may be absent
	Address          string           `json:"address"`
	ValidationStatus constants.Status `json:"validation_status"`
	Flags            []string         `json:"flags"`
	ComplianceReport string           `json:"compliance_report"`
	MissingDocuments []string         `json:"missing_documents"`
	DataConsistency  string           `json:"data_consistency"`
}

type ValidateRequest struct {
	CustomerID    string
	DocumentsText map[string]string // filename -> extracted text
}

// VerdictExtractor is the interface our pipeline depends on.
type VerdictExtractor interface {
	ExtractVerdict(ctx context.Context, req ValidateRequest) (Verdict, []byte /*rawJSON*/, error)
}
