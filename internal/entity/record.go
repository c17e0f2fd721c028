package entity

import (
	"time"

	"github.com/kyc-compliance/kyc-intake/constants"
)

// KycRecord is the decision row for one customer, for data transfer between
// layers. A later write for the same CustomerID fully replaces the prior
// row; history lives only in the audit log.
type KycRecord struct {
	CustomerID       string           `json:"customer_id"`
	CustomerEmail    string           `json:"customer_email,omitempty"`
	EmailDate        string           `json:"email_date"`
	Status           constants.Status `json:"status"`
	Name             string           `json:"name"`
	DOB              string           `json:"dob"`
	IDNumber         string           `json:"id_number"`
	IDType           string           `json:"id_type"`
	IDExpiry         string           `json:"id_expiry,omitempty"` // ISO date when present
	Address          string           `json:"address"`
	Documents        []string         `json:"documents"` // filenames as submitted, in order
	Flags            []string         `json:"flags"`
	ComplianceReport string           `json:"compliance_report"`
	MissingDocuments []string         `json:"missing_documents"`
	DataConsistency  string           `json:"data_consistency"`
	ProcessedAt      time.Time        `json:"processed_at"`
}
