package constants

// Status is the canonical decision for rows in kyc_records.
type Status string

// Stable values (store these exact strings in DB).
const (
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusHumanReview Status = "HUMAN_REVIEW_NEEDED"
)

// Valid reports whether s is one of the three closed enum values.
// Anything else coming back from the reasoning service is a defect to
// reject, never something to store.
func (s Status) Valid() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusHumanReview:
		return true
	}
	return false
}

// Audit log action tags, one per meaningful state transition.
const (
	ActionEmailFetched       = "EMAIL_FETCHED"
	ActionDocumentsExtracted = "DOCUMENTS_EXTRACTED"
	ActionLLMValidation      = "LLM_VALIDATION"
	ActionDBUpdated          = "DB_UPDATED"
	ActionEmailSent          = "EMAIL_SENT"
	ActionEmailFailed        = "EMAIL_FAILED"
	ActionRevalidated        = "REVALIDATED"
	ActionSkipped            = "SKIPPED"
	ActionError              = "ERROR"
)
