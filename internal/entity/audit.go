package entity

import "time"

// AuditEntry is one append-only audit log row. Entries are never updated or
// deleted by the pipeline; retention pruning is the only writer besides append.
type AuditEntry struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	CustomerID string    `json:"customer_id"`
	Action     string    `json:"action"`
	Details    string    `json:"details,omitempty"`
}
