// Package mail covers both sides of the pipeline's mail surface: the intake
// inbox submissions arrive through, and the outbound reminder notifications.
package mail

import "context"

type Attachment struct {
	Filename string
	Path     string
}

// Submission is one pending customer intake: identifier, sender, attachments.
type Submission struct {
	ID            string // opaque handle, used to acknowledge
	CustomerID    string
	CustomerEmail string
	Subject       string
	Date          string
	Attachments   []Attachment
}

// Inbox lists pending submissions matching the configured marker and
// acknowledges the ones that were fully processed.
type Inbox interface {
	ListPending(ctx context.Context, limit int) ([]Submission, error)
	Ack(ctx context.Context, id string) error
}

// Mailer sends a plain-text message. No delivery confirmation beyond the error.
type Mailer interface {
	SendEmail(to, subject, body string) error
}
