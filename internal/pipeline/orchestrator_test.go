package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyc-compliance/kyc-intake/constants"
	"github.com/kyc-compliance/kyc-intake/internal/llm"
	"github.com/kyc-compliance/kyc-intake/internal/mail"
	"github.com/kyc-compliance/kyc-intake/internal/ocr"
	"github.com/kyc-compliance/kyc-intake/internal/repository"
)

type fakeInbox struct {
	subs    []mail.Submission
	listErr error
	acked   []string
}

func (f *fakeInbox) ListPending(_ context.Context, limit int) ([]mail.Submission, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit > 0 && len(f.subs) > limit {
		return f.subs[:limit], nil
	}
	return f.subs, nil
}

func (f *fakeInbox) Ack(_ context.Context, id string) error {
	f.acked = append(f.acked, id)
	return nil
}

type fakeExtractor struct {
	texts map[string]string // path -> text; missing path means error
}

func (f *fakeExtractor) Extract(_ context.Context, path string) (ocr.ExtractionResult, error) {
	txt, ok := f.texts[path]
	if !ok {
		return ocr.ExtractionResult{}, errors.New("extraction exhausted")
	}
	return ocr.ExtractionResult{Text: txt, Method: "pdf-text", Pages: 1}, nil
}

type fakeValidator struct {
	verdicts map[string]llm.Verdict // customer id -> verdict; missing means error
	requests []llm.ValidateRequest
}

func (f *fakeValidator) Validate(_ context.Context, req llm.ValidateRequest) (llm.Verdict, error) {
	f.requests = append(f.requests, req)
	v, ok := f.verdicts[req.CustomerID]
	if !ok {
		return llm.Verdict{}, errors.New("verdict parse failed")
	}
	return v, nil
}

type fakeStore struct {
	upserts []repository.UpsertRequest
	err     error
}

func (f *fakeStore) Upsert(_ context.Context, req repository.UpsertRequest) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, req)
	return nil
}

type fakeAudit struct {
	entries []string
}

func (f *fakeAudit) Log(_ context.Context, customerID, action, details string) error {
	f.entries = append(f.entries, fmt.Sprintf("%s|%s|%s", customerID, action, details))
	return nil
}

func (f *fakeAudit) actionsFor(customerID string) []string {
	var out []string
	for _, e := range f.entries {
		parts := strings.SplitN(e, "|", 3)
		if parts[0] == customerID {
			out = append(out, parts[1])
		}
	}
	return out
}

func approved() llm.Verdict {
	return llm.Verdict{
		Name:             "Ahmed Al Maktoum",
		ValidationStatus: constants.StatusApproved,
		Flags:            []string{},
	}
}

func TestRunBatchHappyPath(t *testing.T) {
	inbox := &fakeInbox{subs: []mail.Submission{{
		ID:            "KYC: CUST001",
		CustomerID:    "CUST001",
		CustomerEmail: "ahmed@example.com",
		Subject:       "KYC: CUST001",
		Date:          "2026-03-14T09:30:00Z",
		Attachments: []mail.Attachment{
			{Filename: "passport.pdf", Path: "/in/passport.pdf"},
			{Filename: "bill.pdf", Path: "/in/bill.pdf"},
		},
	}}}
	ext := &fakeExtractor{texts: map[string]string{
		"/in/passport.pdf": "PASSPORT ...",
		"/in/bill.pdf":     "DEWA BILL ...",
	}}
	val := &fakeValidator{verdicts: map[string]llm.Verdict{"CUST001": approved()}}
	store := &fakeStore{}
	audit := &fakeAudit{}

	o := NewOrchestrator(inbox, ext, val, store, audit, 5, nil)
	n, err := o.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, store.upserts, 1)
	up := store.upserts[0]
	assert.Equal(t, "CUST001", up.CustomerID)
	assert.Equal(t, "ahmed@example.com", up.CustomerEmail)
	assert.Equal(t, []string{"passport.pdf", "bill.pdf"}, up.Documents)

	require.Len(t, val.requests, 1)
	assert.Len(t, val.requests[0].DocumentsText, 2)

	assert.Equal(t, []string{"KYC: CUST001"}, inbox.acked)
	assert.Equal(t, []string{
		constants.ActionEmailFetched,
		constants.ActionDocumentsExtracted,
		constants.ActionDBUpdated,
	}, audit.actionsFor("CUST001"))
}

func TestRunBatchSkipsZeroAttachments(t *testing.T) {
	inbox := &fakeInbox{subs: []mail.Submission{{
		ID: "KYC: CUST002", CustomerID: "CUST002", Subject: "KYC: CUST002",
	}}}
	val := &fakeValidator{}
	store := &fakeStore{}
	audit := &fakeAudit{}

	o := NewOrchestrator(inbox, &fakeExtractor{}, val, store, audit, 5, nil)
	n, err := o.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Empty(t, store.upserts) // no record written
	assert.Empty(t, val.requests)
	assert.Equal(t, []string{"KYC: CUST002"}, inbox.acked)
	assert.Contains(t, audit.actionsFor("CUST002"), constants.ActionSkipped)
}

func TestRunBatchOneBadDocumentStillValidatesSiblings(t *testing.T) {
	inbox := &fakeInbox{subs: []mail.Submission{{
		ID: "KYC: CUST003", CustomerID: "CUST003", Subject: "KYC: CUST003",
		Attachments: []mail.Attachment{
			{Filename: "broken.pdf", Path: "/in/broken.pdf"},
			{Filename: "good.pdf", Path: "/in/good.pdf"},
		},
	}}}
	ext := &fakeExtractor{texts: map[string]string{"/in/good.pdf": "PASSPORT ..."}}
	val := &fakeValidator{verdicts: map[string]llm.Verdict{"CUST003": approved()}}
	store := &fakeStore{}

	o := NewOrchestrator(inbox, ext, val, store, &fakeAudit{}, 5, nil)
	n, err := o.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, val.requests, 1)
	assert.Equal(t, map[string]string{"good.pdf": "PASSPORT ..."}, val.requests[0].DocumentsText)
	// filenames as submitted, including the unreadable one
	require.Len(t, store.upserts, 1)
	assert.Equal(t, []string{"broken.pdf", "good.pdf"}, store.upserts[0].Documents)
}

func TestRunBatchValidationFailureIsIsolated(t *testing.T) {
	inbox := &fakeInbox{subs: []mail.Submission{
		{
			ID: "KYC: CUST004", CustomerID: "CUST004", Subject: "KYC: CUST004",
			Attachments: []mail.Attachment{{Filename: "a.pdf", Path: "/in/a.pdf"}},
		},
		{
			ID: "KYC: CUST005", CustomerID: "CUST005", Subject: "KYC: CUST005",
			Attachments: []mail.Attachment{{Filename: "b.pdf", Path: "/in/b.pdf"}},
		},
	}}
	ext := &fakeExtractor{texts: map[string]string{
		"/in/a.pdf": "text a",
		"/in/b.pdf": "text b",
	}}
	// CUST004 has no verdict configured -> validation error
	val := &fakeValidator{verdicts: map[string]llm.Verdict{"CUST005": approved()}}
	store := &fakeStore{}
	audit := &fakeAudit{}

	o := NewOrchestrator(inbox, ext, val, store, audit, 5, nil)
	n, err := o.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, store.upserts, 1)
	assert.Equal(t, "CUST005", store.upserts[0].CustomerID)
	// failed customer stays pending for the next scheduled run
	assert.Equal(t, []string{"KYC: CUST005"}, inbox.acked)
	assert.Contains(t, audit.actionsFor("CUST004"), constants.ActionError)
}

func TestRunBatchFetchFailureAbortsBatch(t *testing.T) {
	inbox := &fakeInbox{listErr: errors.New("mailbox unreachable")}
	o := NewOrchestrator(inbox, &fakeExtractor{}, &fakeValidator{}, &fakeStore{}, &fakeAudit{}, 5, nil)
	_, err := o.RunBatch(context.Background())
	assert.Error(t, err)
}

func TestRunBatchHonorsBatchSize(t *testing.T) {
	var subs []mail.Submission
	texts := map[string]string{}
	verdicts := map[string]llm.Verdict{}
	for i := 1; i <= 7; i++ {
		id := fmt.Sprintf("CUST%03d", i)
		path := fmt.Sprintf("/in/%s.pdf", id)
		subs = append(subs, mail.Submission{
			ID: id, CustomerID: id, Subject: "KYC: " + id,
			Attachments: []mail.Attachment{{Filename: id + ".pdf", Path: path}},
		})
		texts[path] = "text"
		verdicts[id] = approved()
	}
	inbox := &fakeInbox{subs: subs}
	store := &fakeStore{}

	o := NewOrchestrator(inbox, &fakeExtractor{texts: texts}, &fakeValidator{verdicts: verdicts}, store, &fakeAudit{}, 3, nil)
	n, err := o.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, store.upserts, 3)
}
