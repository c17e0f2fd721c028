package mail

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kyc-compliance/kyc-intake/constants"
	"github.com/kyc-compliance/kyc-intake/internal/common"
)

const senderFile = "sender.txt"

type DirInboxConfig struct {
	Dir          string // drop directory; one subdirectory per submission
	ProcessedDir string // default <Dir>/processed
	Marker       string // subject marker, e.g. "KYC"; empty matches everything
}

// DirInbox reads submissions from a filesystem drop directory. Each
// submission is a subdirectory whose name is the subject line; its files
// are the attachments, plus an optional sender.txt with the From address.
// Acknowledging moves the subdirectory into the processed directory.
type DirInbox struct {
	cfg    DirInboxConfig
	logger *slog.Logger
}

func NewDirInbox(cfg DirInboxConfig, logger *slog.Logger) *DirInbox {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ProcessedDir == "" {
		cfg.ProcessedDir = filepath.Join(cfg.Dir, "processed")
	}
	return &DirInbox{cfg: cfg, logger: logger}
}

func (in *DirInbox) ListPending(ctx context.Context, limit int) ([]Submission, error) {
	entries, err := os.ReadDir(in.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read inbox %s: %v", common.ErrTransientIO, in.cfg.Dir, err)
	}

	var out []Submission
	for _, e := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		if !e.IsDir() {
			continue
		}
		subject := e.Name()
		if filepath.Join(in.cfg.Dir, subject) == in.cfg.ProcessedDir {
			continue
		}
		if in.cfg.Marker != "" && !strings.Contains(strings.ToUpper(subject), strings.ToUpper(in.cfg.Marker)) {
			continue
		}

		customerID, ok := ParseCustomerID(subject)
		if !ok {
			in.logger.Warn("no customer id in subject, skipping", "subject", subject)
			continue
		}

		sub, err := in.readSubmission(subject, customerID)
		if err != nil {
			in.logger.Warn("unreadable submission, skipping", "subject", subject, "error", err)
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}

func (in *DirInbox) readSubmission(subject, customerID string) (Submission, error) {
	dir := filepath.Join(in.cfg.Dir, subject)
	files, err := os.ReadDir(dir)
	if err != nil {
		return Submission{}, err
	}

	sub := Submission{
		ID:         subject,
		CustomerID: customerID,
		Subject:    subject,
	}
	if info, err := os.Stat(dir); err == nil {
		sub.Date = info.ModTime().UTC().Format(time.RFC3339)
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := f.Name()
		if name == senderFile {
			b, err := os.ReadFile(filepath.Join(dir, name))
			if err == nil {
				sub.CustomerEmail = ParseSenderAddress(string(b))
			}
			continue
		}
		ext := constants.NormalizeExt(filepath.Ext(name))
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			in.logger.Debug("ignoring attachment with unsupported extension",
				"subject", subject, "file", name)
			continue
		}
		sub.Attachments = append(sub.Attachments, Attachment{
			Filename: name,
			Path:     filepath.Join(dir, name),
		})
	}
	sort.Slice(sub.Attachments, func(i, j int) bool {
		return sub.Attachments[i].Filename < sub.Attachments[j].Filename
	})
	return sub, nil
}

// Ack moves a processed submission out of the pending set.
func (in *DirInbox) Ack(_ context.Context, id string) error {
	if err := os.MkdirAll(in.cfg.ProcessedDir, 0o755); err != nil {
		return fmt.Errorf("%w: create processed dir: %v", common.ErrTransientIO, err)
	}
	src := filepath.Join(in.cfg.Dir, id)
	dst := filepath.Join(in.cfg.ProcessedDir, id)
	if _, err := os.Stat(dst); err == nil {
		dst = fmt.Sprintf("%s.%d", dst, time.Now().UnixNano())
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("%w: ack %s: %v", common.ErrTransientIO, id, err)
	}
	in.logger.Debug("submission acknowledged", "id", id)
	return nil
}
