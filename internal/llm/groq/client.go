package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kyc-compliance/kyc-intake/internal/common"
	"github.com/kyc-compliance/kyc-intake/internal/llm"
)

// ExtractVerdict implements llm.VerdictExtractor using text-only chat/completions.
func (c *Client) ExtractVerdict(ctx context.Context, req llm.ValidateRequest) (llm.Verdict, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.validate.start",
		"req_id", rid,
		"customer_id", req.CustomerID,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"documents", len(req.DocumentsText),
	)

	schema := llm.BuildVerdictJSONSchema()
	sys := llm.BuildSystemPrompt()
	user := llm.BuildUserPrompt(req.CustomerID, req.DocumentsText)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"max_tokens":      c.cfg.MaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": sys},
			{"role": "user", "content": user + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.log)
	if err != nil {
		c.log.Error("llm.validate.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Verdict{}, nil, fmt.Errorf("%w: groq request: %v", common.ErrTransientIO, err)
	}
	if status < 200 || status >= 300 {
		c.log.Error("llm.validate.http_status",
			"req_id", rid, "status", status, "body", truncate(string(raw), 2<<10),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Verdict{}, raw, fmt.Errorf("%w: groq status %d", common.ErrTransientIO, status)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.validate.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Verdict{}, raw, fmt.Errorf("%w: decode groq response: %v", common.ErrVerdictParse, err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.validate.no_choices",
			"req_id", rid, "raw", truncate(string(raw), 2<<10),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Verdict{}, raw, fmt.Errorf("%w: no choices in groq response", common.ErrVerdictParse)
	}
	rawContent := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	// Validate strictly first; on a near-miss, sanitize shape and re-validate.
	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		cleaned, dropped, sErr := llm.SanitizeVerdict(rawContent)
		if sErr != nil {
			c.log.Error("llm.validate.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.Verdict{}, rawContent, fmt.Errorf("%w: sanitize: %v", common.ErrVerdictParse, sErr)
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.log.Error("llm.validate.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", truncate(string(rawContent), 2<<10),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.Verdict{}, rawContent, fmt.Errorf("%w: schema validation: %v", common.ErrVerdictParse, vErr)
		}
		c.log.Warn("llm.validate.lenient_sanitize_applied",
			"req_id", rid, "dropped", dropped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	var out llm.Verdict
	if err := json.Unmarshal(rawContent, &out); err != nil {
		c.log.Error("llm.validate.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Verdict{}, rawContent, fmt.Errorf("%w: unmarshal verdict: %v", common.ErrVerdictParse, err)
	}
	if !out.ValidationStatus.Valid() {
		return llm.Verdict{}, rawContent, fmt.Errorf("%w: invalid validation_status %q", common.ErrVerdictParse, out.ValidationStatus)
	}
	out.Flags = llm.DedupeStrings(out.Flags)

	c.log.Info("llm.validate.ok",
		"req_id", rid,
		"customer_id", req.CustomerID,
		"status", out.ValidationStatus,
		"flags", len(out.Flags),
		"missing_documents", len(out.MissingDocuments),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
