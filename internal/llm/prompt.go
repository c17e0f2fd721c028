package llm

import (
	"encoding/json"
	"sort"
	"strings"
)

// Per-document text is capped before it goes into the prompt; KYC documents
// carry their identifying fields near the top.
const maxDocChars = 6000

// BuildSystemPrompt returns the fixed compliance rule set. The rules never
// vary per customer, which keeps identical submissions producing identical
// requests.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a KYC compliance reviewer. Return ONLY JSON that matches the JSON Schema provided.",
		"Evaluate the submitted documents against these rules:",
		"1. The identity document must not be expired.",
		"2. Name and date of birth must match across all documents.",
		"3. Proof of address must be recent, issued within the last 3 months.",
		"4. The ID number format must be plausible for the stated id_type.",
		"5. All required documents must be present: a government-issued ID and a proof of address.",
		"6. Document text must be legible; treat unreadable documents as a compliance issue.",
		"Use ISO-8601 dates (YYYY-MM-DD) for 'dob' and 'id_expiry'.",
		"Set 'validation_status' to APPROVED only when every rule passes,",
		"REJECTED for a clear violation,",
		"and HUMAN_REVIEW_NEEDED when the evidence is ambiguous or partially unreadable.",
		"Record each specific issue as a short entry in 'flags'.",
		"List any absent required documents in 'missing_documents'.",
		"Summarize cross-document field agreement in 'data_consistency'.",
		"Never output null. If a field cannot be determined, use an empty string.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt renders the filename->text mapping with sorted keys so the
// same document set always produces the same request body.
func BuildUserPrompt(customerID string, docs map[string]string) string {
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	ordered := make(map[string]string, len(docs))
	for _, name := range names {
		txt := docs[name]
		if len(txt) > maxDocChars {
			txt = txt[:maxDocChars]
		}
		ordered[name] = txt
	}
	// encoding/json sorts map keys, so the payload is stable.
	body, _ := json.MarshalIndent(ordered, "", "  ")

	var b strings.Builder
	b.WriteString("Customer ID: ")
	b.WriteString(customerID)
	b.WriteString("\n\nExtracted document texts (filename -> text):\n")
	b.Write(body)
	return b.String()
}
