package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validVerdictJSON() map[string]any {
	return map[string]any{
		"name":              "Ahmed Al Maktoum",
		"dob":               "1985-03-12",
		"id_type":           "Emirates ID",
		"id_number":         "784-1985-1234567-1",
		"id_expiry":         "2027-05-15",
		"address":           "Villa 12, Jumeirah, Dubai",
		"validation_status": "APPROVED",
		"flags":             []any{},
		"compliance_report": "All checks passed.",
		"missing_documents": []any{},
		"data_consistency":  "Name and DOB consistent across documents.",
	}
}

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestValidVerdictPassesSchema(t *testing.T) {
	err := ValidateJSONAgainstSchema(BuildVerdictJSONSchema(), marshal(t, validVerdictJSON()))
	assert.NoError(t, err)
}

func TestSchemaRejectsUnknownStatus(t *testing.T) {
	m := validVerdictJSON()
	m["validation_status"] = "MAYBE"
	err := ValidateJSONAgainstSchema(BuildVerdictJSONSchema(), marshal(t, m))
	assert.Error(t, err)
}

func TestSchemaRejectsExtraKeys(t *testing.T) {
	m := validVerdictJSON()
	m["confidence"] = 0.9
	err := ValidateJSONAgainstSchema(BuildVerdictJSONSchema(), marshal(t, m))
	assert.Error(t, err)
}

func TestSchemaAllowsAbsentExpiry(t *testing.T) {
	m := validVerdictJSON()
	delete(m, "id_expiry")
	err := ValidateJSONAgainstSchema(BuildVerdictJSONSchema(), marshal(t, m))
	assert.NoError(t, err)
}

func TestSanitizeVerdictRepairsNearMiss(t *testing.T) {
	m := validVerdictJSON()
	m["validation_status"] = " approved "
	m["id_expiry"] = nil
	m["flags"] = []any{"ID blurry", "ID blurry", "", "Address proof old"}
	m["missing_documents"] = nil
	m["confidence"] = 0.75

	cleaned, dropped, err := SanitizeVerdict(marshal(t, m))
	require.NoError(t, err)
	assert.NotEmpty(t, dropped)

	require.NoError(t, ValidateJSONAgainstSchema(BuildVerdictJSONSchema(), cleaned))

	var v Verdict
	require.NoError(t, json.Unmarshal(cleaned, &v))
	assert.Equal(t, "APPROVED", string(v.ValidationStatus))
	assert.Empty(t, v.IDExpiry)
	assert.Equal(t, []string{"ID blurry", "Address proof old"}, v.Flags)
	assert.Equal(t, []string{}, v.MissingDocuments)
}

func TestSanitizeVerdictRejectsNonJSON(t *testing.T) {
	_, _, err := SanitizeVerdict([]byte("I cannot help with that."))
	assert.Error(t, err)
}

func TestDedupeStringsPreservesOrder(t *testing.T) {
	in := []string{"b", "a", "b", "c", "a"}
	assert.Equal(t, []string{"b", "a", "c"}, DedupeStrings(in))
}

func TestBuildUserPromptIsDeterministic(t *testing.T) {
	docs := map[string]string{
		"passport.pdf":     "PASSPORT ...",
		"utility_bill.pdf": "DEWA BILL ...",
		"visa.png":         "RESIDENCE VISA ...",
	}
	p1 := BuildUserPrompt("CUST001", docs)
	p2 := BuildUserPrompt("CUST001", docs)
	assert.Equal(t, p1, p2)
	assert.Contains(t, p1, "CUST001")
	assert.Contains(t, p1, "passport.pdf")
}
