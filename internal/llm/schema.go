package llm

import "github.com/kyc-compliance/kyc-intake/constants"

// BuildVerdictJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass this to the reasoning service as a structured output constraint and also
// use it locally to validate what comes back.
func BuildVerdictJSONSchema() map[string]any {
	stringProp := map[string]any{"type": "string"}
	stringList := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}

	props := map[string]any{
		"name":      stringProp,
		"dob":       stringProp,
		"id_type":   stringProp,
		"id_number": stringProp,
		"id_expiry": stringProp,
		"address":   stringProp,
		"validation_status": map[string]any{
			"type": "string",
			"enum": []string{
				string(constants.StatusApproved),
				string(constants.StatusRejected),
				string(constants.StatusHumanReview),
			},
		},
		"flags":             stringList,
		"compliance_report": stringProp,
		"missing_documents": stringList,
		"data_consistency":  stringProp,
	}
	required := []string{
		"name", "dob", "id_type", "id_number", "address",
		"validation_status", "flags", "compliance_report",
		"missing_documents", "data_consistency",
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}
