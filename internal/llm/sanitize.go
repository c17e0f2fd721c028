package llm

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

var verdictKeys = map[string]struct{}{
	"name": {}, "dob": {}, "id_type": {}, "id_number": {}, "id_expiry": {},
	"address": {}, "validation_status": {}, "flags": {}, "compliance_report": {},
	"missing_documents": {}, "data_consistency": {},
}

var stringFields = []string{
	"name", "dob", "id_type", "id_number", "id_expiry",
	"address", "compliance_report", "data_consistency",
}

// SanitizeVerdict normalizes a near-miss response so it can still validate:
// - trims and uppercases validation_status
// - replaces null scalars with "" (or drops optional id_expiry)
// - coerces null/missing lists to empty lists, deduplicates flags
// - removes unknown keys (additionalProperties = false friendliness)
// It only repairs shape; it never invents field values.
func SanitizeVerdict(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string

	for _, k := range stringFields {
		switch t := m[k].(type) {
		case string:
			m[k] = strings.TrimSpace(t)
		case nil:
			if k == "id_expiry" {
				delete(m, k)
			} else {
				m[k] = ""
			}
			dropped = append(dropped, k+"(null)")
		default:
			if k == "id_expiry" {
				delete(m, k)
			} else {
				m[k] = ""
			}
			dropped = append(dropped, k+"(type)")
		}
	}
	// optional field: empty string fails nothing, but absent is cleaner
	if v, ok := m["id_expiry"].(string); ok && v == "" {
		delete(m, "id_expiry")
	}

	if v, ok := m["validation_status"].(string); ok {
		m["validation_status"] = strings.ToUpper(strings.TrimSpace(v))
	}

	for _, k := range []string{"flags", "missing_documents"} {
		list, changed := coerceStringList(m[k])
		if changed {
			dropped = append(dropped, k+"(coerced)")
		}
		if k == "flags" {
			list = DedupeStrings(list)
		}
		m[k] = list
	}

	for k := range maps.Clone(m) {
		if _, ok := verdictKeys[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, dropped, nil
}

func coerceStringList(v any) ([]string, bool) {
	switch t := v.(type) {
	case nil:
		return []string{}, true
	case []any:
		out := make([]string, 0, len(t))
		changed := false
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				changed = true
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" {
				changed = true
				continue
			}
			out = append(out, s)
		}
		return out, changed
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}, true
		}
		return []string{}, true
	default:
		return []string{}, true
	}
}

// DedupeStrings suppresses exact duplicates while preserving insertion order.
func DedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
