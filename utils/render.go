package utils

import "encoding/json"

// RenderAuditValue formats a serialized audit value for display: structured
// data is pretty-printed, plain strings are shown literally, and a missing
// value or JSON null renders as a dash.
func RenderAuditValue(serialized *string) string {
	if serialized == nil {
		return "—"
	}

	var parsed any
	if err := json.Unmarshal([]byte(*serialized), &parsed); err != nil {
		// Not valid JSON; show the raw text as stored.
		return *serialized
	}

	switch v := parsed.(type) {
	case nil:
		return "—"
	case string:
		return v
	default:
		pretty, err := json.MarshalIndent(parsed, "", "  ")
		if err != nil {
			return *serialized
		}
		return string(pretty)
	}
}
