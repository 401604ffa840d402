package redact

import (
	"encoding/json"
	"strings"
)

// Keys whose values never belong in logs. Audio payloads are masked too;
// they are large base64 blobs that drown debug output.
var sensitiveKeys = map[string]struct{}{
	"authorization": {},
	"token":         {},
	"access_token":  {},
	"cookie":        {},
	"apikey":        {},
	"api_key":       {},
	"data":          {},
}

const mask = "***"

// RedactJSON masks sensitive fields in a JSON document, best effort. Input
// that is not valid JSON is returned unchanged.
func RedactJSON(s string) string {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	b, err := json.Marshal(redactValue(v))
	if err != nil {
		return s
	}
	return string(b)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
				t[k] = mask
				continue
			}
			t[k] = redactValue(val)
		}
		return t
	case []any:
		for i := range t {
			t[i] = redactValue(t[i])
		}
		return t
	default:
		return v
	}
}
