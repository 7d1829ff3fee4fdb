// Package llmjson pulls structured data out of free-text model replies.
package llmjson

import (
	"encoding/json"
	"strings"
)

// ExtractObject decodes the span between the first '{' and the last '}' of
// content as a JSON object. ok is false when there is no such span or it does
// not decode to an object.
func ExtractObject(content string) (obj map[string]any, ok bool) {
	jsonStart := strings.Index(content, "{")
	jsonEnd := strings.LastIndex(content, "}")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		return nil, false
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(content[jsonStart:jsonEnd+1]), &out); err != nil {
		return nil, false
	}
	if out == nil {
		return nil, false
	}
	return out, true
}

// Strings coerces v to a slice of strings. Anything that is not a JSON array
// becomes an empty slice; non-string items are skipped. max <= 0 means no cap.
func Strings(v any, max int) []string {
	items, ok := v.([]any)
	out := make([]string, 0, len(items))
	if !ok {
		return out
	}
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// String returns v when it is a non-empty string.
func String(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
