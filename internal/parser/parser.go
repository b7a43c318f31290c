// Package parser decodes structured payloads out of raw model output.
//
// Model output is not guaranteed to be well-formed: it may be wrapped in
// markdown code fences, carry trailing commentary, or contain broken JSON.
// Every decode here degrades to a well-defined empty value instead of failing
// the turn; callers detect degradation through the returned ErrParse marker.
package parser

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrParse marks output that could not be decoded. Callers log it and fall
// back to defaults; it must never propagate as a turn failure.
var ErrParse = errors.New("parse_error")

// StripFences removes surrounding markdown code-fence markers from raw model
// output. Fenced and unfenced payloads decode identically.
func StripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	if strings.HasSuffix(cleaned, "```") {
		cleaned = cleaned[:len(cleaned)-len("```")]
	}

	return strings.TrimSpace(cleaned)
}

// DecodeObject parses raw model output into a JSON object. It tries a direct
// decode first, then a jsonrepair pass for near-JSON output. On failure it
// returns an empty map and ErrParse; it never returns nil.
func DecodeObject(raw string) (map[string]any, error) {
	cleaned := StripFences(raw)

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err == nil && obj != nil {
		return obj, nil
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return map[string]any{}, ErrParse
	}
	if err := json.Unmarshal([]byte(repaired), &obj); err != nil || obj == nil {
		return map[string]any{}, ErrParse
	}
	return obj, nil
}

// String returns obj[key] as a trimmed string, or "" when absent or not a string.
func String(obj map[string]any, key string) string {
	if value, ok := obj[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

// Bool returns obj[key] as a bool, or false when absent or not a bool.
func Bool(obj map[string]any, key string) bool {
	value, _ := obj[key].(bool)
	return value
}

// List returns obj[key] as a slice, or nil when absent or not a slice.
func List(obj map[string]any, key string) []any {
	value, _ := obj[key].([]any)
	return value
}

// Object returns obj[key] as a nested object, or nil when absent or not an object.
func Object(obj map[string]any, key string) map[string]any {
	value, _ := obj[key].(map[string]any)
	return value
}

// StringList returns obj[key] as a slice of strings, skipping non-string items.
func StringList(obj map[string]any, key string) []string {
	items := List(obj, key)
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ObjectList returns obj[key] as a slice of objects, skipping non-object items.
func ObjectList(obj map[string]any, key string) []map[string]any {
	items := List(obj, key)
	if len(items) == 0 {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
