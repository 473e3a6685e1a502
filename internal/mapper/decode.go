package mapper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/localnerve/landlord-propsdb/internal/types"
)

// Lenient field decoders. Each returns the empty value for null, absent or mistyped input.

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || string(raw) == "null"
}

func lenientString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func lenientOptString(raw json.RawMessage) *string {
	if isNull(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

func lenientInt(raw json.RawMessage) *int {
	if isNull(raw) {
		return nil
	}
	var n types.FlexInt
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}
	v := n.Int()
	return &v
}

// lenientStrings accepts an array of strings or a single string.
// Non-string elements are dropped.
func lenientStrings(raw json.RawMessage) []string {
	if isNull(raw) {
		return []string{}
	}
	var items types.FlexList[json.RawMessage]
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
		}
	}
	return NormalizeServices(out)
}

func lenientTime(raw json.RawMessage) *time.Time {
	if isNull(raw) {
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil
	}
	return &t
}

// lenientObjects accepts an array of objects or a single object.
// Non-object elements are dropped.
func lenientObjects(raw json.RawMessage) []map[string]json.RawMessage {
	if isNull(raw) {
		return nil
	}
	var items types.FlexList[json.RawMessage]
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var out []map[string]json.RawMessage
	for _, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err == nil && obj != nil {
			out = append(out, obj)
		}
	}
	return out
}

// decodeRows decodes a row payload that may be an array, a single object or null
func decodeRows(data []byte) ([]map[string]json.RawMessage, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid property rows: %w", err)
	}
	return lenientObjects(data), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func timeOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
