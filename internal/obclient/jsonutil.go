package obclient

import "strconv"

// Upstream banks disagree on response shapes: flat vs. nested "data",
// singular vs. plural array keys, snake_case vs. camelCase. Every parser in
// this package goes through these first-match helpers instead of a rigid
// schema.

// dataObject unwraps a nested "data" object when present, otherwise returns
// the payload itself.
func dataObject(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	if nested, ok := payload["data"].(map[string]any); ok {
		return nested
	}
	return payload
}

// firstString returns the first non-empty string among the candidate keys.
func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// firstInt returns the first integer among the candidate keys, accepting
// JSON numbers and numeric strings.
func firstInt(obj map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case float64:
			return int(v), true
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// firstBool returns the first boolean among the candidate keys.
func firstBool(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		if v, ok := obj[k].(bool); ok {
			return v
		}
	}
	return false
}

// firstArray searches the candidate keys inside the (possibly nested) data
// object, then at the top level, then falls back to a bare top-level array
// handed in by the caller. Missing arrays come back empty, never nil-deref.
func firstArray(payload map[string]any, keys ...string) []map[string]any {
	data := dataObject(payload)
	for _, obj := range []map[string]any{data, payload} {
		if obj == nil {
			continue
		}
		for _, k := range keys {
			if raw, ok := obj[k].([]any); ok {
				return toObjects(raw)
			}
		}
	}
	return nil
}

func toObjects(raw []any) []map[string]any {
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
