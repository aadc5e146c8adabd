package plans

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Shape is the structural contract a service reply must satisfy before it is
// decoded into a typed plan. Paths use dots for one level of nesting.
type Shape struct {
	Required    []string // keys that must be present
	NonNegative []string // numeric fields that must be >= 0 when present
	Arrays      []string // fields that must be JSON arrays when present
}

// ExtractionError tags which structural check a reply failed. It is the only
// error type that crosses the extraction boundary.
type ExtractionError struct {
	Check  string // "json", "required", "negative", "not-array"
	Detail string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed (%s): %s", e.Check, e.Detail)
}

// Extract trims and unfences a raw service reply, parses it as JSON, and
// validates it against shape before decoding into T. It never panics past
// this boundary; every malformed reply comes back as *ExtractionError.
func Extract[T any](raw string, shape Shape) (T, error) {
	var zero T

	cleaned := stripCodeFence(raw)
	cleaned = extractJSONObject(cleaned)

	var doc map[string]any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return zero, &ExtractionError{Check: "json", Detail: err.Error()}
	}

	for _, key := range shape.Required {
		if _, ok := lookupPath(doc, key); !ok {
			return zero, &ExtractionError{Check: "required", Detail: "missing key " + key}
		}
	}

	for _, key := range shape.NonNegative {
		v, ok := lookupPath(doc, key)
		if !ok {
			continue
		}
		n, ok := v.(float64)
		if !ok {
			return zero, &ExtractionError{Check: "negative", Detail: key + " is not a number"}
		}
		if n < 0 {
			return zero, &ExtractionError{Check: "negative", Detail: fmt.Sprintf("%s is %v", key, n)}
		}
	}

	for _, key := range shape.Arrays {
		v, ok := lookupPath(doc, key)
		if !ok {
			continue
		}
		if _, ok := v.([]any); !ok {
			return zero, &ExtractionError{Check: "not-array", Detail: key + " is not an array"}
		}
	}

	var out T
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return zero, &ExtractionError{Check: "json", Detail: err.Error()}
	}
	return out, nil
}

// stripCodeFence removes a leading ``` fence with an optional language tag and
// the matching trailing fence. Replies without fencing pass through untouched.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Drop the opening fence line including any language tag after it.
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}

	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// extractJSONObject pulls the outermost {...} out of a reply that mixes prose
// with the JSON payload.
func extractJSONObject(text string) string {
	if strings.HasPrefix(text, "{") {
		return text
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

func lookupPath(doc map[string]any, path string) (any, bool) {
	parts := strings.SplitN(path, ".", 2)

	v, ok := doc[parts[0]]
	if !ok {
		return nil, false
	}
	if len(parts) == 1 {
		return v, true
	}

	nested, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return lookupPath(nested, parts[1])
}
