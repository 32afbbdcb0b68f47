package stylist

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/stylefold/wardrobe/internal/stylist/domain"
)

var fencedJSONPattern = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")

// ExtractJSON pulls a single JSON object out of loosely-structured model
// output. A fenced ```json block is tried first, then the substring between
// the first '{' and the last '}'.
func ExtractJSON(text string) (map[string]any, error) {
	if match := fencedJSONPattern.FindStringSubmatch(text); match != nil {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(match[1]), &parsed); err == nil {
			return parsed, nil
		}
	}

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first == -1 || last == -1 || last <= first {
		return nil, fmt.Errorf("%w: no JSON object in output", domain.ErrUnparsableResponse)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(text[first:last+1]), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnparsableResponse, err)
	}
	return parsed, nil
}

// StringField reads a string value from an extracted object, substituting the
// default when the key is absent or not a string.
func StringField(obj map[string]any, key, def string) string {
	if value, ok := obj[key].(string); ok && value != "" {
		return value
	}
	return def
}

// StringSliceField reads a string array value from an extracted object.
func StringSliceField(obj map[string]any, key string) []string {
	raw, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			values = append(values, s)
		}
	}
	return values
}
