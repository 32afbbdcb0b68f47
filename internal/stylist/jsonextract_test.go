package stylist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stylefold/wardrobe/internal/stylist/domain"
)

func TestExtractJSON_FencedBlock(t *testing.T) {
	text := "Here is the result:\n```json\n{\"category\": \"Shirt\"}\n```\nHope that helps!"
	parsed, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.Equal(t, "Shirt", parsed["category"])
}

func TestExtractJSON_BraceSubstring(t *testing.T) {
	text := `The item appears to be: {"category": "Jeans", "name": "Blue Jeans"} as requested.`
	parsed, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.Equal(t, "Jeans", parsed["category"])
	assert.Equal(t, "Blue Jeans", parsed["name"])
}

func TestExtractJSON_BareObject(t *testing.T) {
	parsed, err := ExtractJSON(`{"recommendation": ["ID_1", "ID_2"], "description": "A look"}`)
	require.NoError(t, err)
	assert.Equal(t, []any{"ID_1", "ID_2"}, parsed["recommendation"])
}

func TestExtractJSON_BrokenFenceFallsBackToBraces(t *testing.T) {
	// Fence content is invalid, but the prose carries a complete object.
	text := "```json\nnot json\n``` actual: {\"category\": \"Hat\"}"
	parsed, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.Equal(t, "Hat", parsed["category"])
}

func TestExtractJSON_NoObject(t *testing.T) {
	_, err := ExtractJSON("I am sorry, I cannot help with that.")
	assert.True(t, errors.Is(err, domain.ErrUnparsableResponse))
}

func TestExtractJSON_MalformedObject(t *testing.T) {
	_, err := ExtractJSON(`{"category": unterminated`)
	assert.True(t, errors.Is(err, domain.ErrUnparsableResponse))
}

func TestStringField(t *testing.T) {
	obj := map[string]any{"category": "Shirt", "count": 3.0, "empty": ""}
	assert.Equal(t, "Shirt", StringField(obj, "category", "Other"))
	assert.Equal(t, "Other", StringField(obj, "missing", "Other"))
	assert.Equal(t, "Other", StringField(obj, "count", "Other"))
	assert.Equal(t, "Other", StringField(obj, "empty", "Other"))
}

func TestStringSliceField(t *testing.T) {
	obj := map[string]any{
		"ids":   []any{"a", "b", 3.0, "c"},
		"plain": "not a slice",
	}
	assert.Equal(t, []string{"a", "b", "c"}, StringSliceField(obj, "ids"))
	assert.Nil(t, StringSliceField(obj, "plain"))
	assert.Nil(t, StringSliceField(obj, "missing"))
}
