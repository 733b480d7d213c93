package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstJSONBlock_EmbeddedInProseAndFences(t *testing.T) {
	in := "Here is the result: ```json\n{\"products\": [{\"name\": \"Widget A\"}]}\n``` thanks"
	got := FirstJSONBlock(in)
	assert.Equal(t, `{"products": [{"name": "Widget A"}]}`, got)

	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &v))
}

func TestFirstJSONBlock_LeadingFence(t *testing.T) {
	in := "```json\n{\"a\": 1}\n```"
	assert.Equal(t, `{"a": 1}`, FirstJSONBlock(in))

	in = "```\n[1, 2, 3]\n```"
	assert.Equal(t, `[1, 2, 3]`, FirstJSONBlock(in))
}

func TestFirstJSONBlock_ArrayBeforeObjectWins(t *testing.T) {
	in := `prefix [1, 2] and later {"a": 1}`
	assert.Equal(t, `[1, 2]`, FirstJSONBlock(in))
}

func TestFirstJSONBlock_TruncatedMidString(t *testing.T) {
	got := FirstJSONBlock(`{"a": "unterminated`)
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &v))
	assert.Equal(t, "unterminated", v["a"])
}

func TestFirstJSONBlock_TruncatedContainers(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"open array", `{"a": [1, 2`},
		{"nested objects", `{"a": {"b": {"c": 1`},
		{"array of objects", `[{"x": 1}, {"y": 2`},
		{"string then container", `{"a": "text", "b": ["x`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FirstJSONBlock(tc.in)
			var v any
			require.NoError(t, json.Unmarshal([]byte(got), &v), "salvaged: %s", got)
		})
	}
}

func TestFirstJSONBlock_EscapedBackslashBeforeQuote(t *testing.T) {
	// The string value ends with an escaped backslash; the closing quote must
	// still terminate the string.
	in := `{"k": "a\\", "m": 1}`
	got := FirstJSONBlock(in)
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &v))
	assert.Equal(t, `a\`, v["k"])
	assert.Equal(t, float64(1), v["m"])
}

func TestFirstJSONBlock_EscapedQuoteInsideString(t *testing.T) {
	in := `{"k": "say \"hi\" {not a container}"}`
	got := FirstJSONBlock(in)
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &v))
	assert.Equal(t, `say "hi" {not a container}`, v["k"])
}

func TestFirstJSONBlock_MismatchedCloserIgnored(t *testing.T) {
	// The stray ']' must not pop the '{' opener; the block is still closed
	// with '}' at the end.
	got := FirstJSONBlock(`{"a": 1 ]`)
	assert.Equal(t, `{"a": 1 ]}`, got)
}

func TestFirstJSONBlock_NoOpenerReturnsInput(t *testing.T) {
	assert.Equal(t, "no json here", FirstJSONBlock("  no json here  "))
	assert.Equal(t, "", FirstJSONBlock(""))
}

func TestFirstJSONBlock_BOMStripped(t *testing.T) {
	got := FirstJSONBlock("\uFEFF{\"a\": 1}")
	assert.Equal(t, `{"a": 1}`, got)
}

func TestCleanMinorIssues_TrailingCommas(t *testing.T) {
	got := CleanMinorIssues(`{"a": 1, "b": [1,2,],}`)
	assert.Equal(t, `{"a": 1, "b": [1,2]}`, got)
}

func TestCleanMinorIssues_Comments(t *testing.T) {
	in := "{\n// a comment\n\"a\": 1, /* block\ncomment */ \"b\": 2\n}"
	got := CleanMinorIssues(in)
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &v))
	assert.Equal(t, float64(1), v["a"])
	assert.Equal(t, float64(2), v["b"])
}

func TestCleanMinorIssues_SmartQuotesAndNBSP(t *testing.T) {
	in := "{“a”: 1}"
	assert.Equal(t, `{"a": 1}`, CleanMinorIssues(in))
}

func TestCleanMinorIssues_ControlChars(t *testing.T) {
	in := "{\"a\":\x01 \"b\x02\"}\t\n"
	got := CleanMinorIssues(in)
	assert.Equal(t, "{\"a\": \"b\"}\t\n", got)
}

func TestCleanMinorIssues_Empty(t *testing.T) {
	assert.Equal(t, "", CleanMinorIssues(""))
}

func TestSalvage_RoundTrip(t *testing.T) {
	inputs := []string{
		"Here is the result: ```json\n{\"products\": [{\"name\": \"Widget A\"}]}\n``` thanks",
		`{"a": 1, "b": [1,2,],}`,
		`{"a": [1, 2`,
		`{"a": "unterminated`,
		"```json\n{\"selected_ids\": [0, 1], \"evidence\": \"ok\"}\n```",
	}
	for _, in := range inputs {
		var v any
		require.NoError(t, json.Unmarshal([]byte(Salvage(in)), &v), "input: %s", in)
	}
}
