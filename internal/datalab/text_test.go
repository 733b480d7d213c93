package datalab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractText(t *testing.T) {
	payload := `{
		"status": "complete",
		"json": {"children": [
			{"children": [
				{"html": "<h1>Gypsum Board</h1>"},
				{"html": "<p>Type <b>XP</b> 5/8\"</p>"},
				{"html": "<p>   </p>"}
			]},
			{"children": [
				{"html": "<table><tr><td>812</td></tr></table>"},
				{"no_html": "skipped"}
			]}
		]}
	}`

	got := ExtractText([]byte(payload))
	assert.Equal(t, "Gypsum Board\nType XP 5/8\"\n812\n", got)
}

func TestExtractText_MalformedPayloads(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"not json", "garbage"},
		{"empty", ""},
		{"no json field", `{"status": "complete"}`},
		{"children not array", `{"json": {"children": "oops"}}`},
		{"page children malformed", `{"json": {"children": [{"children": 5}]}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, "", ExtractText([]byte(tc.in)))
		})
	}
}
