package datalab

import (
	"encoding/json"
	"regexp"
	"strings"
)

var reMarkupTag = regexp.MustCompile(`<[^<]+?>`)

// ExtractText flattens a completed conversion payload into plain text.
// The payload carries a page tree under "json"; each page holds blocks and
// each block may carry a markup-tagged "html" fragment. Tags are stripped and
// non-blank block text is joined with newlines. Missing or malformed fields
// are skipped, never fatal.
func ExtractText(payload []byte) string {
	var doc struct {
		JSON struct {
			Children []json.RawMessage `json:"children"`
		} `json:"json"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return ""
	}

	var b strings.Builder
	for _, page := range doc.JSON.Children {
		var p struct {
			Children []struct {
				HTML string `json:"html"`
			} `json:"children"`
		}
		if err := json.Unmarshal(page, &p); err != nil {
			continue
		}
		for _, block := range p.Children {
			if block.HTML == "" {
				continue
			}
			text := reMarkupTag.ReplaceAllString(block.HTML, "")
			if strings.TrimSpace(text) != "" {
				b.WriteString(text)
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}
