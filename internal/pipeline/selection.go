package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/submittal-extractor/internal/extract"
	"github.com/joseph-ayodele/submittal-extractor/internal/llm"
)

// SelectionResult is the normalized stage-2 judgment: index references into
// the stage-1 candidate list plus a free-text rationale.
type SelectionResult struct {
	SelectedIDs []int  `json:"selected_ids"`
	Evidence    string `json:"evidence"`
}

// ParseSelection salvages the raw judge output into a SelectionResult.
// It accepts "selected_ids" or, failing that, "selected"; keeps elements that
// are integers or all-digit strings and discards everything else; defaults
// evidence to "". It never fails — an unusable payload yields an empty
// selection.
func ParseSelection(raw string) SelectionResult {
	cleaned := llm.Salvage(raw)

	var payload map[string]any
	_ = json.Unmarshal([]byte(cleaned), &payload)

	sel, ok := payload["selected_ids"].([]any)
	if !ok {
		sel, _ = payload["selected"].([]any)
	}

	ids := make([]int, 0, len(sel))
	for _, x := range sel {
		switch t := x.(type) {
		case float64:
			if t == float64(int(t)) {
				ids = append(ids, int(t))
			}
		case string:
			if n, ok := digitsToInt(strings.TrimSpace(t)); ok {
				ids = append(ids, n)
			}
		}
	}

	evidence := ""
	if v, ok := payload["evidence"]; ok && v != nil {
		if s, ok := v.(string); ok {
			evidence = s
		} else {
			evidence = fmt.Sprintf("%v", v)
		}
	}

	return SelectionResult{SelectedIDs: ids, Evidence: evidence}
}

// digitsToInt parses a non-empty all-digit string. Signs, spaces and
// decimals all disqualify.
func digitsToInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// FilterByIndex keeps the candidates referenced by ids, in the order the ids
// appear, silently dropping any index outside [0, len(candidates)).
// Duplicate in-range ids yield duplicate products, matching the judge's view.
func FilterByIndex(candidates []extract.Product, ids []int) []extract.Product {
	out := make([]extract.Product, 0, len(ids))
	for _, i := range ids {
		if i >= 0 && i < len(candidates) {
			out = append(out, candidates[i])
		}
	}
	return out
}
