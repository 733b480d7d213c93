package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/submittal-extractor/internal/extract"
)

func TestParseSelection_CoercionScenario(t *testing.T) {
	sel := ParseSelection(`{"selected_ids": [1, 5, "2"], "evidence": "marked"}`)
	assert.Equal(t, []int{1, 5, 2}, sel.SelectedIDs)
	assert.Equal(t, "marked", sel.Evidence)

	candidates := []extract.Product{
		{ProductName: "a"}, {ProductName: "b"}, {ProductName: "c"},
	}
	kept := FilterByIndex(candidates, sel.SelectedIDs)
	require.Len(t, kept, 2)
	assert.Equal(t, "b", kept[0].ProductName)
	assert.Equal(t, "c", kept[1].ProductName)
}

func TestParseSelection_SelectedFallbackKey(t *testing.T) {
	sel := ParseSelection(`{"selected": [0, 2]}`)
	assert.Equal(t, []int{0, 2}, sel.SelectedIDs)
	assert.Equal(t, "", sel.Evidence)
}

func TestParseSelection_SelectedIDsPreferred(t *testing.T) {
	sel := ParseSelection(`{"selected_ids": [1], "selected": [9]}`)
	assert.Equal(t, []int{1}, sel.SelectedIDs)
}

func TestParseSelection_DiscardsUnusableElements(t *testing.T) {
	sel := ParseSelection(`{"selected_ids": [0, 1.5, "x", "-2", " 3", null, true, "07"]}`)
	// " 3" is trimmed to digits; 1.5, "x", "-2", null and true are dropped.
	assert.Equal(t, []int{0, 3, 7}, sel.SelectedIDs)
}

func TestParseSelection_FencedOutput(t *testing.T) {
	raw := "```json\n{\"selected_ids\": [0], \"evidence\": \"boxed row\"}\n```"
	sel := ParseSelection(raw)
	assert.Equal(t, []int{0}, sel.SelectedIDs)
	assert.Equal(t, "boxed row", sel.Evidence)
}

func TestParseSelection_UnusablePayload(t *testing.T) {
	for _, raw := range []string{"", "no json", `[1, 2]`, `{"selected_ids": "nope"}`} {
		sel := ParseSelection(raw)
		assert.Empty(t, sel.SelectedIDs, "raw: %s", raw)
		assert.Equal(t, "", sel.Evidence)
	}
}

func TestParseSelection_NonStringEvidence(t *testing.T) {
	sel := ParseSelection(`{"selected_ids": [], "evidence": 3}`)
	assert.Equal(t, "3", sel.Evidence)
}

func TestFilterByIndex(t *testing.T) {
	candidates := []extract.Product{
		{ProductName: "a"}, {ProductName: "b"}, {ProductName: "c"},
	}

	t.Run("out of range dropped silently", func(t *testing.T) {
		kept := FilterByIndex(candidates, []int{-1, 0, 3, 2, 99})
		require.Len(t, kept, 2)
		assert.Equal(t, "a", kept[0].ProductName)
		assert.Equal(t, "c", kept[1].ProductName)
	})

	t.Run("selection order preserved", func(t *testing.T) {
		kept := FilterByIndex(candidates, []int{2, 0})
		require.Len(t, kept, 2)
		assert.Equal(t, "c", kept[0].ProductName)
		assert.Equal(t, "a", kept[1].ProductName)
	})

	t.Run("duplicates kept", func(t *testing.T) {
		kept := FilterByIndex(candidates, []int{1, 1})
		assert.Len(t, kept, 2)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, FilterByIndex(candidates, nil))
		assert.Empty(t, FilterByIndex(nil, []int{0}))
	})
}
