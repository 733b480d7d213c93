package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/submittal-extractor/internal/extract"
	"github.com/joseph-ayodele/submittal-extractor/internal/pipeline"
)

func openWorkbook(t *testing.T, b []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, ref string) string {
	t.Helper()
	v, err := f.GetCellValue("Products", ref)
	require.NoError(t, err)
	return v
}

func TestResultsXLSX(t *testing.T) {
	results := []pipeline.Result{
		{
			Success: true,
			DocName: "gypsum.pdf",
			Candidates: []extract.Product{
				{ProductName: "Board A", VariantIdentifier: "812", ProductFamily: "Gypsum", Manufacturer: "Acme"},
				{ProductName: "Board B", VariantIdentifier: "1", ProductFamily: "Gypsum", Manufacturer: "Acme"},
			},
			SelectedIDs: []int{1},
			Evidence:    "boxed on page 2",
		},
		{
			Success: false,
			DocName: "broken.pdf",
			Error:   "datalab job failed",
		},
	}

	b, err := NewService(nil).ResultsXLSX(results)
	require.NoError(t, err)
	f := openWorkbook(t, b)

	assert.Equal(t, []string{"Products"}, f.GetSheetList())

	assert.Equal(t, "Document", cell(t, f, "A1"))
	assert.Equal(t, "Product Name", cell(t, f, "C1"))
	assert.Equal(t, "Selected", cell(t, f, "G1"))
	assert.Equal(t, "Evidence", cell(t, f, "H1"))

	// Candidate rows keep stage-1 order with the selection outcome marked.
	assert.Equal(t, "gypsum.pdf", cell(t, f, "A2"))
	assert.Equal(t, "0", cell(t, f, "B2"))
	assert.Equal(t, "Board A", cell(t, f, "C2"))
	assert.Equal(t, "812", cell(t, f, "D2"))
	assert.Equal(t, "no", cell(t, f, "G2"))

	assert.Equal(t, "Board B", cell(t, f, "C3"))
	assert.Equal(t, "yes", cell(t, f, "G3"))
	assert.Equal(t, "boxed on page 2", cell(t, f, "H3"))

	// A failed document gets a single row with the error in the last column.
	assert.Equal(t, "broken.pdf", cell(t, f, "A4"))
	assert.Equal(t, "FAILED: datalab job failed", cell(t, f, "H4"))
	assert.Equal(t, "", cell(t, f, "C4"))
}

func TestResultsXLSX_Empty(t *testing.T) {
	b, err := NewService(nil).ResultsXLSX(nil)
	require.NoError(t, err)
	f := openWorkbook(t, b)

	assert.Equal(t, "Document", cell(t, f, "A1"))
	assert.Equal(t, "", cell(t, f, "A2"))
}
