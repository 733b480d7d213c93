package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/submittal-extractor/internal/pipeline"
)

// Service produces XLSX bytes for pipeline results.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ResultsXLSX returns an XLSX workbook (as bytes) listing every candidate per
// document with its selection outcome. One row per candidate keeps the
// stage-1 ordering visible for review.
func (s *Service) ResultsXLSX(results []pipeline.Result) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Products"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Document",
		"Index",
		"Product Name",
		"Variant Identifier",
		"Product Family",
		"Manufacturer",
		"Selected",
		"Evidence",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	row := 2
	for _, res := range results {
		if !res.Success {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetCellValue(sheet, cell, res.DocName); err != nil {
				return nil, err
			}
			cell, _ = excelize.CoordinatesToCellName(8, row)
			if err := f.SetCellValue(sheet, cell, "FAILED: "+res.Error); err != nil {
				return nil, err
			}
			row++
			continue
		}

		selected := make(map[int]struct{}, len(res.SelectedIDs))
		for _, id := range res.SelectedIDs {
			selected[id] = struct{}{}
		}

		for i, cand := range res.Candidates {
			mark := "no"
			if _, ok := selected[i]; ok {
				mark = "yes"
			}
			values := []any{
				res.DocName,
				i,
				cand.ProductName,
				cand.VariantIdentifier,
				cand.ProductFamily,
				cand.Manufacturer,
				mark,
				res.Evidence,
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return nil, err
				}
			}
			row++
		}
	}

	// Drop the default sheet if it is not ours.
	if sheet != "Sheet1" {
		if idx, _ := f.GetSheetIndex("Sheet1"); idx != -1 {
			if err := f.DeleteSheet("Sheet1"); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"documents", len(results),
		"rows", row-2,
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
