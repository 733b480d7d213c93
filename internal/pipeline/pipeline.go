// Package pipeline sequences the two extraction stages and owns the invariant
// that stage-2 index references stay valid against the stage-1 candidate
// ordering: the candidate list is never re-sorted or de-duplicated between
// stages, and the judge sees the exact raw stage-1 text the normalizer parses.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/submittal-extractor/internal/datalab"
	"github.com/joseph-ayodele/submittal-extractor/internal/extract"
	"github.com/joseph-ayodele/submittal-extractor/internal/llm"
)

// Converter obtains the completed conversion payload for a document.
type Converter interface {
	Process(ctx context.Context, path string) ([]byte, error)
}

// PageRenderer obtains the ordered rendered pages for a document.
type PageRenderer interface {
	Pages(ctx context.Context, path string) ([]llm.PageImage, error)
}

// Result is the full pipeline outcome. Failures are reported here, never as
// a returned error: user-visible failure is always a result object.
type Result struct {
	Success     bool              `json:"success"`
	Error       string            `json:"error,omitempty"`
	DocName     string            `json:"doc_name"`
	Products    []extract.Product `json:"products"`
	Candidates  []extract.Product `json:"candidates"`
	SelectedIDs []int             `json:"selected_ids"`
	Evidence    string            `json:"evidence"`
	Meta        extract.Meta      `json:"meta"`
}

// Processor coordinates conversion, rendering, candidate extraction and
// visual judgment for one document at a time.
type Processor struct {
	Logger    *slog.Logger
	Converter Converter
	Renderer  PageRenderer
	Extractor llm.CandidateExtractor
	Judge     llm.VisualJudge
}

func NewProcessor(logger *slog.Logger, conv Converter, rend PageRenderer, ext llm.CandidateExtractor, judge llm.VisualJudge) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Converter: conv, Renderer: rend, Extractor: ext, Judge: judge}
}

// Run executes the full pipeline for the document at pdfPath.
func (p *Processor) Run(ctx context.Context, pdfPath string) Result {
	docName := filepath.Base(pdfPath)
	start := time.Now()

	p.Logger.Info("pipeline.start", "doc", docName)

	// 1) Conversion payload (cached/resumed by the converter).
	payload, err := p.Converter.Process(ctx, pdfPath)
	if err != nil {
		return p.fail(docName, "convert", err)
	}

	// 2) Plain text from the conversion payload.
	text := datalab.ExtractText(payload)
	p.Logger.Info("pipeline.text", "doc", docName, "chars", len(text))

	// 3) Rendered page images.
	images, err := p.Renderer.Pages(ctx, pdfPath)
	if err != nil {
		return p.fail(docName, "render", err)
	}
	p.Logger.Info("pipeline.images", "doc", docName, "pages", len(images))

	// 4) Stage 1: high-recall candidate extraction.
	rawCandidates, err := p.Extractor.ExtractCandidates(ctx, text, docName)
	if err != nil {
		return p.fail(docName, "stage1", err)
	}

	cleaned := llm.Salvage(rawCandidates)
	if vErr := llm.ValidateJSONAgainstSchema(llm.BuildCandidateJSONSchema(), []byte(cleaned)); vErr != nil {
		// Strict validation is observability only; the lenient path below
		// still produces a usable candidate list.
		p.Logger.Warn("stage1.schema_mismatch", "doc", docName, "error", vErr)
	}

	items, shape := extract.DecodeItems([]byte(cleaned))
	candidates := extract.CoerceItems(items)
	meta := extract.ParseMeta([]byte(cleaned), len(candidates))
	p.Logger.Info("stage1.candidates",
		"doc", docName,
		"root_shape", shape.String(),
		"count", len(candidates),
		"confidence", meta.ConfidenceScore,
	)

	// 5) Stage 2: visual judgment over the images and the RAW stage-1 text.
	// The judge must see the exact textual shape stage 1 produced so its
	// index references line up with the list coerced above.
	var sel SelectionResult
	if rawCandidates == "" {
		sel = SelectionResult{SelectedIDs: []int{}, Evidence: "empty candidates"}
	} else {
		rawJudge, err := p.Judge.JudgeSelection(ctx, images, rawCandidates)
		if err != nil {
			return p.fail(docName, "stage2", err)
		}
		if vErr := llm.ValidateJSONAgainstSchema(llm.BuildSelectionJSONSchema(), []byte(llm.Salvage(rawJudge))); vErr != nil {
			p.Logger.Warn("stage2.schema_mismatch", "doc", docName, "error", vErr)
		}
		sel = ParseSelection(rawJudge)
	}
	p.Logger.Info("stage2.selection",
		"doc", docName,
		"selected", len(sel.SelectedIDs),
		"ids", sel.SelectedIDs,
		"evidence", sel.Evidence,
	)

	// 6) Index-based filtering; out-of-range ids are dropped silently.
	selected := FilterByIndex(candidates, sel.SelectedIDs)

	p.Logger.Info("pipeline.ok",
		"doc", docName,
		"candidates", len(candidates),
		"products", len(selected),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return Result{
		Success:     true,
		DocName:     docName,
		Products:    selected,
		Candidates:  candidates,
		SelectedIDs: sel.SelectedIDs,
		Evidence:    sel.Evidence,
		Meta:        meta,
	}
}

func (p *Processor) fail(docName, step string, err error) Result {
	p.Logger.Error("pipeline.failed", "doc", docName, "step", step, "error", err)
	return Result{
		Success:  false,
		Error:    err.Error(),
		DocName:  docName,
		Products: []extract.Product{},
	}
}
