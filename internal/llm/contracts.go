package llm

import "context"

// PageImage is one rendered page, forwarded verbatim to the visual judge.
type PageImage struct {
	Page      int    `json:"page"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"` // base64-encoded image payload
}

// CandidateExtractor is stage 1: document text -> free-form model output that
// is supposed to contain a JSON object of product candidates.
type CandidateExtractor interface {
	ExtractCandidates(ctx context.Context, text, docName string) (string, error)
}

// VisualJudge is stage 2: rendered pages plus the raw stage-1 output ->
// free-form model output that is supposed to contain {"selected_ids", "evidence"}.
type VisualJudge interface {
	JudgeSelection(ctx context.Context, images []PageImage, candidatesText string) (string, error)
}
