package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/submittal-extractor/internal/llm"
)

const apiVersion = "2023-06-01"

// ExtractCandidates implements llm.CandidateExtractor: high-recall stage-1
// extraction over the document text. Returns the raw model text; salvage and
// normalization are the caller's job.
func (c *Client) ExtractCandidates(ctx context.Context, text, docName string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("stage1.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"doc", docName,
		"text_len", len(text),
	)

	system := "You are an information-extraction engine. " +
		"Return the result as a single JSON object. No prose. " +
		"If a field is unknown, use null (or [] for arrays). Do not invent data."

	user := buildCandidatePrompt(text, docName)

	body := map[string]any{
		"model":       c.cfg.Model,
		"max_tokens":  c.cfg.MaxTokens,
		"temperature": c.cfg.Temperature,
		"system":      system,
		"messages": []map[string]any{
			{"role": "user", "content": "Return ONLY JSON. Start with '{' and end with '}'."},
			{"role": "user", "content": user},
		},
	}

	out, err := c.send(ctx, body)
	if err != nil {
		c.logger.Error("stage1.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	c.logger.Info("stage1.extract.ok",
		"req_id", rid,
		"response_len", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// JudgeSelection implements llm.VisualJudge: stage-2 visual judgment over the
// rendered pages plus the raw stage-1 candidate text. The candidate text is
// passed verbatim so the model infers indexing from order of appearance.
func (c *Client) JudgeSelection(ctx context.Context, images []llm.PageImage, candidatesText string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("stage2.judge.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"pages", len(images),
		"candidates_len", len(candidatesText),
	)

	system := "Return ONLY one JSON object with keys: selected_ids (array of integers), evidence (string). " +
		"Start with '{' and end with '}'. No prose, no preamble."

	blocks := []map[string]any{
		{"type": "text", "text": buildJudgePrompt(candidatesText)},
	}
	for _, img := range images {
		blocks = append(blocks, map[string]any{
			"type": "image",
			"source": map[string]any{
				"type":       "base64",
				"media_type": img.MediaType,
				"data":       img.Data,
			},
		})
	}

	body := map[string]any{
		"model":       c.cfg.Model,
		"max_tokens":  c.cfg.JudgeMaxTokens,
		"temperature": c.cfg.Temperature,
		"system":      system,
		"messages": []map[string]any{
			{"role": "user", "content": blocks},
		},
	}

	out, err := c.send(ctx, body)
	if err != nil {
		c.logger.Error("stage2.judge.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	c.logger.Info("stage2.judge.ok",
		"req_id", rid,
		"response_len", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// send posts a messages request and concatenates the text blocks of the reply.
func (c *Client) send(ctx context.Context, body map[string]any) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/messages"
	headers := map[string]string{
		"x-api-key":         c.cfg.APIKey,
		"anthropic-version": apiVersion,
	}
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		return "", err
	}

	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

func buildCandidatePrompt(text, docName string) string {
	var b strings.Builder
	b.WriteString("You are extracting products from a construction submittal.\n")
	b.WriteString("Extract ALL product variants mentioned in this document.\n\n")
	b.WriteString("Include:\n")
	b.WriteString(" - Every variant in tables (all thicknesses, all model numbers)\n")
	b.WriteString(" - Every type/series mentioned (e.g., 812, 813, 814, 815, 817)\n")
	b.WriteString(" - All options and configurations\n\n")
	b.WriteString("Domain examples:\n")
	b.WriteString(" - Gypsum: ALL thicknesses (1/4\", 1/2\", 5/8\"), ALL types (XP, Fire-Shield, etc)\n")
	b.WriteString(" - Screws: ALL models in the catalog\n")
	b.WriteString(" - Insulation: ALL type numbers in the series\n\n")
	b.WriteString("Extract everything - we'll filter later.\n")
	b.WriteString("Output as JSON matching this schema:\n")
	b.WriteString(llm.MustJSON(llm.BuildCandidateJSONSchema()))
	b.WriteString("\n\n=== DOCUMENT (")
	b.WriteString(docName)
	b.WriteString(") ===\n")
	b.WriteString(text)
	b.WriteString("\n=== END DOCUMENT ===")
	return b.String()
}

func buildJudgePrompt(candidatesText string) string {
	return "Find visual selection marks on the provided PDF images.\n" +
		"Use these rules:\n" +
		"- Treat the provided candidates JSON verbatim.\n" +
		"- If root is an array, index = array index (0-based).\n" +
		"- If root is an object with an array (e.g., 'products'/'items'), index = that array index (0-based).\n" +
		"- Return ONLY JSON: {\"selected_ids\": [...], \"evidence\": \"...\"}.\n\n" +
		"CANDIDATES_JSON:\n" + candidatesText
}
