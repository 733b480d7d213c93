package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/submittal-extractor/constants"
	"github.com/joseph-ayodele/submittal-extractor/internal/llm"
)

type fakeConverter struct {
	payload []byte
	err     error
}

func (f *fakeConverter) Process(_ context.Context, _ string) ([]byte, error) {
	return f.payload, f.err
}

type fakeRenderer struct {
	images []llm.PageImage
	err    error
}

func (f *fakeRenderer) Pages(_ context.Context, _ string) ([]llm.PageImage, error) {
	return f.images, f.err
}

type fakeExtractor struct {
	out     string
	err     error
	gotText string
	gotDoc  string
}

func (f *fakeExtractor) ExtractCandidates(_ context.Context, text, docName string) (string, error) {
	f.gotText = text
	f.gotDoc = docName
	return f.out, f.err
}

type fakeJudge struct {
	out       string
	err       error
	called    bool
	gotText   string
	gotImages []llm.PageImage
}

func (f *fakeJudge) JudgeSelection(_ context.Context, images []llm.PageImage, candidatesText string) (string, error) {
	f.called = true
	f.gotImages = images
	f.gotText = candidatesText
	return f.out, f.err
}

const convPayload = `{
	"status": "complete",
	"json": {"children": [
		{"children": [{"html": "<p>Gypsum Board 5/8\" Type XP</p>"}]},
		{"children": [{"html": "<p>Fasteners catalog</p>"}]}
	]}
}`

func TestProcessorRun_Success(t *testing.T) {
	images := []llm.PageImage{
		{Page: 0, MediaType: "image/png", Data: "aGVsbG8="},
		{Page: 1, MediaType: "image/png", Data: "d29ybGQ="},
	}
	stage1 := "Sure! ```json\n{\"products\": [" +
		"{\"name\": \"Board A\", \"series\": \"812\"}," +
		"{\"name\": \"Board B\"}," +
		"{\"name\": \"Board C\"}]}\n```"

	conv := &fakeConverter{payload: []byte(convPayload)}
	rend := &fakeRenderer{images: images}
	ext := &fakeExtractor{out: stage1}
	judge := &fakeJudge{out: `{"selected_ids": [1, 5, "2"], "evidence": "marked"}`}

	p := NewProcessor(nil, conv, rend, ext, judge)
	res := p.Run(context.Background(), "/tmp/docs/submittal.pdf")

	require.True(t, res.Success)
	assert.Empty(t, res.Error)
	assert.Equal(t, "submittal.pdf", res.DocName)

	// The extractor received the flattened text, not the raw payload.
	assert.Contains(t, ext.gotText, "Gypsum Board 5/8\" Type XP")
	assert.Contains(t, ext.gotText, "Fasteners catalog")
	assert.Equal(t, "submittal.pdf", ext.gotDoc)

	// The judge received the raw stage-1 text and the images unchanged.
	assert.Equal(t, stage1, judge.gotText)
	assert.Equal(t, images, judge.gotImages)

	require.Len(t, res.Candidates, 3)
	assert.Equal(t, "Board A", res.Candidates[0].ProductName)
	assert.Equal(t, "812", res.Candidates[0].VariantIdentifier)

	// Index 5 is out of range and dropped; "2" is coerced.
	assert.Equal(t, []int{1, 5, 2}, res.SelectedIDs)
	require.Len(t, res.Products, 2)
	assert.Equal(t, "Board B", res.Products[0].ProductName)
	assert.Equal(t, "Board C", res.Products[1].ProductName)
	assert.Equal(t, "marked", res.Evidence)

	assert.InDelta(t, 0.7, res.Meta.ConfidenceScore, 1e-6)
	assert.Equal(t, constants.AnnotationUnknown, res.Meta.AnnotationType)
}

func TestProcessorRun_ConverterFailure(t *testing.T) {
	conv := &fakeConverter{err: errors.New("datalab down")}
	judge := &fakeJudge{}
	p := NewProcessor(nil, conv, &fakeRenderer{}, &fakeExtractor{}, judge)

	res := p.Run(context.Background(), "doc.pdf")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "datalab down")
	assert.NotNil(t, res.Products)
	assert.Empty(t, res.Products)
	assert.False(t, judge.called)
}

func TestProcessorRun_RendererFailure(t *testing.T) {
	p := NewProcessor(nil,
		&fakeConverter{payload: []byte(convPayload)},
		&fakeRenderer{err: errors.New("pdftoppm missing")},
		&fakeExtractor{}, &fakeJudge{})

	res := p.Run(context.Background(), "doc.pdf")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "pdftoppm missing")
}

func TestProcessorRun_JudgeFailure(t *testing.T) {
	p := NewProcessor(nil,
		&fakeConverter{payload: []byte(convPayload)},
		&fakeRenderer{},
		&fakeExtractor{out: `{"products": [{"name": "a"}]}`},
		&fakeJudge{err: errors.New("model overloaded")})

	res := p.Run(context.Background(), "doc.pdf")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "model overloaded")
	assert.Empty(t, res.Products)
}

func TestProcessorRun_EmptyStage1SkipsJudge(t *testing.T) {
	judge := &fakeJudge{}
	p := NewProcessor(nil,
		&fakeConverter{payload: []byte(convPayload)},
		&fakeRenderer{},
		&fakeExtractor{out: ""},
		judge)

	res := p.Run(context.Background(), "doc.pdf")
	require.True(t, res.Success)
	assert.False(t, judge.called)
	assert.Empty(t, res.Candidates)
	assert.Empty(t, res.Products)
	assert.Equal(t, "empty candidates", res.Evidence)
}

func TestProcessorRun_MalformedStage1DegradesToEmpty(t *testing.T) {
	judge := &fakeJudge{out: `{"selected_ids": [0]}`}
	p := NewProcessor(nil,
		&fakeConverter{payload: []byte(convPayload)},
		&fakeRenderer{},
		&fakeExtractor{out: "I could not find any products, sorry."},
		judge)

	res := p.Run(context.Background(), "doc.pdf")
	require.True(t, res.Success)
	assert.True(t, judge.called)
	assert.Empty(t, res.Candidates)
	assert.Empty(t, res.Products)
}
