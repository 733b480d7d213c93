// Package render turns document pages into base64-encoded images for the
// visual-judgment stage. The rendered sequence is treated downstream as an
// opaque ordered list and forwarded unchanged to the model call.
package render

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/joseph-ayodele/submittal-extractor/constants"
	"github.com/joseph-ayodele/submittal-extractor/internal/cache"
	"github.com/joseph-ayodele/submittal-extractor/internal/common"
	"github.com/joseph-ayodele/submittal-extractor/internal/llm"
)

// Renderer shells out to a pdftoppm-style converter and caches the rendered
// pages through a cache.Store under the images_<identity> key.
type Renderer struct {
	cfg    common.RenderConfig
	runner Runner
	store  cache.Store
	logger *slog.Logger
}

func NewRenderer(cfg common.RenderConfig, runner Runner, store cache.Store, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Converter == "" {
		cfg.Converter = "pdftoppm"
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	if runner == nil {
		runner = NewExecRunner()
	}
	return &Renderer{cfg: cfg, runner: runner, store: store, logger: logger}
}

// Pages renders up to MaxPages pages of the document as PNG images, reusing a
// cached rendering when present.
func (r *Renderer) Pages(ctx context.Context, pdfPath string) ([]llm.PageImage, error) {
	key := "images_" + constants.IdentityKey(pdfPath)

	if blob, ok, err := r.store.LoadArtifact(key); err != nil {
		return nil, common.WrapError(err, "load cached images")
	} else if ok {
		var images []llm.PageImage
		if err := json.Unmarshal(blob, &images); err == nil {
			r.logger.Info("render.cache.hit", "key", key, "pages", len(images))
			return images, nil
		}
		// Unreadable cache entry: re-render and overwrite.
		r.logger.Warn("render.cache.corrupt", "key", key)
	}

	images, err := r.render(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	if len(images) > 0 {
		blob, err := json.Marshal(images)
		if err != nil {
			return nil, err
		}
		if err := r.store.SaveArtifact(key, blob); err != nil {
			return nil, common.WrapError(err, "persist rendered images")
		}
		r.logger.Info("render.cached", "key", key, "pages", len(images))
	}
	return images, nil
}

func (r *Renderer) render(ctx context.Context, pdfPath string) ([]llm.PageImage, error) {
	tmpDir, err := os.MkdirTemp("", "se-render-*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	prefix := filepath.Join(tmpDir, "page")
	lastPage := r.cfg.MaxPages
	if lastPage > 100 {
		lastPage = 100
	}
	args := []string{
		"-png",
		"-r", strconv.Itoa(r.cfg.DPI),
		"-f", "1",
		"-l", strconv.Itoa(lastPage),
		pdfPath,
		prefix,
	}

	if _, errb, err := r.runner.Run(ctx, r.cfg.Converter, args...); err != nil {
		return nil, common.NewAppError("RENDER", fmt.Sprintf("%s failed: %s", r.cfg.Converter, errb), err)
	}

	matches, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	images := make([]llm.PageImage, 0, len(matches))
	for i, m := range matches {
		b, err := os.ReadFile(m)
		if err != nil {
			return nil, err
		}
		images = append(images, llm.PageImage{
			Page:      i,
			MediaType: "image/png",
			Data:      base64.StdEncoding.EncodeToString(b),
		})
	}
	r.logger.Info("render.ok", "file", filepath.Base(pdfPath), "pages", len(images), "dpi", r.cfg.DPI)
	return images, nil
}
