package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/submittal-extractor/constants"
	"github.com/joseph-ayodele/submittal-extractor/internal/cache"
	"github.com/joseph-ayodele/submittal-extractor/internal/common"
	"github.com/joseph-ayodele/submittal-extractor/internal/datalab"
	"github.com/joseph-ayodele/submittal-extractor/internal/export"
	"github.com/joseph-ayodele/submittal-extractor/internal/llm/anthropic"
	"github.com/joseph-ayodele/submittal-extractor/internal/pipeline"
	"github.com/joseph-ayodele/submittal-extractor/internal/render"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir         = flag.String("dir", "", "directory of submittal PDFs to process (required)")
		out         = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		concurrency = flag.Int("concurrency", 2, "number of documents processed in parallel")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "submittals.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	entries, err := os.ReadDir(*dir)
	if err != nil {
		logger.Error("read directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !constants.IsSupported(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(*dir, e.Name()))
	}
	if len(files) == 0 {
		logger.Error("no supported files found", "dir", *dir)
		os.Exit(1)
	}
	sort.Strings(files)

	store, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Error("open cache", "error", err)
		os.Exit(1)
	}

	conv := datalab.NewClient(cfg.Datalab, store, logger)
	rend := render.NewRenderer(cfg.Render, nil, store, logger)
	model := anthropic.NewClient(anthropic.Config{
		APIKey:            cfg.Anthropic.APIKey,
		BaseURL:           cfg.Anthropic.BaseURL,
		Model:             cfg.Anthropic.Model,
		MaxTokens:         cfg.Anthropic.MaxTokens,
		JudgeMaxTokens:    cfg.Anthropic.JudgeMaxTokens,
		Temperature:       cfg.Anthropic.Temperature,
		Timeout:           cfg.Anthropic.Timeout,
		RequestsPerMinute: cfg.Anthropic.RequestsPerMinute,
	}, logger)

	proc := pipeline.NewProcessor(logger, conv, rend, model, model)

	// Distinct documents share nothing beyond the cache directory, so they
	// can run in parallel; identity keys keep their cache entries apart.
	ctx := context.Background()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*concurrency)

	var mu sync.Mutex
	results := make([]pipeline.Result, 0, len(files))
	for _, f := range files {
		f := f
		g.Go(func() error {
			res := proc.Run(gctx, f)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // Run never returns an error; failures land in results.

	sort.Slice(results, func(i, j int) bool { return results[i].DocName < results[j].DocName })

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	logger.Info("batch complete", "documents", len(results), "failed", failed)

	svc := export.NewService(logger)
	b, err := svc.ResultsXLSX(results)
	if err != nil {
		logger.Error("export xlsx", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, b, 0o644); err != nil {
		logger.Error("write xlsx", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("xlsx written", "path", *out)

	if failed > 0 {
		os.Exit(1)
	}
}
