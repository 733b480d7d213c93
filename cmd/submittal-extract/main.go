package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

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
		file = flag.String("file", "", "submittal PDF to process (required)")
		out  = flag.String("out", "", "optional XLSX output path")
	)
	flag.Parse()

	if *file == "" {
		printError("Error: --file is required\n")
		os.Exit(1)
	}
	if !constants.IsSupported(*file) {
		printError("Error: unsupported file type: %s\n", *file)
		os.Exit(1)
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

	res := proc.Run(context.Background(), *file)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}

	if *out != "" {
		svc := export.NewService(logger)
		b, err := svc.ResultsXLSX([]pipeline.Result{res})
		if err != nil {
			logger.Error("export xlsx", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, b, 0o644); err != nil {
			logger.Error("write xlsx", "path", *out, "error", err)
			os.Exit(1)
		}
		logger.Info("xlsx written", "path", *out)
	}

	if !res.Success {
		os.Exit(1)
	}
}
