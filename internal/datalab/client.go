// Package datalab wraps the slow asynchronous Datalab marker conversion job
// with an on-disk cache keyed by input identity. The persisted resumption
// handle means a process restart never resubmits work that is already
// in flight, and a completed payload is never fetched twice.
package datalab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/submittal-extractor/constants"
	"github.com/joseph-ayodele/submittal-extractor/internal/cache"
	"github.com/joseph-ayodele/submittal-extractor/internal/common"
)

// markerConfig is sent as form fields alongside the uploaded file.
var markerConfig = map[string]string{
	"use_llm":                  "true",
	"force_ocr":                "true",
	"output_format":            "json",
	"paginate":                 "true",
	"strip_existing_ocr":       "false",
	"disable_image_extraction": "false",
}

// Client submits documents for conversion and polls until completion,
// persisting progress through a cache.Store.
type Client struct {
	cfg    common.DatalabConfig
	http   *http.Client
	store  cache.Store
	logger *slog.Logger
}

func NewClient(cfg common.DatalabConfig, store cache.Store, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.datalab.to"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 300
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		store:  store,
		logger: logger,
	}
}

// Process returns the completed conversion payload for the document at path,
// reusing prior work across process restarts. Resolution order: completed
// artifact (no network), persisted resumption handle (resume polling), fresh
// submission (handle persisted before the first poll).
func (c *Client) Process(ctx context.Context, path string) ([]byte, error) {
	key := "datalab_" + constants.IdentityKey(path)

	if payload, ok, err := c.store.LoadArtifact(key); err != nil {
		return nil, common.WrapError(err, "load cached artifact")
	} else if ok && payloadStatus(payload) == constants.JobStatusComplete {
		c.logger.Info("datalab.cache.hit", "key", key, "bytes", len(payload))
		return payload, nil
	}

	if handle, ok, err := c.store.LoadHandle(key); err != nil {
		return nil, common.WrapError(err, "load resumption handle")
	} else if ok {
		c.logger.Info("datalab.resume", "key", key, "check_url", handle)
		return c.poll(ctx, key, handle)
	}

	checkURL, err := c.submit(ctx, path)
	if err != nil {
		return nil, err
	}
	if checkURL != "" {
		// Persist before the first poll so a crash mid-poll is resumable.
		if err := c.store.SaveHandle(key, checkURL); err != nil {
			return nil, common.WrapError(err, "persist resumption handle")
		}
		c.logger.Info("datalab.handle.saved", "key", key, "check_url", checkURL)
	}
	return c.poll(ctx, key, checkURL)
}

// submit uploads the document and returns the polling URL.
func (c *Client) submit(ctx context.Context, path string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", common.ConfigError("DATALAB_API_KEY is required")
	}

	reqID := uuid.New().String()
	start := time.Now()
	c.logger.Info("datalab.submit", "req_id", reqID, "file", filepath.Base(path))

	f, err := os.Open(path)
	if err != nil {
		return "", common.WrapError(err, "open input file")
	}
	defer func(f *os.File) {
		if cerr := f.Close(); cerr != nil {
			c.logger.Warn("datalab.submit.close_error", "req_id", reqID, "error", cerr)
		}
	}(f)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", common.WrapError(err, "read input file")
	}
	for k, v := range markerConfig {
		if err := mw.WriteField(k, v); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/v1/marker"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", common.WrapError(err, "submit to datalab")
	}
	defer func(rc io.ReadCloser) {
		if cerr := rc.Close(); cerr != nil {
			c.logger.Warn("datalab.submit.body_close_error", "req_id", reqID, "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", common.NewAppError("DATALAB_SUBMIT", fmt.Sprintf("status %d: %s", resp.StatusCode, raw), common.ErrJobFailed)
	}

	var out struct {
		RequestCheckURL string `json:"request_check_url"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", common.WrapError(err, "decode submit response")
	}

	c.logger.Info("datalab.submit.ok",
		"req_id", reqID,
		"check_url", out.RequestCheckURL,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.RequestCheckURL, nil
}

// poll fetches the job status with a fixed retry budget and a fixed delay
// between attempts. On completion the payload is persisted and the handle is
// deleted; on a terminal error the handle is retained for manual retry.
func (c *Client) poll(ctx context.Context, key, checkURL string) ([]byte, error) {
	if checkURL == "" {
		return nil, common.NewAppError("DATALAB_POLL", "no polling URL returned", common.ErrJobFailed)
	}

	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		payload, status, errMsg, err := c.check(ctx, checkURL)
		if err != nil {
			return nil, err
		}

		switch status {
		case constants.JobStatusComplete:
			if err := c.store.SaveArtifact(key, payload); err != nil {
				return nil, common.WrapError(err, "persist artifact")
			}
			if err := c.store.DeleteHandle(key); err != nil {
				return nil, common.WrapError(err, "delete resumption handle")
			}
			c.logger.Info("datalab.complete", "key", key, "attempts", attempt+1, "bytes", len(payload))
			return payload, nil
		case constants.JobStatusError:
			c.logger.Error("datalab.failed", "key", key, "error", errMsg)
			return nil, common.NewAppError("DATALAB_JOB", errMsg, common.ErrJobFailed)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}

	return nil, common.NewAppError("DATALAB_POLL", fmt.Sprintf("no completion after %d attempts", c.cfg.MaxAttempts), common.ErrJobTimeout)
}

func (c *Client) check(ctx context.Context, checkURL string) ([]byte, constants.JobStatus, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checkURL, nil)
	if err != nil {
		return nil, "", "", err
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", "", common.WrapError(err, "poll datalab")
	}
	defer func(rc io.ReadCloser) {
		if cerr := rc.Close(); cerr != nil {
			c.logger.Warn("datalab.poll.body_close_error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	var st struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, "", "", common.WrapError(err, "decode poll response")
	}
	return raw, constants.JobStatus(st.Status), st.Error, nil
}

func payloadStatus(payload []byte) constants.JobStatus {
	var st struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(payload, &st); err != nil {
		return ""
	}
	return constants.JobStatus(st.Status)
}
