// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads a published knowledge base artifact.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/aikokb/internal/httputil"
	"github.com/pdiddy/aikokb/internal/kb"
	"github.com/pdiddy/aikokb/internal/log"
	"github.com/pdiddy/aikokb/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "aikokb/dev"
)

// Result describes a completed download.
type Result struct {
	Path     string
	Bytes    int64
	Manifest types.Manifest
}

// Download fetches cfg.URL into dest. The body is written to a temporary
// file next to dest and opened as an artifact; only a valid artifact
// replaces dest. A failed download leaves an existing dest untouched.
func Download(ctx context.Context, cfg types.FetchConfig, dest string) (Result, error) {
	if cfg.URL == "" {
		return Result{}, errors.New("fetch URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/octet-stream")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	client := &http.Client{Timeout: timeout}
	log.Debug("fetching artifact", "url", cfg.URL, "dest", dest)

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return Result{}, fmt.Errorf("fetching %s: %w", cfg.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return Result{}, fmt.Errorf("fetching %s: HTTP %d", cfg.URL, resp.StatusCode)
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".*.tmp")
	if err != nil {
		return Result{}, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", tmpPath, err)
	}

	manifest, err := validate(ctx, tmpPath)
	if err != nil {
		return Result{}, err
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return Result{}, fmt.Errorf("installing artifact: %w", err)
	}

	log.Info("fetched artifact", "url", cfg.URL, "path", dest, "bytes", n,
		"topics", manifest.Topics, "documents", manifest.Documents)
	return Result{Path: dest, Bytes: n, Manifest: manifest}, nil
}

// validate opens path as an artifact and returns its manifest.
func validate(ctx context.Context, path string) (types.Manifest, error) {
	k, err := kb.Open(types.KnowledgeBaseConfig{ArtifactPath: path})
	if err != nil {
		return types.Manifest{}, fmt.Errorf("downloaded file is not usable: %w", err)
	}
	defer k.Close()

	m, err := k.Info(ctx)
	if err != nil {
		return types.Manifest{}, fmt.Errorf("downloaded file is not usable: %w", err)
	}
	return m, nil
}
