// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire downloads paper PDFs into the local papers directory.
package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/research-agent/internal/httputil"
	"github.com/pdiddy/research-agent/pkg/types"
)

// Downloader fetches PDFs for search results. Consecutive downloads are
// spaced by the configured delay.
type Downloader struct {
	client    *http.Client
	dir       string
	userAgent string
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// New returns a Downloader writing into cfg.PapersDir.
func New(cfg types.IngestionConfig, client *http.Client, logger *zap.Logger) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.DownloadDelay > 0 {
		limit = rate.Every(cfg.DownloadDelay)
	}
	return &Downloader{
		client:    client,
		dir:       cfg.PapersDir,
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
	}
}

// Path returns where the PDF for r is (or would be) stored.
func (d *Downloader) Path(r types.SearchResult) string {
	idType, norm := Classify(r.Identifier)
	return filepath.Join(d.dir, Slug(idType, norm)+".pdf")
}

// Download stores the PDF for r and returns its path. An existing file is
// reused and reported as skipped.
func (d *Downloader) Download(ctx context.Context, r types.SearchResult) (path string, skipped bool, err error) {
	path = d.Path(r)
	if _, err := os.Stat(path); err == nil {
		d.logger.Debug("PDF already present", zap.String("paper_id", r.Identifier), zap.String("path", path))
		return path, true, nil
	}

	pdfURL := r.PDFURL
	if pdfURL == "" {
		idType, norm := Classify(r.Identifier)
		pdfURL = PDFURL(idType, norm)
	}
	if pdfURL == "" {
		return "", false, fmt.Errorf("no PDF URL for %q", r.Identifier)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating directory %s: %w", d.dir, err)
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return "", false, err
	}

	start := time.Now()
	if err := d.fetch(ctx, pdfURL, path); err != nil {
		return "", false, fmt.Errorf("downloading %s: %w", r.Identifier, err)
	}
	d.logger.Info("downloaded PDF",
		zap.String("paper_id", r.Identifier),
		zap.String("path", path),
		zap.Duration("elapsed", time.Since(start)),
	)
	return path, false, nil
}

// fetch writes url to destPath through a temporary file renamed on success.
func (d *Downloader) fetch(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, d.client, req, 0)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "text/html") {
		return fmt.Errorf("%s returned HTML instead of a PDF", url)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".acquire-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
