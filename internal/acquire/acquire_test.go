// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/research-agent/internal/httputil"
	"github.com/pdiddy/research-agent/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func TestClassify(t *testing.T) {
	tests := []struct {
		input    string
		wantType IdentifierType
		wantNorm string
	}{
		{"2301.07041", TypeArxiv, "2301.07041"},
		{"arXiv:2301.07041v2", TypeArxiv, "2301.07041v2"},
		{"  2301.12345 ", TypeArxiv, "2301.12345"},
		{"10.1145/1234567.1234568", TypeDOI, "10.1145/1234567.1234568"},
		{"https://example.com/paper.pdf", TypeURL, "https://example.com/paper.pdf"},
		{"W123456", TypeUnknown, "W123456"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gotType, gotNorm := Classify(tt.input)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantNorm, gotNorm)
		})
	}
}

func TestSlugAndPDFURL(t *testing.T) {
	assert.Equal(t, "2301.07041", Slug(TypeArxiv, "2301.07041"))
	assert.Equal(t, "10.1145-1234567.1234568", Slug(TypeDOI, "10.1145/1234567.1234568"))
	assert.Equal(t, "my-paper", Slug(TypeURL, "https://example.com/my-paper.pdf"))
	assert.Regexp(t, `^id-[0-9a-f]{16}$`, Slug(TypeURL, "https://example.com/"))
	assert.Regexp(t, `^id-[0-9a-f]{16}$`, Slug(TypeUnknown, "W1"))

	assert.Equal(t, "https://arxiv.org/pdf/2301.07041", PDFURL(TypeArxiv, "2301.07041"))
	assert.Equal(t, "https://doi.org/10.1/x", PDFURL(TypeDOI, "10.1/x"))
	assert.Empty(t, PDFURL(TypeUnknown, "W1"))
}

func newDownloader(t *testing.T, dir string) *Downloader {
	t.Helper()
	return New(types.IngestionConfig{PapersDir: dir, HTTPConfig: types.HTTPConfig{UserAgent: "test-agent"}}, http.DefaultClient, zaptest.NewLogger(t))
}

func TestDownload(t *testing.T) {
	var ua string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 body"))
	}))
	defer ts.Close()

	dir := filepath.Join(t.TempDir(), "raw")
	d := newDownloader(t, dir)
	r := types.SearchResult{Identifier: "2401.00001", PDFURL: ts.URL + "/2401.00001"}

	path, skipped, err := d.Download(context.Background(), r)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Equal(t, filepath.Join(dir, "2401.00001.pdf"), path)
	assert.Equal(t, "test-agent", ua)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))

	path2, skipped, err := d.Download(context.Background(), r)
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Equal(t, path, path2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestDownloadFallsBackToArxivURL(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("%PDF"))
	}))
	defer ts.Close()

	old := arxivPDFBase
	arxivPDFBase = ts.URL + "/pdf/"
	defer func() { arxivPDFBase = old }()

	_, _, err := newDownloader(t, t.TempDir()).Download(context.Background(), types.SearchResult{Identifier: "2401.00002"})
	require.NoError(t, err)
	assert.Equal(t, "/pdf/2401.00002", gotPath)
}

func TestDownloadErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html>captcha</html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	dir := t.TempDir()
	d := newDownloader(t, dir)

	_, _, err := d.Download(context.Background(), types.SearchResult{Identifier: "a", PDFURL: ts.URL + "/missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")

	_, _, err = d.Download(context.Background(), types.SearchResult{Identifier: "b", PDFURL: ts.URL + "/html"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTML")

	_, _, err = d.Download(context.Background(), types.SearchResult{Identifier: "W42"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no PDF URL")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloadDelay(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("%PDF"))
	}))
	defer ts.Close()

	d := New(types.IngestionConfig{PapersDir: t.TempDir(), DownloadDelay: 50 * time.Millisecond}, http.DefaultClient, nil)
	start := time.Now()
	for _, id := range []string{"2401.00001", "2401.00002", "2401.00003"} {
		_, _, err := d.Download(context.Background(), types.SearchResult{Identifier: id, PDFURL: ts.URL})
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := d.Download(ctx, types.SearchResult{Identifier: "2401.00004", PDFURL: ts.URL})
	assert.Error(t, err)
}
