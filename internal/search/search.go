// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries academic APIs (arXiv, Semantic Scholar, OpenAlex)
// and returns unified SearchResults. The ingestion workflow uses the arXiv
// recent listing to discover papers; the external-tool gateway wraps each
// backend as a tool.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/research-agent/internal/httputil"
	"github.com/pdiddy/research-agent/pkg/types"
)

// Backend searches a single academic API.
type Backend interface {
	Name() string
	Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.SearchResult, error)
}

// Query holds the search parameters.
type Query struct {
	FreeText string
	Author   string
	Keywords []string

	// Categories restricts results to subject categories (arXiv only).
	Categories []string

	DateFrom time.Time
	DateTo   time.Time

	// Newest orders results by submission date instead of relevance.
	Newest bool

	// Limit overrides cfg.MaxResults when positive.
	Limit int
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return q.FreeText == "" && q.Author == "" && len(q.Keywords) == 0 && len(q.Categories) == 0
}

func (q Query) limit(cfg types.SearchConfig, ceiling int) int {
	n := q.Limit
	if n <= 0 {
		n = cfg.MaxResults
	}
	if n <= 0 {
		n = 20
	}
	if ceiling > 0 && n > ceiling {
		n = ceiling
	}
	return n
}

// positionScore maps a result position to a relevance score in [0.1, 1.0].
func positionScore(i, total int) float64 {
	if total > 1 {
		return 1.0 - float64(i)/float64(total-1)*0.9
	}
	return 1.0
}

// terms joins the free-text, author and keyword fields into one search
// string for the full-text APIs.
func (q Query) terms() string {
	parts := make([]string, 0, 2+len(q.Keywords))
	for _, p := range append([]string{q.FreeText, q.Author}, q.Keywords...) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// getJSON issues a GET for endpoint?params through DoWithRetry and decodes
// a 200 response into out. api names the service in error messages.
func getJSON(ctx context.Context, client *http.Client, api, endpoint string, params url.Values, header http.Header, maxRetries int, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, maxRetries)
	if err != nil {
		return fmt.Errorf("%s request: %w", api, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned HTTP %d", api, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing %s response: %w", api, err)
	}
	return nil
}

// published parses an ISO date, falling back to January 1 of year. Both
// missing yields the zero time.
func published(date string, year int) time.Time {
	if t, err := time.Parse(time.DateOnly, date); err == nil {
		return t
	}
	if year > 0 {
		return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}

func userAgent(cfg types.SearchConfig) http.Header {
	h := http.Header{}
	if cfg.UserAgent != "" {
		h.Set("User-Agent", cfg.UserAgent)
	}
	return h
}
