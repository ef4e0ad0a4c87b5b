// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/research-agent/internal/httputil"
	"github.com/pdiddy/research-agent/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arxivMaxResults is the largest page the arXiv API serves in one call.
const arxivMaxResults = 2000

// ArxivBackend queries the arXiv API.
type ArxivBackend struct {
	Client     *http.Client
	MaxRetries int
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return "arxiv" }

// Search queries the arXiv API and returns results in the order arXiv
// returns them.
func (b *ArxivBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.SearchResult, error) {
	q := buildArxivQuery(query)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}

	sortBy := "relevance"
	if query.Newest {
		sortBy = "submittedDate"
	}
	params := url.Values{
		"search_query": {q},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(query.limit(cfg, arxivMaxResults))},
		"sortBy":       {sortBy},
		"sortOrder":    {"descending"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, b.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	total := len(feed.Entries)
	var results []types.SearchResult
	for i, entry := range feed.Entries {
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" {
			continue
		}

		r := types.SearchResult{
			Identifier:     arxivID,
			Title:          collapseSpace(entry.Title),
			Abstract:       collapseSpace(entry.Summary),
			Source:         "arxiv",
			URL:            "https://arxiv.org/abs/" + arxivID,
			PDFURL:         "https://arxiv.org/pdf/" + arxivID,
			RelevanceScore: positionScore(i, total),
		}
		for _, a := range entry.Authors {
			r.Authors = append(r.Authors, strings.TrimSpace(a.Name))
		}
		for _, c := range entry.Categories {
			r.Categories = append(r.Categories, c.Term)
		}
		for _, l := range entry.Links {
			if l.Title == "pdf" || l.Type == "application/pdf" {
				r.PDFURL = l.Href
			}
		}
		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			r.Date = t
		}

		results = append(results, r)
	}
	return results, nil
}

// Recent lists the newest papers in the given categories submitted within
// the last daysBack days, newest first.
func (b *ArxivBackend) Recent(ctx context.Context, categories []string, daysBack, maxResults int, cfg types.SearchConfig) ([]types.SearchResult, error) {
	if len(categories) == 0 {
		categories = types.DefaultCategories
	}
	return b.Search(ctx, Query{
		Categories: categories,
		DateFrom:   time.Now().UTC().AddDate(0, 0, -daysBack),
		Newest:     true,
		Limit:      maxResults,
	}, cfg)
}

// RecentSource binds an ArxivBackend to fixed categories and settings so
// the ingestion workflow can list papers by window and count alone.
type RecentSource struct {
	Backend    *ArxivBackend
	Categories []string
	Config     types.SearchConfig
}

// Recent lists papers from the last daysBack days.
func (s RecentSource) Recent(ctx context.Context, daysBack, maxResults int) ([]types.SearchResult, error) {
	return s.Backend.Recent(ctx, s.Categories, daysBack, maxResults, s.Config)
}

// buildArxivQuery constructs the search_query parameter. Terms are ANDed;
// categories are ORed inside one parenthesised group, and DateFrom/DateTo
// become a submittedDate range.
func buildArxivQuery(q Query) string {
	var parts []string

	if q.FreeText != "" {
		parts = append(parts, fieldTerms("all", q.FreeText))
	}
	if q.Author != "" {
		parts = append(parts, fieldTerms("au", q.Author))
	}
	for _, kw := range q.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			parts = append(parts, fieldTerms("all", kw))
		}
	}
	if len(q.Categories) > 0 {
		cats := make([]string, len(q.Categories))
		for i, c := range q.Categories {
			cats[i] = "cat:" + c
		}
		parts = append(parts, "("+strings.Join(cats, " OR ")+")")
	}
	if !q.DateFrom.IsZero() || !q.DateTo.IsZero() {
		from, to := "*", "*"
		if !q.DateFrom.IsZero() {
			from = q.DateFrom.Format("20060102") + "0000"
		}
		if !q.DateTo.IsZero() {
			to = q.DateTo.Format("20060102") + "2359"
		}
		if len(parts) > 0 {
			parts = append(parts, fmt.Sprintf("submittedDate:[%s TO %s]", from, to))
		}
	}

	return strings.Join(parts, " AND ")
}

// fieldTerms prefixes every word with field and ANDs them.
func fieldTerms(field, text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = field + ":" + w
	}
	if len(words) == 1 {
		return words[0]
	}
	return "(" + strings.Join(words, " AND ") + ")"
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Links      []arxivLink     `xml:"link"`
	Categories []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" becomes "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
