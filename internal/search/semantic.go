// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/research-agent/pkg/types"
)

var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

// semanticFields is the projection requested from the Graph API; abstracts
// become the passage text of external hits.
const semanticFields = "title,abstract,authors,externalIds,year,publicationDate,url,openAccessPdf"

// SemanticScholarBackend queries the Semantic Scholar Graph API. Without an
// APIKey requests share the public, heavily rate-limited pool.
type SemanticScholarBackend struct {
	Client     *http.Client
	APIKey     string
	MaxRetries int
}

func (b *SemanticScholarBackend) Name() string { return "semantic_scholar" }

// Search runs a relevance search. Query dates narrow by publication year.
func (b *SemanticScholarBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.SearchResult, error) {
	terms := query.terms()
	if terms == "" {
		return nil, errors.New("empty Semantic Scholar query")
	}

	params := url.Values{}
	params.Set("query", terms)
	params.Set("limit", strconv.Itoa(query.limit(cfg, 100)))
	params.Set("fields", semanticFields)
	if years := yearRange(query); years != "" {
		params.Set("year", years)
	}

	header := userAgent(cfg)
	if b.APIKey != "" {
		header.Set("x-api-key", b.APIKey)
	}

	var page struct {
		Data []semanticPaper `json:"data"`
	}
	if err := getJSON(ctx, b.Client, "Semantic Scholar API", semanticAPIBase, params, header, b.MaxRetries, &page); err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(page.Data))
	for i, p := range page.Data {
		results = append(results, p.result(positionScore(i, len(page.Data))))
	}
	return results, nil
}

// yearRange renders the Graph API year filter: "2020-2023", "2020-" or "-2023".
func yearRange(q Query) string {
	if q.DateFrom.IsZero() && q.DateTo.IsZero() {
		return ""
	}
	var from, to string
	if !q.DateFrom.IsZero() {
		from = strconv.Itoa(q.DateFrom.Year())
	}
	if !q.DateTo.IsZero() {
		to = strconv.Itoa(q.DateTo.Year())
	}
	return from + "-" + to
}

type semanticPaper struct {
	PaperID         string `json:"paperId"`
	Title           string `json:"title"`
	Abstract        string `json:"abstract"`
	Year            int    `json:"year"`
	PublicationDate string `json:"publicationDate"`
	URL             string `json:"url"`
	Authors         []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ExternalIDs struct {
		DOI   string `json:"DOI"`
		ArXiv string `json:"ArXiv"`
	} `json:"externalIds"`
	OpenAccessPDF *struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
}

func (p semanticPaper) result(score float64) types.SearchResult {
	r := types.SearchResult{
		Title:          p.Title,
		Abstract:       p.Abstract,
		Date:           published(p.PublicationDate, p.Year),
		Source:         "semantic_scholar",
		URL:            p.URL,
		RelevanceScore: score,
	}
	if p.OpenAccessPDF != nil {
		r.PDFURL = p.OpenAccessPDF.URL
	}
	for _, a := range p.Authors {
		if a.Name != "" {
			r.Authors = append(r.Authors, a.Name)
		}
	}

	// arXiv IDs first so external hits line up with ingested papers.
	switch {
	case p.ExternalIDs.ArXiv != "":
		r.Identifier = p.ExternalIDs.ArXiv
	case p.ExternalIDs.DOI != "":
		r.Identifier = p.ExternalIDs.DOI
	default:
		r.Identifier = p.PaperID
	}
	return r
}
