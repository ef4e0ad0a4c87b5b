// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gateway

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/research-agent/internal/search"
	"github.com/pdiddy/research-agent/pkg/types"
)

// Tool is one external source the gateway can invoke.
type Tool interface {
	Name() string
	Lookup(ctx context.Context, client *http.Client, query string, limit int) ([]types.RetrievalResult, error)
}

// Tool names.
const (
	ToolArxivLatest     = "arxiv_latest"
	ToolSemanticScholar = "semantic_scholar"
	ToolOpenAlex        = "openalex"
)

// Fixed retrieval scores given to external hits, one per source.
const (
	arxivScore    = 0.8
	semanticScore = 0.75
	openAlexScore = 0.7
)

// ArxivLatest lists recent arXiv submissions matching the query.
type ArxivLatest struct {
	Config     types.SearchConfig
	RecentDays int
	MaxRetries int
}

func (t *ArxivLatest) Name() string { return ToolArxivLatest }

func (t *ArxivLatest) Lookup(ctx context.Context, client *http.Client, query string, limit int) ([]types.RetrievalResult, error) {
	days := t.RecentDays
	if days <= 0 {
		days = 30
	}
	b := &search.ArxivBackend{Client: client, MaxRetries: t.MaxRetries}
	found, err := b.Search(ctx, search.Query{
		FreeText: query,
		DateFrom: time.Now().UTC().AddDate(0, 0, -days),
		Newest:   true,
		Limit:    limit,
	}, t.Config)
	if err != nil {
		return nil, err
	}
	return toRetrieval(found, arxivScore, types.SourceExternalArxiv, limit), nil
}

// SemanticScholar searches the Semantic Scholar graph API.
type SemanticScholar struct {
	Config     types.SearchConfig
	MaxRetries int
}

func (t *SemanticScholar) Name() string { return ToolSemanticScholar }

func (t *SemanticScholar) Lookup(ctx context.Context, client *http.Client, query string, limit int) ([]types.RetrievalResult, error) {
	b := &search.SemanticScholarBackend{Client: client, APIKey: t.Config.SemanticScholarAPIKey, MaxRetries: t.MaxRetries}
	found, err := b.Search(ctx, search.Query{FreeText: query, Limit: limit}, t.Config)
	if err != nil {
		return nil, err
	}
	return toRetrieval(found, semanticScore, types.SourceExternalS2, limit), nil
}

// OpenAlex searches the OpenAlex works API.
type OpenAlex struct {
	Config     types.SearchConfig
	MaxRetries int
}

func (t *OpenAlex) Name() string { return ToolOpenAlex }

func (t *OpenAlex) Lookup(ctx context.Context, client *http.Client, query string, limit int) ([]types.RetrievalResult, error) {
	b := &search.OpenAlexBackend{Client: client, Email: t.Config.OpenAlexEmail, MaxRetries: t.MaxRetries}
	found, err := b.Search(ctx, search.Query{FreeText: query, Limit: limit}, t.Config)
	if err != nil {
		return nil, err
	}
	return toRetrieval(found, openAlexScore, types.SourceExternalOpenAlex, limit), nil
}

// DefaultTools returns the three shipped tools configured from cfg.
func DefaultTools(searchCfg types.SearchConfig, gwCfg types.GatewayConfig) []Tool {
	return []Tool{
		&ArxivLatest{Config: searchCfg, RecentDays: gwCfg.RecentDays, MaxRetries: gwCfg.MaxRetries},
		&SemanticScholar{Config: searchCfg, MaxRetries: gwCfg.MaxRetries},
		&OpenAlex{Config: searchCfg, MaxRetries: gwCfg.MaxRetries},
	}
}

// toRetrieval converts search hits into abstract-level retrieval results.
// Hits without an identifier or any text are dropped.
func toRetrieval(found []types.SearchResult, score float64, source string, limit int) []types.RetrievalResult {
	out := make([]types.RetrievalResult, 0, len(found))
	for _, f := range found {
		if limit > 0 && len(out) >= limit {
			break
		}
		text := f.Abstract
		if text == "" {
			text = f.Title
		}
		if f.Identifier == "" || text == "" {
			continue
		}
		meta := map[string]string{
			"title":   f.Title,
			"authors": strings.Join(f.Authors, ", "),
			"url":     f.URL,
		}
		if !f.Date.IsZero() {
			meta["published_date"] = f.Date.Format("2006-01-02")
		}
		out = append(out, types.RetrievalResult{
			ChunkID:   f.Identifier,
			PaperID:   f.Identifier,
			SectionID: "abstract",
			Text:      text,
			Score:     score,
			Source:    source,
			Metadata:  meta,
		})
	}
	return out
}
