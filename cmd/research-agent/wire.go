// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/internal/acquire"
	"github.com/pdiddy/research-agent/internal/analysis"
	"github.com/pdiddy/research-agent/internal/chunk"
	"github.com/pdiddy/research-agent/internal/container"
	"github.com/pdiddy/research-agent/internal/convert"
	"github.com/pdiddy/research-agent/internal/coverage"
	"github.com/pdiddy/research-agent/internal/embed"
	"github.com/pdiddy/research-agent/internal/gateway"
	"github.com/pdiddy/research-agent/internal/ingest"
	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/internal/metadata"
	"github.com/pdiddy/research-agent/internal/rerank"
	"github.com/pdiddy/research-agent/internal/search"
	"github.com/pdiddy/research-agent/internal/vectorstore"
	"github.com/pdiddy/research-agent/internal/workflow"
	"github.com/pdiddy/research-agent/pkg/types"
)

// closers collects cleanup functions run in reverse order.
type closers []func()

func (c *closers) add(f func()) { *c = append(*c, f) }

func (c closers) close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// newEmbedder returns the Ollama embedder, wrapped in the Redis cache when
// enabled and reachable.
func newEmbedder(ctx context.Context, c types.Config, cl *closers) embed.Embedder {
	base := embed.NewOllama(c.Embedding, &http.Client{Timeout: c.Ingestion.Timeout})
	if !c.Cache.Enabled {
		return base
	}
	rdb := redis.NewClient(&redis.Options{Addr: c.Cache.Addr, DB: c.Cache.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("embedding cache unavailable, continuing without it",
			zap.String("addr", c.Cache.Addr), zap.Error(err))
		rdb.Close()
		return base
	}
	cl.add(func() { rdb.Close() })
	return embed.NewCached(base, rdb, c.Cache.TTL, logger)
}

func newVectorStore(c types.Config, cl *closers) (*vectorstore.Store, error) {
	vs, err := vectorstore.New(c.VectorStore, logger)
	if err != nil {
		return nil, err
	}
	cl.add(func() { vs.Close() })
	return vs, nil
}

func newGateway(c types.Config) *gateway.Gateway {
	return gateway.New(c.Gateway, logger, gateway.DefaultTools(c.Search, c.Gateway)...)
}

func newIngestion(ctx context.Context, c types.Config, cl *closers) (*workflow.Ingestion, error) {
	repo, err := metadata.Open(ctx, c.Metadata)
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}
	cl.add(func() { repo.Close() })

	vs, err := newVectorStore(c, cl)
	if err != nil {
		return nil, err
	}
	emb := newEmbedder(ctx, c, cl)
	if err := vs.EnsureCollection(ctx, emb.Dimension()); err != nil {
		return nil, err
	}

	conv, err := convert.New(ctx, c.Ingestion.Converter, container.OSExecutor{})
	if err != nil {
		return nil, err
	}

	pipeline := ingest.New(
		acquire.New(c.Ingestion, nil, logger),
		conv,
		chunk.New(c.Ingestion.ChunkTokens, c.Ingestion.ChunkOverlap),
		emb,
		vs,
		repo,
		logger,
	)

	src := search.RecentSource{
		Backend:    &search.ArxivBackend{Client: &http.Client{Timeout: c.Search.Timeout}},
		Categories: c.Search.Categories,
		Config:     c.Search,
	}
	return workflow.NewIngestion(src, repo, pipeline, c.Ingestion, logger), nil
}

func newResearch(ctx context.Context, c types.Config, cl *closers) (*workflow.Research, error) {
	vs, err := newVectorStore(c, cl)
	if err != nil {
		return nil, err
	}
	emb := newEmbedder(ctx, c, cl)

	opts := rerank.Options{
		Embedder: emb,
		Lambda:   c.Rerank.DiversityLambda,
		Members:  rerank.MembersFrom(c.Rerank.EnsembleStrategies, c.Rerank.EnsembleWeights),
		Logger:   logger,
	}
	if c.Rerank.ScorerURL != "" {
		opts.Scorer = rerank.NewHTTPScorer(c.Rerank.ScorerURL, c.Rerank.ScorerTimeout)
	}

	gen, err := llm.New(c.LLM)
	if err != nil {
		logger.Warn("LLM unavailable, analyses will use heuristics", zap.Error(err))
	}

	ev := coverage.NewEvaluator(c.Coverage.Threshold, c.Coverage.Enabled)
	ev.DefaultTool = c.Gateway.DefaultTool
	ev.ResultLimit = c.Gateway.ResultLimit
	ev.Timeout = c.Gateway.Timeout

	deps := workflow.ResearchDeps{
		Embedder: emb,
		Searcher: vs,
		Reranker: rerank.NewEngine(opts),
		Coverage: ev,
		Gateway:  newGateway(c),
		Analyzer: analysis.New(gen, logger),
	}
	return workflow.NewResearch(deps, workflow.ResearchOptionsFromConfig(c), logger), nil
}
