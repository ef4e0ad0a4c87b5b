// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-agent/internal/coverage"
	"github.com/pdiddy/research-agent/internal/merge"
	"github.com/pdiddy/research-agent/internal/metrics"
	"github.com/pdiddy/research-agent/internal/rerank"
	"github.com/pdiddy/research-agent/pkg/types"
)

// Research node names.
const (
	NodeRetrieve       = "retrieve"
	NodeRerank         = "rerank"
	NodeCheckCoverage  = "check_coverage"
	NodeInvokeExternal = "invoke_external"
	NodeMerge          = "merge"
	NodeAnalyze        = "analyze"
	NodeAggregate      = "aggregate"
)

// MaxRecommendations is the number of recommendations taken from each analysis.
const MaxRecommendations = 3

// QueryEmbedder embeds the research query.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher returns the passages nearest to a query vector.
type VectorSearcher interface {
	Search(ctx context.Context, vector []float32, limit int) ([]types.RetrievalResult, error)
}

// Reranker ranks retrieval results. Only a *rerank.ConfigError is expected
// as an error.
type Reranker interface {
	Rerank(ctx context.Context, strategy types.RerankStrategy, query string, results []types.RetrievalResult, topK int) ([]types.RankedResult, error)
}

// ToolInvoker runs one external tool call. It reports failures in the result.
type ToolInvoker interface {
	Invoke(ctx context.Context, tc types.ToolContext) types.ToolResult
}

// Analyzer produces the four analyses. Each method always returns a value.
type Analyzer interface {
	Gap(ctx context.Context, ranked []types.RankedResult) *types.GapAnalysis
	Design(ctx context.Context, ranked []types.RankedResult) *types.DesignSuggestion
	Pattern(ctx context.Context, ranked []types.RankedResult) *types.PatternDetection
	Future(ctx context.Context, ranked []types.RankedResult) *types.FutureDirections
}

// ResearchDeps are the collaborators of the research workflow. Gateway may
// be nil, in which case external augmentation never runs.
type ResearchDeps struct {
	Embedder QueryEmbedder
	Searcher VectorSearcher
	Reranker Reranker
	Coverage coverage.Evaluator
	Gateway  ToolInvoker
	Analyzer Analyzer
}

// ResearchOptions hold per-run defaults.
type ResearchOptions struct {
	RetrievalLimit int
	RerankStrategy types.RerankStrategy
	RerankLimit    int
	AnalysisType   types.AnalysisType
}

// ResearchOptionsFromConfig derives options from the application config.
func ResearchOptionsFromConfig(cfg types.Config) ResearchOptions {
	return ResearchOptions{
		RetrievalLimit: cfg.Research.RetrievalLimit,
		RerankStrategy: cfg.Rerank.Strategy,
		RerankLimit:    cfg.Rerank.TopK,
		AnalysisType:   cfg.Research.AnalysisType,
	}
}

// ResearchRequest starts a research run. Empty AnalysisType and Strategy
// take the configured defaults.
type ResearchRequest struct {
	Query        string
	AnalysisType types.AnalysisType
	Strategy     types.RerankStrategy

	// UseExternal allows external augmentation when coverage is low.
	UseExternal bool
}

// Research answers a query from the local corpus, optionally augmented by
// an external tool, and aggregates the selected analyses.
type Research struct {
	deps   ResearchDeps
	opts   ResearchOptions
	logger *zap.Logger
	now    func() time.Time
}

// NewResearch wires the research workflow.
func NewResearch(deps ResearchDeps, opts ResearchOptions, logger *zap.Logger) *Research {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := types.DefaultConfig()
	if opts.RetrievalLimit <= 0 {
		opts.RetrievalLimit = def.Research.RetrievalLimit
	}
	if opts.RerankStrategy == "" {
		opts.RerankStrategy = def.Rerank.Strategy
	}
	if opts.RerankLimit <= 0 {
		opts.RerankLimit = def.Rerank.TopK
	}
	if !opts.AnalysisType.Valid() {
		opts.AnalysisType = def.Research.AnalysisType
	}
	return &Research{deps: deps, opts: opts, logger: logger, now: time.Now}
}

// Stream runs the research workflow and yields the state after every node.
func (w *Research) Stream(ctx context.Context, req ResearchRequest) iter.Seq[types.ResearchState] {
	return func(yield func(types.ResearchState) bool) {
		st := w.initial(req)
		log := w.logger.With(zap.String("workflow", NameResearch), zap.String("run_id", st.RunID))

		m := &machine[types.ResearchState]{
			name: NameResearch,
			nodes: map[string]node[types.ResearchState]{
				NodeRetrieve:       w.retrieve,
				NodeRerank:         w.rerank,
				NodeCheckCoverage:  w.checkCoverage,
				NodeInvokeExternal: w.invokeExternal,
				NodeMerge:          w.merge,
				NodeAnalyze:        w.analyze,
				NodeAggregate:      w.aggregate,
			},
			start:    NodeRetrieve,
			recovery: NodeAggregate,
			cancel: func(st types.ResearchState, err error) types.ResearchState {
				return withError(st, fmt.Errorf("cancelled: %w", err))
			},
			mark: func(st types.ResearchState, name string) types.ResearchState {
				st.Node = name
				return st
			},
			logger: log,
		}

		var final types.ResearchState
		for st := range m.run(ctx, st) {
			final = st
			if !yield(st) {
				return
			}
		}
		status := "completed"
		if final.Error != "" {
			status = "error"
		}
		metrics.WorkflowRuns.WithLabelValues(NameResearch, status).Inc()
	}
}

// Run executes the research workflow and returns the terminal state.
func (w *Research) Run(ctx context.Context, req ResearchRequest) types.ResearchState {
	return last(w.Stream(ctx, req))
}

func (w *Research) initial(req ResearchRequest) types.ResearchState {
	st := types.ResearchState{
		RunID:             uuid.NewString(),
		Query:             strings.TrimSpace(req.Query),
		AnalysisType:      req.AnalysisType,
		RetrievalLimit:    w.opts.RetrievalLimit,
		RerankStrategy:    req.Strategy,
		RerankLimit:       w.opts.RerankLimit,
		UseExternal:       req.UseExternal,
		ExternalEnabled:   w.deps.Coverage.Enabled && w.deps.Gateway != nil,
		CoverageThreshold: w.deps.Coverage.Threshold,
		CreatedAt:         w.now().UTC(),
	}
	if st.RerankStrategy == "" {
		st.RerankStrategy = w.opts.RerankStrategy
	}
	switch {
	case st.AnalysisType == "":
		st.AnalysisType = w.opts.AnalysisType
	case !st.AnalysisType.Valid():
		st = withError(st, fmt.Errorf("unknown analysis type %q, using %s", st.AnalysisType, w.opts.AnalysisType))
		st.AnalysisType = w.opts.AnalysisType
	}
	return st
}

// withError records err; the first error stays first and later ones are
// appended with "; ".
func withError(st types.ResearchState, err error) types.ResearchState {
	if st.Error == "" {
		st.Error = err.Error()
	} else {
		st.Error += "; " + err.Error()
	}
	return st
}

func (w *Research) retrieve(ctx context.Context, st types.ResearchState) (types.ResearchState, string) {
	if st.Query == "" {
		return withError(st, errors.New("retrieve: empty query")), NodeRerank
	}
	vec, err := w.deps.Embedder.Embed(ctx, st.Query)
	if err != nil {
		w.logger.Error("query embedding failed", zap.String("run_id", st.RunID), zap.Error(err))
		return withError(st, fmt.Errorf("retrieve: embedding query: %w", err)), NodeRerank
	}
	found, err := w.deps.Searcher.Search(ctx, vec, st.RetrievalLimit)
	if err != nil {
		w.logger.Error("vector search failed", zap.String("run_id", st.RunID), zap.Error(err))
		return withError(st, fmt.Errorf("retrieve: vector search: %w", err)), NodeRerank
	}

	results := make([]types.RetrievalResult, len(found))
	scores := make([]float64, len(found))
	for i, r := range found {
		r.Source = types.SourceLocal
		results[i] = r
		scores[i] = r.Score
	}
	st.RetrievalResults = results
	st.CoverageScore = coverage.Score(scores)

	w.logger.Info("passages retrieved",
		zap.String("run_id", st.RunID),
		zap.Int("results", len(results)),
		zap.Float64("coverage", st.CoverageScore),
	)
	return st, NodeRerank
}

func (w *Research) rerank(ctx context.Context, st types.ResearchState) (types.ResearchState, string) {
	ranked, err := w.deps.Reranker.Rerank(ctx, st.RerankStrategy, st.Query, st.RetrievalResults, st.RerankLimit)
	if err != nil {
		var cfgErr *rerank.ConfigError
		if !errors.As(err, &cfgErr) {
			err = fmt.Errorf("unexpected rerank error: %w", err)
		}
		w.logger.Warn("rerank failed, using fallback ranking",
			zap.String("run_id", st.RunID),
			zap.String("strategy", string(st.RerankStrategy)),
			zap.Error(err),
		)
		st = withError(st, fmt.Errorf("rerank: %w", err))
		ranked = rerank.Fallback(st.RetrievalResults, st.RerankLimit)
	}
	st.RankedResults = ranked
	st.CoverageScore = coverage.Score(coverage.RankedScores(ranked))
	return st, NodeCheckCoverage
}

func (w *Research) checkCoverage(_ context.Context, st types.ResearchState) (types.ResearchState, string) {
	st.Decision = w.deps.Coverage.Decide(st.CoverageScore, st.UseExternal, st.Query)
	w.logger.Info("coverage checked",
		zap.String("run_id", st.RunID),
		zap.Float64("score", st.CoverageScore),
		zap.Float64("threshold", st.CoverageThreshold),
		zap.Bool("external", st.Decision.ShouldUseExternal),
	)
	if st.Decision.ShouldUseExternal && st.Decision.Tool != nil && w.deps.Gateway != nil {
		return st, NodeInvokeExternal
	}
	return st, NodeAnalyze
}

func (w *Research) invokeExternal(ctx context.Context, st types.ResearchState) (types.ResearchState, string) {
	res := w.deps.Gateway.Invoke(ctx, *st.Decision.Tool)
	st.ToolResult = &res
	st.ExternalResults = nil
	if !res.Success {
		return withError(st, fmt.Errorf("external tool %s: %s", res.ToolName, res.Error)), NodeMerge
	}
	st.ExternalResults = slices.Clone(res.Results)
	w.logger.Info("external results received",
		zap.String("run_id", st.RunID),
		zap.String("tool", res.ToolName),
		zap.Int("results", len(res.Results)),
		zap.Duration("elapsed", res.Duration),
	)
	return st, NodeMerge
}

func (w *Research) merge(_ context.Context, st types.ResearchState) (types.ResearchState, string) {
	st.RankedResults = merge.Merge(st.RankedResults, st.ExternalResults, st.RerankLimit)
	return st, NodeAnalyze
}

func (w *Research) analyze(ctx context.Context, st types.ResearchState) (types.ResearchState, string) {
	ranked := st.RankedResults
	var set types.AnalysisSet

	// Analyses are independent: one failing must not cancel the others.
	var g errgroup.Group
	if st.AnalysisType.Includes(types.AnalysisGap) {
		g.Go(recovered("gap", func() { set.Gap = w.deps.Analyzer.Gap(ctx, ranked) }))
	}
	if st.AnalysisType.Includes(types.AnalysisDesign) {
		g.Go(recovered("design", func() { set.Design = w.deps.Analyzer.Design(ctx, ranked) }))
	}
	if st.AnalysisType.Includes(types.AnalysisPattern) {
		g.Go(recovered("pattern", func() { set.Pattern = w.deps.Analyzer.Pattern(ctx, ranked) }))
	}
	if st.AnalysisType.Includes(types.AnalysisFutureDirections) {
		g.Go(recovered("future directions", func() { set.Future = w.deps.Analyzer.Future(ctx, ranked) }))
	}
	if err := g.Wait(); err != nil {
		st = withError(st, fmt.Errorf("analyze: %w", err))
	}

	st.Analyses = set
	return st, NodeAggregate
}

// recovered turns a panic in fn into an error naming the analysis.
func recovered(name string, fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s analysis panicked: %v", name, r)
			}
		}()
		fn()
		return nil
	}
}

func (w *Research) aggregate(_ context.Context, st types.ResearchState) (types.ResearchState, string) {
	a := st.Analyses
	now := w.now().UTC()

	final := &types.FinalResponse{
		Query:              st.Query,
		AnalysisType:       st.AnalysisType,
		Timestamp:          now,
		RetrievedPapers:    len(paperIDs(st.RankedResults)),
		RankedResultsCount: len(st.RankedResults),
		UsedExternal:       len(st.ExternalResults) > 0,
		Analysis:           a,
		Recommendations:    recommendations(a),
		Sources:            paperIDs(st.RankedResults),
		AverageConfidence:  averageConfidence(a),
		ExecutionTime:      now.Sub(st.CreatedAt),
		ModelVersion:       types.ModelVersion,
		Error:              st.Error,
	}
	st.Final = final
	st.CompletedAt = now

	w.logger.Info("research finished",
		zap.String("run_id", st.RunID),
		zap.Int("ranked", final.RankedResultsCount),
		zap.Int("recommendations", len(final.Recommendations)),
		zap.Float64("confidence", final.AverageConfidence),
		zap.Duration("elapsed", final.ExecutionTime),
	)
	return st, ""
}

func recommendations(a types.AnalysisSet) []string {
	out := []string{}
	add := func(prefix string, items []string) {
		for _, it := range items[:min(len(items), MaxRecommendations)] {
			out = append(out, prefix+it)
		}
	}
	if a.Gap != nil {
		add("Address gap: ", a.Gap.IdentifiedGaps)
	}
	if a.Design != nil {
		add("Implement: ", a.Design.SuggestedApproaches)
	}
	if a.Pattern != nil {
		add("Follow trend: ", a.Pattern.TrendAnalysis)
	}
	return out
}

// paperIDs returns the sorted set of paper IDs in ranked.
func paperIDs(ranked []types.RankedResult) []string {
	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.PaperID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func averageConfidence(a types.AnalysisSet) float64 {
	var confs []float64
	if a.Gap != nil {
		confs = append(confs, a.Gap.Confidence)
	}
	if a.Design != nil {
		confs = append(confs, a.Design.Confidence)
	}
	if a.Pattern != nil {
		confs = append(confs, a.Pattern.Confidence)
	}
	if a.Future != nil {
		confs = append(confs, a.Future.Confidence)
	}
	if len(confs) == 0 {
		return 0
	}
	var sum float64
	for _, c := range confs {
		sum += c
	}
	return sum / float64(len(confs))
}
