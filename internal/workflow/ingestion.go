// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/internal/fingerprint"
	"github.com/pdiddy/research-agent/internal/metrics"
	"github.com/pdiddy/research-agent/pkg/types"
)

// Ingestion node names.
const (
	NodeSearch          = "search"
	NodeCheckDuplicates = "check_duplicates"
	NodeIngest          = "ingest"
	NodeFinalize        = "finalize"
)

// Bounds on IngestionRequest fields.
const (
	MaxDaysBack    = 365
	MaxIngestLimit = 1000
)

// Source discovers recent papers.
type Source interface {
	Recent(ctx context.Context, daysBack, maxResults int) ([]types.SearchResult, error)
}

// Repository exposes the identifiers of papers already ingested.
type Repository interface {
	KnownIDs(ctx context.Context) ([]string, error)
	Fingerprints(ctx context.Context) ([]string, error)
}

// ItemIngester downloads, parses, chunks, embeds and persists one paper.
// It returns the local path and the number of chunks indexed.
type ItemIngester interface {
	Ingest(ctx context.Context, r types.SearchResult) (path string, chunks int, err error)
}

// IngestionRequest starts an ingestion run. Zero fields take the
// configured defaults.
type IngestionRequest struct {
	DaysBack   int
	MaxResults int
}

// Ingestion discovers recent papers, drops the ones already stored and
// ingests the rest sequentially.
type Ingestion struct {
	source   Source
	repo     Repository
	ingester ItemIngester
	defaults types.IngestionConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewIngestion wires the ingestion workflow.
func NewIngestion(src Source, repo Repository, ing ItemIngester, cfg types.IngestionConfig, logger *zap.Logger) *Ingestion {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestion{
		source:   src,
		repo:     repo,
		ingester: ing,
		defaults: cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (w *Ingestion) initial(req IngestionRequest) (types.IngestionState, error) {
	days, limit := req.DaysBack, req.MaxResults
	if days == 0 {
		days = w.defaults.DaysBack
	}
	if days == 0 {
		days = types.DefaultConfig().Ingestion.DaysBack
	}
	if limit == 0 {
		limit = w.defaults.MaxResults
	}
	if limit == 0 {
		limit = types.DefaultConfig().Ingestion.MaxResults
	}

	st := types.IngestionState{
		RunID:      uuid.NewString(),
		Status:     types.IngestionIdle,
		DaysBack:   days,
		MaxResults: limit,
	}
	if days < 1 || days > MaxDaysBack {
		return st, fmt.Errorf("days_back must be between 1 and %d, got %d", MaxDaysBack, days)
	}
	if limit < 1 || limit > MaxIngestLimit {
		return st, fmt.Errorf("max_results must be between 1 and %d, got %d", MaxIngestLimit, limit)
	}
	return st, nil
}

// Run executes one ingestion and yields the state after every node. An
// invalid request yields a single finalized ERROR state. Stopping the
// iteration early abandons the run.
func (w *Ingestion) Run(ctx context.Context, req IngestionRequest) iter.Seq[types.IngestionState] {
	return func(yield func(types.IngestionState) bool) {
		st, err := w.initial(req)
		log := w.logger.With(zap.String("workflow", NameIngestion), zap.String("run_id", st.RunID))
		start := NodeSearch
		if err != nil {
			st = failIngestion(st, err)
			start = NodeFinalize
		}

		m := &machine[types.IngestionState]{
			name: NameIngestion,
			nodes: map[string]node[types.IngestionState]{
				NodeSearch:          w.search,
				NodeCheckDuplicates: w.checkDuplicates,
				NodeIngest:          w.ingest,
				NodeFinalize:        w.finalize,
			},
			start:    start,
			recovery: NodeFinalize,
			cancel:   failIngestion,
			mark: func(st types.IngestionState, name string) types.IngestionState {
				st.Node = name
				return st
			},
			logger: log,
		}

		var final types.IngestionState
		for st := range m.run(ctx, st) {
			final = st
			if !yield(st) {
				return
			}
		}
		metrics.WorkflowRuns.WithLabelValues(NameIngestion, string(final.Status)).Inc()
	}
}

// RunToCompletion runs an ingestion and returns its terminal state.
func (w *Ingestion) RunToCompletion(ctx context.Context, req IngestionRequest) types.IngestionState {
	return last(w.Run(ctx, req))
}

func failIngestion(st types.IngestionState, err error) types.IngestionState {
	st.Status = types.IngestionError
	if st.Error == "" {
		st.Error = err.Error()
	}
	return st
}

func (w *Ingestion) search(ctx context.Context, st types.IngestionState) (types.IngestionState, string) {
	st.Status = types.IngestionSearching
	st.StartedAt = w.now().UTC()

	found, err := w.source.Recent(ctx, st.DaysBack, st.MaxResults)
	if err != nil {
		w.logger.Error("paper search failed", zap.String("run_id", st.RunID), zap.Error(err))
		return failIngestion(st, fmt.Errorf("search: %w", err)), NodeFinalize
	}
	if len(found) > st.MaxResults {
		found = found[:st.MaxResults]
	}

	st.Candidates = slices.Clone(found)
	st.DocsFound = len(found)
	st.ProgressPercent = 25
	w.logger.Info("papers discovered",
		zap.String("run_id", st.RunID),
		zap.Int("found", st.DocsFound),
		zap.Int("days_back", st.DaysBack),
	)
	return st, NodeCheckDuplicates
}

func (w *Ingestion) checkDuplicates(ctx context.Context, st types.IngestionState) (types.IngestionState, string) {
	st.Status = types.IngestionCheckingDuplicates

	ids, err := w.repo.KnownIDs(ctx)
	if err != nil {
		return failIngestion(st, fmt.Errorf("loading known ids: %w", err)), NodeFinalize
	}
	fps, err := w.repo.Fingerprints(ctx)
	if err != nil {
		return failIngestion(st, fmt.Errorf("loading fingerprints: %w", err)), NodeFinalize
	}

	fresh, existing := fingerprint.Filter(fingerprint.NewIndex(ids, fps), st.Candidates)
	st.DocsExisting = len(existing)
	st.DocsNew = st.DocsFound - st.DocsExisting
	st.Candidates = fresh
	st.ProgressPercent = 40

	w.logger.Info("duplicates checked",
		zap.String("run_id", st.RunID),
		zap.Int("existing", st.DocsExisting),
		zap.Int("new", st.DocsNew),
	)

	if st.DocsNew == 0 {
		st.Status = types.IngestionCompleted
		st.ProgressPercent = 100
		st.CompletedAt = w.now().UTC()
		return st, NodeFinalize
	}
	return st, NodeIngest
}

func (w *Ingestion) ingest(ctx context.Context, st types.IngestionState) (types.IngestionState, string) {
	st.Status = types.IngestionIngesting
	st.Processed = slices.Clone(st.Processed)
	st.Failed = slices.Clone(st.Failed)

	n := len(st.Candidates)
	for i, c := range st.Candidates {
		if err := ctx.Err(); err != nil {
			w.logger.Warn("ingestion cancelled",
				zap.String("run_id", st.RunID),
				zap.Int("remaining", n-i),
				zap.Error(err),
			)
			return failIngestion(st, err), NodeFinalize
		}

		path, chunks, err := w.ingester.Ingest(ctx, c)
		if err != nil {
			if path == "" {
				path = c.Identifier
			}
			st.Failed = append(st.Failed, types.FailedItem{Path: path, Error: err.Error()})
			st.DocsFailed++
		} else {
			st.Processed = append(st.Processed, path)
			st.DocsIngested++
			st.ChunksIngested += chunks
		}
		st.ProgressPercent = min(90, 40+50*float64(i+1)/float64(n))
	}
	return st, NodeFinalize
}

func (w *Ingestion) finalize(_ context.Context, st types.IngestionState) (types.IngestionState, string) {
	if st.Status != types.IngestionError {
		st.Status = types.IngestionCompleted
	}
	if st.CompletedAt.IsZero() {
		st.CompletedAt = w.now().UTC()
	}
	st.ProgressPercent = 100

	fields := []zap.Field{
		zap.String("run_id", st.RunID),
		zap.String("status", string(st.Status)),
		zap.Int("found", st.DocsFound),
		zap.Int("existing", st.DocsExisting),
		zap.Int("ingested", st.DocsIngested),
		zap.Int("failed", st.DocsFailed),
		zap.Int("chunks", st.ChunksIngested),
	}
	if !st.StartedAt.IsZero() {
		fields = append(fields, zap.Duration("elapsed", st.CompletedAt.Sub(st.StartedAt)))
	}
	if st.Error != "" {
		w.logger.Error("ingestion finished with error", append(fields, zap.String("error", st.Error))...)
	} else {
		w.logger.Info("ingestion finished", fields...)
	}
	return st, ""
}
