// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/research-agent/pkg/types"
)

type fakeSource struct {
	results []types.SearchResult
	err     error

	gotDays, gotMax int
}

func (f *fakeSource) Recent(_ context.Context, daysBack, maxResults int) ([]types.SearchResult, error) {
	f.gotDays, f.gotMax = daysBack, maxResults
	return f.results, f.err
}

type fakeRepo struct {
	ids    []string
	fps    []string
	idsErr error
}

func (f *fakeRepo) KnownIDs(context.Context) ([]string, error) { return f.ids, f.idsErr }

func (f *fakeRepo) Fingerprints(context.Context) ([]string, error) { return f.fps, nil }

type fakeIngester struct {
	mu     sync.Mutex
	fail   map[string]error
	calls  []string
	onCall func(id string)
}

func (f *fakeIngester) Ingest(_ context.Context, r types.SearchResult) (string, int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, r.Identifier)
	f.mu.Unlock()
	if f.onCall != nil {
		f.onCall(r.Identifier)
	}
	if err := f.fail[r.Identifier]; err != nil {
		return "papers/raw/" + r.Identifier + ".pdf", 0, err
	}
	return "papers/raw/" + r.Identifier + ".pdf", 4, nil
}

func candidates(ids ...string) []types.SearchResult {
	out := make([]types.SearchResult, len(ids))
	for i, id := range ids {
		out[i] = types.SearchResult{Identifier: id, Title: "Paper about topic " + id}
	}
	return out
}

func collect(seq func(func(types.IngestionState) bool)) []types.IngestionState {
	var out []types.IngestionState
	for st := range seq {
		out = append(out, st)
	}
	return out
}

func nodesOf(states []types.IngestionState) []string {
	out := make([]string, len(states))
	for i, st := range states {
		out[i] = st.Node
	}
	return out
}

func newTestIngestion(t *testing.T, src Source, repo Repository, ing ItemIngester) *Ingestion {
	t.Helper()
	return NewIngestion(src, repo, ing, types.DefaultConfig().Ingestion, zaptest.NewLogger(t))
}

func TestIngestionRun(t *testing.T) {
	src := &fakeSource{results: candidates("a", "b", "c", "d")}
	repo := &fakeRepo{ids: []string{"b"}}
	ing := &fakeIngester{fail: map[string]error{"c": errors.New("parse failed")}}
	w := newTestIngestion(t, src, repo, ing)

	states := collect(w.Run(context.Background(), IngestionRequest{DaysBack: 3, MaxResults: 10}))
	require.Equal(t, []string{NodeSearch, NodeCheckDuplicates, NodeIngest, NodeFinalize}, nodesOf(states))
	assert.Equal(t, 3, src.gotDays)
	assert.Equal(t, 10, src.gotMax)

	search := states[0]
	assert.Equal(t, types.IngestionSearching, search.Status)
	assert.Equal(t, 4, search.DocsFound)
	assert.EqualValues(t, 25, search.ProgressPercent)
	assert.False(t, search.StartedAt.IsZero())

	dup := states[1]
	assert.Equal(t, types.IngestionCheckingDuplicates, dup.Status)
	assert.Equal(t, 1, dup.DocsExisting)
	assert.Equal(t, 3, dup.DocsNew)
	assert.Len(t, dup.Candidates, 3)
	assert.EqualValues(t, 40, dup.ProgressPercent)

	ingest := states[2]
	assert.Equal(t, types.IngestionIngesting, ingest.Status)
	assert.EqualValues(t, 90, ingest.ProgressPercent)

	final := states[3]
	assert.Equal(t, types.IngestionCompleted, final.Status)
	assert.EqualValues(t, 100, final.ProgressPercent)
	assert.Equal(t, 2, final.DocsIngested)
	assert.Equal(t, 1, final.DocsFailed)
	assert.Equal(t, 8, final.ChunksIngested)
	assert.Equal(t, []string{"papers/raw/a.pdf", "papers/raw/d.pdf"}, final.Processed)
	require.Len(t, final.Failed, 1)
	assert.Equal(t, types.FailedItem{Path: "papers/raw/c.pdf", Error: "parse failed"}, final.Failed[0])
	assert.Empty(t, final.Error)
	assert.False(t, final.CompletedAt.IsZero())
	assert.Equal(t, final.DocsFound-final.DocsExisting, final.DocsNew)
	assert.Equal(t, []string{"a", "c", "d"}, ing.calls)

	for i := 1; i < len(states); i++ {
		assert.GreaterOrEqual(t, states[i].ProgressPercent, states[i-1].ProgressPercent)
		assert.Equal(t, states[0].RunID, states[i].RunID)
	}
	assert.Len(t, search.Candidates, 4, "earlier snapshots are not modified")
	assert.Empty(t, dup.Processed)
}

func TestIngestionNothingNew(t *testing.T) {
	src := &fakeSource{results: candidates("a", "b")}
	repo := &fakeRepo{ids: []string{"a"}, fps: []string{"paper about topic b"}}
	ing := &fakeIngester{}
	w := newTestIngestion(t, src, repo, ing)

	states := collect(w.Run(context.Background(), IngestionRequest{}))
	require.Equal(t, []string{NodeSearch, NodeCheckDuplicates, NodeFinalize}, nodesOf(states))
	assert.Equal(t, types.IngestionCompleted, states[1].Status)
	assert.EqualValues(t, 100, states[1].ProgressPercent)
	assert.Equal(t, 2, states[2].DocsExisting)
	assert.Zero(t, states[2].DocsNew)
	assert.Empty(t, ing.calls)

	assert.Equal(t, 7, src.gotDays, "defaults apply to zero fields")
	assert.Equal(t, 100, src.gotMax)
}

func TestIngestionNothingFound(t *testing.T) {
	ing := &fakeIngester{}
	w := newTestIngestion(t, &fakeSource{}, &fakeRepo{}, ing)

	states := collect(w.Run(context.Background(), IngestionRequest{DaysBack: 1, MaxResults: 10}))
	require.Equal(t, []string{NodeSearch, NodeCheckDuplicates, NodeFinalize}, nodesOf(states))

	final := states[2]
	assert.Equal(t, types.IngestionCompleted, final.Status)
	assert.EqualValues(t, 100, final.ProgressPercent)
	assert.Zero(t, final.DocsFound)
	assert.Zero(t, final.DocsExisting)
	assert.Zero(t, final.DocsNew)
	assert.Zero(t, final.DocsIngested)
	assert.Empty(t, final.Error)
	assert.False(t, final.CompletedAt.IsZero())
	assert.Empty(t, ing.calls)
}

func TestIngestionErrors(t *testing.T) {
	t.Run("search", func(t *testing.T) {
		w := newTestIngestion(t, &fakeSource{err: errors.New("arxiv down")}, &fakeRepo{}, &fakeIngester{})
		states := collect(w.Run(context.Background(), IngestionRequest{}))
		require.Equal(t, []string{NodeSearch, NodeFinalize}, nodesOf(states))
		final := states[1]
		assert.Equal(t, types.IngestionError, final.Status)
		assert.Contains(t, final.Error, "arxiv down")
		assert.EqualValues(t, 100, final.ProgressPercent)
		assert.False(t, final.CompletedAt.IsZero())
	})

	t.Run("repository", func(t *testing.T) {
		w := newTestIngestion(t, &fakeSource{results: candidates("a")}, &fakeRepo{idsErr: errors.New("db locked")}, &fakeIngester{})
		final := w.RunToCompletion(context.Background(), IngestionRequest{})
		assert.Equal(t, types.IngestionError, final.Status)
		assert.Contains(t, final.Error, "db locked")
	})

	t.Run("invalid request", func(t *testing.T) {
		src := &fakeSource{}
		w := newTestIngestion(t, src, &fakeRepo{}, &fakeIngester{})
		states := collect(w.Run(context.Background(), IngestionRequest{DaysBack: 400}))
		require.Equal(t, []string{NodeFinalize}, nodesOf(states))
		assert.Equal(t, types.IngestionError, states[0].Status)
		assert.Contains(t, states[0].Error, "days_back")
		assert.Zero(t, src.gotMax, "source never called")

		final := w.RunToCompletion(context.Background(), IngestionRequest{MaxResults: 5000})
		assert.Contains(t, final.Error, "max_results")
	})
}

func TestIngestionCancelledBetweenItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ing := &fakeIngester{onCall: func(string) { cancel() }}
	w := newTestIngestion(t, &fakeSource{results: candidates("a", "b", "c")}, &fakeRepo{}, ing)

	final := w.RunToCompletion(ctx, IngestionRequest{})
	assert.Equal(t, types.IngestionError, final.Status)
	assert.Equal(t, NodeFinalize, final.Node)
	assert.Equal(t, 1, final.DocsIngested)
	assert.Equal(t, []string{"a"}, ing.calls)
	assert.Contains(t, final.Error, context.Canceled.Error())
}

func TestIngestionCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{results: candidates("a")}
	w := newTestIngestion(t, src, &fakeRepo{}, &fakeIngester{})
	states := collect(w.Run(ctx, IngestionRequest{}))
	require.Equal(t, []string{NodeFinalize}, nodesOf(states))
	assert.Equal(t, types.IngestionError, states[0].Status)
	assert.Zero(t, src.gotMax)
}

func TestIngestionConsumerStops(t *testing.T) {
	ing := &fakeIngester{}
	w := newTestIngestion(t, &fakeSource{results: candidates("a", "b")}, &fakeRepo{}, ing)

	for st := range w.Run(context.Background(), IngestionRequest{}) {
		assert.Equal(t, NodeSearch, st.Node)
		break
	}
	assert.Empty(t, ing.calls)
}
