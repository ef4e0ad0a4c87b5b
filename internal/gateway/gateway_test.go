// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gateway

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/research-agent/pkg/types"
)

type fakeTool struct {
	name    string
	results []types.RetrievalResult
	err     error
	panics  bool
	block   bool
	calls   int32
}

func (f *fakeTool) Name() string { return f.name }

func (f *fakeTool) Lookup(ctx context.Context, client *http.Client, query string, limit int) ([]types.RetrievalResult, error) {
	atomic.AddInt32(&f.calls, 1)
	if client == nil {
		return nil, errors.New("no client")
	}
	if f.panics {
		panic("boom")
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.results, f.err
}

func testConfig() types.GatewayConfig {
	return types.GatewayConfig{
		Timeout:          5 * time.Second,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	}
}

func TestInvokeSuccess(t *testing.T) {
	tool := &fakeTool{name: "fake", results: []types.RetrievalResult{{ChunkID: "x", Score: 0.8}}}
	g := New(testConfig(), zaptest.NewLogger(t), tool)

	res := g.Invoke(context.Background(), types.ToolContext{ToolName: "fake", Query: "q", ResultLimit: 5, Timeout: time.Second})

	assert.True(t, res.Success)
	assert.Equal(t, "fake", res.ToolName)
	assert.Len(t, res.Results, 1)
	assert.Empty(t, res.Error)
	assert.Positive(t, res.Duration)
}

func TestInvokeFailuresBecomeResults(t *testing.T) {
	tests := []struct {
		name    string
		tool    *fakeTool
		invoke  string
		wantErr string
	}{
		{"unknown tool", &fakeTool{name: "fake"}, "nope", "unknown tool: nope"},
		{"lookup error", &fakeTool{name: "fake", err: errors.New("HTTP 503")}, "fake", "HTTP 503"},
		{"panic", &fakeTool{name: "fake", panics: true}, "fake", "tool panicked: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(testConfig(), zaptest.NewLogger(t), tt.tool)
			res := g.Invoke(context.Background(), types.ToolContext{ToolName: tt.invoke, Query: "q", ResultLimit: 5})
			assert.False(t, res.Success)
			assert.NotNil(t, res.Results)
			assert.Empty(t, res.Results)
			assert.Contains(t, res.Error, tt.wantErr)
		})
	}
}

func TestInvokeTimeout(t *testing.T) {
	g := New(testConfig(), zaptest.NewLogger(t), &fakeTool{name: "slow", block: true})

	start := time.Now()
	res := g.Invoke(context.Background(), types.ToolContext{ToolName: "slow", Timeout: 20 * time.Millisecond})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "deadline exceeded")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCircuitOpensAfterFailures(t *testing.T) {
	tool := &fakeTool{name: "flaky", err: errors.New("down")}
	g := New(testConfig(), zaptest.NewLogger(t), tool)
	tc := types.ToolContext{ToolName: "flaky", Query: "q"}

	g.Invoke(context.Background(), tc)
	g.Invoke(context.Background(), tc)
	state, ok := g.BreakerState("flaky")
	require.True(t, ok)
	assert.Equal(t, BreakerOpen, state)

	res := g.Invoke(context.Background(), tc)
	assert.False(t, res.Success)
	assert.Equal(t, ErrCircuitOpen.Error(), res.Error)
	assert.Equal(t, int32(2), atomic.LoadInt32(&tool.calls), "open breaker must not call the tool")
}

func TestRateLimiterHonoursContext(t *testing.T) {
	cfg := testConfig()
	cfg.RatePerSecond = 0.001
	cfg.Burst = 1
	tool := &fakeTool{name: "limited"}
	g := New(cfg, zaptest.NewLogger(t), tool)

	first := g.Invoke(context.Background(), types.ToolContext{ToolName: "limited"})
	require.True(t, first.Success)

	second := g.Invoke(context.Background(), types.ToolContext{ToolName: "limited", Timeout: 50 * time.Millisecond})
	assert.False(t, second.Success)
	assert.Contains(t, second.Error, "rate limiter")
	assert.Equal(t, int32(1), atomic.LoadInt32(&tool.calls))
}

func TestSessionReuse(t *testing.T) {
	a := &fakeTool{name: "a"}
	b := &fakeTool{name: "b"}
	g := New(testConfig(), nil, a, b)
	assert.Equal(t, []string{"a", "b"}, g.Tools())

	sess, err := g.Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	assert.True(t, sess.Invoke(context.Background(), "a", "q", 1).Success)
	assert.True(t, sess.Invoke(context.Background(), "b", "q", 1).Success)
}

func TestOpenCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := New(testConfig(), nil)
	_, err := g.Open(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	res := g.Invoke(ctx, types.ToolContext{ToolName: "x"})
	assert.False(t, res.Success)
}

func TestDefaultTools(t *testing.T) {
	tools := DefaultTools(types.DefaultConfig().Search, types.DefaultConfig().Gateway)
	var names []string
	for _, tool := range tools {
		names = append(names, tool.Name())
	}
	assert.Equal(t, []string{ToolArxivLatest, ToolSemanticScholar, ToolOpenAlex}, names)
}

func TestToRetrieval(t *testing.T) {
	found := []types.SearchResult{
		{Identifier: "2501.00001", Title: "A", Abstract: "abstract a", Authors: []string{"X", "Y"},
			Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), URL: "https://arxiv.org/abs/2501.00001"},
		{Identifier: "", Title: "no id", Abstract: "dropped"},
		{Identifier: "2501.00002", Title: "Title only"},
		{Identifier: "2501.00003", Abstract: "over the limit"},
	}

	got := toRetrieval(found, 0.8, types.SourceExternalArxiv, 2)

	require.Len(t, got, 2)
	assert.Equal(t, types.RetrievalResult{
		ChunkID: "2501.00001", PaperID: "2501.00001", SectionID: "abstract",
		Text: "abstract a", Score: 0.8, Source: types.SourceExternalArxiv,
		Metadata: map[string]string{
			"title": "A", "authors": "X, Y", "url": "https://arxiv.org/abs/2501.00001",
			"published_date": "2025-01-02",
		},
	}, got[0])
	assert.Equal(t, "Title only", got[1].Text)
}
