// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gateway invokes external research tools (arXiv, Semantic Scholar,
// OpenAlex) on behalf of the research workflow. Every invocation resolves
// to a types.ToolResult: failures, timeouts, open circuit breakers and
// panics are reported in the result instead of as errors.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/research-agent/internal/metrics"
	"github.com/pdiddy/research-agent/pkg/types"
)

// ErrUnknownTool is reported when a tool name is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// DefaultTimeout bounds Gateway.Invoke when the tool context has none.
const DefaultTimeout = 30 * time.Second

type toolEntry struct {
	tool    Tool
	breaker *breaker
	limiter *rate.Limiter
}

// Gateway owns the registered tools and their breakers and rate limiters.
type Gateway struct {
	cfg    types.GatewayConfig
	tools  map[string]*toolEntry
	names  []string
	logger *zap.Logger
}

// New registers tools. Later tools with a duplicate name replace earlier ones.
func New(cfg types.GatewayConfig, logger *zap.Logger, tools ...Tool) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	bcfg := BreakerConfig{FailureThreshold: cfg.FailureThreshold, OpenTimeout: cfg.OpenTimeout}

	g := &Gateway{cfg: cfg, tools: make(map[string]*toolEntry), logger: logger}
	for _, t := range tools {
		name := t.Name()
		if _, ok := g.tools[name]; !ok {
			g.names = append(g.names, name)
		}
		limit := rate.Inf
		if cfg.RatePerSecond > 0 {
			limit = rate.Limit(cfg.RatePerSecond)
		}
		g.tools[name] = &toolEntry{
			tool:    t,
			breaker: newBreaker(name, bcfg, logger),
			limiter: rate.NewLimiter(limit, max(cfg.Burst, 1)),
		}
	}
	return g
}

// Tools returns the registered tool names in registration order.
func (g *Gateway) Tools() []string {
	return append([]string(nil), g.names...)
}

// BreakerState reports the breaker state of a tool.
func (g *Gateway) BreakerState(name string) (BreakerState, bool) {
	e, ok := g.tools[name]
	if !ok {
		return BreakerClosed, false
	}
	return e.breaker.State(), true
}

// Session holds the HTTP transport used for a batch of invocations.
type Session struct {
	gw        *Gateway
	client    *http.Client
	transport *http.Transport
}

// Open acquires a session. Close must be called when done.
func (g *Gateway) Open(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	timeout := g.cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Session{
		gw:        g,
		client:    &http.Client{Transport: transport, Timeout: timeout},
		transport: transport,
	}, nil
}

// Close releases idle connections held by the session.
func (s *Session) Close() {
	s.transport.CloseIdleConnections()
}

// Invoke calls one tool. It never panics and never returns an error; the
// outcome is in the result.
func (s *Session) Invoke(ctx context.Context, name, query string, limit int) (result types.ToolResult) {
	start := time.Now()
	result = types.ToolResult{ToolName: name, Results: []types.RetrievalResult{}}
	log := s.gw.logger.With(zap.String("tool", name))

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Results = []types.RetrievalResult{}
			result.Error = fmt.Sprintf("tool panicked: %v", r)
		}
		result.Duration = time.Since(start)
		metrics.ObserveTool(name, result.Success, result.Duration)
		if result.Success {
			log.Info("tool invoked", zap.Int("results", len(result.Results)), zap.Duration("duration", result.Duration))
		} else {
			log.Warn("tool failed", zap.String("error", result.Error), zap.Duration("duration", result.Duration))
		}
	}()

	entry, ok := s.gw.tools[name]
	if !ok {
		result.Error = fmt.Errorf("%w: %s", ErrUnknownTool, name).Error()
		return result
	}

	if err := entry.limiter.Wait(ctx); err != nil {
		result.Error = fmt.Sprintf("rate limiter: %v", err)
		return result
	}

	var found []types.RetrievalResult
	err := entry.breaker.execute(func() error {
		var lookupErr error
		found, lookupErr = entry.tool.Lookup(ctx, s.client, query, limit)
		return lookupErr
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	if found != nil {
		result.Results = found
	}
	return result
}

// Invoke opens a session, calls the tool named in tc under tc.Timeout and
// closes the session.
func (g *Gateway) Invoke(ctx context.Context, tc types.ToolContext) types.ToolResult {
	timeout := tc.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sess, err := g.Open(ctx)
	if err != nil {
		return types.ToolResult{ToolName: tc.ToolName, Results: []types.RetrievalResult{}, Error: err.Error()}
	}
	defer sess.Close()

	return sess.Invoke(ctx, tc.ToolName, tc.Query, tc.ResultLimit)
}
