// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow runs the ingestion and research state machines. Each
// node receives the current state value and returns a new one; the run
// yields every snapshot in order, so callers can stream progress or keep
// only the terminal state.
package workflow

import (
	"context"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/internal/metrics"
)

// Workflow names used in logs and metrics.
const (
	NameIngestion = "ingestion"
	NameResearch  = "research"
)

// node is one step of a state machine. It returns the next state and the
// name of the node to run next; "" ends the run.
type node[S any] func(ctx context.Context, st S) (S, string)

// machine drives a node table from start until a node returns "". Before
// each node it asks cancelled whether the context was cancelled; if so the
// returned state is used and control jumps to the recovery node.
type machine[S any] struct {
	name     string
	nodes    map[string]node[S]
	start    string
	recovery string
	cancel   func(st S, err error) S
	mark     func(st S, node string) S
	logger   *zap.Logger
}

func (m *machine[S]) run(ctx context.Context, st S) iter.Seq[S] {
	return func(yield func(S) bool) {
		name := m.start
		cancelled := false
		for name != "" {
			if err := ctx.Err(); err != nil && !cancelled && name != m.recovery {
				cancelled = true
				m.logger.Warn("run cancelled", zap.String("node", name), zap.Error(err))
				st = m.cancel(st, err)
				name = m.recovery
			}

			started := time.Now()
			var next string
			st, next = m.nodes[name](ctx, st)
			st = m.mark(st, name)
			metrics.ObserveNode(m.name, name, started)
			m.logger.Debug("node finished", zap.String("node", name), zap.Duration("elapsed", time.Since(started)))

			if !yield(st) {
				return
			}
			name = next
		}
	}
}

// last drains seq and returns its final value.
func last[S any](seq iter.Seq[S]) S {
	var out S
	for st := range seq {
		out = st
	}
	return out
}
