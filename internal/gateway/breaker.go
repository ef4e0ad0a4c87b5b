// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gateway

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/internal/metrics"
)

// BreakerState is the state of a tool's circuit breaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerHalfOpen
	BreakerOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerHalfOpen:
		return "half-open"
	case BreakerOpen:
		return "open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen is returned while a tool's breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrTooManyProbes is returned when the half-open probe budget is spent.
	ErrTooManyProbes = errors.New("too many requests in half-open state")
)

// BreakerConfig tunes a circuit breaker.
type BreakerConfig struct {
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// MaxProbes bounds concurrent requests while half-open.
	MaxProbes uint32
	// SuccessThreshold consecutive half-open successes close the breaker.
	SuccessThreshold uint32
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.MaxProbes == 0 {
		c.MaxProbes = 1
	}
	if c.SuccessThreshold == 0 {
		c.SuccessThreshold = 1
	}
	return c
}

// breaker guards one tool. Results that arrive after a state change
// (a stale generation) are ignored.
type breaker struct {
	name   string
	cfg    BreakerConfig
	logger *zap.Logger
	now    func() time.Time

	mu          sync.Mutex
	state       BreakerState
	generation  uint64
	inFlight    uint32
	failures    uint32
	successes   uint32
	openedUntil time.Time
}

func newBreaker(name string, cfg BreakerConfig, logger *zap.Logger) *breaker {
	return &breaker{name: name, cfg: cfg.withDefaults(), logger: logger, now: time.Now}
}

// execute runs fn unless the breaker rejects the call.
func (b *breaker) execute(fn func() error) error {
	gen, err := b.before()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			b.after(gen, false)
			panic(r)
		}
	}()

	err = fn()
	b.after(gen, err == nil)
	return err
}

// State returns the current state, promoting open to half-open once the
// open timeout has passed.
func (b *breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current()
}

func (b *breaker) before() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.current() {
	case BreakerOpen:
		return b.generation, ErrCircuitOpen
	case BreakerHalfOpen:
		if b.inFlight >= b.cfg.MaxProbes {
			return b.generation, ErrTooManyProbes
		}
	}
	b.inFlight++
	return b.generation, nil
}

func (b *breaker) after(gen uint64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.current()
	if gen != b.generation {
		return
	}
	if b.inFlight > 0 {
		b.inFlight--
	}

	switch {
	case ok && state == BreakerClosed:
		b.failures = 0
	case ok && state == BreakerHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.setState(BreakerClosed)
		}
	case !ok && state == BreakerClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.setState(BreakerOpen)
		}
	case !ok && state == BreakerHalfOpen:
		b.setState(BreakerOpen)
	}
}

// current must be called with mu held.
func (b *breaker) current() BreakerState {
	if b.state == BreakerOpen && !b.now().Before(b.openedUntil) {
		b.setState(BreakerHalfOpen)
	}
	return b.state
}

// setState must be called with mu held.
func (b *breaker) setState(to BreakerState) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.generation++
	b.inFlight, b.failures, b.successes = 0, 0, 0
	if to == BreakerOpen {
		b.openedUntil = b.now().Add(b.cfg.OpenTimeout)
	}

	metrics.BreakerState.WithLabelValues(b.name).Set(float64(to))
	if b.logger != nil {
		b.logger.Info("circuit breaker state changed",
			zap.String("tool", b.name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
}
