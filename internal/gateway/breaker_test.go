// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gateway

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

var errFail = errors.New("fail")

func TestBreakerLifecycle(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBreaker("test", BreakerConfig{FailureThreshold: 2, OpenTimeout: 10 * time.Second}, zaptest.NewLogger(t))
	b.now = func() time.Time { return now }

	assert.ErrorIs(t, b.execute(func() error { return errFail }), errFail)
	assert.Equal(t, BreakerClosed, b.State())
	assert.ErrorIs(t, b.execute(func() error { return errFail }), errFail)
	assert.Equal(t, BreakerOpen, b.State())

	called := false
	assert.ErrorIs(t, b.execute(func() error { called = true; return nil }), ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(10 * time.Second)
	assert.Equal(t, BreakerHalfOpen, b.State())

	assert.NoError(t, b.execute(func() error { return nil }))
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBreaker("test", BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second}, nil)
	b.now = func() time.Time { return now }

	_ = b.execute(func() error { return errFail })
	now = now.Add(time.Second)
	assert.Equal(t, BreakerHalfOpen, b.State())

	_ = b.execute(func() error { return errFail })
	assert.Equal(t, BreakerOpen, b.State())
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := newBreaker("test", BreakerConfig{FailureThreshold: 2}, nil)
	_ = b.execute(func() error { return errFail })
	_ = b.execute(func() error { return nil })
	_ = b.execute(func() error { return errFail })
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreakerHalfOpenProbeBudget(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBreaker("test", BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second}, nil)
	b.now = func() time.Time { return now }
	_ = b.execute(func() error { return errFail })
	now = now.Add(time.Second)

	err := b.execute(func() error {
		return b.execute(func() error { return nil })
	})
	assert.ErrorIs(t, err, ErrTooManyProbes)
}

func TestBreakerRecordsPanicAsFailure(t *testing.T) {
	b := newBreaker("test", BreakerConfig{FailureThreshold: 1}, nil)
	assert.Panics(t, func() {
		_ = b.execute(func() error { panic("x") })
	})
	assert.Equal(t, BreakerOpen, b.State())
}

func TestBreakerStateString(t *testing.T) {
	assert.Equal(t, "closed", BreakerClosed.String())
	assert.Equal(t, "half-open", BreakerHalfOpen.String())
	assert.Equal(t, "open", BreakerOpen.String())
	assert.Equal(t, "unknown", BreakerState(9).String())
}
