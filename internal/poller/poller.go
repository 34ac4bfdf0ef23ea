// Package poller re-runs a readiness check at a fixed interval.
package poller

import (
	"context"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultInterval    = 2 * time.Second
)

// Clock abstracts the sleep between rounds.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock sleeps on the wall clock.
var RealClock Clock = realClock{}

// CheckFunc runs one readiness round and reports whether the work is done.
type CheckFunc func(ctx context.Context) bool

// Observer is notified after every round. It may be nil.
type Observer func(attempt int, ready bool)

// Poller sleeps Interval before each check. The zero value uses the defaults.
type Poller struct {
	MaxAttempts int
	Interval    time.Duration
	Clock       Clock
	Observe     Observer
}

// New returns a poller with the given budget; non-positive values fall back to the defaults.
func New(maxAttempts int, interval time.Duration) *Poller {
	return &Poller{MaxAttempts: maxAttempts, Interval: interval}
}

// PollUntilReady runs at most MaxAttempts rounds and stops at the first
// successful one. It returns false when the budget is spent or ctx ends.
func (p *Poller) PollUntilReady(ctx context.Context, check CheckFunc) bool {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	return p.loop(ctx, attempts, check)
}

// WaitUntilReady keeps polling at Interval until check succeeds or ctx ends.
func (p *Poller) WaitUntilReady(ctx context.Context, check CheckFunc) bool {
	return p.loop(ctx, 0, check)
}

func (p *Poller) loop(ctx context.Context, attempts int, check CheckFunc) bool {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	clock := p.Clock
	if clock == nil {
		clock = RealClock
	}
	for attempt := 1; attempts == 0 || attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return false
		case <-clock.After(interval):
		}
		ready := check(ctx)
		if p.Observe != nil {
			p.Observe(attempt, ready)
		}
		if ready {
			return true
		}
	}
	return false
}
