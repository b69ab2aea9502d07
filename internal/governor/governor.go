// Package governor reruns a failing action with backoff and gives up once
// failures arrive fast enough, or persist long enough, to look like a hard
// fault rather than a transient one.
//
// Failures are grouped into sessions: a failure more than SessionGap after
// the previous one starts a new session and is never fatal. Within a
// session the pain score is
//
//	pain = count / max(elapsed, 1s) * RateScale + elapsed
//
// with elapsed in seconds since the session's first failure. The run is
// abandoned when pain exceeds Threshold.
package governor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrTooManyErrors is returned when the pain score crosses the threshold.
var ErrTooManyErrors = errors.New("too many errors")

// Policy holds the governor's tunables. Zero fields take their defaults.
type Policy struct {
	SessionGap time.Duration
	RateScale  float64
	Threshold  float64
	Backoff    time.Duration
}

const (
	DefaultSessionGap = 10 * time.Second
	DefaultRateScale  = 10
	DefaultThreshold  = 100
	DefaultBackoff    = time.Second
)

// DefaultPolicy returns the default tunables.
func DefaultPolicy() Policy {
	return Policy{
		SessionGap: DefaultSessionGap,
		RateScale:  DefaultRateScale,
		Threshold:  DefaultThreshold,
		Backoff:    DefaultBackoff,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.SessionGap <= 0 {
		p.SessionGap = d.SessionGap
	}
	if p.RateScale <= 0 {
		p.RateScale = d.RateScale
	}
	if p.Threshold <= 0 {
		p.Threshold = d.Threshold
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	} else if p.Backoff == 0 {
		p.Backoff = d.Backoff
	}
	return p
}

// Governor tracks failures of one action across retries.
type Governor struct {
	policy Policy
	log    *slog.Logger

	// Now and Sleep are replaced in tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	count int
	first time.Time
	last  time.Time
	pain  float64
	total int
}

// New returns a governor applying policy.
func New(policy Policy, log *slog.Logger) *Governor {
	if log == nil {
		log = slog.Default()
	}
	return &Governor{
		policy: policy.withDefaults(),
		log:    log,
		Now:    time.Now,
		Sleep:  sleep,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run calls action until it returns nil, ctx is cancelled, or the failure
// rate becomes intolerable. In the last case the error wraps both
// ErrTooManyErrors and the action's final error.
func (g *Governor) Run(ctx context.Context, action func(context.Context) error) error {
	for {
		err := action(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if g.Fail(err) {
			g.log.Error("giving up", "err", err, "failures", g.Failures(), "pain", g.Pain())
			return fmt.Errorf("%w: %w", ErrTooManyErrors, err)
		}
		g.log.Warn("run failed, retrying",
			"err", err,
			"backoff", g.policy.Backoff,
			"pain", g.Pain(),
		)
		if err := g.Sleep(ctx, g.policy.Backoff); err != nil {
			return err
		}
	}
}

// Fail records a failure at Now and reports whether the threshold was
// crossed.
func (g *Governor) Fail(err error) bool {
	now := g.Now()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.total++

	if g.count == 0 || now.Sub(g.last) > g.policy.SessionGap {
		g.count = 1
		g.first = now
		g.last = now
		g.pain = 0
		g.log.Debug("failure session started", "err", err)
		return false
	}

	g.count++
	g.last = now
	elapsed := now.Sub(g.first).Seconds()
	g.pain = float64(g.count)/max(elapsed, 1)*g.policy.RateScale + elapsed
	return g.pain > g.policy.Threshold
}

// Pain returns the score of the current failure session.
func (g *Governor) Pain() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pain
}

// Failures returns the number of failures recorded since New.
func (g *Governor) Failures() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.total
}
