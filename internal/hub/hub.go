// Package hub implements the watch loop that keeps a canonical set of
// clipboards holding one value. It is backend-agnostic: endpoints are polled
// in order, and the first one whose value differs from the current value
// wins the tick and is copied to every other endpoint.
package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/clipweave/internal/clip"
)

// DefaultInterval is the pause between polling passes.
const DefaultInterval = 200 * time.Millisecond

// ErrNoClipboards is returned by Run when there is nothing to synchronize.
var ErrNoClipboards = errors.New("no clipboards to synchronize")

// ChangeRecorder is told about every adopted value.
type ChangeRecorder interface {
	RecordChange(display string, at time.Time)
}

// Options configures a Hub.
type Options struct {
	// Interval between ticks. Zero means DefaultInterval.
	Interval time.Duration
	Logger   *slog.Logger
	// Recorder, if set, sees every change the hub adopts.
	Recorder ChangeRecorder
}

// Hub synchronizes a fixed, ordered set of endpoints.
type Hub struct {
	endpoints []clip.Endpoint
	interval  time.Duration
	log       *slog.Logger
	recorder  ChangeRecorder

	current string
}

// New returns a hub over endpoints, which must already be deduplicated.
func New(endpoints []clip.Endpoint, opts Options) *Hub {
	h := &Hub{
		endpoints: endpoints,
		interval:  opts.Interval,
		log:       opts.Logger,
		recorder:  opts.Recorder,
	}
	if h.interval <= 0 {
		h.interval = DefaultInterval
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	return h
}

// Current returns the value the hub last adopted or pushed.
func (h *Hub) Current() string { return h.current }

// Baseline returns the first non-empty value across the endpoints, or "".
func (h *Hub) Baseline(ctx context.Context) (string, error) {
	for _, ep := range h.endpoints {
		v, err := ep.Get(ctx)
		if err != nil {
			return "", fmt.Errorf("baseline: %w", err)
		}
		if v != "" {
			return v, nil
		}
	}
	return "", nil
}

// Run pushes baseline to every endpoint and then polls until ctx is done or
// an endpoint call fails.
func (h *Hub) Run(ctx context.Context, baseline string) error {
	if len(h.endpoints) == 0 {
		return ErrNoClipboards
	}

	if err := h.Sync(ctx, baseline); err != nil {
		return err
	}
	h.log.Info("watching clipboards", "count", len(h.endpoints), "interval", h.interval)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		if _, err := h.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sync writes value to every endpoint and makes it the current value.
func (h *Hub) Sync(ctx context.Context, value string) error {
	h.current = value
	for _, ep := range h.endpoints {
		if err := ep.Set(ctx, value); err != nil {
			return fmt.Errorf("push baseline to %s: %w", clip.Describe(ep), err)
		}
	}
	return nil
}

// Tick polls the endpoints once, in order. The first endpoint holding a value
// other than the current one supplies the new value, which is pushed to every
// other endpoint; the rest of the pass is skipped.
func (h *Hub) Tick(ctx context.Context) (bool, error) {
	for i, ep := range h.endpoints {
		v, err := ep.Get(ctx)
		if err != nil {
			return false, fmt.Errorf("poll %s: %w", clip.Describe(ep), err)
		}
		if v == h.current {
			continue
		}

		h.current = v
		logChange(h.log, ep, v)
		for j, other := range h.endpoints {
			if j == i {
				continue
			}
			if err := other.Set(ctx, v); err != nil {
				return true, fmt.Errorf("push to %s: %w", clip.Describe(other), err)
			}
		}
		if h.recorder != nil {
			h.recorder.RecordChange(ep.Display(), time.Now())
		}
		return true, nil
	}
	return false, nil
}
