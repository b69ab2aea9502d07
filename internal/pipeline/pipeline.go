// Package pipeline runs one discovery-dedup-watch cycle. Every run starts
// from scratch with fresh executors, so a retry by the governor never
// inherits state from a failed run.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"go.klb.dev/clipweave/internal/clip"
	"go.klb.dev/clipweave/internal/discovery"
	"go.klb.dev/clipweave/internal/hub"
	"go.klb.dev/clipweave/internal/status"
)

// Config selects what a run probes and how it polls.
type Config struct {
	Kinds    []clip.Kind
	Hybrid   bool
	MaxIndex int
	// Interval between watch-loop ticks.
	Interval time.Duration
	// Timeout bounds each helper invocation.
	Timeout time.Duration
}

// DefaultKinds is the probe order used when Config.Kinds is empty.
var DefaultKinds = []clip.Kind{clip.KindWayland, clip.KindX11, clip.KindNative}

// Pipeline is the action the governor retries.
type Pipeline struct {
	cfg     Config
	log     *slog.Logger
	tracker *status.Tracker

	// Sources overrides the probe sources built from the backends.
	Sources func(b *clip.Backends) []discovery.Source
}

// New returns a pipeline. tracker may be nil.
func New(cfg Config, tracker *status.Tracker, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if len(cfg.Kinds) == 0 {
		cfg.Kinds = DefaultKinds
	}
	return &Pipeline{cfg: cfg, log: log, tracker: tracker}
}

func (p *Pipeline) sources(b *clip.Backends) []discovery.Source {
	if p.Sources != nil {
		return p.Sources(b)
	}
	return discovery.BackendSources(b, p.cfg.Kinds, p.cfg.Hybrid)
}

// Discover finds the canonical clipboard set using b.
func (p *Pipeline) Discover(ctx context.Context, b *clip.Backends) (discovery.Set, error) {
	d := &discovery.Discoverer{
		Sources:  p.sources(b),
		MaxIndex: p.cfg.MaxIndex,
		Logger:   p.log.With("component", "discovery"),
	}
	return d.Canonical(ctx)
}

// Run discovers, deduplicates and then keeps the canonical set in sync until
// ctx is cancelled or an endpoint fails.
func (p *Pipeline) Run(ctx context.Context) error {
	b := clip.NewBackends(p.cfg.Timeout)
	defer b.Close()

	if p.tracker != nil {
		p.tracker.BeginRun()
	}
	set, err := p.Discover(ctx, b)
	if err != nil {
		return err
	}
	if p.tracker != nil {
		p.tracker.SetEndpoints(set.Endpoints)
	}

	opts := hub.Options{
		Interval: p.cfg.Interval,
		Logger:   p.log.With("component", "hub"),
	}
	if p.tracker != nil {
		opts.Recorder = p.tracker
	}
	err = hub.New(set.Endpoints, opts).Run(ctx, set.Seed)
	if p.tracker != nil && ctx.Err() == nil {
		p.tracker.RecordError(err)
	}
	return err
}
