// Package discovery finds the live clipboard endpoints on this host and
// collapses endpoints that reach the same physical clipboard.
package discovery

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.klb.dev/clipweave/internal/clip"
)

// DefaultMaxIndex is the highest display index probed per backend kind.
const DefaultMaxIndex = 255

// ProbeFunc opens the endpoint at index. It returns an error wrapping
// clip.ErrAbsent when nothing listens there.
type ProbeFunc func(ctx context.Context, index int) (clip.Endpoint, error)

// Source is one backend kind to probe.
type Source struct {
	Kind  clip.Kind
	Probe ProbeFunc
	// Single probes index 0 only.
	Single bool
	// Fallback, if set, is tried for an index whose probe reports
	// clip.ErrUnsupported.
	Fallback ProbeFunc
}

// Candidate is a live endpoint found by Discover.
type Candidate struct {
	Endpoint clip.Endpoint
	// Initial is the value read while probing, before dedup touched the
	// clipboard.
	Initial string
}

// Set is the canonical clipboard set of one pipeline run.
type Set struct {
	Endpoints []clip.Endpoint
	// Seed is the first non-empty Initial in discovery order.
	Seed string
	// Candidates is the discovery result before dedup.
	Candidates []Candidate
}

// Discoverer probes Sources in order.
type Discoverer struct {
	Sources  []Source
	// MaxIndex is the highest index probed. Negative means DefaultMaxIndex.
	MaxIndex int
	Logger   *slog.Logger
}

func (d *Discoverer) log() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// Discover probes every index of every source in order and returns the live
// candidates. A failing index never stops the others from being probed; the
// only error returned is ctx's.
func (d *Discoverer) Discover(ctx context.Context) ([]Candidate, error) {
	maxIndex := d.MaxIndex
	if maxIndex < 0 {
		maxIndex = DefaultMaxIndex
	}
	var out []Candidate
	for _, src := range d.Sources {
		last := maxIndex
		if src.Single {
			last = 0
		}
		for i := 0; i <= last; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			c, err := d.probe(ctx, i, src.Probe)
			if errors.Is(err, clip.ErrUnsupported) && src.Fallback != nil {
				d.log().Debug("trying fallback endpoint", "kind", src.Kind, "index", i)
				fc, ferr := d.probe(ctx, i, src.Fallback)
				if ferr != nil {
					d.report(src.Kind, i, err)
					if errors.Is(ferr, clip.ErrAbsent) {
						d.log().Debug("fallback endpoint absent", "kind", src.Kind, "index", i, "err", ferr)
					} else {
						d.report(src.Kind, i, ferr)
					}
					continue
				}
				c, err = fc, nil
			}
			if err != nil {
				d.report(src.Kind, i, err)
				continue
			}
			d.log().Debug("found clipboard", "endpoint", clip.Describe(c.Endpoint))
			out = append(out, c)
		}
	}
	return out, nil
}

// probe opens the endpoint at index and reads it once.
func (d *Discoverer) probe(ctx context.Context, index int, fn ProbeFunc) (Candidate, error) {
	ep, err := fn(ctx, index)
	if err != nil {
		return Candidate{}, err
	}
	v, err := ep.Get(ctx)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{Endpoint: ep, Initial: v}, nil
}

func (d *Discoverer) report(kind clip.Kind, index int, err error) {
	switch {
	case errors.Is(err, clip.ErrAbsent):
		// nothing listening; the common case
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	case errors.Is(err, clip.ErrUnsupported):
		msg := "display does not support the clipboard protocol, skipping"
		if kind == clip.KindWayland {
			msg = "compositor lacks data-control support, skipping (its X11 clipboard is used if available)"
		}
		d.log().Warn(msg, "kind", kind, "index", index, "err", err)
	default:
		d.log().Error("unexpected error while probing clipboard", "kind", kind, "index", index, "err", err)
	}
}

// Canonical discovers, records the seed value and deduplicates.
func (d *Discoverer) Canonical(ctx context.Context) (Set, error) {
	d.log().Info("identifying unique clipboards")
	cands, err := d.Discover(ctx)
	if err != nil {
		return Set{}, err
	}

	eps := make([]clip.Endpoint, len(cands))
	for i, c := range cands {
		eps[i] = c.Endpoint
	}
	canon, err := Dedup(ctx, eps, d.log())
	if err != nil {
		return Set{}, err
	}

	names := make([]string, len(canon))
	for i, ep := range canon {
		names[i] = clip.Describe(ep)
	}
	d.log().Info("using clipboards",
		"clipboards", strings.Join(names, ", "),
		"candidates", len(cands),
	)
	return Set{Endpoints: canon, Seed: seed(cands), Candidates: cands}, nil
}

func seed(cands []Candidate) string {
	for _, c := range cands {
		if c.Initial != "" {
			return c.Initial
		}
	}
	return ""
}
