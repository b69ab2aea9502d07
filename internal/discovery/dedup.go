package discovery

import (
	"context"
	"fmt"
	"log/slog"

	"go.klb.dev/clipweave/internal/clip"
)

// Same reports whether a and b are the same physical clipboard: a's display
// name written into a must read back from b, and b's display name written
// into b must read back from a. Both endpoints are left holding b's name.
func Same(ctx context.Context, a, b clip.Endpoint) (bool, error) {
	da, db := a.Display(), b.Display()
	if err := a.Set(ctx, da); err != nil {
		return false, fmt.Errorf("dedup probe %s: %w", clip.Describe(a), err)
	}
	got, err := b.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("dedup probe %s: %w", clip.Describe(b), err)
	}
	if got != da {
		return false, nil
	}
	if err := b.Set(ctx, db); err != nil {
		return false, fmt.Errorf("dedup probe %s: %w", clip.Describe(b), err)
	}
	got, err = a.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("dedup probe %s: %w", clip.Describe(a), err)
	}
	return got == db, nil
}

// Dedup drops every endpoint proven to be the same clipboard as an earlier
// one. Order is preserved. It overwrites the clipboards it probes.
func Dedup(ctx context.Context, eps []clip.Endpoint, log *slog.Logger) ([]clip.Endpoint, error) {
	if log == nil {
		log = slog.Default()
	}
	removed := make([]bool, len(eps))
	for i := range eps {
		if removed[i] {
			continue
		}
		for j := i + 1; j < len(eps); j++ {
			if removed[j] {
				continue
			}
			same, err := Same(ctx, eps[i], eps[j])
			if err != nil {
				return nil, err
			}
			if same {
				log.Debug("same clipboard, dropping the later one",
					"keep", clip.Describe(eps[i]),
					"drop", clip.Describe(eps[j]),
				)
				removed[j] = true
			}
		}
	}

	out := make([]clip.Endpoint, 0, len(eps))
	for i, ep := range eps {
		if !removed[i] {
			out = append(out, ep)
		}
	}
	return out, nil
}
