package discovery

import (
	"context"

	"go.klb.dev/clipweave/internal/clip"
)

// BackendSources builds the probe sources for kinds in the preferred order
// (Wayland, X11, native) regardless of the order given. With hybrid set, a
// Wayland index without data-control support falls back to reading X11
// ":N" and writing through wl-copy on "wayland-N".
func BackendSources(b *clip.Backends, kinds []clip.Kind, hybrid bool) []Source {
	want := make(map[clip.Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	var out []Source
	if want[clip.KindWayland] {
		src := Source{
			Kind: clip.KindWayland,
			Probe: func(_ context.Context, n int) (clip.Endpoint, error) {
				return b.WaylandIndex(n)
			},
		}
		if hybrid {
			src.Fallback = func(_ context.Context, n int) (clip.Endpoint, error) {
				getter, err := b.X11Index(n)
				if err != nil {
					return nil, err
				}
				setter, err := b.WaylandIndex(n)
				if err != nil {
					return nil, err
				}
				return clip.NewHybrid(getter, setter), nil
			}
		}
		out = append(out, src)
	}
	if want[clip.KindX11] {
		out = append(out, Source{
			Kind: clip.KindX11,
			Probe: func(_ context.Context, n int) (clip.Endpoint, error) {
				return b.X11Index(n)
			},
		})
	}
	if want[clip.KindNative] {
		out = append(out, Source{
			Kind:   clip.KindNative,
			Single: true,
			Probe: func(_ context.Context, _ int) (clip.Endpoint, error) {
				return b.Native()
			},
		})
	}
	return out
}
