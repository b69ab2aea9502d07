package clip

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type wayland struct {
	display string
	exec    *Executor
	timeout time.Duration
}

// Wayland opens a Wayland compositor endpoint. It fails with ErrAbsent when
// no compositor socket exists for display; it does not talk to the
// compositor.
func (b *Backends) Wayland(display string) (Endpoint, error) {
	if path, ok := waylandSocket(display); !ok || socketAbsent(path) {
		return nil, &BackendError{
			Kind:    KindWayland,
			Display: display,
			Op:      "open",
			Err:     fmt.Errorf("%w: no socket for %s", ErrAbsent, display),
		}
	}
	return &wayland{display: display, exec: b.wayland, timeout: b.Timeout}, nil
}

// waylandSocket resolves the compositor socket path for display.
func waylandSocket(display string) (string, bool) {
	if filepath.IsAbs(display) {
		return display, true
	}
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, display), true
}

func (w *wayland) Kind() Kind      { return KindWayland }
func (w *wayland) Display() string { return w.display }

func (w *wayland) Get(ctx context.Context) (string, error) {
	return Call(ctx, w.exec, func() (string, error) {
		out, stderr, err := helper{
			name:     "wl-paste",
			args:     []string{"--no-newline", "--type", "text"},
			envKey:   "WAYLAND_DISPLAY",
			envValue: w.display,
			timeout:  w.timeout,
		}.run(ctx)
		if err != nil {
			if errors.Is(classify(KindWayland, stderr, err), errEmpty) {
				return "", nil
			}
			return "", backendErr(KindWayland, w.display, "get", stderr, err)
		}
		return out, nil
	})
}

func (w *wayland) Set(ctx context.Context, text string) error {
	return w.exec.Do(ctx, func() error {
		h := helper{
			name:     "wl-copy",
			args:     []string{"--type", "text/plain"},
			envKey:   "WAYLAND_DISPLAY",
			envValue: w.display,
			stdin:    &text,
			detaches: true,
			timeout:  w.timeout,
		}
		if text == "" {
			h.args = []string{"--clear"}
			h.stdin = nil
			h.detaches = false
		}
		_, stderr, err := h.run(ctx)
		if err != nil {
			return backendErr(KindWayland, w.display, "set", stderr, err)
		}
		return nil
	})
}
