package clip

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Backends opens endpoints and owns one Executor per backend kind. A fresh
// Backends is created for every pipeline run and closed at its end.
type Backends struct {
	// Timeout bounds each helper invocation. Zero means DefaultTimeout.
	Timeout time.Duration

	wayland *Executor
	x11     *Executor
	native  *Executor
}

// NewBackends starts the per-kind executors.
func NewBackends(timeout time.Duration) *Backends {
	return &Backends{
		Timeout: timeout,
		wayland: NewExecutor("wayland"),
		x11:     NewExecutor("x11"),
		native:  NewExecutor("native"),
	}
}

// Close stops the executors. Endpoints opened from b fail with ErrClosed
// afterwards.
func (b *Backends) Close() {
	b.wayland.Close()
	b.x11.Close()
	b.native.Close()
}

// WaylandIndex opens the compositor at wayland-<n>.
func (b *Backends) WaylandIndex(n int) (Endpoint, error) {
	return b.Wayland(fmt.Sprintf("wayland-%d", n))
}

// X11Index opens the X display :<n>.
func (b *Backends) X11Index(n int) (Endpoint, error) {
	return b.X11(":" + strconv.Itoa(n))
}

// Open opens an endpoint from a display string: "wayland-N" or an absolute
// socket path selects Wayland, ":N" or "host:N" selects X11, "native"
// selects this session's clipboard.
func (b *Backends) Open(display string) (Endpoint, error) {
	switch {
	case display == "native":
		return b.Native()
	case strings.HasPrefix(display, "wayland-"), strings.HasPrefix(display, "/"):
		return b.Wayland(display)
	case strings.Contains(display, ":"):
		return b.X11(display)
	default:
		return nil, fmt.Errorf("unrecognised display %q (want wayland-N, :N or native)", display)
	}
}
