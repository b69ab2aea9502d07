package clip

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// x11SocketDir holds the local X server sockets, X<n> for display :<n>.
const x11SocketDir = "/tmp/.X11-unix"

type x11 struct {
	display string
	exec    *Executor
	timeout time.Duration
}

// X11 opens an X display endpoint. Local displays (":N") without a server
// socket fail with ErrAbsent; remote displays are checked on first use.
func (b *Backends) X11(display string) (Endpoint, error) {
	if strings.HasPrefix(display, ":") {
		n, _, _ := strings.Cut(display[1:], ".")
		if socketAbsent(filepath.Join(x11SocketDir, "X"+n)) {
			return nil, &BackendError{
				Kind:    KindX11,
				Display: display,
				Op:      "open",
				Err:     fmt.Errorf("%w: no X server socket for %s", ErrAbsent, display),
			}
		}
	}
	return &x11{display: display, exec: b.x11, timeout: b.Timeout}, nil
}

func (x *x11) Kind() Kind      { return KindX11 }
func (x *x11) Display() string { return x.display }

func (x *x11) Get(ctx context.Context) (string, error) {
	return Call(ctx, x.exec, func() (string, error) {
		out, stderr, err := helper{
			name:     "xclip",
			args:     []string{"-selection", "clipboard", "-o", "-t", "UTF8_STRING"},
			envKey:   "DISPLAY",
			envValue: x.display,
			timeout:  x.timeout,
		}.run(ctx)
		if err != nil {
			if errors.Is(classify(KindX11, stderr, err), errEmpty) {
				return "", nil
			}
			return "", backendErr(KindX11, x.display, "get", stderr, err)
		}
		return out, nil
	})
}

func (x *x11) Set(ctx context.Context, text string) error {
	return x.exec.Do(ctx, func() error {
		_, stderr, err := helper{
			name:     "xclip",
			args:     []string{"-selection", "clipboard", "-i", "-t", "UTF8_STRING"},
			envKey:   "DISPLAY",
			envValue: x.display,
			stdin:    &text,
			detaches: true,
			timeout:  x.timeout,
		}.run(ctx)
		if err != nil {
			return backendErr(KindX11, x.display, "set", stderr, err)
		}
		return nil
	})
}
