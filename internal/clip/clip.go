// Package clip provides clipboard endpoints: one addressable clipboard per
// display, behind a single Endpoint interface. The set of backend kinds is
// closed:
//
//	wayland.go  a Wayland compositor via wl-paste / wl-copy
//	x11.go      an X11 display via xclip
//	native_*.go this session's clipboard via golang.design/x/clipboard
//	hybrid.go   a getter endpoint paired with a setter endpoint
//
// Only text is supported. Every call of one kind runs on that kind's
// Executor, so calls of the same kind never overlap.
package clip

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind identifies the backend behind an Endpoint.
type Kind int

const (
	KindWayland Kind = iota
	KindX11
	KindNative
	KindHybrid
	// KindMemory is used by in-process endpoints (tests).
	KindMemory
)

func (k Kind) String() string {
	switch k {
	case KindWayland:
		return "wayland"
	case KindX11:
		return "x11"
	case KindNative:
		return "native"
	case KindHybrid:
		return "hybrid"
	case KindMemory:
		return "memory"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a backend name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wayland", "wl":
		return KindWayland, nil
	case "x11", "x":
		return KindX11, nil
	case "native":
		return KindNative, nil
	default:
		return 0, fmt.Errorf("unknown backend %q", s)
	}
}

var (
	// ErrAbsent means nothing is listening at the addressed display.
	ErrAbsent = errors.New("backend absent")
	// ErrUnsupported means the display is live but does not offer the
	// clipboard protocol this backend needs.
	ErrUnsupported = errors.New("protocol unsupported on display")
	// ErrClosed is returned by an Executor after Close.
	ErrClosed = errors.New("executor closed")
)

// Endpoint is one clipboard access point: a specific display under a
// specific backend.
type Endpoint interface {
	Kind() Kind
	// Display names the addressed display, e.g. "wayland-0" or ":1".
	Display() string
	// Get returns the clipboard text. An empty clipboard is "", nil.
	Get(ctx context.Context) (string, error)
	// Set replaces the clipboard text.
	Set(ctx context.Context, text string) error
}

// Describe returns a short human-readable name for ep.
func Describe(ep Endpoint) string {
	return fmt.Sprintf("%s(%s)", ep.Kind(), ep.Display())
}

// BackendError is a failed backend call.
type BackendError struct {
	Kind    Kind
	Display string
	Op      string
	Stderr  string
	Err     error
}

func (e *BackendError) Error() string {
	msg := fmt.Sprintf("%s %s %s: %v", e.Kind, e.Display, e.Op, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *BackendError) Unwrap() error { return e.Err }

// DefaultWatchInterval is the poll period used by Watch.
const DefaultWatchInterval = time.Second

// Watch polls ep every interval until its value differs from the value read
// on entry, and returns the new value.
func Watch(ctx context.Context, ep Endpoint, interval time.Duration) (string, error) {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	start, err := ep.Get(ctx)
	if err != nil {
		return "", err
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
		now, err := ep.Get(ctx)
		if err != nil {
			return "", err
		}
		if now != start {
			return now, nil
		}
	}
}
