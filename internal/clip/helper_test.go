package clip

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		stderr string
		err    error
		want   error
	}{
		{"wayland absent", KindWayland, "Failed to connect to a Wayland server", nil, ErrAbsent},
		{"wayland no data-control", KindWayland, "Error: compositor does not implement the data-control protocol", nil, ErrUnsupported},
		{"wayland empty", KindWayland, "Nothing is copied", nil, errEmpty},
		{"wayland no text", KindWayland, "No suitable type of content copied", nil, errEmpty},
		{"x11 absent", KindX11, "Error: Can't open display: :7", nil, ErrAbsent},
		{"x11 empty", KindX11, "Error: target UTF8_STRING not available", nil, errEmpty},
		{"helper missing", KindX11, "", exec.ErrNotFound, ErrUnsupported},
		{"other", KindWayland, "segmentation fault", nil, nil},
		{"x11 message on wayland", KindWayland, "Can't open display", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.kind, tt.stderr, tt.err); got != tt.want {
				t.Errorf("classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBackendErrWrapsClass(t *testing.T) {
	err := backendErr(KindWayland, "wayland-2", "get", "Failed to connect to a Wayland server", errors.New("exit status 1"))
	if !errors.Is(err, ErrAbsent) {
		t.Fatalf("expected ErrAbsent in %v", err)
	}
	var be *BackendError
	if !errors.As(err, &be) || be.Display != "wayland-2" || be.Op != "get" {
		t.Fatalf("unexpected BackendError: %#v", err)
	}

	plain := backendErr(KindX11, ":0", "set", "BadAlloc", errors.New("exit status 1"))
	if errors.Is(plain, ErrAbsent) || errors.Is(plain, ErrUnsupported) {
		t.Fatalf("unexpected classification: %v", plain)
	}
}

func TestWithEnv(t *testing.T) {
	env := withEnv([]string{"A=1", "DISPLAY=:0", "B=2"}, "DISPLAY", ":3")
	want := []string{"A=1", "B=2", "DISPLAY=:3"}
	if len(env) != len(want) {
		t.Fatalf("withEnv = %v, want %v", env, want)
	}
	for i := range want {
		if env[i] != want[i] {
			t.Fatalf("withEnv = %v, want %v", env, want)
		}
	}
	if got := withEnv([]string{"A=1"}, "", "x"); len(got) != 1 {
		t.Fatalf("withEnv with empty key = %v", got)
	}
}

func TestHelperRunTargetsDisplayPerCall(t *testing.T) {
	out, _, err := helper{
		name:     "sh",
		args:     []string{"-c", `printf %s "$WAYLAND_DISPLAY"`},
		envKey:   "WAYLAND_DISPLAY",
		envValue: "wayland-9",
	}.run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "wayland-9" {
		t.Fatalf("stdout = %q, want wayland-9", out)
	}
	if os.Getenv("WAYLAND_DISPLAY") == "wayland-9" {
		t.Fatal("process environment was modified")
	}
}

func TestHelperRunDetachedChildDoesNotBlock(t *testing.T) {
	in := "payload"
	start := time.Now()
	_, _, err := helper{
		name:     "sh",
		args:     []string{"-c", "cat >/dev/null; sleep 3 & exit 0"},
		stdin:    &in,
		detaches: true,
	}.run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("run blocked on background child for %s", elapsed)
	}
}

func TestHelperRunDetachedReturnsBeforeDaemonExits(t *testing.T) {
	mark := filepath.Join(t.TempDir(), "alive")
	in := "payload"
	start := time.Now()
	_, _, err := helper{
		name:     "sh",
		args:     []string{"-c", `cat >/dev/null; (sleep 0.3; echo late >&2; echo alive > "$MARK") & exit 0`},
		envKey:   "MARK",
		envValue: mark,
		stdin:    &in,
		detaches: true,
	}.run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if elapsed := time.Since(start); elapsed >= stdinWaitDelay {
		t.Fatalf("run waited %s for the background child", elapsed)
	}

	// the daemon writes to stderr after run returned and must survive it
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if b, err := os.ReadFile(mark); err == nil && strings.TrimSpace(string(b)) == "alive" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("background child died after writing to stderr")
}

func TestHelperRunDetachedCapturesStderr(t *testing.T) {
	_, stderr, err := helper{
		name:     "sh",
		args:     []string{"-c", "echo 'Error: cannot open display' >&2; exit 1"},
		detaches: true,
	}.run(context.Background())
	if err == nil {
		t.Fatal("expected exit error")
	}
	if stderr != "Error: cannot open display" {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestHelperRunTimeout(t *testing.T) {
	_, _, err := helper{
		name:    "sleep",
		args:    []string{"5"},
		timeout: 100 * time.Millisecond,
	}.run(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestOpenAbsentSockets(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	b := NewBackends(0)
	defer b.Close()

	if _, err := b.WaylandIndex(3); !errors.Is(err, ErrAbsent) {
		t.Fatalf("WaylandIndex(3) error = %v, want ErrAbsent", err)
	}
	if _, err := b.X11(":4242"); !errors.Is(err, ErrAbsent) {
		t.Fatalf("X11(:4242) error = %v, want ErrAbsent", err)
	}
}

func TestOpenWaylandWithSocket(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "wayland-5"), nil, 0o600); err != nil {
		t.Fatal(err)
	}
	b := NewBackends(0)
	defer b.Close()

	ep, err := b.Open("wayland-5")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if ep.Kind() != KindWayland || ep.Display() != "wayland-5" {
		t.Fatalf("got %s", Describe(ep))
	}
}

func TestOpenUnrecognised(t *testing.T) {
	b := NewBackends(0)
	defer b.Close()
	if _, err := b.Open("banana"); err == nil {
		t.Fatal("expected error for unrecognised display")
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"wayland": KindWayland, "X11": KindX11, " native ": KindNative} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseKind("hybrid"); err == nil {
		t.Error("ParseKind(hybrid) should fail; hybrids are not a standalone backend")
	}
}
