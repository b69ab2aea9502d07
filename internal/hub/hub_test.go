package hub

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"go.klb.dev/clipweave/internal/clip"
	"go.klb.dev/clipweave/internal/clip/cliptest"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func endpoints(eps ...*cliptest.Endpoint) []clip.Endpoint {
	out := make([]clip.Endpoint, len(eps))
	for i, ep := range eps {
		out[i] = ep
	}
	return out
}

type recorder struct {
	mu       sync.Mutex
	displays []string
}

func (r *recorder) RecordChange(display string, _ time.Time) {
	r.mu.Lock()
	r.displays = append(r.displays, display)
	r.mu.Unlock()
}

func TestRun_NoClipboards(t *testing.T) {
	h := New(nil, Options{Logger: quiet()})
	if err := h.Run(context.Background(), "x"); !errors.Is(err, ErrNoClipboards) {
		t.Fatalf("err = %v, want ErrNoClipboards", err)
	}
}

func TestBaseline(t *testing.T) {
	a := cliptest.NewIsolated("a", "")
	b := cliptest.NewIsolated("b", "second")
	c := cliptest.NewIsolated("c", "third")
	h := New(endpoints(a, b, c), Options{Logger: quiet()})
	got, err := h.Baseline(context.Background())
	if err != nil {
		t.Fatalf("Baseline: %v", err)
	}
	if got != "second" {
		t.Fatalf("Baseline = %q, want %q", got, "second")
	}

	empty := New(endpoints(cliptest.NewIsolated("e", "")), Options{Logger: quiet()})
	if got, _ := empty.Baseline(context.Background()); got != "" {
		t.Fatalf("Baseline = %q, want empty", got)
	}
}

func TestTick_FirstDivergentWins(t *testing.T) {
	ctx := context.Background()
	a := cliptest.NewIsolated("a", "")
	b := cliptest.NewIsolated("b", "")
	c := cliptest.NewIsolated("c", "")
	rec := &recorder{}
	h := New(endpoints(a, b, c), Options{Logger: quiet(), Recorder: rec})

	if err := h.Sync(ctx, "base"); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	b.Store().SetValue("from-b")
	c.Store().SetValue("from-c")

	changed, err := h.Tick(ctx)
	if err != nil || !changed {
		t.Fatalf("Tick = %v, %v; want changed", changed, err)
	}
	for _, ep := range []*cliptest.Endpoint{a, b, c} {
		if v := ep.Store().Value(); v != "from-b" {
			t.Errorf("%s = %q, want %q", ep.Display(), v, "from-b")
		}
	}
	if h.Current() != "from-b" {
		t.Fatalf("Current = %q", h.Current())
	}
	if len(rec.displays) != 1 || rec.displays[0] != "b" {
		t.Fatalf("recorded %v, want [b]", rec.displays)
	}

	changed, err = h.Tick(ctx)
	if err != nil || changed {
		t.Fatalf("second Tick = %v, %v; want unchanged", changed, err)
	}
}

func TestTick_UnchangedDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	a := cliptest.NewIsolated("a", "")
	b := cliptest.NewIsolated("b", "")
	h := New(endpoints(a, b), Options{Logger: quiet()})
	if err := h.Sync(ctx, "same"); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	_, setsBefore := a.Calls()
	for range 3 {
		if changed, err := h.Tick(ctx); err != nil || changed {
			t.Fatalf("Tick = %v, %v", changed, err)
		}
	}
	if _, sets := a.Calls(); sets != setsBefore {
		t.Fatalf("unchanged ticks wrote %d times", sets-setsBefore)
	}
}

func TestTick_GetError(t *testing.T) {
	ctx := context.Background()
	a := cliptest.NewIsolated("a", "")
	b := cliptest.NewIsolated("b", "")
	h := New(endpoints(a, b), Options{Logger: quiet()})
	if err := h.Sync(ctx, ""); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	boom := errors.New("display went away")
	b.FailGet(boom)
	if _, err := h.Tick(ctx); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRun_Converges(t *testing.T) {
	eps := []*cliptest.Endpoint{
		cliptest.NewIsolated("a", "old-a"),
		cliptest.NewIsolated("b", "old-b"),
		cliptest.NewIsolated("c", "old-c"),
	}
	h := New(endpoints(eps...), Options{Interval: 10 * time.Millisecond, Logger: quiet()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx, "seed") }()

	allEqual := func(want string) func() bool {
		return func() bool {
			for _, ep := range eps {
				if ep.Store().Value() != want {
					return false
				}
			}
			return true
		}
	}
	waitFor(t, 2*time.Second, allEqual("seed"))

	eps[2].Store().SetValue("hello")
	waitFor(t, 2*time.Second, allEqual("hello"))

	eps[0].Store().SetValue("world")
	waitFor(t, 2*time.Second, allEqual("world"))

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_AbortsOnSetError(t *testing.T) {
	a := cliptest.NewIsolated("a", "")
	b := cliptest.NewIsolated("b", "")
	boom := errors.New("write refused")
	b.FailSet(boom)
	h := New(endpoints(a, b), Options{Interval: time.Millisecond, Logger: quiet()})
	if err := h.Run(context.Background(), "x"); !errors.Is(err, boom) {
		t.Fatalf("Run = %v, want %v", err, boom)
	}
}

func TestPreview(t *testing.T) {
	short := "hello"
	if got := preview(short); got != short {
		t.Fatalf("preview(%q) = %q", short, got)
	}
	long := strings.Repeat("é", 200)
	got := preview(long)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("long preview not truncated: %q", got)
	}
	if n := len([]rune(strings.TrimSuffix(got, "…"))); n != previewLen {
		t.Fatalf("preview kept %d runes, want %d", n, previewLen)
	}
}
