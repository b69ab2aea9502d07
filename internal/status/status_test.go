package status

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"go.klb.dev/clipweave/internal/clip"
	"go.klb.dev/clipweave/internal/clip/cliptest"
	"go.klb.dev/clipweave/internal/ipc"
	"go.klb.dev/clipweave/internal/message"
	"go.klb.dev/clipweave/internal/wire"
)

type fakeGovernor struct{}

func (fakeGovernor) Failures() int  { return 4 }
func (fakeGovernor) Pain() float64 { return 12.5 }

func TestTracker_Snapshot(t *testing.T) {
	tr := NewTracker()
	tr.SetGovernor(fakeGovernor{})
	tr.BeginRun()
	tr.SetEndpoints([]clip.Endpoint{
		cliptest.NewIsolated("wayland-0", ""),
		cliptest.NewIsolated(":1", ""),
	})
	at := time.Unix(1_700_000_000, 0)
	tr.RecordChange(":1", at)
	tr.RecordError(errors.New("xclip exited 1"))

	s := tr.Snapshot()
	if s.Runs != 1 || len(s.Endpoints) != 2 {
		t.Fatalf("snapshot = %+v", s)
	}
	if s.Endpoints[0] != (message.EndpointInfo{Kind: "memory", Display: "wayland-0"}) {
		t.Fatalf("endpoint = %+v", s.Endpoints[0])
	}
	if s.LastChange == nil || s.LastChange.Display != ":1" || !s.LastChange.At.Equal(at) {
		t.Fatalf("last change = %+v", s.LastChange)
	}
	if s.Failures != 4 || s.Pain != 12.5 || s.LastError != "xclip exited 1" {
		t.Fatalf("governor state = %d %v %q", s.Failures, s.Pain, s.LastError)
	}

	tr.BeginRun()
	if s := tr.Snapshot(); s.Runs != 2 || len(s.Endpoints) != 0 {
		t.Fatalf("after second run: %+v", s)
	}
}

func TestServeAndQuery(t *testing.T) {
	t.Setenv("CLIPWEAVE_SOCKET", filepath.Join(t.TempDir(), "cw.sock"))

	ln, err := ipc.Listen()
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	tr := NewTracker()
	tr.SetEndpoints([]clip.Endpoint{cliptest.NewIsolated(":0", "")})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, tr, slog.New(slog.NewTextHandler(io.Discard, nil))) }()

	if !ipc.IsRunning() {
		t.Fatal("IsRunning = false while serving")
	}
	s, err := Query(context.Background())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(s.Endpoints) != 1 || s.Endpoints[0].Display != ":0" {
		t.Fatalf("status = %+v", s)
	}

	// unknown requests get an ERROR, and the connection stays usable
	conn, err := ipc.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	c := wire.New(conn)
	if err := c.WriteMsg(&message.Message{Type: message.TypePong}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if resp, err := c.ReadMsg(); err != nil || resp.Type != message.TypeError {
		t.Fatalf("reply = %+v, %v; want ERROR", resp, err)
	}
	if err := c.WriteMsg(&message.Message{Type: message.TypePing}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if resp, err := c.ReadMsg(); err != nil || resp.Type != message.TypePong {
		t.Fatalf("reply = %+v, %v; want PONG", resp, err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop")
	}
	_ = c.Close()
}

func TestQuery_NotRunning(t *testing.T) {
	t.Setenv("CLIPWEAVE_SOCKET", filepath.Join(t.TempDir(), "missing.sock"))
	if _, err := Query(context.Background()); err == nil {
		t.Fatal("Query succeeded with nothing listening")
	}
}
