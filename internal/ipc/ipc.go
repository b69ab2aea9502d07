// Package ipc provides the local Unix-socket channel the status command uses
// to ask a running sync process how it is doing.
package ipc

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"time"
)

const dialTimeout = 2 * time.Second

// SocketPath returns the path of the status socket:
// $CLIPWEAVE_SOCKET if set, else $XDG_RUNTIME_DIR/clipweave.sock, else
// $TMPDIR/clipweave-<uid>.sock.
func SocketPath() string {
	if s := os.Getenv("CLIPWEAVE_SOCKET"); s != "" {
		return s
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "clipweave.sock")
	}
	return filepath.Join(os.TempDir(), "clipweave-"+uidString()+".sock")
}

// IsRunning reports whether a sync process appears to be listening on the
// socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := Dial(context.Background())
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a listener on the socket path. A stale socket left by a
// crashed process is removed; a live one makes Listen fail.
func Listen() (net.Listener, error) {
	path := SocketPath()
	if IsRunning() {
		return nil, errors.New("another clipweave process is serving " + path)
	}
	_ = os.Remove(path)
	return net.Listen("unix", path)
}

// Dial connects to the socket.
func Dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: dialTimeout}
	return d.DialContext(ctx, "unix", SocketPath())
}
