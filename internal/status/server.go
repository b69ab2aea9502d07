package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"go.klb.dev/clipweave/internal/ipc"
	"go.klb.dev/clipweave/internal/message"
	"go.klb.dev/clipweave/internal/wire"
)

const readTimeout = 10 * time.Second

// Serve answers STATUS and PING requests on ln until ctx is done. It closes
// ln on return.
func Serve(ctx context.Context, ln net.Listener, t *Tracker, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	log.Info("status socket listening", "addr", ln.Addr().String())
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("status accept: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			handle(ctx, wire.New(conn), t, log)
		}()
	}
}

func handle(ctx context.Context, c *wire.Conn, t *Tracker, log *slog.Logger) {
	defer c.Close()
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()
	for ctx.Err() == nil {
		c.SetReadDeadline(readTimeout)
		msg, err := c.ReadMsg()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Debug("status connection", "err", err)
			}
			return
		}

		var reply *message.Message
		switch msg.Type {
		case message.TypeStatus:
			s := t.Snapshot()
			reply = &message.Message{Type: message.TypeStatusResponse, Status: &s}
		case message.TypePing:
			reply = &message.Message{Type: message.TypePong}
		default:
			reply = message.Errorf("unexpected message type %q", msg.Type)
		}
		if err := c.WriteMsg(reply); err != nil {
			log.Debug("status write", "err", err)
			return
		}
	}
}

// Query asks the process listening on the ipc socket for its status.
func Query(ctx context.Context) (*message.Status, error) {
	conn, err := ipc.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("no clipweave process is running (%s): %w", ipc.SocketPath(), err)
	}
	c := wire.New(conn)
	defer c.Close()

	if err := c.WriteMsg(&message.Message{Type: message.TypeStatus}); err != nil {
		return nil, fmt.Errorf("status request: %w", err)
	}
	c.SetReadDeadline(readTimeout)
	resp, err := c.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("status response: %w", err)
	}
	switch {
	case resp.Type == message.TypeError:
		return nil, fmt.Errorf("status: %s", resp.Error)
	case resp.Type != message.TypeStatusResponse || resp.Status == nil:
		return nil, fmt.Errorf("status: unexpected %s reply", resp.Type)
	}
	return resp.Status, nil
}
