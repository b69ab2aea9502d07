//go:build linux && cgo

package clip

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.design/x/clipboard"
)

var (
	nativeOnce sync.Once
	nativeErr  error
)

type native struct {
	display string
	exec    *Executor
}

// Native opens this session's clipboard through golang.design/x/clipboard.
// The library binds to $DISPLAY once per process, so the endpoint's display
// is the value of $DISPLAY at first use.
func (b *Backends) Native() (Endpoint, error) {
	display := os.Getenv("DISPLAY")
	if display == "" {
		return nil, &BackendError{
			Kind:    KindNative,
			Display: "native",
			Op:      "open",
			Err:     fmt.Errorf("%w: DISPLAY not set", ErrAbsent),
		}
	}
	err := b.native.Do(context.Background(), func() error {
		nativeOnce.Do(func() { nativeErr = clipboard.Init() })
		return nativeErr
	})
	if err != nil {
		return nil, &BackendError{
			Kind:    KindNative,
			Display: display,
			Op:      "open",
			Err:     fmt.Errorf("%w: %v", ErrAbsent, err),
		}
	}
	return &native{display: "native" + display, exec: b.native}, nil
}

func (n *native) Kind() Kind      { return KindNative }
func (n *native) Display() string { return n.display }

func (n *native) Get(ctx context.Context) (string, error) {
	return Call(ctx, n.exec, func() (string, error) {
		return string(clipboard.Read(clipboard.FmtText)), nil
	})
}

func (n *native) Set(ctx context.Context, text string) error {
	return n.exec.Do(ctx, func() error {
		clipboard.Write(clipboard.FmtText, []byte(text))
		return nil
	})
}
