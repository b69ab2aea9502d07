package clip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single helper invocation.
const DefaultTimeout = 5 * time.Second

// stdinWaitDelay bounds how long a detaching helper's stdin copy may
// outlive the helper itself.
const stdinWaitDelay = 250 * time.Millisecond

// errEmpty marks helper output meaning "clipboard holds no text".
var errEmpty = errors.New("clipboard empty")

// helper describes one invocation of a clipboard command-line tool.
type helper struct {
	name string
	args []string
	// envKey/envValue target the display for this invocation only.
	envKey   string
	envValue string
	stdin    *string
	detaches bool
	timeout  time.Duration
}

// run executes h and returns its stdout and trimmed stderr.
func (h helper) run(ctx context.Context) (string, string, error) {
	timeout := h.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, h.name, h.args...)
	cmd.Env = withEnv(os.Environ(), h.envKey, h.envValue)
	if h.stdin != nil {
		cmd.Stdin = strings.NewReader(*h.stdin)
	}

	if h.detaches {
		// The forked daemon inherits stdout and stderr, so it gets
		// /dev/null and a file, never a pipe.
		errFile, err := os.CreateTemp("", "clipweave-"+h.name+"-*.stderr")
		if err != nil {
			return "", "", fmt.Errorf("%s stderr: %w", h.name, err)
		}
		defer func() {
			_ = errFile.Close()
			_ = os.Remove(errFile.Name())
		}()
		cmd.Stderr = errFile
		cmd.WaitDelay = stdinWaitDelay

		err = cmd.Run()
		if errors.Is(err, exec.ErrWaitDelay) {
			// exited; the daemon still holds an unread stdin
			err = nil
		}
		err = h.wrap(ctx, timeout, err)
		stderr, _ := os.ReadFile(errFile.Name())
		return "", strings.TrimSpace(string(stderr)), err
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := h.wrap(ctx, timeout, cmd.Run())
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func (h helper) wrap(ctx context.Context, timeout time.Duration, err error) error {
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s: %w", h.name, timeout, err)
	}
	return err
}

// withEnv returns env with key set to value, replacing any existing entry.
func withEnv(env []string, key, value string) []string {
	if key == "" {
		return env
	}
	prefix := key + "="
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if !strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
		}
	}
	return append(out, prefix+value)
}

// classify maps a helper failure to ErrAbsent, ErrUnsupported or errEmpty
// based on the helper's stderr. It returns nil when the failure is not one
// of those.
func classify(kind Kind, stderr string, runErr error) error {
	if errors.Is(runErr, exec.ErrNotFound) {
		return ErrUnsupported
	}
	s := strings.ToLower(stderr)
	switch kind {
	case KindWayland:
		switch {
		case strings.Contains(s, "failed to connect to a wayland server"),
			strings.Contains(s, "no wayland display"):
			return ErrAbsent
		case strings.Contains(s, "data-control"),
			strings.Contains(s, "data_control"),
			strings.Contains(s, "not supported"),
			strings.Contains(s, "does not support"):
			return ErrUnsupported
		case strings.Contains(s, "nothing is copied"),
			strings.Contains(s, "no selection"),
			strings.Contains(s, "no suitable type of content"):
			return errEmpty
		}
	case KindX11:
		switch {
		case strings.Contains(s, "can't open display"),
			strings.Contains(s, "cannot open display"):
			return ErrAbsent
		case strings.Contains(s, "target") && strings.Contains(s, "not available"):
			return errEmpty
		}
	}
	return nil
}

// backendErr wraps a helper failure, classifying it where possible.
func backendErr(kind Kind, display, op, stderr string, runErr error) error {
	err := runErr
	if class := classify(kind, stderr, runErr); class != nil && class != errEmpty {
		err = fmt.Errorf("%w: %v", class, runErr)
	}
	return &BackendError{
		Kind:    kind,
		Display: display,
		Op:      op,
		Stderr:  stderr,
		Err:     err,
	}
}

// socketAbsent reports whether path definitely does not exist.
func socketAbsent(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, os.ErrNotExist)
}
