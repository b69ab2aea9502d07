// Package supervisor keeps a sync child process alive. The child is
// restarted whenever it exits and is terminated once it has run for its
// lifetime, so a wedged child is always replaced.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const (
	DefaultLifetime     = 600 * time.Second
	DefaultRespawnDelay = time.Second
	// DefaultKillGrace is how long a child may take to exit after SIGTERM
	// before it is killed.
	DefaultKillGrace = 5 * time.Second
)

// Supervisor runs children produced by Command one after another.
type Supervisor struct {
	// Command builds the child. It must use exec.CommandContext with the
	// context it is given.
	Command      func(ctx context.Context) *exec.Cmd
	Lifetime     time.Duration
	RespawnDelay time.Duration
	KillGrace    time.Duration
	// Reaper, if set, starts children and collects orphans re-parented to
	// this process.
	Reaper *Reaper
	Logger *slog.Logger
}

// Exit describes how a child ended.
type Exit struct {
	Pid int
	// Code is the exit status, or -1 when the child was killed by a signal.
	Code    int
	Signal  string
	Runtime time.Duration
	// Watchdog is set when the child was terminated for outliving Lifetime.
	Watchdog bool
	// Err is a wait error other than a non-zero exit.
	Err error
}

func (e Exit) String() string {
	switch {
	case e.Signal != "":
		return fmt.Sprintf("pid %d killed by %s after %s", e.Pid, e.Signal, e.Runtime.Round(time.Millisecond))
	default:
		return fmt.Sprintf("pid %d exited with status %d after %s", e.Pid, e.Code, e.Runtime.Round(time.Millisecond))
	}
}

func (s *Supervisor) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Supervisor) lifetime() time.Duration {
	if s.Lifetime <= 0 {
		return DefaultLifetime
	}
	return s.Lifetime
}

func (s *Supervisor) killGrace() time.Duration {
	if s.KillGrace <= 0 {
		return DefaultKillGrace
	}
	return s.KillGrace
}

// Once runs a single child to completion. The child gets SIGTERM when it
// reaches Lifetime or when ctx is cancelled, and SIGKILL if it is still
// running KillGrace later. The error is non-nil only when the child could not
// be started or ctx was cancelled.
func (s *Supervisor) Once(ctx context.Context) (Exit, error) {
	cmd := s.Command(ctx)
	if cmd.Cancel != nil {
		cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
		if cmd.WaitDelay == 0 {
			cmd.WaitDelay = s.killGrace()
		}
	}

	var err error
	if s.Reaper != nil {
		err = s.Reaper.Start(cmd)
	} else {
		err = cmd.Start()
	}
	if err != nil {
		return Exit{}, fmt.Errorf("start child: %w", err)
	}
	pid := cmd.Process.Pid
	if s.Reaper != nil {
		defer s.Reaper.Release(pid)
	}
	started := time.Now()
	s.log().Info("child started", "pid", pid, "lifetime", s.lifetime())

	done := make(chan struct{})
	var fired atomic.Bool
	go s.watchdog(cmd, done, &fired)

	waitErr := cmd.Wait()
	close(done)

	exit := describe(pid, cmd.ProcessState, waitErr)
	exit.Runtime = time.Since(started)
	exit.Watchdog = fired.Load()
	if err := ctx.Err(); err != nil {
		return exit, err
	}
	return exit, nil
}

// watchdog terminates cmd once it outlives its lifetime.
func (s *Supervisor) watchdog(cmd *exec.Cmd, done <-chan struct{}, fired *atomic.Bool) {
	t := time.NewTimer(s.lifetime())
	defer t.Stop()
	select {
	case <-done:
		return
	case <-t.C:
	}

	fired.Store(true)
	pid := cmd.Process.Pid
	s.log().Info("child reached its lifetime, terminating", "pid", pid)
	if err := signalChild(cmd, syscall.SIGTERM); err != nil {
		s.log().Warn("terminate child", "pid", pid, "err", err)
	}

	t.Reset(s.killGrace())
	select {
	case <-done:
	case <-t.C:
		s.log().Warn("child ignored SIGTERM, killing", "pid", pid)
		if err := signalChild(cmd, syscall.SIGKILL); err != nil {
			s.log().Warn("kill child", "pid", pid, "err", err)
		}
	}
}

// signalChild delivers sig through cmd.Process, which never signals a pid that
// has already been waited on. A child that is already gone is not an error.
func signalChild(cmd *exec.Cmd, sig os.Signal) error {
	err := cmd.Process.Signal(sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func describe(pid int, state *os.ProcessState, waitErr error) Exit {
	exit := Exit{Pid: pid}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		exit.Err = waitErr
	}
	if state == nil {
		exit.Code = -1
		return exit
	}
	exit.Code = state.ExitCode()
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		exit.Signal = unix.SignalName(ws.Signal())
		if exit.Signal == "" {
			exit.Signal = ws.Signal().String()
		}
	}
	return exit
}

// Run starts children until ctx is cancelled, waiting RespawnDelay between
// them. Child failures are logged, never returned.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.Reaper != nil {
		go s.Reaper.Run(ctx)
	}

	delay := s.RespawnDelay
	if delay <= 0 {
		delay = DefaultRespawnDelay
	}

	for {
		exit, err := s.Once(ctx)
		if ctx.Err() != nil {
			s.log().Info("supervisor stopping", "last_exit", exit.String())
			return ctx.Err()
		}

		switch {
		case err != nil:
			s.log().Error("could not start child", "err", err)
		case exit.Watchdog:
			s.log().Info("child recycled", "exit", exit.String())
		case exit.Code == 0 && exit.Err == nil:
			s.log().Info("child exited", "exit", exit.String())
		default:
			s.log().Warn("child exited abnormally", "exit", exit.String(), "err", exit.Err)
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
