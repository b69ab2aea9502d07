package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"
)

// DefaultReapInterval is how often the reaper looks for exited children.
const DefaultReapInterval = time.Second

// Reaper collects exited children this process did not start through it:
// clipboard helpers that daemonized and were re-parented here.
type Reaper struct {
	Interval time.Duration
	Logger   *slog.Logger
	// Children lists this process's child pids. Nil means gopsutil.
	Children func(ctx context.Context) ([]int, error)

	mu    sync.Mutex
	owned map[int]struct{}
}

// NewReaper returns a reaper polling every interval.
func NewReaper(interval time.Duration, log *slog.Logger) *Reaper {
	return &Reaper{Interval: interval, Logger: log}
}

func (r *Reaper) log() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Start starts cmd and marks its pid as owned so the reaper never waits on
// it. The lock keeps a reap pass from racing the start.
func (r *Reaper) Start(cmd *exec.Cmd) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := cmd.Start(); err != nil {
		return err
	}
	if r.owned == nil {
		r.owned = make(map[int]struct{})
	}
	r.owned[cmd.Process.Pid] = struct{}{}
	return nil
}

// Release hands pid back to the reaper once its owner has waited on it.
func (r *Reaper) Release(pid int) {
	r.mu.Lock()
	delete(r.owned, pid)
	r.mu.Unlock()
}

// Run reaps every Interval until ctx is done. On linux it first makes this
// process a child subreaper.
func (r *Reaper) Run(ctx context.Context) {
	if err := becomeSubreaper(); err != nil {
		r.log().Warn("could not become child subreaper", "err", err)
	}

	interval := r.Interval
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Reap(ctx)
		}
	}
}

// Reap waits, without blocking, on every child not owned by the supervisor
// and returns how many were collected.
func (r *Reaper) Reap(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	pids, err := r.children(ctx)
	if err != nil {
		r.log().Debug("no children to reap", "err", err)
		return 0
	}

	reaped := 0
	for _, pid := range pids {
		if _, ok := r.owned[pid]; ok {
			continue
		}
		var ws unix.WaitStatus
		wpid, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
		switch {
		case err != nil:
			if !errors.Is(err, unix.ECHILD) {
				r.log().Debug("wait4", "pid", pid, "err", err)
			}
		case wpid == pid:
			reaped++
			r.log().Debug("reaped orphan", "pid", pid, "status", ws.ExitStatus())
		}
	}
	return reaped
}

func (r *Reaper) children(ctx context.Context) ([]int, error) {
	if r.Children != nil {
		return r.Children(ctx)
	}
	return processChildren(ctx)
}

func processChildren(ctx context.Context) ([]int, error) {
	self, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	kids, err := self.ChildrenWithContext(ctx)
	if err != nil {
		return nil, err
	}
	pids := make([]int, len(kids))
	for i, k := range kids {
		pids[i] = int(k.Pid)
	}
	return pids, nil
}
