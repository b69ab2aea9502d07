package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipweave/internal/governor"
	"go.klb.dev/clipweave/internal/hub"
	"go.klb.dev/clipweave/internal/ipc"
	"go.klb.dev/clipweave/internal/pipeline"
	"go.klb.dev/clipweave/internal/status"
	"go.klb.dev/clipweave/internal/supervisor"
)

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Keep all clipboards on this host in sync",
		Long: `Discovers clipboards, collapses displays that share one, and keeps the
rest holding the same text.

By default a supervisor process runs the sync loop in a child, restarts it
when it exits and replaces it every --child-lifetime. Transient failures are
retried; a burst of failures ends the child with status 1.

Config file search order:
  /etc/clipweave/clipweave.toml
  $HOME/.config/clipweave/clipweave.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPWEAVE_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runRun(v) },
	}

	f := cmd.Flags()
	f.Bool("supervise", true, "run the sync loop in a supervised, periodically recycled child")
	f.Duration("child-lifetime", supervisor.DefaultLifetime, "recycle the sync child after this long")
	f.Duration("respawn-delay", supervisor.DefaultRespawnDelay, "pause before starting a new child")
	f.Duration("reap-interval", supervisor.DefaultReapInterval, "how often orphaned helper processes are collected")
	f.Duration("poll-interval", hub.DefaultInterval, "pause between clipboard polling passes")
	f.Duration("retry-backoff", governor.DefaultBackoff, "pause before retrying a failed run")
	f.Duration("session-gap", governor.DefaultSessionGap, "quiet period after which failures start a new session")
	f.Float64("pain-threshold", governor.DefaultThreshold, "failure score at which the sync loop gives up")
	f.Float64("rate-scale", governor.DefaultRateScale, "weight of the failure rate in the failure score")
	f.Bool("no-ipc", false, "do not serve the status socket")
	addDiscoveryFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runRun(v *viper.Viper) error {
	log := setupLogging(v)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if v.GetBool("supervise") {
		return runSupervisor(ctx, v, log)
	}
	return runSync(ctx, v, log)
}

// runSupervisor re-executes this binary with --supervise=false as the child.
func runSupervisor(ctx context.Context, v *viper.Viper, log *slog.Logger) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	args := append(append([]string(nil), os.Args[1:]...), "--supervise=false")

	s := &supervisor.Supervisor{
		Command: func(ctx context.Context) *exec.Cmd {
			c := exec.CommandContext(ctx, exe, args...)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			return c
		},
		Lifetime:     v.GetDuration("child-lifetime"),
		RespawnDelay: v.GetDuration("respawn-delay"),
		Reaper:       supervisor.NewReaper(v.GetDuration("reap-interval"), log.With("component", "reaper")),
		Logger:       log.With("component", "supervisor"),
	}

	log.Info("clipweave supervisor starting", "version", Version, "pid", os.Getpid())
	if err := s.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// runSync runs the pipeline under the governor in this process.
func runSync(ctx context.Context, v *viper.Viper, log *slog.Logger) error {
	kinds, err := parseKinds(v.GetStringSlice("backends"))
	if err != nil {
		return err
	}

	tracker := status.NewTracker()
	gov := governor.New(governor.Policy{
		SessionGap: v.GetDuration("session-gap"),
		RateScale:  v.GetFloat64("rate-scale"),
		Threshold:  v.GetFloat64("pain-threshold"),
		Backoff:    v.GetDuration("retry-backoff"),
	}, log.With("component", "governor"))
	tracker.SetGovernor(gov)

	p := pipeline.New(pipeline.Config{
		Kinds:    kinds,
		Hybrid:   v.GetBool("hybrid"),
		MaxIndex: v.GetInt("max-index"),
		Interval: v.GetDuration("poll-interval"),
		Timeout:  v.GetDuration("helper-timeout"),
	}, tracker, log)

	if !v.GetBool("no-ipc") {
		ln, err := ipc.Listen()
		if err != nil {
			log.Warn("status socket unavailable", "err", err)
		} else {
			go func() {
				if err := status.Serve(ctx, ln, tracker, log.With("component", "status")); err != nil {
					log.Warn("status socket stopped", "err", err)
				}
			}()
		}
	}

	log.Info("clipweave starting",
		"version", Version,
		"pid", os.Getpid(),
		"backends", v.GetStringSlice("backends"),
		"hybrid", v.GetBool("hybrid"),
	)

	err = gov.Run(ctx, p.Run)
	switch {
	case errors.Is(err, governor.ErrTooManyErrors):
		return err
	case ctx.Err() != nil:
		log.Info("clipweave stopping")
		return nil
	default:
		return err
	}
}
