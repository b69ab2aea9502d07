package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipweave/internal/clip"
)

func newPasteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Print one display's clipboard to stdout (like pbpaste)",
		Long: `Writes the clipboard text of one display to stdout.

With --watch, waits for the clipboard to change and prints each new value
followed by a newline until interrupted.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runPaste(v) },
	}

	f := cmd.Flags()
	f.String("display", "", "source display (wayland-N, :N or native)")
	f.Bool("watch", false, "print every new clipboard value until interrupted")
	f.Duration("interval", clip.DefaultWatchInterval, "poll period for --watch")
	f.Duration("helper-timeout", clip.DefaultTimeout, "timeout for the clipboard helper")
	addConfigFlag(cmd)

	return cmd
}

func runPaste(v *viper.Viper) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := clip.NewBackends(v.GetDuration("helper-timeout"))
	defer b.Close()

	ep, err := openEndpoint(b, v.GetString("display"))
	if err != nil {
		return err
	}

	if !v.GetBool("watch") {
		text, err := ep.Get(ctx)
		if err != nil {
			return fmt.Errorf("paste from %s: %w", clip.Describe(ep), err)
		}
		_, err = os.Stdout.WriteString(text)
		return err
	}

	interval := v.GetDuration("interval")
	for {
		text, err := clip.Watch(ctx, ep, interval)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("watch %s: %w", clip.Describe(ep), err)
		}
		if _, err := fmt.Fprintln(os.Stdout, text); err != nil {
			return err
		}
	}
}
