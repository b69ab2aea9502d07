package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipweave/internal/clip"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy stdin to one display's clipboard (like pbcopy)",
		Long: `Reads stdin and places it on the clipboard of one display.

--display takes wayland-N (or a compositor socket path), :N for X11, or
"native". Without it the session's WAYLAND_DISPLAY, then DISPLAY, is used.
A running "clipweave run" spreads the value to every other clipboard.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runCopy(v) },
	}

	f := cmd.Flags()
	f.String("display", "", "target display (wayland-N, :N or native)")
	f.Duration("helper-timeout", clip.DefaultTimeout, "timeout for the clipboard helper")
	addConfigFlag(cmd)

	return cmd
}

func runCopy(v *viper.Viper) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	b := clip.NewBackends(v.GetDuration("helper-timeout"))
	defer b.Close()

	ep, err := openEndpoint(b, v.GetString("display"))
	if err != nil {
		return err
	}
	if err := ep.Set(context.Background(), string(data)); err != nil {
		return fmt.Errorf("copy to %s: %w", clip.Describe(ep), err)
	}
	return nil
}
