// clipweave: keeps every clipboard on this host in sync.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipweave",
		Short: "Synchronise clipboards across local displays",
		Long: `clipweave finds every Wayland compositor and X11 display on this host,
works out which of them share a clipboard, and keeps the distinct clipboards
holding the same text.

Run "clipweave run" once per user session. Use "clipweave probe" to see what
would be synchronised and "clipweave status" to inspect a running instance.

Config file search order (first found wins):
  /etc/clipweave/clipweave.toml
  $HOME/.config/clipweave/clipweave.toml
  path supplied via --config

All flags can be set via CLIPWEAVE_<FLAG> env vars or config-file keys.
See "clipweave run --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newProbeCmd(),
		newCopyCmd(),
		newPasteCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipweave %s\n", Version)
		},
	}
}
