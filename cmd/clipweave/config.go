package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipweave/internal/clip"
	"go.klb.dev/clipweave/internal/logging"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPWEAVE_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPWEAVE_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("clipweave")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/clipweave/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/clipweave", home))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPWEAVE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("log-format", "auto", "log format: auto|text|json")
	f.String("log-level", "info", "log level: debug|info|warn|error")
	f.Bool("hide-timestamp", false, "omit timestamps from log lines (for journald and similar)")
	f.Bool("log-clipboard-contents", false, "include clipboard contents in debug logs")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addDiscoveryFlags adds the flags that shape endpoint discovery.
func addDiscoveryFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSlice("backends", []string{"wayland", "x11", "native"}, "backends to probe, in any order: wayland,x11,native")
	f.Bool("hybrid", false, "pair X11 reads with wl-copy writes on compositors without data-control")
	f.Int("max-index", 255, "highest display index probed per backend (0 probes only index 0)")
	f.Duration("helper-timeout", clip.DefaultTimeout, "timeout for one wl-paste/wl-copy/xclip invocation")
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) *slog.Logger {
	return logging.Setup(logging.Config{
		Format:        logging.ParseFormat(v.GetString("log-format")),
		Level:         logging.ParseLevel(v.GetString("log-level")),
		HideTimestamp: v.GetBool("hide-timestamp"),
		LogContents:   v.GetBool("log-clipboard-contents"),
	})
}

// parseKinds converts --backends values. Entries may themselves be
// comma-separated, as they are when set from the environment.
func parseKinds(values []string) ([]clip.Kind, error) {
	var kinds []clip.Kind
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			k, err := clip.ParseKind(name)
			if err != nil {
				return nil, err
			}
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no backends selected")
	}
	return kinds, nil
}

// openEndpoint opens display, or when it is empty this session's Wayland
// compositor, then its X display.
func openEndpoint(b *clip.Backends, display string) (clip.Endpoint, error) {
	if display != "" {
		return b.Open(display)
	}
	if d := os.Getenv("WAYLAND_DISPLAY"); d != "" {
		return b.Wayland(d)
	}
	if d := os.Getenv("DISPLAY"); d != "" {
		return b.X11(d)
	}
	return nil, fmt.Errorf("no --display given and neither WAYLAND_DISPLAY nor DISPLAY is set")
}
