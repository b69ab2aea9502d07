// Package logging configures the slog logger for clipweave binaries.
//
// The logger is built once from a Config and handed to every component.
// Records carrying the Sensitive attribute (clipboard contents) are dropped
// unless Config.LogContents is set.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pwntr/tinter"
)

// Format selects the log output format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// SensitiveKey marks a record as carrying clipboard contents.
const SensitiveKey = "sensitive"

// ParseFormat converts a string to a Format, returning FormatAuto for unknown values.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "text", "tint", "human":
		return FormatText
	case "json":
		return FormatJSON
	default:
		return FormatAuto
	}
}

// ParseLevel converts a string to a slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// Config is the logging configuration, resolved once from flags.
type Config struct {
	Format        Format
	Level         slog.Level
	HideTimestamp bool
	// LogContents allows records tagged with Sensitive through. Only
	// meaningful at debug level since content lines are logged at debug.
	LogContents bool
}

// Sensitive returns the attribute that tags a record as carrying clipboard
// contents.
func Sensitive() slog.Attr { return slog.Bool(SensitiveKey, true) }

// New builds a logger writing to w according to cfg.
func New(cfg Config, w io.Writer) *slog.Logger {
	useTint := cfg.Format == FormatText || (cfg.Format == FormatAuto && IsTTY(w))

	var h slog.Handler
	if useTint {
		h = tinter.NewHandler(w, &tinter.Options{
			Level:      cfg.Level,
			TimeFormat: "15:04:05.000",
		})
	} else {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: cfg.Level,
		})
	}
	return slog.New(&filterHandler{
		base:          h,
		allowContents: cfg.LogContents,
		hideTime:      cfg.HideTimestamp,
	})
}

// Setup builds a stderr logger from cfg and installs it as the slog default.
func Setup(cfg Config) *slog.Logger {
	l := New(cfg, os.Stderr)
	slog.SetDefault(l)
	return l
}

// filterHandler wraps a base handler to suppress sensitive records and
// optionally strip timestamps.
type filterHandler struct {
	base          slog.Handler
	allowContents bool
	hideTime      bool
	// sensitive is set when a Sensitive attr was bound via WithAttrs.
	sensitive bool
}

func (h *filterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *filterHandler) Handle(ctx context.Context, record slog.Record) error {
	if !h.allowContents {
		if h.sensitive {
			return nil
		}
		drop := false
		record.Attrs(func(a slog.Attr) bool {
			if isSensitive(a) {
				drop = true
				return false
			}
			return true
		})
		if drop {
			return nil
		}
	}
	if h.hideTime {
		record.Time = time.Time{}
	}
	return h.base.Handle(ctx, record)
}

func (h *filterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sensitive := h.sensitive
	for _, a := range attrs {
		if isSensitive(a) {
			sensitive = true
		}
	}
	return &filterHandler{
		base:          h.base.WithAttrs(attrs),
		allowContents: h.allowContents,
		hideTime:      h.hideTime,
		sensitive:     sensitive,
	}
}

func (h *filterHandler) WithGroup(name string) slog.Handler {
	return &filterHandler{
		base:          h.base.WithGroup(name),
		allowContents: h.allowContents,
		hideTime:      h.hideTime,
		sensitive:     h.sensitive,
	}
}

func isSensitive(a slog.Attr) bool {
	return a.Key == SensitiveKey && a.Value.Kind() == slog.KindBool && a.Value.Bool()
}
