package hub

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"go.klb.dev/clipweave/internal/clip"
	"go.klb.dev/clipweave/internal/logging"
)

const previewLen = 120

// logChange logs an adopted value at INFO (source and size) and, tagged
// sensitive, at DEBUG with a preview of up to 120 characters.
func logChange(log *slog.Logger, source clip.Endpoint, value string) {
	log.Info("clipboard changed",
		"source", clip.Describe(source),
		"size_bytes", len(value),
	)

	if !log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	log.Debug("clipboard contents",
		"source", clip.Describe(source),
		"preview", preview(value),
		logging.Sensitive(),
	)
}

// preview truncates v to previewLen runes.
func preview(v string) string {
	if utf8.RuneCountInString(v) <= previewLen {
		return v
	}
	n := 0
	for i := range v {
		if n == previewLen {
			return v[:i] + "…"
		}
		n++
	}
	return v
}
