package logging

import (
	"io"
	"log/slog"
	"os"
)

// New creates the application logger at the given level. Output goes
// to stderr so `parley run` can keep stdout for interview prompts and
// result JSON. Error values are logged under the "err" key.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
