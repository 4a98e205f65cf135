package observability

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns the JSON logger every process uses. Records carry the
// service name, plus trace, span and user ids when the context has them.
func NewLogger(env string) *slog.Logger {
	return newLogger(env, os.Stdout)
}

func newLogger(env string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	switch env {
	case "dev":
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	case "test":
		opts.Level = slog.LevelWarn
	}

	return slog.New(NewTraceHandler(slog.NewJSONHandler(w, opts))).
		With("service", "bizdir", "env", env)
}
