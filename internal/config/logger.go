package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger writes JSON at info level in production and text at debug level
// elsewhere. LOG_LEVEL overrides the level when it parses.
func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env, os.Getenv("LOG_LEVEL"))
}

func newLogger(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: env == "development",
		Level:     slog.LevelDebug,
	}
	if env == "production" {
		opts.Level = slog.LevelInfo
	}

	var lvl slog.Level
	if level != "" && lvl.UnmarshalText([]byte(strings.TrimSpace(level))) == nil {
		opts.Level = lvl
	}

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With(slog.String("service", "workforce"))
}
