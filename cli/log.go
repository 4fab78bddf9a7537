// Package cli implements the springgraph command-line interface.
//
// # Commands
//
//   - view: animate a graph in the terminal
//   - window: animate a graph in a desktop window
//   - serve: serve a live graph over HTTP
//   - settle: run a layout headless and print the final positions
//
// Every command accepts a graph file (JSON, CSV or arrow log) as its argument
// and falls back to a small demo graph. All commands support --verbose (-v)
// for debug logging and --config for a TOML settings file.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/TFMV/springgraph/config"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps writing to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type ctxKey int

const (
	loggerKey ctxKey = iota
	configKey
)

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// configFromContext returns the config attached to ctx, or the defaults.
func configFromContext(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey).(*config.Config); ok {
		return c
	}
	return config.Default()
}
