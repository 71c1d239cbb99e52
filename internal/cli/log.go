// Package cli implements the graphjson command-line interface.
//
// # Commands
//
//   - inspect: decode a document and print its roots and diagnostics
//   - convert: re-encode a document with the configured codec options
//   - dot: draw a document as a Graphviz diagram
//   - serve: run the HTTP API
//   - store: get, put and delete documents in the configured store
//   - cache: show or clear the file store directory
//
// Every command reads ./graphjson.toml, or the file given with --config,
// and accepts --schema to name the schema files directly.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// travels in the command context (see loggerFromContext).
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long an operation took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time and any extra key-value pairs.
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by the root command, or
// log.Default.
func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx == nil {
		return log.Default()
	}
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
