// Package cli implements the patternmark command-line interface.
//
// Every command operates on one annotation document, chosen with --doc or
// derived from --diagram, stored in the backend selected by the config file.
// Mutating commands load the document, apply the change through the
// annotation store and save it back.
//
// # Commands
//
// The main commands are:
//   - annotate: create, list, update and delete annotations; import/export
//   - prefs, colors: display preferences and the pattern color scheme
//   - connected, select: diagram-aware node suggestions and the interactive picker
//   - serve: the HTTP API with server-sent state events
//   - docs, config: storage and configuration management
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which
// includes one line per store notification. Loggers are passed through
// context.Context.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/patternmark/pkg/annotation"
)

// newLogger returns a leveled logger with short timestamps ("14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time rounded to milliseconds, e.g.
// "Saved checkout-flow (3ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// annotationFields returns the key/value pairs used to log an annotation.
func annotationFields(a annotation.Annotation) []any {
	return []any{
		"id", a.ID,
		"type", a.PatternType,
		"subtype", a.PatternSubtype,
		"nodes", len(a.NodeIDs),
	}
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by the root command, or
// log.Default when there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx == nil {
		return log.Default()
	}
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
