// Package output carries the zerolog logger through contexts and renders
// log events for the console.
package output

import (
	"context"

	"github.com/rs/zerolog"
)

type logKey struct{}

var nop = zerolog.Nop()

// Log returns the logger stored in ctx. Without one, events are discarded.
func Log(ctx context.Context) *zerolog.Logger {
	logger := ctx.Value(logKey{})
	if logger == nil {
		return &nop
	}

	return logger.(*zerolog.Logger)
}

// WithLogger attaches the given logger to the context
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, logKey{}, logger)
}
