package log

import (
	"context"

	"github.com/rs/zerolog"
)

// loggerKey is the context key for the request-scoped logger.
type loggerKey struct{}

// WithLogger returns a context carrying the given logger. The gin middleware
// hands each request its own child logger this way; services and the audit
// trail pull it back out with Ctx.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Ctx returns the logger carried by the context, or the global logger when
// the context has none (background work, tests).
func Ctx(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return L()
}
