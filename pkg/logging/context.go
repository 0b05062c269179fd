package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type loggerKey struct{}

// WithLogger stores logger in ctx. A nil logger stores the default.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(*zerolog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}

// scope derives a child of the context logger and stores it back.
func scope(ctx context.Context, fn func(zerolog.Context) zerolog.Context) context.Context {
	l := fn(FromContext(ctx).With()).Logger()
	return WithLogger(ctx, &l)
}

// WithArea tags the context logger with an area title.
func WithArea(ctx context.Context, area string) context.Context {
	return scope(ctx, func(c zerolog.Context) zerolog.Context { return c.Str("area", area) })
}

// WithItem tags the context logger with an item id.
func WithItem(ctx context.Context, id string) context.Context {
	return scope(ctx, func(c zerolog.Context) zerolog.Context { return c.Str("item_id", id) })
}

// WithBackend tags the context logger with a storage backend kind.
func WithBackend(ctx context.Context, backend string) context.Context {
	return scope(ctx, func(c zerolog.Context) zerolog.Context { return c.Str("backend", backend) })
}

// WithRequest tags the context logger with an HTTP request.
func WithRequest(ctx context.Context, id, method, path string) context.Context {
	return scope(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("request_id", id).Str("method", method).Str("path", path)
	})
}
