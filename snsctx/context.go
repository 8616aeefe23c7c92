// Package snsctx carries per-command diagnostics settings through a context.
package snsctx

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	keyVerbose ctxKey = iota
	keyLogger
)

// IsVerbose reports whether bus traffic dumps were requested for ctx.
func IsVerbose(ctx context.Context) bool {
	v, ok := ctx.Value(keyVerbose).(bool)
	return ok && v
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, keyVerbose, value)
}

// Logger returns the logger stored in ctx or slog.Default.
func Logger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(keyLogger).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, keyLogger, logger)
}
