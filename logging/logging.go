// Package logging wires structured logging (log/slog) for the server
// process, with optional file rotation for long-running deployments.
package logging

import (
	"context"
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey struct{}

// Logger builds a slog.Logger writing JSON records to w at the given
// level. addSource attaches the call site to each record, useful in
// development but noisy in production.
func Logger(w io.Writer, addSource bool, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: addSource,
		Level:     level,
	})
	return slog.New(handler)
}

// RotatingWriter returns an io.Writer that rotates path once it exceeds
// maxSizeMB, keeping maxBackups old files.
func RotatingWriter(path string, maxSizeMB, maxBackups int) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
}

// AppendCtx returns a copy of ctx carrying attrs, merged with any attrs
// already attached by an earlier AppendCtx call. Handlers pull these back
// out via FromCtx and attach them to every log record for that request.
func AppendCtx(ctx context.Context, attrs ...slog.Attr) context.Context {
	if existing, ok := ctx.Value(ctxKey{}).([]slog.Attr); ok {
		attrs = append(append([]slog.Attr{}, existing...), attrs...)
	}
	return context.WithValue(ctx, ctxKey{}, attrs)
}

// FromCtx returns the slog.Attrs accumulated on ctx by AppendCtx, or nil.
func FromCtx(ctx context.Context) []slog.Attr {
	attrs, _ := ctx.Value(ctxKey{}).([]slog.Attr)
	return attrs
}

// Log emits a record at level on logger, including any attrs accumulated
// on ctx via AppendCtx alongside the call-site args.
func Log(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, args ...any) {
	attrs := FromCtx(ctx)
	allArgs := make([]any, 0, len(args)+len(attrs))
	allArgs = append(allArgs, args...)
	for _, a := range attrs {
		allArgs = append(allArgs, a)
	}
	logger.Log(ctx, level, msg, allArgs...)
}
