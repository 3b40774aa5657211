package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"rdicomweb/logging"
)

func TestLogIncludesContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Logger(&buf, false, slog.LevelInfo)

	ctx := logging.AppendCtx(context.Background(), slog.String("request_id", "abc123"))
	logging.Log(ctx, logger, slog.LevelInfo, "handled request", "status", 200)

	out := buf.String()
	require.Contains(t, out, `"request_id":"abc123"`)
	require.Contains(t, out, `"status":200`)
	require.Contains(t, out, `"msg":"handled request"`)
}

func TestAppendCtxAccumulates(t *testing.T) {
	ctx := logging.AppendCtx(context.Background(), slog.String("a", "1"))
	ctx = logging.AppendCtx(ctx, slog.String("b", "2"))

	attrs := logging.FromCtx(ctx)
	require.Len(t, attrs, 2)
}
