package loggerx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey struct{}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger(t *testing.T) {
	t.Run("should log otel attributes as fields", func(t *testing.T) {
		buf := new(bytes.Buffer)
		l := New(WithOutput(buf))

		l.Info(context.Background(), "chunk written",
			attribute.Int("chunk.start", 100),
			attribute.Bool("ordered", true),
			attribute.StringSlice("ids", []string{"a", "b"}),
		)

		entry := decode(t, buf)
		assert.Equal(t, "chunk written", entry["msg"])
		assert.Equal(t, "INFO", entry["level"])
		assert.EqualValues(t, 100, entry["chunk.start"])
		assert.Equal(t, true, entry["ordered"])
		assert.Equal(t, []any{"a", "b"}, entry["ids"])
	})

	t.Run("should respect the level", func(t *testing.T) {
		buf := new(bytes.Buffer)
		l := New(WithOutput(buf), WithLevel("warn"))

		l.Debug(context.Background(), "hidden")
		l.Info(context.Background(), "hidden")
		assert.Empty(t, buf.String())

		l.Warn(context.Background(), "shown")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("should write text when asked", func(t *testing.T) {
		buf := new(bytes.Buffer)
		New(WithOutput(buf), WithFormat("text")).Info(context.Background(), "hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("should attach the error", func(t *testing.T) {
		buf := new(bytes.Buffer)
		New(WithOutput(buf)).WithError(errors.New("boom")).Error(context.Background(), "failed")

		entry := decode(t, buf)
		assert.Equal(t, "boom", entry["error"])
	})

	t.Run("should add service fields", func(t *testing.T) {
		buf := new(bytes.Buffer)
		New(WithOutput(buf), WithService("dataapictl", "1.2.3")).Info(context.Background(), "hello")

		entry := decode(t, buf)
		assert.Equal(t, "dataapictl", entry["service.name"])
		assert.Equal(t, "1.2.3", entry["service.version"])
	})

	t.Run("should extract the request id from the context", func(t *testing.T) {
		buf := new(bytes.Buffer)
		l := New(WithOutput(buf), WithRequestID(ctxKey{}, "request_id"))

		ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
		l.Info(ctx, "hello")

		entry := decode(t, buf)
		assert.Equal(t, "req-1", entry["request_id"])
	})

	t.Run("should copy span start attributes", func(t *testing.T) {
		buf := new(bytes.Buffer)
		l := New(WithOutput(buf)).WithSpanStartOptions(trace.WithAttributes(attribute.String("collection", "users")))
		l.Info(context.Background(), "hello")

		entry := decode(t, buf)
		assert.Equal(t, "users", entry["collection"])
	})

	t.Run("should add a stack trace", func(t *testing.T) {
		buf := new(bytes.Buffer)
		New(WithOutput(buf)).WithStackTrace().Error(context.Background(), "hello")

		entry := decode(t, buf)
		assert.Contains(t, entry["exception.stacktrace"], "loggerx/logger_test.go")
	})

	t.Run("should panic with the message", func(t *testing.T) {
		assert.PanicsWithValue(t, "fatal", func() {
			NewNoop().Panic(context.Background(), "fatal")
		})
	})
}
