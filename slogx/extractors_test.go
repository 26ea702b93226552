package slogx

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type requestIDKey struct{}

func TestNewRequestIDExtractor(t *testing.T) {
	extract := NewRequestIDExtractor(requestIDKey{}, "request_id")

	t.Run("should extract the request id", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), requestIDKey{}, "abc")
		attrs := extract(ctx, time.Now(), slog.LevelInfo, "msg")
		if assert.Len(t, attrs, 1) {
			assert.True(t, slog.String("request_id", "abc").Equal(attrs[0]))
		}
	})

	t.Run("should return nothing without a request id", func(t *testing.T) {
		assert.Nil(t, extract(context.Background(), time.Now(), slog.LevelInfo, "msg"))
	})
}
