package bulkx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/clinia/dataapi/errorx"
)

func TestOptions(t *testing.T) {
	t.Run("should have sensible defaults", func(t *testing.T) {
		o := DefaultOptions()

		assert.False(t, o.Ordered)
		assert.Equal(t, DefaultConcurrency, o.Concurrency)
		assert.Equal(t, DefaultChunkSize, o.ChunkSize)
		assert.Equal(t, DefaultChunkTimeout, o.ChunkTimeout)
		assert.NoError(t, o.Validate())
	})

	t.Run("should apply options in order", func(t *testing.T) {
		o := DefaultOptions().apply(
			WithOrdered(true),
			WithConcurrency(8),
			WithChunkSize(10),
			WithChunkSize(20),
			WithChunkTimeout(time.Second),
		)

		assert.Equal(t, Options{Ordered: true, Concurrency: 8, ChunkSize: 20, ChunkTimeout: time.Second}, o)
	})

	t.Run("should replace every option", func(t *testing.T) {
		want := Options{Concurrency: 2, ChunkSize: 5}
		assert.Equal(t, want, DefaultOptions().apply(WithOrdered(true), WithOptions(want)))
	})

	t.Run("should not mutate the receiver", func(t *testing.T) {
		o := DefaultOptions()
		_ = o.apply(WithConcurrency(42))
		assert.Equal(t, DefaultConcurrency, o.Concurrency)
	})

	for _, tc := range []struct {
		name string
		opt  Option
	}{
		{name: "zero concurrency", opt: WithConcurrency(0)},
		{name: "negative concurrency", opt: WithConcurrency(-1)},
		{name: "zero chunk size", opt: WithChunkSize(0)},
		{name: "negative timeout", opt: WithChunkTimeout(-time.Millisecond)},
	} {
		t.Run("should reject "+tc.name, func(t *testing.T) {
			err := DefaultOptions().apply(tc.opt).Validate()
			assert.True(t, errorx.IsInvalidArgumentError(err))
		})
	}
}
