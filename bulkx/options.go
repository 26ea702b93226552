package bulkx

import (
	"time"

	"github.com/clinia/dataapi/errorx"
)

const (
	DefaultConcurrency  = 1
	DefaultChunkTimeout = 30 * time.Second
)

type Options struct {
	// Ordered stops the batch at the first failure and keeps results attributable by position.
	Ordered bool
	// Concurrency is the maximum number of chunks in flight.
	Concurrency int
	// ChunkSize is the maximum number of operations per chunk.
	ChunkSize int
	// ChunkTimeout bounds a single chunk. Zero disables it.
	ChunkTimeout time.Duration
}

type Option func(*Options)

func DefaultOptions() Options {
	return Options{
		Ordered:      false,
		Concurrency:  DefaultConcurrency,
		ChunkSize:    DefaultChunkSize,
		ChunkTimeout: DefaultChunkTimeout,
	}
}

func WithOrdered(ordered bool) Option {
	return func(o *Options) {
		o.Ordered = ordered
	}
}

func WithConcurrency(n int) Option {
	return func(o *Options) {
		o.Concurrency = n
	}
}

func WithChunkSize(n int) Option {
	return func(o *Options) {
		o.ChunkSize = n
	}
}

func WithChunkTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ChunkTimeout = d
	}
}

// WithOptions replaces every option at once.
func WithOptions(opts Options) Option {
	return func(o *Options) {
		*o = opts
	}
}

func (o Options) Validate() error {
	if o.Concurrency < 1 {
		return errorx.InvalidArgumentErrorf("concurrency must be at least 1, got %d", o.Concurrency)
	}
	if o.ChunkSize < 1 {
		return errorx.InvalidArgumentErrorf("chunk size must be at least 1, got %d", o.ChunkSize)
	}
	if o.ChunkTimeout < 0 {
		return errorx.InvalidArgumentErrorf("chunk timeout must not be negative, got %s", o.ChunkTimeout)
	}
	return nil
}

func (o Options) apply(opts ...Option) Options {
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
