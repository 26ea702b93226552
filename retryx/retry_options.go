package retryx

import (
	"context"
	"time"
)

type retryOptions struct {
	retryCount      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	ctx             context.Context
	retryable       func(error) bool
	notify          func(err error, next time.Duration)
}

type RetryOption func(*retryOptions)

// WithRetryCount sets the maximum number of calls made to the function.
func WithRetryCount(count int) RetryOption {
	return func(ro *retryOptions) {
		ro.retryCount = count
	}
}

func WithInterval(interval time.Duration) RetryOption {
	return func(ro *retryOptions) {
		ro.initialInterval = interval
	}
}

func WithMaxInterval(interval time.Duration) RetryOption {
	return func(ro *retryOptions) {
		ro.maxInterval = interval
	}
}

func WithMaxElapsedTime(d time.Duration) RetryOption {
	return func(ro *retryOptions) {
		ro.maxElapsedTime = d
	}
}

// WithContext stops retrying once ctx is done.
func WithContext(ctx context.Context) RetryOption {
	return func(ro *retryOptions) {
		ro.ctx = ctx
	}
}

// WithRetryable only retries errors for which fn returns true. Other errors are returned immediately.
func WithRetryable(fn func(error) bool) RetryOption {
	return func(ro *retryOptions) {
		ro.retryable = fn
	}
}

// WithNotify calls fn before sleeping between two attempts.
func WithNotify(fn func(err error, next time.Duration)) RetryOption {
	return func(ro *retryOptions) {
		ro.notify = fn
	}
}
