package retryx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/clinia/dataapi/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type retryTestCase struct {
	name          string
	fn            func() error
	opts          []RetryOption
	expectedCalls int
	expectedError error
}

func retryTestCases() []retryTestCase {
	return []retryTestCase{
		{
			name: "successful retry",
			fn: func() error {
				return nil
			},
			expectedCalls: 1,
		},
		{
			name: "retry with permanent error",
			fn: func() error {
				return backoff.Permanent(errors.New("permanent error"))
			},
			expectedCalls: 1,
			expectedError: errors.New("permanent error"),
		},
		{
			name: "retry with temporary error",
			fn: func() error {
				return errors.New("temporary error")
			},
			opts: []RetryOption{
				WithInterval(time.Millisecond),
				WithRetryCount(2),
			},
			expectedCalls: 2,
			expectedError: errors.New("temporary error"),
		},
		{
			name: "retry with the default count",
			fn: func() error {
				return errors.New("temporary error")
			},
			opts: []RetryOption{
				WithInterval(time.Millisecond),
				WithMaxInterval(2 * time.Millisecond),
			},
			expectedCalls: DefaultMaxRetries,
			expectedError: errors.New("temporary error"),
		},
		{
			name: "retry only retryable errors",
			fn: func() error {
				return errorx.InvalidArgumentErrorf("bad request")
			},
			opts: []RetryOption{
				WithInterval(time.Millisecond),
				WithRetryable(IsRetryable),
			},
			expectedCalls: 1,
			expectedError: errors.New("[INVALID_ARGUMENT] bad request"),
		},
		{
			name: "retry errors marked as retryable",
			fn: func() error {
				return errorx.NewRetryableError(errorx.UnavailableErrorf("503"))
			},
			opts: []RetryOption{
				WithInterval(time.Millisecond),
				WithRetryable(IsRetryable),
				WithRetryCount(4),
			},
			expectedCalls: 4,
			expectedError: errors.New("Retryable - [UNAVAILABLE] 503"),
		},
	}
}

func runRetryTestCases(t *testing.T, retry func(fn func() error, opts ...RetryOption) error) {
	for _, tt := range retryTestCases() {
		t.Run(tt.name, func(t *testing.T) {
			actualCalls := 0
			fn := func() error {
				actualCalls++
				return tt.fn()
			}
			err := retry(fn, tt.opts...)
			if tt.expectedError != nil {
				require.EqualError(t, err, tt.expectedError.Error())
			} else {
				require.NoError(t, err)
			}

			require.Equal(t, tt.expectedCalls, actualCalls)
		})
	}
}

func TestExponentialRetry(t *testing.T) {
	runRetryTestCases(t, ExponentialRetry)
}

func TestConstantRetry(t *testing.T) {
	runRetryTestCases(t, ConstantRetry)
}

func TestRetryWithContext(t *testing.T) {
	t.Run("should stop when the context is done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := ConstantRetry(func() error {
			calls++
			cancel()
			return errors.New("temporary error")
		}, WithContext(ctx), WithInterval(time.Hour), WithRetryCount(10))

		assert.EqualError(t, err, "temporary error")
		assert.Equal(t, 1, calls)
	})

	t.Run("should notify between attempts", func(t *testing.T) {
		notified := 0
		_ = ConstantRetry(func() error {
			return errors.New("temporary error")
		}, WithInterval(time.Millisecond), WithRetryCount(3), WithNotify(func(err error, next time.Duration) {
			notified++
		}))

		assert.Equal(t, 2, notified)
	})
}
