package retryx_test

import (
	"fmt"
	"time"

	"github.com/clinia/dataapi/errorx"
	"github.com/clinia/dataapi/retryx"
)

func ExampleExponentialRetry() {
	attempts := 0
	sendInsertMany := func() error {
		attempts++
		if attempts < 3 {
			return errorx.NewRetryableError(errorx.UnavailableErrorf("insertMany answered 503"))
		}
		return nil
	}

	err := retryx.ExponentialRetry(sendInsertMany,
		retryx.WithRetryCount(3),
		retryx.WithInterval(time.Millisecond),
		retryx.WithMaxInterval(5*time.Millisecond),
		retryx.WithRetryable(retryx.IsRetryable),
	)
	fmt.Println(attempts, err)
	// Output: 3 <nil>
}

func ExampleWithRetryable() {
	attempts := 0
	err := retryx.ConstantRetry(func() error {
		attempts++
		return errorx.InvalidArgumentErrorf("filter must be an object")
	},
		retryx.WithInterval(time.Millisecond),
		retryx.WithRetryable(retryx.IsRetryable),
	)
	fmt.Println(attempts, err)
	// Output: 1 [INVALID_ARGUMENT] filter must be an object
}
