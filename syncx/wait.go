package syncx

import (
	"context"
	"time"

	"github.com/clinia/dataapi/errorx"
)

func IsContextDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// WaitTimeout waits for w to be done, failing with DEADLINE_EXCEEDED after timeout.
func WaitTimeout(w Waitable, timeout time.Duration) error {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-w.Done():
		return nil
	case <-t.C:
		return errorx.DeadlineExceededErrorf("wait timed out after %s", timeout)
	}
}
