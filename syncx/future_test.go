package syncx

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clinia/dataapi/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGo(t *testing.T) {
	t.Run("should settle with the value", func(t *testing.T) {
		f := Go(func() (int, error) { return 42, nil })
		v, err := f.Await()
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("should settle with the error", func(t *testing.T) {
		boom := errors.New("boom")
		f := Go(func() (int, error) { return 0, boom })
		_, err := f.Await()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("should convert a panic into an error", func(t *testing.T) {
		f := Go(func() (string, error) { panic("transport exploded") })
		_, err := f.Await()
		require.Error(t, err)
		assert.True(t, errorx.IsInternalError(err))

		var pErr *PanicError
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, "transport exploded", pErr.Value)
		assert.NotEmpty(t, pErr.Stack)
	})

	t.Run("should be awaitable more than once", func(t *testing.T) {
		f := Go(func() (int, error) { return 1, nil })
		r1 := f.Result()
		r2 := f.Result()
		assert.Equal(t, r1, r2)
	})
}

func TestJoin(t *testing.T) {
	t.Run("should be closed when there is nothing to wait for", func(t *testing.T) {
		select {
		case <-Join():
		default:
			t.Fatal("expected closed channel")
		}
	})

	t.Run("should fire only after every waitable is done", func(t *testing.T) {
		release := make(chan struct{})
		var finished atomic.Int32

		fs := make([]Waitable, 0, 5)
		for i := range 5 {
			fs = append(fs, Go(func() (int, error) {
				<-release
				finished.Add(1)
				if i%2 == 0 {
					return 0, errors.New("failed")
				}
				return i, nil
			}))
		}

		joined := Join(fs...)
		select {
		case <-joined:
			t.Fatal("join fired before waitables were done")
		case <-time.After(20 * time.Millisecond):
		}

		close(release)
		<-joined
		assert.EqualValues(t, 5, finished.Load())

		// A closed channel keeps signalling, receiving twice must not block
		<-joined
	})

	t.Run("should not short-circuit on failure", func(t *testing.T) {
		slow := make(chan struct{})
		failed := Go(func() (int, error) { return 0, errors.New("fast failure") })
		pending := Go(func() (int, error) {
			<-slow
			return 1, nil
		})

		joined := Join(failed, pending)
		<-failed.Done()
		select {
		case <-joined:
			t.Fatal("join fired while a waitable was pending")
		case <-time.After(20 * time.Millisecond):
		}

		close(slow)
		<-joined
	})
}

func TestAwaitAll(t *testing.T) {
	boom := errors.New("boom")
	fs := []*Future[int]{
		Go(func() (int, error) {
			time.Sleep(10 * time.Millisecond)
			return 1, nil
		}),
		Go(func() (int, error) { return 0, boom }),
		Go(func() (int, error) { return 3, nil }),
	}

	results := AwaitAll(fs...)
	require.Len(t, results, 3)
	assert.Equal(t, 1, results[0].Value)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.Equal(t, 3, results[2].Value)
}

func TestWaitTimeout(t *testing.T) {
	t.Run("should return once done", func(t *testing.T) {
		f := Go(func() (int, error) { return 1, nil })
		assert.NoError(t, WaitTimeout(f, time.Second))
	})

	t.Run("should time out", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		f := Go(func() (int, error) {
			<-release
			return 1, nil
		})
		err := WaitTimeout(f, 10*time.Millisecond)
		assert.True(t, errorx.IsDeadlineExceededError(err))
	})
}

func TestIsContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	assert.False(t, IsContextDone(ctx))
	cancel()
	assert.True(t, IsContextDone(ctx))
}
