package syncx

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/clinia/dataapi/errorx"
)

// Waitable is anything that signals completion by closing a channel.
type Waitable interface {
	Done() <-chan struct{}
}

// Future holds the eventual value or error of a computation started with Go.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

var _ Waitable = (*Future[any])(nil)

// Result is the settled state of a Future.
type Result[T any] struct {
	Value T
	Err   error
}

// PanicError is returned by a Future whose function panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Go runs fn on its own goroutine. A panic inside fn settles the future with a *PanicError
// wrapped in an INTERNAL error instead of crashing the process.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				pErr := &PanicError{Value: r, Stack: debug.Stack()}
				f.err = errorx.InternalErrorf("recovered from panic: %v", r).WithOriginalError(pErr)
			}
		}()
		f.value, f.err = fn()
	}()
	return f
}

// Done is closed once the future has settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future settles.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.value, f.err
}

// Result blocks until the future settles.
func (f *Future[T]) Result() Result[T] {
	v, err := f.Await()
	return Result[T]{Value: v, Err: err}
}

// Join returns a channel closed exactly once, after every waitable is done. A failing waitable
// does not short-circuit the others. With no waitables the channel is already closed.
func Join(ws ...Waitable) <-chan struct{} {
	out := make(chan struct{})
	if len(ws) == 0 {
		close(out)
		return out
	}

	var wg sync.WaitGroup
	for _, w := range ws {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-w.Done()
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// AwaitAll waits for every future and returns their results in argument order.
func AwaitAll[T any](fs ...*Future[T]) []Result[T] {
	ws := make([]Waitable, len(fs))
	for i, f := range fs {
		ws[i] = f
	}
	<-Join(ws...)

	out := make([]Result[T], len(fs))
	for i, f := range fs {
		out[i] = f.Result()
	}
	return out
}
