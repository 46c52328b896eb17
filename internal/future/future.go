// Package future carries the result of one API call to its caller, either by
// awaiting a Future or through a completion callback. Both see the same
// outcome and each is fed exactly once.
package future

import (
	"context"
	"sync"
)

// Callback receives the outcome of a call. On failure value is the zero T.
type Callback[T any] func(value T, err error)

// Future is the pending outcome of a single operation.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Go runs fn in its own goroutine and returns a Future for its outcome.
// Each callback is invoked once, after the Future has resolved.
func Go[T any](fn func() (T, error), callbacks ...Callback[T]) *Future[T] {
	f := newFuture[T]()
	go func() {
		v, err := fn()
		f.resolve(v, err, callbacks)
	}()
	return f
}

// Resolved returns an already completed Future and notifies callbacks
// synchronously.
func Resolved[T any](v T, err error, callbacks ...Callback[T]) *Future[T] {
	f := newFuture[T]()
	f.resolve(v, err, callbacks)
	return f
}

// Then derives a Future whose value is fn applied to the parent's value.
// A failed parent propagates its error untouched and fn is not called.
func Then[T, U any](parent *Future[T], fn func(T) (U, error), callbacks ...Callback[U]) *Future[U] {
	return Go(func() (U, error) {
		v, err := parent.Result()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v)
	}, callbacks...)
}

func (f *Future[T]) resolve(v T, err error, callbacks []Callback[T]) {
	f.once.Do(func() {
		if err != nil {
			var zero T
			v = zero
		}
		f.value, f.err = v, err
		close(f.done)
		for _, cb := range callbacks {
			if cb != nil {
				cb(f.value, f.err)
			}
		}
	})
}

// Done is closed once the outcome is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Result blocks until the outcome is available.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.value, f.err
}

// Await blocks until the outcome is available or ctx is done. Giving up on
// the wait does not stop the underlying call.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
