package service

import (
	"context"

	"github.com/roach88/rolodex/internal/contact"
)

// Future is the result of an operation running on its own goroutine.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Async starts fn and returns a Future for its result.
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn(ctx)
	}()
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the result is available or ctx is done. Giving up
// does not stop the operation.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, contact.E(contact.Timeout, "await", ctx.Err())
	}
}
