package async

import (
	"context"
	"fmt"
)

// Future holds the result of a function running in its own goroutine.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go runs fn on a new goroutine. A panic in fn settles the future with an
// error instead of crashing the process.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				var zero T
				f.value, f.err = zero, fmt.Errorf("panic: %v", r)
			}
		}()
		f.value, f.err = fn()
	}()
	return f
}

// Wait blocks until the future settles or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

type Callback[T any] func(err error, value T)

// Maybe serves both calling styles. Without a callback f is returned as-is.
// With one, cb runs on another goroutine once f settles, receiving either
// (nil, value) or (err, zero value); the returned future settles after cb
// returns and carries f's result.
func Maybe[T any](cb Callback[T], f *Future[T]) *Future[T] {
	if cb == nil {
		return f
	}
	return Go(func() (T, error) {
		<-f.done
		if f.err != nil {
			var zero T
			cb(f.err, zero)
			return zero, f.err
		}
		cb(nil, f.value)
		return f.value, nil
	})
}
