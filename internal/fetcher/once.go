package fetcher

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

const onceKey = "once"

// Once runs an operation at most once and serves its value to every later
// caller until [Once.Reset] is called.
//
// Concurrent callers that arrive while the operation is running wait for
// that single execution and share its outcome. Only successes are kept: after
// a failure the next call to [Once.Do] runs the operation again.
//
// The zero value is not usable; create instances with [NewOnce].
type Once[T any] struct {
	fn    func(context.Context) (T, error)
	group singleflight.Group
	calls atomic.Int64

	mu         sync.Mutex
	done       bool
	val        T
	generation uint64
}

// NewOnce creates a [Once] wrapping fn.
func NewOnce[T any](fn func(context.Context) (T, error)) *Once[T] {
	return &Once[T]{fn: fn}
}

// Do returns the memoized value, running the operation if nothing is cached.
//
// The context of the caller that starts an execution is passed to the
// operation; callers joining that execution share it.
func (o *Once[T]) Do(ctx context.Context) (T, error) {
	o.mu.Lock()
	if o.done {
		v := o.val
		o.mu.Unlock()
		return v, nil
	}
	gen := o.generation
	o.mu.Unlock()

	v, err, _ := o.group.Do(onceKey, func() (any, error) {
		// a previous flight may have finished between the check above and here
		o.mu.Lock()
		if o.done {
			v := o.val
			o.mu.Unlock()
			return v, nil
		}
		o.mu.Unlock()

		o.calls.Add(1)
		val, err := o.fn(ctx)
		if err != nil {
			return nil, err
		}

		o.mu.Lock()
		// a Reset during the flight means this value is stale for later callers
		if o.generation == gen {
			o.val = val
			o.done = true
		}
		o.mu.Unlock()
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	val, _ := v.(T)
	return val, nil
}

// Reset forgets the memoized value. The next [Once.Do] runs the operation
// again. A flight already in progress still completes for the callers
// waiting on it, but its value is not cached.
func (o *Once[T]) Reset() {
	o.mu.Lock()
	var zero T
	o.val = zero
	o.done = false
	o.generation++
	o.mu.Unlock()

	o.group.Forget(onceKey)
}

// Cached reports whether a value is currently memoized.
func (o *Once[T]) Cached() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

// Calls reports how many times the operation has been executed.
func (o *Once[T]) Calls() int64 {
	return o.calls.Load()
}
