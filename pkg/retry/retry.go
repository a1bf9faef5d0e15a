package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Attempt describes a failed attempt that is about to be retried.
type Attempt struct {
	// Number is the 0-based attempt that failed.
	Number int

	// Delay is the backoff before the next attempt.
	Delay time.Duration

	// Err is the failure.
	Err error
}

// Retrier runs calls under a Policy. The zero value runs calls once.
type Retrier struct {
	Policy Policy

	// OnRetry, if set, is called before each backoff. It must not block.
	OnRetry func(ctx context.Context, a Attempt)

	sleep  func(ctx context.Context, d time.Duration) error
	random func() float64
}

// New returns a Retrier for p.
func New(p Policy) *Retrier {
	return &Retrier{Policy: p}
}

// Do runs fn until it succeeds, fails with an error the policy does not
// retry, or the policy is exhausted. The error of the last attempt is
// returned unchanged. If ctx ends during a backoff, the returned error wraps
// both ctx.Err() and the last failure.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if ctx.Err() != nil || !r.Policy.ShouldRetry(err, attempt) {
			return err
		}

		delay := r.Policy.delay(attempt, r.jitterSource())
		if r.OnRetry != nil {
			r.OnRetry(ctx, Attempt{Number: attempt, Delay: delay, Err: err})
		}

		if serr := r.wait(ctx, delay); serr != nil {
			return fmt.Errorf("%w: %w", serr, err)
		}
	}
}

func (r *Retrier) wait(ctx context.Context, d time.Duration) error {
	if r.sleep != nil {
		return r.sleep(ctx, d)
	}
	return sleep(ctx, d)
}

func (r *Retrier) jitterSource() func() float64 {
	if r.random != nil {
		return r.random
	}
	return rand.Float64
}

// Do runs fn under p and returns its result.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	return Run(ctx, New(p), fn)
}

// Run is Do with an explicit Retrier.
func Run[T any](ctx context.Context, r *Retrier, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Result carries the outcome of an asynchronous call.
type Result[T any] struct {
	Value T
	Err   error
}

// DoAsync runs Do on a new goroutine. The returned channel receives exactly
// one Result and is then closed. Cancelling ctx interrupts the backoff.
func DoAsync[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		v, err := Do(ctx, p, fn)
		ch <- Result[T]{Value: v, Err: err}
	}()
	return ch
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
