package catcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/Hochfrequenz/seviper/callback"
	"github.com/Hochfrequenz/seviper/contract"
	"github.com/Hochfrequenz/seviper/logger"
)

var retriesParam = contract.Param{Name: "retries", Type: "int"}

// DefaultBackoff waits 1.71^attempt seconds. With the default 10 attempts
// the whole retry sequence may wait up to roughly 5 minutes.
func DefaultBackoff(attempt int) time.Duration {
	return time.Duration(math.Pow(1.71, float64(attempt)) * float64(time.Second))
}

// Retrier retries a unit of work on error. Each attempt runs through an
// inner Catcher whose error observer is the decision callback; its boolean
// return value decides whether to back off and try again. The whole retry
// sequence runs through an outer Catcher dispatching the overall
// success/fail/finalize observers, each receiving the final attempt count as
// leading parameter.
//
// The decision callback is consulted on every failing attempt, including the
// last allowed one; returning true only authorizes waiting and trying again
// if attempts remain.
//
// The backoff wait blocks the calling goroutine. It respects cancellation of
// the context passed to Do; a cancelled wait propagates the context error
// through the outer finalize dispatch like any other failure.
// Use NewRetrier to create a Retrier.
type Retrier struct {
	decision    *callback.Callback
	backoff     func(attempt int) time.Duration
	maxAttempts int

	onSuccess  *callback.Callback
	onFail     *callback.Callback
	onFinalize *callback.Callback

	lg logger.Logger
}

// RetryOption is a functional option for configuring a Retrier.
type RetryOption func(*Retrier)

// WithBackoff sets the function returning the wait duration before the next
// attempt. The default is DefaultBackoff.
func WithBackoff(backoff func(attempt int) time.Duration) RetryOption {
	return func(r *Retrier) { r.backoff = backoff }
}

// WithMaxAttempts sets the maximum attempt count. Values below 1 are
// ignored. The default is 10.
func WithMaxAttempts(n int) RetryOption {
	return func(r *Retrier) {
		if n >= 1 {
			r.maxAttempts = n
		}
	}
}

// RetryOnSuccess registers the overall success observer, invoked with
// (value, retries, original arguments...).
func RetryOnSuccess(cb *callback.Callback) RetryOption {
	return func(r *Retrier) { r.onSuccess = cb }
}

// RetryOnFail registers the overall fail observer, invoked with
// (error, retries, original arguments...).
func RetryOnFail(cb *callback.Callback) RetryOption {
	return func(r *Retrier) { r.onFail = cb }
}

// RetryOnFinalize registers the overall finalize observer, invoked with
// (retries, original arguments...) after success and fail observers alike.
func RetryOnFinalize(cb *callback.Callback) RetryOption {
	return func(r *Retrier) { r.onFinalize = cb }
}

// WithRetryLogger sets the logger. The default is logger.Nop.
func WithRetryLogger(lg logger.Logger) RetryOption {
	return func(r *Retrier) { r.lg = lg }
}

// NewRetrier creates a Retrier with the given decision callback. The
// decision callback is invoked with (error, retries, original arguments...)
// on every failing attempt and must return a bool: true to retry, false to
// abort.
func NewRetrier(decision *callback.Callback, opts ...RetryOption) *Retrier {
	r := &Retrier{
		decision:    decision,
		backoff:     DefaultBackoff,
		maxAttempts: 10,
		lg:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Do executes the unit of work with bounded retries and returns the produced
// value and the final attempt count. On success the count is the zero-based
// index of the successful attempt; on exhaustion it equals the configured
// maximum and the error is a *TooManyRetriesError; on a declined retry it is
// the index at which the decision callback returned false and the error is a
// *RetryAbortedError.
func (r *Retrier) Do(ctx context.Context, work *UnitOfWork, call contract.Call) (any, int, error) {
	base := work.Contract()

	// Per-call observer copies: the attempt count is known only once the
	// loop finishes, so it is injected into copies owned by this Do call,
	// never into the shared configuration.
	var onSuccess, onFail, onFinalize *callback.Callback
	if r.onSuccess != nil {
		onSuccess = r.onSuccess.WithExpected(contract.Derive(
			base, []contract.Param{{Name: "result", Type: base.Return()}, retriesParam}, "any"))
	}
	if r.onFail != nil {
		onFail = r.onFail.WithExpected(contract.Derive(base, []contract.Param{errorParam, retriesParam}, "any"))
	}
	if r.onFinalize != nil {
		onFinalize = r.onFinalize.WithExpected(contract.Derive(base, []contract.Param{retriesParam}, "any"))
	}

	attempts := 0
	loop := func(ctx context.Context, _ ...any) (any, error) {
		value, count, err := r.runLoop(ctx, work, call)
		attempts = count
		if onSuccess != nil {
			onSuccess.InjectParameters(map[int]any{1: count}, nil)
		}
		if onFail != nil {
			onFail.InjectParameters(map[int]any{1: count}, nil)
		}
		if onFinalize != nil {
			onFinalize.InjectParameters(map[int]any{0: count}, nil)
		}

		return value, err
	}

	opts := []Option{WithSuppression(false), WithAutoContracts(false), WithLogger(r.lg)}
	if onSuccess != nil {
		opts = append(opts, OnSuccess(onSuccess))
	}
	if onFail != nil {
		opts = append(opts, OnError(onFail))
	}
	if onFinalize != nil {
		opts = append(opts, OnFinalize(onFinalize))
	}
	outer := New(opts...)
	outerWork := NewUnitOfWork(work.Name(), work.def.Version, work.Description(), base, loop)

	res, _, err := outer.Run(ctx, outerWork, call)

	return res.Value(), attempts, err
}

// runLoop performs the bounded attempt loop. Each attempt runs through a
// fresh inner Catcher so that the attempt index reaches the decision
// callback through an injected copy instead of shared mutable state.
func (r *Retrier) runLoop(ctx context.Context, work *UnitOfWork, call contract.Call) (any, int, error) {
	decisionExpected := contract.Derive(work.Contract(), []contract.Param{errorParam, retriesParam}, "bool")

	var value any
	attempt := 0
	err := retry.Do(
		func() error {
			idx := attempt
			decision := r.decision.
				WithExpected(decisionExpected).
				WithInjected(map[int]any{1: idx}, nil)
			inner := New(
				OnError(decision),
				WithSuppression(false),
				WithAutoContracts(false),
				WithLogger(r.lg),
			)

			res, sum, runErr := inner.Run(ctx, work, call)
			if res.IsPositive() {
				value = res.Value()

				return nil
			}
			if sum.Error.Status == SlotRaised {
				// The decision callback itself failed; never swallowed.
				return retry.Unrecoverable(runErr)
			}
			shouldRetry, ok := sum.Error.Return.(bool)
			if !ok {
				return retry.Unrecoverable(&ObserverError{
					Slot:     SlotError,
					Callback: r.decision.Name(),
					Err:      fmt.Errorf("decision callback must return a bool, got %T", sum.Error.Return),
					Cause:    res.Err(),
				})
			}
			if !shouldRetry {
				return retry.Unrecoverable(&RetryAbortedError{Name: work.Name(), Attempt: idx, Err: res.Err()})
			}

			return runErr
		},
		retry.Attempts(uint(r.maxAttempts)),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return r.backoff(int(n))
		}),
		retry.OnRetry(func(n uint, err error) {
			attempt = int(n) + 1
			r.lg.Infow("unit of work failed, retrying",
				"work", work.Name(), "attempt", n, "error", err)
		}),
	)
	if err == nil {
		return value, attempt, nil
	}

	var aborted *RetryAbortedError
	if errors.As(err, &aborted) {
		return nil, aborted.Attempt, err
	}
	var observerErr *ObserverError
	if errors.As(err, &observerErr) {
		return nil, attempt, err
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// Cancelled while waiting; no retry-count metadata is attached.
		return nil, attempt, err
	}

	return nil, r.maxAttempts, &TooManyRetriesError{Name: work.Name(), Attempts: r.maxAttempts, Err: err}
}
