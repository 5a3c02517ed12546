package catcher

import (
	"context"
	"fmt"

	"github.com/Hochfrequenz/seviper/callback"
	"github.com/Hochfrequenz/seviper/contract"
	"github.com/Hochfrequenz/seviper/logger"
)

var errorParam = contract.Param{Name: "error", Type: "error"}

// Catcher runs a unit of work in a secure context: the outcome is classified
// into a Result and the success, error and finalize observers are invoked in
// a deterministic order, with finalize running on every exit path.
//
// A Catcher is configuration only; it holds no per-execution state and may be
// invoked concurrently from independent executions, provided its callbacks
// hold no per-call mutable injected state.
// Use New to create a Catcher.
type Catcher struct {
	onSuccess  *callback.Callback
	onError    *callback.Callback
	onFinalize *callback.Callback

	defaultValue  any
	suppress      bool
	autoContracts bool
	lg            logger.Logger
}

// Option is a functional option for configuring a Catcher.
type Option func(*Catcher)

// OnSuccess registers the success observer. It is invoked with the produced
// value as leading argument, followed by the original call arguments.
func OnSuccess(cb *callback.Callback) Option {
	return func(c *Catcher) { c.onSuccess = cb }
}

// OnSuccessFunc registers fn as a success observer accepting any arguments.
func OnSuccessFunc(name string, fn callback.Func) Option {
	return OnSuccess(callback.Adhoc(name, fn))
}

// OnError registers the error observer. It is invoked with the raised error
// as leading argument, followed by the original call arguments.
func OnError(cb *callback.Callback) Option {
	return func(c *Catcher) { c.onError = cb }
}

// OnErrorFunc registers fn as an error observer accepting any arguments.
func OnErrorFunc(name string, fn callback.Func) Option {
	return OnError(callback.Adhoc(name, fn))
}

// OnFinalize registers the finalize observer. It is invoked with the original
// call arguments on every exit path.
func OnFinalize(cb *callback.Callback) Option {
	return func(c *Catcher) { c.onFinalize = cb }
}

// OnFinalizeFunc registers fn as a finalize observer accepting any arguments.
func OnFinalizeFunc(name string, fn callback.Func) Option {
	return OnFinalize(callback.Adhoc(name, fn))
}

// WithDefault sets the value carried by Negative results. The default is the
// Errored sentinel.
func WithDefault(v any) Option {
	return func(c *Catcher) { c.defaultValue = v }
}

// WithSuppression controls whether the error observer is skipped for errors
// already handled by another catcher. Enabled by default; this is how nested
// catchers avoid reporting the same failure twice while still letting the
// error propagate upward.
func WithSuppression(enabled bool) Option {
	return func(c *Catcher) { c.suppress = enabled }
}

// WithAutoContracts controls whether observer contracts are auto-derived
// from the unit of work on each execution. Enabled by default; disable it
// when the expected contracts are pinned explicitly on the callbacks.
func WithAutoContracts(enabled bool) Option {
	return func(c *Catcher) { c.autoContracts = enabled }
}

// WithLogger sets the logger. The default is logger.Nop.
func WithLogger(lg logger.Logger) Option {
	return func(c *Catcher) { c.lg = lg }
}

// New creates a Catcher.
func New(opts ...Option) *Catcher {
	c := &Catcher{
		defaultValue:  Errored,
		suppress:      true,
		autoContracts: true,
		lg:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Default returns the value carried by Negative results.
func (c *Catcher) Default() any { return c.defaultValue }

// Suppresses reports whether already-handled errors skip the error observer.
func (c *Catcher) Suppresses() bool { return c.suppress }

// HasObservers reports whether any observer slot is registered.
func (c *Catcher) HasObservers() bool {
	return c.onSuccess != nil || c.onError != nil || c.onFinalize != nil
}

// Run executes the unit of work with the given call and handles its outcome.
//
// If the work completes without error, the success observer is invoked with
// the produced value followed by the original arguments and a Positive
// result is returned. If it fails, the error observer is invoked with the
// raised error followed by the original arguments, unless the error was
// already handled by another catcher and suppression is enabled, and a
// Negative result carrying the configured default value is returned. The
// finalize observer is invoked in both cases, after the other observers.
//
// The returned error is nil only for a clean success: a failing unit of work
// propagates its error (wrapped in the handled-mark carrier), a failing
// observer propagates an *ObserverError, and a failing error-slot dispatch
// combined with a failing finalize dispatch propagates an *AggregateFailure.
func (c *Catcher) Run(ctx context.Context, work *UnitOfWork, call contract.Call) (Result, Summary, error) {
	sum := newSummary()
	base := work.contract

	var value any
	bound, err := base.Bind(call)
	if err == nil {
		value, err = c.attempt(ctx, work, bound)
	}

	if err == nil {
		expected := contract.Derive(base, []contract.Param{{Name: "result", Type: base.Return()}}, "any")

		return c.finishSuccess(value, expected, leadingCall(value, call), base, call, &sum)
	}
	c.lg.Debugw("unit of work failed", "work", work.Name(), "error", err)

	return c.finishError(err, base, call, &sum)
}

// RunScoped executes fn as a scoped block with the same classification,
// dispatch and finalize semantics as Run, except that observers receive no
// call arguments. The success observer must not expect any parameters; a
// configuration error is returned otherwise, before fn runs.
func (c *Catcher) RunScoped(ctx context.Context, fn func(context.Context) error) (Result, Summary, error) {
	if c.onSuccess != nil {
		if declared := c.onSuccess.Declared(); len(declared.Params()) > 0 {
			return Result{}, Summary{}, fmt.Errorf(
				"success observer %q must not expect arguments in a scoped execution: declared %s%s",
				c.onSuccess.Name(), c.onSuccess.Name(), declared)
		}
	}

	sum := newSummary()
	base := contract.Contract{}
	call := contract.Call{}

	err := c.scopedAttempt(ctx, fn)
	if err == nil {
		expected := contract.Derive(base, nil, "any")

		return c.finishSuccess(Unset, expected, call, base, call, &sum)
	}
	c.lg.Debugw("scoped block failed", "error", err)

	return c.finishError(err, base, call, &sum)
}

func (c *Catcher) attempt(ctx context.Context, work *UnitOfWork, args []any) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in unit of work %q: %v", work.Name(), r)
		}
	}()

	return work.handler(ctx, args...)
}

func (c *Catcher) scopedAttempt(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in scoped block: %v", r)
		}
	}()

	return fn(ctx)
}

// finishSuccess dispatches the success observer followed by finalize.
func (c *Catcher) finishSuccess(
	value any, expected contract.Contract, successCall contract.Call,
	base contract.Contract, call contract.Call, sum *Summary,
) (Result, Summary, error) {
	res := Positive(value)

	var dispatchErr error
	if c.onSuccess != nil {
		ret, err := c.dispatch(c.onSuccess, expected, successCall)
		if err != nil {
			sum.Success = SlotOutcome{Status: SlotRaised, Return: Unset}
			dispatchErr = &ObserverError{Slot: SlotSuccess, Callback: c.onSuccess.Name(), Err: err}
		} else {
			sum.Success = SlotOutcome{Status: SlotSucceeded, Return: ret}
		}
	}

	finErr := c.finalizeSlot(base, call, sum)
	switch {
	case dispatchErr != nil && finErr != nil:
		finObs := &ObserverError{Slot: SlotFinalize, Callback: c.onFinalize.Name(), Err: finErr}

		return res, *sum, newAggregateFailure(dispatchErr, finObs)
	case finErr != nil:
		return res, *sum, &ObserverError{Slot: SlotFinalize, Callback: c.onFinalize.Name(), Err: finErr}
	default:
		return res, *sum, dispatchErr
	}
}

// finishError marks the error, dispatches the error observer (unless
// suppressed) followed by finalize, and composes the propagated error.
func (c *Catcher) finishError(
	workErr error, base contract.Contract, call contract.Call, sum *Summary,
) (Result, Summary, error) {
	orig := Original(workErr)
	res := Negative(c.defaultValue, orig)

	handledBefore := isHandled(workErr)
	marked := mark(workErr, c)

	var dispatchErr error
	if c.onError != nil {
		if handledBefore && c.suppress {
			c.lg.Debugw("error already handled by another catcher, skipping error observer",
				"observer", c.onError.Name(), "error", orig)
		} else {
			expected := contract.Derive(base, []contract.Param{errorParam}, "any")
			ret, err := c.dispatch(c.onError, expected, leadingCall(orig, call))
			if err != nil {
				sum.Error = SlotOutcome{Status: SlotRaised, Return: Unset}
				dispatchErr = &ObserverError{Slot: SlotError, Callback: c.onError.Name(), Err: err, Cause: orig}
			} else {
				sum.Error = SlotOutcome{Status: SlotSucceeded, Return: ret}
			}
		}
	}

	finErr := c.finalizeSlot(base, call, sum)
	switch {
	case dispatchErr != nil && finErr != nil:
		finObs := &ObserverError{Slot: SlotFinalize, Callback: c.onFinalize.Name(), Err: finErr, Cause: orig}

		return res, *sum, newAggregateFailure(dispatchErr, finObs)
	case dispatchErr != nil:
		return res, *sum, dispatchErr
	case finErr != nil:
		return res, *sum, &ObserverError{Slot: SlotFinalize, Callback: c.onFinalize.Name(), Err: finErr, Cause: orig}
	default:
		return res, *sum, marked
	}
}

func (c *Catcher) finalizeSlot(base contract.Contract, call contract.Call, sum *Summary) error {
	if c.onFinalize == nil {
		return nil
	}
	ret, err := c.dispatch(c.onFinalize, contract.Derive(base, nil, "any"), call)
	if err != nil {
		sum.Finalize = SlotOutcome{Status: SlotRaised, Return: Unset}

		return err
	}
	sum.Finalize = SlotOutcome{Status: SlotSucceeded, Return: ret}

	return nil
}

// dispatch invokes cb with the expected contract auto-set for this execution
// unless auto-derivation is disabled. The callback itself is never mutated,
// so concurrent executions of one Catcher do not race.
func (c *Catcher) dispatch(cb *callback.Callback, expected contract.Contract, call contract.Call) (any, error) {
	if c.autoContracts {
		cb = cb.WithExpected(expected)
	}

	return cb.Invoke(call)
}

func leadingCall(lead any, call contract.Call) contract.Call {
	args := make([]any, 0, len(call.Args)+1)
	args = append(args, lead)
	args = append(args, call.Args...)

	return contract.Call{Args: args, KwArgs: call.KwArgs}
}
