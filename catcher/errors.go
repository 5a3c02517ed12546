package catcher

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

// Slot identifies one of the three observer slots of a Catcher.
type Slot string

const (
	SlotSuccess  Slot = "success"
	SlotError    Slot = "error"
	SlotFinalize Slot = "finalize"
)

// UnitOfWorkError wraps an error raised by a secured unit of work and records
// the ordered list of catchers that have already dispatched it. The mark is
// append-only and never changes the error's identity or message; it exists
// solely so that nested catchers can avoid reporting the same failure twice.
type UnitOfWorkError struct {
	mu        sync.Mutex
	err       error
	handledBy []*Catcher
}

// Error delegates to the wrapped error unchanged.
func (e *UnitOfWorkError) Error() string { return e.err.Error() }

// Unwrap returns the original error, preserving identity comparisons via
// errors.Is and errors.As.
func (e *UnitOfWorkError) Unwrap() error { return e.err }

// HandledBy returns the ordered list of catchers that have dispatched this
// error.
func (e *UnitOfWorkError) HandledBy() []*Catcher {
	e.mu.Lock()
	defer e.mu.Unlock()

	handlers := make([]*Catcher, len(e.handledBy))
	copy(handlers, e.handledBy)

	return handlers
}

func (e *UnitOfWorkError) append(c *Catcher) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.handledBy = append(e.handledBy, c)
}

// mark appends c to the error's handled-mark, wrapping err in a
// *UnitOfWorkError carrier first if it does not carry one yet. It returns
// the error value to propagate.
func mark(err error, c *Catcher) error {
	var carrier *UnitOfWorkError
	if errors.As(err, &carrier) {
		carrier.append(c)

		return err
	}
	carrier = &UnitOfWorkError{err: err}
	carrier.append(c)

	return carrier
}

// isHandled reports whether err carries a handled-mark anywhere in its chain.
func isHandled(err error) bool {
	var carrier *UnitOfWorkError

	return errors.As(err, &carrier)
}

// Handlers returns the catchers recorded on err's handled-mark, or nil if
// err is unmarked.
func Handlers(err error) []*Catcher {
	var carrier *UnitOfWorkError
	if !errors.As(err, &carrier) {
		return nil
	}

	return carrier.HandledBy()
}

// Original strips a top-level handled-mark carrier from err, returning the
// error as raised by the unit of work. Errors that merely wrap a marked
// error deeper in their chain are returned as-is.
func Original(err error) error {
	if carrier, ok := err.(*UnitOfWorkError); ok {
		return carrier.err
	}

	return err
}

// ObserverError reports that an observer itself failed during dispatch. The
// triggering unit-of-work error, if any, stays reachable via the cause chain.
type ObserverError struct {
	// Slot is the observer slot that failed.
	Slot Slot
	// Callback is the name of the failing observer.
	Callback string
	// Err is the error the observer raised.
	Err error
	// Cause is the unit-of-work error that was being handled, or nil.
	Cause error
}

// Error identifies the failing slot and observer in a single sentence.
func (e *ObserverError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s observer %q failed: %v", e.Slot, e.Callback, e.Err)
	}

	return fmt.Sprintf("%s observer %q failed while handling %q: %v", e.Slot, e.Callback, e.Cause, e.Err)
}

// Unwrap keeps both the observer's own error and the triggering
// unit-of-work error reachable.
func (e *ObserverError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}

	return []error{e.Err, e.Cause}
}

// AggregateFailure surfaces two dispatch failures from the same execution
// together, typically an error-slot failure plus a finalize-slot failure.
// Neither overwrites the other.
type AggregateFailure struct {
	Failures []error

	combined error
}

func newAggregateFailure(failures ...error) *AggregateFailure {
	return &AggregateFailure{Failures: failures, combined: multierr.Combine(failures...)}
}

// Error renders all contained failures.
func (e *AggregateFailure) Error() string {
	return fmt.Sprintf("multiple dispatch failures: %v", e.combined)
}

// Unwrap returns all contained failures.
func (e *AggregateFailure) Unwrap() []error { return e.Failures }

// TooManyRetriesError is returned by a Retrier when all allowed attempts
// have been exhausted. Attempts carries the final attempt count.
type TooManyRetriesError struct {
	// Name is the name of the retried unit of work.
	Name string
	// Attempts is the number of attempts that were made.
	Attempts int
	// Err is the error of the last failing attempt.
	Err error
}

// Error identifies the exhausted unit of work and the attempt count.
func (e *TooManyRetriesError) Error() string {
	return fmt.Sprintf("too many retries (%d) for %q", e.Attempts, e.Name)
}

// Unwrap returns the last attempt's error.
func (e *TooManyRetriesError) Unwrap() error { return e.Err }

// RetryAbortedError is returned by a Retrier when the decision callback
// declined a further attempt. Attempt carries the zero-based index of the
// attempt at which retrying was aborted.
type RetryAbortedError struct {
	// Name is the name of the retried unit of work.
	Name string
	// Attempt is the zero-based attempt index at which retrying stopped.
	Attempt int
	// Err is the error of the aborted attempt.
	Err error
}

// Error identifies the aborted unit of work and the attempt index.
func (e *RetryAbortedError) Error() string {
	return fmt.Sprintf("retry of %q aborted at attempt %d: %v", e.Name, e.Attempt, e.Err)
}

// Unwrap returns the aborted attempt's error.
func (e *RetryAbortedError) Unwrap() error { return e.Err }
