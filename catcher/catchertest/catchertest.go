// Package catchertest provides utilities for testing code built on the
// catcher package.
package catchertest

import (
	"sync"
	"testing"

	"github.com/Hochfrequenz/seviper/callback"
)

// Recorder records every invocation of its callback. It is safe for
// concurrent use.
type Recorder struct {
	mu    sync.Mutex
	calls [][]any
}

// NewRecorder creates a new Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Func returns a callback function that records its arguments and returns
// ret.
func (r *Recorder) Func(ret any) callback.Func {
	return func(args ...any) (any, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, args)

		return ret, nil
	}
}

// Calls returns a copy of all recorded invocations in order.
func (r *Recorder) Calls() [][]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := make([][]any, len(r.calls))
	copy(calls, r.calls)

	return calls
}

// Len returns the number of recorded invocations.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.calls)
}

// NotCalled returns a callback function that fails the test when invoked.
func NotCalled(tb testing.TB, name string) callback.Func {
	return func(args ...any) (any, error) {
		tb.Helper()
		tb.Errorf("callback %q must not be called, got args %v", name, args)

		return nil, nil
	}
}

// FailWith returns a callback function that always returns err.
func FailWith(err error) callback.Func {
	return func(...any) (any, error) {
		return nil, err
	}
}
