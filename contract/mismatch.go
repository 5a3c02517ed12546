package contract

import "fmt"

// ArgumentMismatchError reports that an invocation does not satisfy a
// declared contract. When raised through a callback it names the callback
// and carries both the declared and the expected signature renderings.
type ArgumentMismatchError struct {
	// Callback is the name of the callback whose invocation failed.
	// Empty when the error comes from a bare Contract.Bind.
	Callback string
	// Actual is the signature the callback was declared with.
	Actual string
	// Expected is the signature the call was assembled against.
	Expected string
	// Detail names the specific mismatch.
	Detail string

	cause error
}

// Error returns a single-sentence description of the mismatch. The raw bind
// failure is deliberately not part of the headline message; it remains
// reachable via Unwrap as secondary context.
func (e *ArgumentMismatchError) Error() string {
	if e.Callback == "" {
		return fmt.Sprintf("arguments do not match contract %s: %s", e.Expected, e.Detail)
	}

	return fmt.Sprintf(
		"arguments do not match signature of callback %q: declared %s%s, must match signature %s%s: %s",
		e.Callback, e.Callback, e.Actual, e.Callback, e.Expected, e.Detail)
}

// Unwrap returns the underlying bind failure, if any.
func (e *ArgumentMismatchError) Unwrap() error { return e.cause }

// WithCallback returns a copy of the error attributed to the named callback,
// carrying its declared and expected signatures and keeping the original
// bind failure as secondary context.
func (e *ArgumentMismatchError) WithCallback(name, actual, expected string) *ArgumentMismatchError {
	return &ArgumentMismatchError{
		Callback: name,
		Actual:   actual,
		Expected: expected,
		Detail:   e.Detail,
		cause:    e,
	}
}
