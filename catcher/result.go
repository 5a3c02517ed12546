package catcher

import (
	"time"

	"github.com/google/uuid"
)

// Sentinel is a distinguished marker value meaning "value intentionally
// absent", distinct from any valid result value including nil.
type Sentinel struct {
	name string
}

// String returns the sentinel name.
func (s *Sentinel) String() string { return s.name }

var (
	// Errored marks the value slot of a Negative result when no
	// default-on-error was configured.
	Errored = &Sentinel{name: "ERRORED"}
	// Unset marks a value that was never produced, e.g. the return value of
	// an observer slot that did not run.
	Unset = &Sentinel{name: "UNSET"}
)

// Result is the two-variant outcome of a secured execution: Positive carries
// the produced value, Negative carries the raised error plus the catcher's
// configured default value.
type Result struct {
	positive bool
	value    any
	err      error
}

// Positive creates a successful Result carrying the produced value.
func Positive(value any) Result {
	return Result{positive: true, value: value}
}

// Negative creates a failed Result carrying the default value and the error.
func Negative(value any, err error) Result {
	return Result{value: value, err: err}
}

// IsPositive reports whether the execution succeeded.
func (r Result) IsPositive() bool { return r.positive }

// Value returns the produced value, or the configured default-on-error for
// a Negative result.
func (r Result) Value() any { return r.value }

// Err returns the error raised by the unit of work, identity-preserved.
// It is nil for a Positive result.
func (r Result) Err() error { return r.err }

// SlotStatus describes how a single observer slot fared during one execution.
type SlotStatus string

const (
	// SlotSucceeded means the observer ran and returned normally.
	SlotSucceeded SlotStatus = "succeeded"
	// SlotRaised means the observer ran and failed.
	SlotRaised SlotStatus = "raised"
	// SlotSkipped means the observer was not invoked, either because none is
	// registered or because suppression applied.
	SlotSkipped SlotStatus = "skipped"
)

// SlotOutcome records the status and observed return value of one observer
// slot. Return is Unset unless the slot ran and returned normally.
type SlotOutcome struct {
	Status SlotStatus
	Return any
}

// Summary reports, per observer slot, whether it ran, succeeded or was
// skipped during one execution. Produced once per execution; immutable.
type Summary struct {
	ID        string
	Timestamp time.Time

	Success  SlotOutcome
	Error    SlotOutcome
	Finalize SlotOutcome
}

func newSummary() Summary {
	skipped := SlotOutcome{Status: SlotSkipped, Return: Unset}

	return Summary{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Success:   skipped,
		Error:     skipped,
		Finalize:  skipped,
	}
}
