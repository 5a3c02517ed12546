/*
Package catcher provides secured execution of units of work: success, failure
and completion are each routed to exactly one registered observer, nested
catchers avoid duplicate handling of the same error, and failed work can be
retried with backoff under a caller-controlled stop condition.

# Core Components

Catcher:
  - Runs one unit of work and classifies the outcome into a Result
  - Dispatches the success, error and finalize observers in a fixed order,
    with finalize running on every exit path
  - Owns the suppression policy for errors already handled by nested catchers

UnitOfWork:
  - A handler together with its declared contract and versioned definition
  - The declared contract is the sole source of auto-derived observer contracts

Secured:
  - Explicit composition of a unit of work with its owning Catcher
  - Exposes the Catcher and the original callable so integrations can detect
    already-secured callables instead of re-wrapping them

Registry:
  - Stores secured units of work and retrieves them by definition

Retrier:
  - Bounded retry loop over per-attempt Catcher executions
  - A decision callback returning a bool controls whether to back off and
    try again; overall observers receive the final attempt count

# Execution Model

A Catcher execution is attempt, classify, dispatch success or error, dispatch
finalize. Both a direct call form (Run) and a scoped block form (RunScoped)
are provided; their dispatch ordering is identical. Dispatch within one
execution never interleaves with other work of the same goroutine, and a
Catcher may be shared across concurrent executions as long as its callbacks
carry no per-call injected state; the Retrier threads attempt-scoped values
through per-call callback copies for this reason.

# Basic Usage

	work := catcher.NewUnitOfWork("fetch", semver.MustParse("1.0.0"), "fetches a record",
		contract.MustNew("string", contract.Param{Name: "id"}),
		func(ctx context.Context, args ...any) (any, error) {
			return fetch(ctx, args[0].(string))
		})

	c := catcher.New(
		catcher.OnErrorFunc("log_error", logError),
		catcher.OnFinalizeFunc("release", release),
	)
	result, summary, err := c.Run(ctx, work, contract.Call{Args: []any{"r-1"}})
*/
package catcher
