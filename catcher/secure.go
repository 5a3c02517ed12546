package catcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hochfrequenz/seviper/contract"
)

// Secured is a unit of work composed with the Catcher securing it. It
// replaces transparent decorator-style wrapping with explicit composition:
// the owning Catcher and the original callable stay reachable via accessors
// so that integrations can detect an already-secured callable instead of
// re-wrapping it.
// Use Secure to create a Secured.
type Secured struct {
	catcher *Catcher
	work    *UnitOfWork
}

// Secure composes work with c into a securely callable value.
func Secure(work *UnitOfWork, c *Catcher) *Secured {
	return &Secured{catcher: c, work: work}
}

// Call runs the unit of work through the owning Catcher with the given
// positional arguments. It returns the produced value on success and the
// Catcher's default value (the Errored sentinel unless configured) on
// failure, alongside the error propagated by the Catcher.
func (s *Secured) Call(ctx context.Context, args ...any) (any, error) {
	res, _, err := s.catcher.Run(ctx, s.work, contract.Call{Args: args})

	return res.Value(), err
}

// CallWith is like Call but accepts keyword arguments as well.
func (s *Secured) CallWith(ctx context.Context, call contract.Call) (any, error) {
	res, _, err := s.catcher.Run(ctx, s.work, call)

	return res.Value(), err
}

// Catcher returns the owning Catcher.
func (s *Secured) Catcher() *Catcher { return s.catcher }

// Original returns the original, un-secured unit of work.
func (s *Secured) Original() *UnitOfWork { return s.work }

// Def returns the definition of the secured unit of work.
func (s *Secured) Def() Definition { return s.work.Def() }

// ErrAlreadySecured is returned by CheckRewrap when a secured callable would
// be wrapped a second time without the explicit opt-in.
var ErrAlreadySecured = errors.New("unit of work is already secured")

// RewrapRequest describes what an integration intends to do with an
// already-secured callable.
type RewrapRequest struct {
	// WrapAgain is the explicit opt-in to wrap the secured callable with
	// another catcher regardless of its existing configuration.
	WrapAgain bool
	// ConfiguresObservers indicates the integration wants to register its
	// own success/error/finalize observers.
	ConfiguresObservers bool
	// DisablesSuppression indicates the integration wants duplicate-handling
	// suppression turned off.
	DisablesSuppression bool
}

// CheckRewrap decides whether an integration may reuse s as-is. It rejects
// reuse when the existing Catcher's default-on-error is not the Errored
// sentinel (the integration could not tell failures apart from values), and
// rejects re-registering observers or changing suppression without the
// explicit WrapAgain opt-in.
func (s *Secured) CheckRewrap(req RewrapRequest) error {
	if req.WrapAgain {
		return nil
	}
	if s.catcher.Default() != Errored {
		return fmt.Errorf("%w but does not return the ERRORED sentinel on failure; "+
			"set WrapAgain to wrap it with another catcher: %q", ErrAlreadySecured, s.work.Name())
	}
	if req.ConfiguresObservers || req.DisablesSuppression {
		return fmt.Errorf("%w; observers and suppression settings would be ignored, "+
			"set WrapAgain to wrap it with another catcher: %q", ErrAlreadySecured, s.work.Name())
	}

	return nil
}
