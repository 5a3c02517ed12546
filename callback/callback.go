// Package callback binds user-supplied observer functions to the contract
// they are expected to satisfy. Injection of parameters not known until call
// time is supported both by mutating a callback at setup time and by deriving
// per-call copies, the latter being the safe choice under concurrency.
package callback

import (
	"errors"
	"sort"

	"github.com/Hochfrequenz/seviper/contract"
)

// Func is the shape of a wrapped observer function. It receives the flattened
// argument list in declared parameter order.
type Func func(args ...any) (any, error)

// Callback wraps an observer function together with its declared contract
// and the contract its invocations are assembled against. The wrapped
// function is referenced, not owned; the injection maps are owned
// exclusively by the callback.
type Callback struct {
	name     string
	fn       Func
	declared contract.Contract
	expected contract.Contract

	injectPos   map[int]any
	injectNamed map[string]any
}

// New creates a Callback with an explicitly declared contract. The expected
// contract starts out equal to the declared one until changed by
// SetExpected or WithExpected.
func New(name string, fn Func, declared contract.Contract) *Callback {
	return &Callback{name: name, fn: fn, declared: declared, expected: declared}
}

// Adhoc creates a Callback that accepts any positional arguments. Use this
// for observers whose shape should not be validated strictly.
func Adhoc(name string, fn Func) *Callback {
	return New(name, fn, contract.AnyArgs())
}

// BindFrom creates a Callback whose contract is derived from source by
// prepending the given leading parameters, optionally overriding the return
// type (empty ret inherits). Typically source is the contract of the unit of
// work being secured.
func BindFrom(name string, fn Func, source contract.Contract, leading []contract.Param, ret string) *Callback {
	derived := contract.Derive(source, leading, ret)

	return &Callback{name: name, fn: fn, declared: derived, expected: derived}
}

// Name returns the callback name used in mismatch messages.
func (c *Callback) Name() string { return c.name }

// Declared returns the contract the callback was declared with.
func (c *Callback) Declared() contract.Contract { return c.declared }

// Expected returns the contract invocations are assembled against.
func (c *Callback) Expected() contract.Contract { return c.expected }

// SetExpected replaces the expected contract. This is the controlled
// deferred-mutation step performed at setup time; concurrent executions must
// use WithExpected instead.
func (c *Callback) SetExpected(expected contract.Contract) {
	c.expected = expected
}

// WithExpected returns a copy of the callback with the given expected
// contract, leaving the receiver untouched.
func (c *Callback) WithExpected(expected contract.Contract) *Callback {
	cp := c.clone()
	cp.expected = expected

	return cp
}

// InjectParameters records values to be spliced into every future invocation
// at the given positional index or name. Repeated calls merge; the last
// write per key wins. Injected values participate in contract validation
// only at call time.
func (c *Callback) InjectParameters(pos map[int]any, named map[string]any) {
	if c.injectPos == nil {
		c.injectPos = make(map[int]any, len(pos))
	}
	for i, v := range pos {
		c.injectPos[i] = v
	}
	if c.injectNamed == nil {
		c.injectNamed = make(map[string]any, len(named))
	}
	for k, v := range named {
		c.injectNamed[k] = v
	}
}

// WithInjected returns a copy of the callback with the given injections
// merged in, leaving the receiver untouched. This is the race-free way to
// thread attempt-scoped values into a shared callback configuration.
func (c *Callback) WithInjected(pos map[int]any, named map[string]any) *Callback {
	cp := c.clone()
	cp.InjectParameters(pos, named)

	return cp
}

// Invoke splices the injected values into the supplied call, validates the
// assembled call against the declared contract and forwards it to the
// wrapped function. Positional injections are inserted at their index,
// shifting later positional arguments right; named injections overwrite
// same-named keyword arguments. On validation failure it returns an
// *contract.ArgumentMismatchError naming the callback and both the declared
// and the expected signature.
func (c *Callback) Invoke(call contract.Call) (any, error) {
	call = c.splice(call)

	flat, err := c.declared.Bind(call)
	if err != nil {
		var mismatch *contract.ArgumentMismatchError
		if errors.As(err, &mismatch) {
			return nil, mismatch.WithCallback(c.name, c.declared.String(), c.expected.String())
		}

		return nil, err
	}

	return c.fn(flat...)
}

func (c *Callback) splice(call contract.Call) contract.Call {
	if len(c.injectPos) == 0 && len(c.injectNamed) == 0 {
		return call
	}

	args := make([]any, len(call.Args))
	copy(args, call.Args)

	indices := make([]int, 0, len(c.injectPos))
	for i := range c.injectPos {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	for _, i := range indices {
		v := c.injectPos[i]
		switch {
		case i >= len(args):
			args = append(args, v)
		default:
			args = append(args[:i], append([]any{v}, args[i:]...)...)
		}
	}

	kwargs := call.KwArgs
	if len(c.injectNamed) > 0 {
		kwargs = make(map[string]any, len(call.KwArgs)+len(c.injectNamed))
		for k, v := range call.KwArgs {
			kwargs[k] = v
		}
		for k, v := range c.injectNamed {
			kwargs[k] = v
		}
	}

	return contract.Call{Args: args, KwArgs: kwargs}
}

func (c *Callback) clone() *Callback {
	cp := &Callback{name: c.name, fn: c.fn, declared: c.declared, expected: c.expected}
	if len(c.injectPos) > 0 {
		cp.injectPos = make(map[int]any, len(c.injectPos))
		for i, v := range c.injectPos {
			cp.injectPos[i] = v
		}
	}
	if len(c.injectNamed) > 0 {
		cp.injectNamed = make(map[string]any, len(c.injectNamed))
		for k, v := range c.injectNamed {
			cp.injectNamed[k] = v
		}
	}

	return cp
}
