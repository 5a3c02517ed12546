// Package contract describes the expected call shape of units of work and
// observer callbacks. A Contract is declared once at registration time and
// checked structurally on every invocation; no runtime reflection is involved.
package contract

import (
	"fmt"
	"sort"
	"strings"
)

// Param is a single named parameter of a Contract.
// Type is a free-form description used in signature renderings only;
// values are never checked against it.
type Param struct {
	Name string
	Type string
}

// Contract is an ordered list of named parameters plus a return type.
// Parameter names are unique within one contract.
// Use New to create a Contract.
type Contract struct {
	params   []Param
	variadic bool
	ret      string
}

// New creates a Contract with the given return type and parameters.
// It returns an error if two parameters share a name.
func New(ret string, params ...Param) (Contract, error) {
	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		if _, ok := seen[p.Name]; ok {
			return Contract{}, fmt.Errorf("duplicate parameter name %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}

	return Contract{params: params, ret: ret}, nil
}

// MustNew is like New but panics on invalid parameters.
// Intended for contracts declared as package-level values.
func MustNew(ret string, params ...Param) Contract {
	c, err := New(ret, params...)
	if err != nil {
		panic(err)
	}

	return c
}

// AnyArgs returns a variadic Contract that accepts any positional arguments.
// Keyword arguments are still rejected since a variadic contract declares no
// names to assign them to.
func AnyArgs() Contract {
	return Contract{variadic: true}
}

// Derive builds a Contract from an existing one by prepending the given
// leading parameters. The return type is inherited from base unless ret is
// non-empty. Used to derive observer contracts from a unit of work, e.g.
// "whatever the unit expects, plus a leading error parameter".
func Derive(base Contract, leading []Param, ret string) Contract {
	params := make([]Param, 0, len(leading)+len(base.params))
	params = append(params, leading...)
	params = append(params, base.params...)
	if ret == "" {
		ret = base.ret
	}

	return Contract{params: params, variadic: base.variadic, ret: ret}
}

// Params returns a copy of the declared parameters.
func (c Contract) Params() []Param {
	params := make([]Param, len(c.params))
	copy(params, c.params)

	return params
}

// Return returns the declared return type.
func (c Contract) Return() string { return c.ret }

// IsVariadic reports whether the contract accepts extra positional arguments
// beyond the declared parameters.
func (c Contract) IsVariadic() bool { return c.variadic }

// String renders the contract as a signature, e.g. "(error error, hello) -> any".
func (c Contract) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range c.params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		if p.Type != "" {
			sb.WriteByte(' ')
			sb.WriteString(p.Type)
		}
	}
	if c.variadic {
		if len(c.params) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("...")
	}
	sb.WriteByte(')')
	if c.ret != "" {
		sb.WriteString(" -> ")
		sb.WriteString(c.ret)
	}

	return sb.String()
}

// Call is an assembled invocation: positional arguments plus keyword arguments.
type Call struct {
	Args   []any
	KwArgs map[string]any
}

// Bind assigns the given call to the contract's parameters and returns the
// flattened argument list in declared order (variadic extras appended last).
// It fails with an *ArgumentMismatchError when required parameters are
// missing, unexpected arguments are present, or a keyword argument collides
// with a positional one. Bind validates arity and names only, never the
// values themselves.
func (c Contract) Bind(call Call) ([]any, error) {
	n := len(c.params)
	if len(call.Args) > n && !c.variadic {
		return nil, c.mismatch(fmt.Sprintf(
			"too many positional arguments (got %d, expected %d)", len(call.Args), n))
	}

	filled := make([]any, n)
	have := make([]bool, n)
	for i, arg := range call.Args {
		if i >= n {
			break
		}
		filled[i] = arg
		have[i] = true
	}

	// Sorted for deterministic error reporting.
	names := make([]string, 0, len(call.KwArgs))
	for name := range call.KwArgs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		idx := c.indexOf(name)
		if idx < 0 {
			return nil, c.mismatch(fmt.Sprintf("unexpected keyword argument %q", name))
		}
		if have[idx] {
			return nil, c.mismatch(fmt.Sprintf("got multiple values for argument %q", name))
		}
		filled[idx] = call.KwArgs[name]
		have[idx] = true
	}

	for i, ok := range have {
		if !ok {
			return nil, c.mismatch(fmt.Sprintf("missing required argument %q", c.params[i].Name))
		}
	}

	if c.variadic && len(call.Args) > n {
		filled = append(filled, call.Args[n:]...)
	}

	return filled, nil
}

func (c Contract) indexOf(name string) int {
	for i, p := range c.params {
		if p.Name == name {
			return i
		}
	}

	return -1
}

func (c Contract) mismatch(detail string) *ArgumentMismatchError {
	return &ArgumentMismatchError{Expected: c.String(), Detail: detail}
}
