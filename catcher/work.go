package catcher

import (
	"context"

	"github.com/Masterminds/semver/v3"

	"github.com/Hochfrequenz/seviper/contract"
)

// Handler is the function signature of a unit of work. It receives the bound
// arguments in the declared parameter order of the work's contract.
type Handler func(ctx context.Context, args ...any) (any, error)

// Definition is the metadata for a unit of work.
// It contains the name, version and description.
type Definition struct {
	Name        string          `json:"name"`
	Version     *semver.Version `json:"version"`
	Description string          `json:"description"`
}

// UnitOfWork is the operation being secured: a handler together with its
// declared contract, which is the sole source of auto-derived observer
// contracts. Use NewUnitOfWork to create one.
type UnitOfWork struct {
	def      Definition
	contract contract.Contract
	handler  Handler
}

// NewUnitOfWork creates a new unit of work.
// Version can be created using semver.MustParse("1.0.0").
func NewUnitOfWork(
	name string, version *semver.Version, description string, c contract.Contract, handler Handler,
) *UnitOfWork {
	return &UnitOfWork{
		def: Definition{
			Name:        name,
			Version:     version,
			Description: description,
		},
		contract: c,
		handler:  handler,
	}
}

// Name returns the unit's name.
func (w *UnitOfWork) Name() string { return w.def.Name }

// Version returns the unit's semver version in string form.
func (w *UnitOfWork) Version() string { return w.def.Version.String() }

// Description returns the unit's description.
func (w *UnitOfWork) Description() string { return w.def.Description }

// Def returns the unit's definition.
func (w *UnitOfWork) Def() Definition { return w.def }

// Contract returns the unit's declared contract.
func (w *UnitOfWork) Contract() contract.Contract { return w.contract }
