package catalog

import (
	"strings"

	"github.com/erp/costing/internal/domain/shared"
)

// Unit is a unit of measure such as "piece" or "kg"
type Unit struct {
	shared.BaseEntity
	Name   string
	Symbol string
	IsBase bool
}

// NewUnit creates a new unit of measure
func NewUnit(name, symbol string, isBase bool) (*Unit, error) {
	name, symbol, err := validateUnitLabels(name, symbol)
	if err != nil {
		return nil, err
	}
	return &Unit{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Symbol:     symbol,
		IsBase:     isBase,
	}, nil
}

// Rename changes the unit labels. A unit that a packaging already refers to
// is frozen, since existing batch quantities were recorded against it.
func (u *Unit) Rename(name, symbol string, referenced bool) error {
	if referenced {
		return shared.NewValidationError(shared.CodeUnitInUse, "unit %s is referenced by a packaging and cannot be changed", u.Symbol)
	}
	name, symbol, err := validateUnitLabels(name, symbol)
	if err != nil {
		return err
	}
	u.Name = name
	u.Symbol = symbol
	u.Touch()
	return nil
}

func validateUnitLabels(name, symbol string) (string, string, error) {
	name = strings.TrimSpace(name)
	symbol = strings.TrimSpace(symbol)
	if name == "" || len(name) > 50 {
		return "", "", shared.NewValidationError(shared.CodeValidation, "unit name must be 1-50 characters")
	}
	if symbol == "" || len(symbol) > 20 {
		return "", "", shared.NewValidationError(shared.CodeValidation, "unit symbol must be 1-20 characters")
	}
	return name, symbol, nil
}
