package costing

import (
	"strings"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/strategy"
)

// CostingMethod is a stored costing method row. At most one is the default.
type CostingMethod struct {
	shared.BaseEntity
	Code        strategy.CostMethod
	Name        string
	Description string
	IsDefault   bool
}

// NewCostingMethod creates a method for one of the supported codes
func NewCostingMethod(code, name, description string) (*CostingMethod, error) {
	method, ok := strategy.ParseCostMethod(code)
	if !ok {
		return nil, shared.NewValidationError(shared.CodeInvalidMethod, "unknown costing method %q", code)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultMethodNames[method]
	}
	return &CostingMethod{
		BaseEntity:  shared.NewBaseEntity(),
		Code:        method,
		Name:        name,
		Description: strings.TrimSpace(description),
	}, nil
}

// NewAverageFallbackMethod creates the average method row used when no rule
// or default resolves
func NewAverageFallbackMethod() *CostingMethod {
	m, _ := NewCostingMethod(string(strategy.CostMethodAverage), "", "Created automatically as the fallback method")
	return m
}

var defaultMethodNames = map[strategy.CostMethod]string{
	strategy.CostMethodFIFO:     "First In, First Out",
	strategy.CostMethodLIFO:     "Last In, First Out",
	strategy.CostMethodAverage:  "Weighted Average",
	strategy.CostMethodSpecific: "Specific Identification",
}

// MarkDefault flags the method as default; the repository clears the others
func (m *CostingMethod) MarkDefault() {
	m.IsDefault = true
	m.Touch()
}
