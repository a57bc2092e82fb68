package strategy

import (
	"github.com/erp/costing/internal/domain/shared/strategy"
	"github.com/erp/costing/internal/infrastructure/strategy/cost"
)

// NewRegistryWithDefaults creates a registry holding FIFO, LIFO, average and
// specific identification, with average as the default.
func NewRegistryWithDefaults() (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	defaults := []strategy.CostCalculationStrategy{
		cost.NewFIFOCostStrategy(),
		cost.NewLIFOCostStrategy(),
		cost.NewAverageCostStrategy(),
		cost.NewSpecificCostStrategy(),
	}
	for _, s := range defaults {
		if err := r.RegisterCostStrategy(s); err != nil {
			return nil, err
		}
	}

	if err := r.SetDefault(strategy.CostMethodAverage); err != nil {
		return nil, err
	}
	return r, nil
}
