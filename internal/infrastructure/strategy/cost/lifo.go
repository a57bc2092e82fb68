package cost

import (
	"context"

	"github.com/erp/costing/internal/domain/shared/strategy"
)

// LIFOCostStrategy implements Last-In-First-Out cost calculation
type LIFOCostStrategy struct {
	strategy.BaseStrategy
}

// NewLIFOCostStrategy creates a new LIFO cost strategy
func NewLIFOCostStrategy() *LIFOCostStrategy {
	return &LIFOCostStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"lifo",
			"Last-In-First-Out: newest batches are consumed first",
		),
	}
}

// Method returns the costing method
func (s *LIFOCostStrategy) Method() strategy.CostMethod {
	return strategy.CostMethodLIFO
}

// Allocate consumes batches newest first
func (s *LIFOCostStrategy) Allocate(
	ctx context.Context,
	req strategy.AllocationRequest,
	entries []strategy.BatchEntry,
) (strategy.AllocationResult, error) {
	allocations, totalCost, err := greedyAllocate(req.Quantity, receivedOrder(entries, true))
	if err != nil {
		return strategy.AllocationResult{}, err
	}

	return strategy.AllocationResult{
		Method:      strategy.CostMethodLIFO,
		Quantity:    req.Quantity,
		UnitCost:    totalCost.Div(req.Quantity),
		TotalCost:   totalCost,
		Allocations: allocations,
	}, nil
}
