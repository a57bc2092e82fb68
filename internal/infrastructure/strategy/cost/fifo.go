package cost

import (
	"context"

	"github.com/erp/costing/internal/domain/shared/strategy"
)

// FIFOCostStrategy implements First-In-First-Out cost calculation
type FIFOCostStrategy struct {
	strategy.BaseStrategy
}

// NewFIFOCostStrategy creates a new FIFO cost strategy
func NewFIFOCostStrategy() *FIFOCostStrategy {
	return &FIFOCostStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"fifo",
			"First-In-First-Out: oldest batches are consumed first",
		),
	}
}

// Method returns the costing method
func (s *FIFOCostStrategy) Method() strategy.CostMethod {
	return strategy.CostMethodFIFO
}

// Allocate consumes batches oldest first; ties on received_at are broken by batch number
func (s *FIFOCostStrategy) Allocate(
	ctx context.Context,
	req strategy.AllocationRequest,
	entries []strategy.BatchEntry,
) (strategy.AllocationResult, error) {
	allocations, totalCost, err := greedyAllocate(req.Quantity, receivedOrder(entries, false))
	if err != nil {
		return strategy.AllocationResult{}, err
	}

	return strategy.AllocationResult{
		Method:      strategy.CostMethodFIFO,
		Quantity:    req.Quantity,
		UnitCost:    totalCost.Div(req.Quantity),
		TotalCost:   totalCost,
		Allocations: allocations,
	}, nil
}
