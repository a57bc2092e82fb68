package cost

import (
	"context"

	"github.com/erp/costing/internal/domain/shared/strategy"
)

// AverageCostStrategy charges the weighted average of all remaining stock.
// Physical depletion still runs oldest first so batches drain in receipt order.
type AverageCostStrategy struct {
	strategy.BaseStrategy
}

// NewAverageCostStrategy creates a new weighted-average cost strategy
func NewAverageCostStrategy() *AverageCostStrategy {
	return &AverageCostStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"average",
			"Weighted average of remaining batch costs",
		),
	}
}

// Method returns the costing method
func (s *AverageCostStrategy) Method() strategy.CostMethod {
	return strategy.CostMethodAverage
}

// Allocate depletes batches in FIFO order and prices the whole quantity at
// the average cost measured before the consumption.
func (s *AverageCostStrategy) Allocate(
	ctx context.Context,
	req strategy.AllocationRequest,
	entries []strategy.BatchEntry,
) (strategy.AllocationResult, error) {
	allocations, _, err := greedyAllocate(req.Quantity, receivedOrder(entries, false))
	if err != nil {
		return strategy.AllocationResult{}, err
	}

	unitCost := strategy.AverageCost(entries)
	return strategy.AllocationResult{
		Method:      strategy.CostMethodAverage,
		Quantity:    req.Quantity,
		UnitCost:    unitCost,
		TotalCost:   unitCost.Mul(req.Quantity),
		Allocations: allocations,
	}, nil
}
