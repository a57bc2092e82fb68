package cost

import (
	"context"
	"fmt"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// SpecificCostStrategy implements specific identification: the caller names
// the batch and only that batch is drawn from. Without a designation it
// behaves like the average strategy.
type SpecificCostStrategy struct {
	strategy.BaseStrategy
	fallback *AverageCostStrategy
}

// NewSpecificCostStrategy creates a new specific-identification cost strategy
func NewSpecificCostStrategy() *SpecificCostStrategy {
	return &SpecificCostStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"specific",
			"Specific identification of a designated batch",
		),
		fallback: NewAverageCostStrategy(),
	}
}

// Method returns the costing method
func (s *SpecificCostStrategy) Method() strategy.CostMethod {
	return strategy.CostMethodSpecific
}

// Allocate draws the full quantity from the designated batch
func (s *SpecificCostStrategy) Allocate(
	ctx context.Context,
	req strategy.AllocationRequest,
	entries []strategy.BatchEntry,
) (strategy.AllocationResult, error) {
	if req.SpecificBatchID == nil {
		result, err := s.fallback.Allocate(ctx, req, entries)
		if err != nil {
			return strategy.AllocationResult{}, err
		}
		result.Method = strategy.CostMethodSpecific
		return result, nil
	}
	if !req.Quantity.IsPositive() {
		return strategy.AllocationResult{}, errNonPositiveQuantity
	}

	for _, entry := range entries {
		if entry.BatchID != *req.SpecificBatchID {
			continue
		}
		if entry.RemainingQuantity.LessThan(req.Quantity) {
			return strategy.AllocationResult{}, shared.NewInsufficientStockError(
				req.Quantity, decimal.Max(entry.RemainingQuantity, decimal.Zero))
		}
		return strategy.AllocationResult{
			Method:    strategy.CostMethodSpecific,
			Quantity:  req.Quantity,
			UnitCost:  entry.UnitCost,
			TotalCost: req.Quantity.Mul(entry.UnitCost),
			Allocations: []strategy.BatchAllocation{{
				BatchID:     entry.BatchID,
				BatchNumber: entry.BatchNumber,
				Quantity:    req.Quantity,
				UnitCost:    entry.UnitCost,
			}},
		}, nil
	}

	return strategy.AllocationResult{}, fmt.Errorf("%w: batch %s is not an active batch of this stock",
		shared.ErrNotFound, req.SpecificBatchID)
}
