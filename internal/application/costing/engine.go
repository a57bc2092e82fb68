package costing

import (
	"context"
	"fmt"

	"github.com/erp/costing/internal/domain/inventory"
	"github.com/erp/costing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostStrategyProvider provides cost strategies by method
type CostStrategyProvider interface {
	GetCostStrategy(method strategy.CostMethod) (strategy.CostCalculationStrategy, error)
}

// Engine runs costing algorithms over a position's batches
type Engine struct {
	strategies CostStrategyProvider
}

// NewEngine creates an Engine
func NewEngine(strategies CostStrategyProvider) *Engine {
	return &Engine{strategies: strategies}
}

// Allocate computes which batches cover quantity under method. Batches are
// not changed; see Commit.
func (e *Engine) Allocate(
	ctx context.Context,
	method strategy.CostMethod,
	batches []inventory.StockBatch,
	quantity decimal.Decimal,
	specificBatchID *uuid.UUID,
) (strategy.AllocationResult, error) {
	s, err := e.strategies.GetCostStrategy(method)
	if err != nil {
		return strategy.AllocationResult{}, err
	}
	return s.Allocate(ctx, strategy.AllocationRequest{
		Quantity:        quantity,
		SpecificBatchID: specificBatchID,
	}, inventory.BatchEntries(batches))
}

// Commit deducts an allocation from batches in place and returns the
// batches it touched
func (e *Engine) Commit(batches []inventory.StockBatch, result strategy.AllocationResult) ([]*inventory.StockBatch, error) {
	idx := inventory.BatchIndex(batches)
	touched := make([]*inventory.StockBatch, 0, len(result.Allocations))
	for _, a := range result.Allocations {
		b, ok := idx[a.BatchID]
		if !ok {
			return nil, fmt.Errorf("allocation references unknown batch %s", a.BatchID)
		}
		if err := b.Deduct(a.Quantity); err != nil {
			return nil, fmt.Errorf("deduct batch %s: %w", b.BatchNumber, err)
		}
		touched = append(touched, b)
	}
	return touched, nil
}

// CalculateAverageCost returns the weighted average over active batches
func (e *Engine) CalculateAverageCost(batches []inventory.StockBatch) decimal.Decimal {
	return strategy.AverageCost(inventory.BatchEntries(batches))
}

// CalculateFIFOCost returns the unit cost of consuming quantity under FIFO
func (e *Engine) CalculateFIFOCost(ctx context.Context, batches []inventory.StockBatch, quantity decimal.Decimal) (decimal.Decimal, error) {
	result, err := e.Allocate(ctx, strategy.CostMethodFIFO, batches, quantity, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return result.UnitCost, nil
}

// CalculateLIFOCost returns the unit cost of consuming quantity under LIFO
func (e *Engine) CalculateLIFOCost(ctx context.Context, batches []inventory.StockBatch, quantity decimal.Decimal) (decimal.Decimal, error) {
	result, err := e.Allocate(ctx, strategy.CostMethodLIFO, batches, quantity, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return result.UnitCost, nil
}
