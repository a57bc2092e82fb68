package cost

import (
	"sort"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

var errNonPositiveQuantity = shared.NewValidationError(shared.CodeInvalidQuantity, "allocation quantity must be positive")

// receivedOrder returns a copy of entries with remaining > 0 ordered by
// (received_at, batch_number), newest first when desc is set.
func receivedOrder(entries []strategy.BatchEntry, desc bool) []strategy.BatchEntry {
	sorted := make([]strategy.BatchEntry, 0, len(entries))
	for _, e := range entries {
		if e.RemainingQuantity.IsPositive() {
			sorted = append(sorted, e)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.ReceivedAt.Equal(b.ReceivedAt) {
			if desc {
				return a.ReceivedAt.After(b.ReceivedAt)
			}
			return a.ReceivedAt.Before(b.ReceivedAt)
		}
		if desc {
			return a.BatchNumber > b.BatchNumber
		}
		return a.BatchNumber < b.BatchNumber
	})
	return sorted
}

// greedyAllocate takes min(remaining, needed) from each entry in order.
// Either the whole quantity is covered or an InsufficientStockError is
// returned with nothing allocated.
func greedyAllocate(quantity decimal.Decimal, ordered []strategy.BatchEntry) ([]strategy.BatchAllocation, decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return nil, decimal.Zero, errNonPositiveQuantity
	}

	available := strategy.TotalRemaining(ordered)
	if available.LessThan(quantity) {
		return nil, decimal.Zero, shared.NewInsufficientStockError(quantity, available)
	}

	needed := quantity
	totalCost := decimal.Zero
	allocations := make([]strategy.BatchAllocation, 0)

	for _, entry := range ordered {
		if needed.IsZero() {
			break
		}

		take := decimal.Min(needed, entry.RemainingQuantity)
		allocations = append(allocations, strategy.BatchAllocation{
			BatchID:     entry.BatchID,
			BatchNumber: entry.BatchNumber,
			Quantity:    take,
			UnitCost:    entry.UnitCost,
		})
		totalCost = totalCost.Add(take.Mul(entry.UnitCost))
		needed = needed.Sub(take)
	}

	return allocations, totalCost, nil
}
