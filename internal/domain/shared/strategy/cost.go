package strategy

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostMethod represents the inventory costing method
type CostMethod string

const (
	CostMethodFIFO     CostMethod = "fifo"
	CostMethodLIFO     CostMethod = "lifo"
	CostMethodAverage  CostMethod = "average"
	CostMethodSpecific CostMethod = "specific"
)

// String returns the string representation of the cost method
func (m CostMethod) String() string {
	return string(m)
}

// IsValid returns true for the supported methods
func (m CostMethod) IsValid() bool {
	switch m {
	case CostMethodFIFO, CostMethodLIFO, CostMethodAverage, CostMethodSpecific:
		return true
	default:
		return false
	}
}

// ParseCostMethod normalises a method code ("FIFO", " lifo ") into a CostMethod
func ParseCostMethod(code string) (CostMethod, bool) {
	m := CostMethod(strings.ToLower(strings.TrimSpace(code)))
	return m, m.IsValid()
}

// AllCostMethods returns all supported methods
func AllCostMethods() []CostMethod {
	return []CostMethod{CostMethodFIFO, CostMethodLIFO, CostMethodAverage, CostMethodSpecific}
}

// BatchEntry is the allocation view of a stock batch
type BatchEntry struct {
	BatchID           uuid.UUID
	BatchNumber       string
	RemainingQuantity decimal.Decimal
	UnitCost          decimal.Decimal
	ReceivedAt        time.Time
}

// AllocationRequest describes a quantity to take from a set of batches
type AllocationRequest struct {
	Quantity decimal.Decimal
	// SpecificBatchID designates the batch for specific identification
	SpecificBatchID *uuid.UUID
}

// BatchAllocation is the quantity taken from one batch
type BatchAllocation struct {
	BatchID     uuid.UUID
	BatchNumber string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
}

// TotalCost returns quantity * unit cost at full precision
func (a BatchAllocation) TotalCost() decimal.Decimal {
	return a.Quantity.Mul(a.UnitCost)
}

// AllocationResult is the outcome of an allocation.
// UnitCost and TotalCost are unrounded.
type AllocationResult struct {
	Method      CostMethod
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	TotalCost   decimal.Decimal
	Allocations []BatchAllocation
}

// CostCalculationStrategy defines the interface for inventory cost calculation
type CostCalculationStrategy interface {
	Strategy
	// Method returns the costing method used by this strategy
	Method() CostMethod
	// Allocate picks the batches that satisfy req. It never mutates entries
	// and never returns a partial allocation: a shortfall is an
	// *shared.InsufficientStockError.
	Allocate(ctx context.Context, req AllocationRequest, entries []BatchEntry) (AllocationResult, error)
}

// AverageCost returns Σ(remaining×cost)/Σ(remaining) over entries with
// remaining > 0, or zero when nothing remains.
func AverageCost(entries []BatchEntry) decimal.Decimal {
	totalQty := decimal.Zero
	totalValue := decimal.Zero
	for _, e := range entries {
		if !e.RemainingQuantity.IsPositive() {
			continue
		}
		totalQty = totalQty.Add(e.RemainingQuantity)
		totalValue = totalValue.Add(e.RemainingQuantity.Mul(e.UnitCost))
	}
	if totalQty.IsZero() {
		return decimal.Zero
	}
	return totalValue.Div(totalQty)
}

// TotalRemaining sums the positive remaining quantities of entries
func TotalRemaining(entries []BatchEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.RemainingQuantity.IsPositive() {
			total = total.Add(e.RemainingQuantity)
		}
	}
	return total
}
