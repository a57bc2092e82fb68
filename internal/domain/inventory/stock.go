package inventory

import (
	"fmt"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// AggregateTypeStock is the aggregate type of Stock events
const AggregateTypeStock = "Stock"

// Stock is the aggregate projection of one stock position. Quantity and
// CostPrice are always re-derived from the active batches; only
// ReservedQuantity is owned by the projection itself.
type Stock struct {
	shared.BaseAggregateRoot
	StockKey
	Quantity         decimal.Decimal
	ReservedQuantity decimal.Decimal
	CostPrice        decimal.Decimal
}

// NewStock creates an empty projection for key
func NewStock(key StockKey) *Stock {
	return &Stock{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StockKey:          key,
		Quantity:          decimal.Zero,
		ReservedQuantity:  decimal.Zero,
		CostPrice:         decimal.Zero,
	}
}

// AvailableQuantity returns quantity not held by reservations
func (s *Stock) AvailableQuantity() decimal.Decimal {
	return s.Quantity.Sub(s.ReservedQuantity)
}

// TotalValue returns quantity * cost price
func (s *Stock) TotalValue() decimal.Decimal {
	return s.Quantity.Mul(s.CostPrice)
}

// Recompute re-derives quantity and cost price from the batches of this
// position. Inactive batches are ignored. A reservation larger than the new
// quantity is cut down to it.
func (s *Stock) Recompute(batches []StockBatch) {
	entries := BatchEntries(batches)
	s.Quantity = strategy.TotalRemaining(entries)
	s.CostPrice = shared.RoundMoney(strategy.AverageCost(entries))
	if s.ReservedQuantity.GreaterThan(s.Quantity) {
		s.ReservedQuantity = s.Quantity
	}
	s.Touch()
}

// Reserve holds quantity for a pending consumer
func (s *Stock) Reserve(quantity decimal.Decimal, reference string) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError(shared.CodeInvalidQuantity, "reserve quantity must be positive")
	}
	available := s.AvailableQuantity()
	if quantity.GreaterThan(available) {
		return shared.NewInsufficientStockError(quantity, available)
	}
	s.ReservedQuantity = s.ReservedQuantity.Add(quantity)
	s.Touch()
	s.AddDomainEvent(NewReservationChangedEvent(s, quantity, reference))
	return nil
}

// Release gives back reserved quantity
func (s *Stock) Release(quantity decimal.Decimal, reference string) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError(shared.CodeInvalidQuantity, "release quantity must be positive")
	}
	if quantity.GreaterThan(s.ReservedQuantity) {
		return fmt.Errorf("%w: cannot release %s, only %s reserved",
			shared.ErrInvalidState, quantity, s.ReservedQuantity)
	}
	s.ReservedQuantity = s.ReservedQuantity.Sub(quantity)
	s.Touch()
	s.AddDomainEvent(NewReservationChangedEvent(s, quantity.Neg(), reference))
	return nil
}
