package inventory

import (
	"strings"
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementTypeReceipt        MovementType = "receipt"
	MovementTypeConsumption    MovementType = "consumption"
	MovementTypeTransferIn     MovementType = "transfer_in"
	MovementTypeTransferOut    MovementType = "transfer_out"
	MovementTypeAdjustment     MovementType = "adjustment"
	MovementTypeWriteoff       MovementType = "writeoff"
	MovementTypeInventoryCount MovementType = "inventory_count"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeReceipt,
		MovementTypeConsumption,
		MovementTypeTransferIn,
		MovementTypeTransferOut,
		MovementTypeAdjustment,
		MovementTypeWriteoff,
		MovementTypeInventoryCount:
		return true
	}
	return false
}

// CanReceive returns true if the type may bring stock in.
// Adjustments and counts go either way.
func (t MovementType) CanReceive() bool {
	switch t {
	case MovementTypeReceipt,
		MovementTypeTransferIn,
		MovementTypeAdjustment,
		MovementTypeInventoryCount:
		return true
	}
	return false
}

// CanConsume returns true if the type may take stock out
func (t MovementType) CanConsume() bool {
	switch t {
	case MovementTypeConsumption,
		MovementTypeTransferOut,
		MovementTypeWriteoff,
		MovementTypeAdjustment,
		MovementTypeInventoryCount:
		return true
	}
	return false
}

// StockMovement is an immutable journal line. Quantity is signed:
// positive for inbound, negative for outbound.
type StockMovement struct {
	ID uuid.UUID
	StockKey
	BatchID           *uuid.UUID
	MovementType      MovementType
	Quantity          decimal.Decimal
	UnitCost          decimal.Decimal
	ReferenceDocument string
	OccurredAt        time.Time
	CreatedAt         time.Time
}

// MovementParams carries the inputs of a movement
type MovementParams struct {
	Key               StockKey
	BatchID           *uuid.UUID
	MovementType      MovementType
	Quantity          decimal.Decimal
	UnitCost          decimal.Decimal
	ReferenceDocument string
	OccurredAt        time.Time
}

// NewInboundMovement records stock entering a batch
func NewInboundMovement(p MovementParams) (*StockMovement, error) {
	if !p.MovementType.CanReceive() {
		return nil, shared.NewValidationError(shared.CodeInvalidMovementType, "movement type %q cannot receive stock", p.MovementType)
	}
	if !p.Quantity.IsPositive() {
		return nil, shared.NewValidationError(shared.CodeInvalidQuantity, "inbound quantity must be positive")
	}
	return newMovement(p, p.Quantity), nil
}

// NewOutboundMovement records stock leaving a batch; quantity is given as a
// positive amount and stored negated
func NewOutboundMovement(p MovementParams) (*StockMovement, error) {
	if !p.MovementType.CanConsume() {
		return nil, shared.NewValidationError(shared.CodeInvalidMovementType, "movement type %q cannot consume stock", p.MovementType)
	}
	if !p.Quantity.IsPositive() {
		return nil, shared.NewValidationError(shared.CodeInvalidQuantity, "outbound quantity must be positive")
	}
	return newMovement(p, p.Quantity.Neg()), nil
}

func newMovement(p MovementParams, signed decimal.Decimal) *StockMovement {
	now := time.Now().UTC()
	occurred := p.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}
	return &StockMovement{
		ID:                uuid.New(),
		StockKey:          p.Key,
		BatchID:           p.BatchID,
		MovementType:      p.MovementType,
		Quantity:          signed,
		UnitCost:          p.UnitCost,
		ReferenceDocument: strings.TrimSpace(p.ReferenceDocument),
		OccurredAt:        occurred,
		CreatedAt:         now,
	}
}

// IsInbound returns true for positive movements
func (m *StockMovement) IsInbound() bool {
	return m.Quantity.IsPositive()
}

// TotalCost returns |quantity| * unit cost
func (m *StockMovement) TotalCost() decimal.Decimal {
	return m.Quantity.Abs().Mul(m.UnitCost)
}
