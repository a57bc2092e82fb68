package inventory

import (
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeStockReceived            = "StockReceived"
	EventTypeStockConsumed            = "StockConsumed"
	EventTypeStockReservationChanged  = "StockReservationChanged"
	EventTypeEmptyBatchesDeactivated  = "EmptyBatchesDeactivated"
	EventTypeCostCalculationGenerated = "CostCalculationGenerated"
)

// StockReceivedEvent is raised after a batch is received
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	Key          StockKey        `json:"key"`
	BatchID      uuid.UUID       `json:"batch_id"`
	BatchNumber  string          `json:"batch_number"`
	MovementType MovementType    `json:"movement_type"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// NewStockReceivedEvent creates a StockReceivedEvent
func NewStockReceivedEvent(stock *Stock, batch *StockBatch, movementType MovementType) *StockReceivedEvent {
	return &StockReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReceived, AggregateTypeStock, stock.ID),
		Key:             stock.StockKey,
		BatchID:         batch.ID,
		BatchNumber:     batch.BatchNumber,
		MovementType:    movementType,
		Quantity:        batch.InitialQuantity,
		UnitCost:        batch.UnitCost,
	}
}

// StockConsumedEvent is raised after a committed consumption
type StockConsumedEvent struct {
	shared.BaseDomainEvent
	Key          StockKey        `json:"key"`
	Method       string          `json:"method"`
	MovementType MovementType    `json:"movement_type"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	BatchCount   int             `json:"batch_count"`
}

// NewStockConsumedEvent creates a StockConsumedEvent
func NewStockConsumedEvent(stock *Stock, method string, movementType MovementType, quantity, unitCost decimal.Decimal, batchCount int) *StockConsumedEvent {
	return &StockConsumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockConsumed, AggregateTypeStock, stock.ID),
		Key:             stock.StockKey,
		Method:          method,
		MovementType:    movementType,
		Quantity:        quantity,
		UnitCost:        unitCost,
		BatchCount:      batchCount,
	}
}

// ReservationChangedEvent is raised when reserved quantity changes.
// Delta is negative for releases.
type ReservationChangedEvent struct {
	shared.BaseDomainEvent
	Key       StockKey        `json:"key"`
	Delta     decimal.Decimal `json:"delta"`
	Reserved  decimal.Decimal `json:"reserved"`
	Reference string          `json:"reference,omitempty"`
}

// NewReservationChangedEvent creates a ReservationChangedEvent
func NewReservationChangedEvent(stock *Stock, delta decimal.Decimal, reference string) *ReservationChangedEvent {
	return &ReservationChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReservationChanged, AggregateTypeStock, stock.ID),
		Key:             stock.StockKey,
		Delta:           delta,
		Reserved:        stock.ReservedQuantity,
		Reference:       reference,
	}
}

// EmptyBatchesDeactivatedEvent is raised by the cleanup job
type EmptyBatchesDeactivatedEvent struct {
	shared.BaseDomainEvent
	WarehouseID *uuid.UUID `json:"warehouse_id,omitempty"`
	Count       int64      `json:"count"`
}

// NewEmptyBatchesDeactivatedEvent creates an EmptyBatchesDeactivatedEvent
func NewEmptyBatchesDeactivatedEvent(warehouseID *uuid.UUID, count int64) *EmptyBatchesDeactivatedEvent {
	aggID := uuid.Nil
	if warehouseID != nil {
		aggID = *warehouseID
	}
	return &EmptyBatchesDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEmptyBatchesDeactivated, "Warehouse", aggID),
		WarehouseID:     warehouseID,
		Count:           count,
	}
}

// CostCalculationGeneratedEvent is raised when a new current report is stored
type CostCalculationGeneratedEvent struct {
	shared.BaseDomainEvent
	Key         StockKey        `json:"key"`
	AverageCost decimal.Decimal `json:"average_cost"`
	TotalValue  decimal.Decimal `json:"total_value"`
}

// NewCostCalculationGeneratedEvent creates a CostCalculationGeneratedEvent
func NewCostCalculationGeneratedEvent(calc *CostCalculation) *CostCalculationGeneratedEvent {
	return &CostCalculationGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCostCalculationGenerated, "CostCalculation", calc.ID),
		Key:             calc.StockKey,
		AverageCost:     calc.AverageCost,
		TotalValue:      calc.TotalValue,
	}
}

// KeyedEvent is implemented by events tied to one stock position
type KeyedEvent interface {
	shared.DomainEvent
	StockKey() StockKey
}

func (e *StockReceivedEvent) StockKey() StockKey            { return e.Key }
func (e *StockConsumedEvent) StockKey() StockKey            { return e.Key }
func (e *ReservationChangedEvent) StockKey() StockKey       { return e.Key }
func (e *CostCalculationGeneratedEvent) StockKey() StockKey { return e.Key }
