package costing

import (
	"time"

	"github.com/erp/costing/internal/domain/catalog"
	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/inventory"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockKeyRequest identifies a stock position in requests
type StockKeyRequest struct {
	WarehouseID uuid.UUID `json:"warehouse_id" validate:"required"`
	ProductID   uuid.UUID `json:"product_id" validate:"required"`
	PackagingID uuid.UUID `json:"packaging_id" validate:"required"`
}

// Key converts the request into a domain key
func (r StockKeyRequest) Key() inventory.StockKey {
	return inventory.NewStockKey(r.WarehouseID, r.ProductID, r.PackagingID)
}

// ReceiveRequest brings a new batch into stock
type ReceiveRequest struct {
	StockKeyRequest
	Quantity          decimal.Decimal `json:"quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	MovementType      string          `json:"movement_type"`
	BatchNumber       string          `json:"batch_number" validate:"max=50"`
	ReceivedAt        *time.Time      `json:"received_at"`
	ExpiryDate        *time.Time      `json:"expiry_date"`
	SupplierRef       string          `json:"supplier_ref" validate:"max=100"`
	ReferenceDocument string          `json:"reference_document" validate:"max=100"`
}

// ReceiveResponse reports the batch created by a receipt
type ReceiveResponse struct {
	BatchID     uuid.UUID     `json:"batch_id"`
	BatchNumber string        `json:"batch_number"`
	MovementID  uuid.UUID     `json:"movement_id"`
	Stock       StockResponse `json:"stock"`
}

// ConsumeRequest takes stock out under the resolved costing method
type ConsumeRequest struct {
	StockKeyRequest
	Quantity          decimal.Decimal `json:"quantity"`
	MovementType      string          `json:"movement_type"`
	ReferenceDocument string          `json:"reference_document" validate:"max=100"`
	// SpecificBatchID designates the batch under specific identification
	SpecificBatchID *uuid.UUID `json:"specific_batch_id"`
}

// ConsumeResponse reports a committed consumption
type ConsumeResponse struct {
	Method      strategy.CostMethod       `json:"method"`
	Quantity    decimal.Decimal           `json:"quantity"`
	UnitCost    decimal.Decimal           `json:"unit_cost"`
	TotalCost   decimal.Decimal           `json:"total_cost"`
	Allocations []BatchAllocationResponse `json:"allocations"`
	Movements   []MovementResponse        `json:"movements"`
	Stock       StockResponse             `json:"stock"`
}

// MovementRequest is a signed movement: positive receives, negative consumes
type MovementRequest struct {
	StockKeyRequest
	MovementType      string          `json:"movement_type" validate:"required"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	ReferenceDocument string          `json:"reference_document" validate:"max=100"`
	SpecificBatchID   *uuid.UUID      `json:"specific_batch_id"`
}

// MovementResult is the outcome of ProcessStockMovement; exactly one side is set
type MovementResult struct {
	Receipt     *ReceiveResponse `json:"receipt,omitempty"`
	Consumption *ConsumeResponse `json:"consumption,omitempty"`
}

// TransferRequest moves stock between warehouses
type TransferRequest struct {
	ProductID         uuid.UUID       `json:"product_id" validate:"required"`
	PackagingID       uuid.UUID       `json:"packaging_id" validate:"required"`
	FromWarehouseID   uuid.UUID       `json:"from_warehouse_id" validate:"required"`
	ToWarehouseID     uuid.UUID       `json:"to_warehouse_id" validate:"required"`
	Quantity          decimal.Decimal `json:"quantity"`
	ReferenceDocument string          `json:"reference_document" validate:"max=100"`
	SpecificBatchID   *uuid.UUID      `json:"specific_batch_id"`
}

// TransferResponse reports both sides of a transfer
type TransferResponse struct {
	Outbound         ConsumeResponse `json:"outbound"`
	InboundBatches   []BatchResponse `json:"inbound_batches"`
	DestinationStock StockResponse   `json:"destination_stock"`
}

// ReservationRequest reserves or releases stock
type ReservationRequest struct {
	StockKeyRequest
	Quantity  decimal.Decimal `json:"quantity"`
	Reference string          `json:"reference" validate:"max=100"`
}

// CostPreviewRequest asks what consuming quantity would cost, without consuming
type CostPreviewRequest struct {
	StockKeyRequest
	Quantity decimal.Decimal `json:"quantity"`
	// Method overrides the resolved method when set
	Method          string     `json:"method"`
	SpecificBatchID *uuid.UUID `json:"specific_batch_id"`
}

// CostPreviewResponse is a hypothetical allocation
type CostPreviewResponse struct {
	Method      strategy.CostMethod       `json:"method"`
	Source      costing.ResolutionSource  `json:"source"`
	Quantity    decimal.Decimal           `json:"quantity"`
	Available   decimal.Decimal           `json:"available"`
	UnitCost    decimal.Decimal           `json:"unit_cost"`
	TotalCost   decimal.Decimal           `json:"total_cost"`
	Allocations []BatchAllocationResponse `json:"allocations"`
}

// BatchAllocationResponse is one batch's share of an allocation
type BatchAllocationResponse struct {
	BatchID     uuid.UUID       `json:"batch_id"`
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// StockResponse is the aggregate stock projection
type StockResponse struct {
	WarehouseID       uuid.UUID       `json:"warehouse_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	PackagingID       uuid.UUID       `json:"packaging_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	TotalValue        decimal.Decimal `json:"total_value"`
	Version           int             `json:"version"`
	UpdatedAt         *time.Time      `json:"updated_at,omitempty"`
}

// BatchResponse is a stock batch
type BatchResponse struct {
	ID                uuid.UUID       `json:"id"`
	WarehouseID       uuid.UUID       `json:"warehouse_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	PackagingID       uuid.UUID       `json:"packaging_id"`
	BatchNumber       string          `json:"batch_number"`
	InitialQuantity   decimal.Decimal `json:"initial_quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	ReceivedAt        time.Time       `json:"received_at"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
	SupplierRef       string          `json:"supplier_ref,omitempty"`
	IsActive          bool            `json:"is_active"`
}

// MovementResponse is a movement journal line
type MovementResponse struct {
	ID                uuid.UUID              `json:"id"`
	WarehouseID       uuid.UUID              `json:"warehouse_id"`
	ProductID         uuid.UUID              `json:"product_id"`
	PackagingID       uuid.UUID              `json:"packaging_id"`
	BatchID           *uuid.UUID             `json:"batch_id,omitempty"`
	MovementType      inventory.MovementType `json:"movement_type"`
	Quantity          decimal.Decimal        `json:"quantity"`
	UnitCost          decimal.Decimal        `json:"unit_cost"`
	ReferenceDocument string                 `json:"reference_document,omitempty"`
	OccurredAt        time.Time              `json:"occurred_at"`
}

// CostCalculationResponse is a stored cost report
type CostCalculationResponse struct {
	ID                    uuid.UUID        `json:"id"`
	WarehouseID           uuid.UUID        `json:"warehouse_id"`
	ProductID             uuid.UUID        `json:"product_id"`
	PackagingID           uuid.UUID        `json:"packaging_id"`
	TotalQuantity         decimal.Decimal  `json:"total_quantity"`
	BaseQuantity          decimal.Decimal  `json:"base_quantity"`
	AverageCost           decimal.Decimal  `json:"average_cost"`
	FIFOCost              *decimal.Decimal `json:"fifo_cost"`
	LIFOCost              *decimal.Decimal `json:"lifo_cost"`
	FIFOUnavailableReason string           `json:"fifo_unavailable_reason,omitempty"`
	LIFOUnavailableReason string           `json:"lifo_unavailable_reason,omitempty"`
	TotalValue            decimal.Decimal  `json:"total_value"`
	BatchCount            int              `json:"batch_count"`
	IsCurrent             bool             `json:"is_current"`
	CalculatedAt          time.Time        `json:"calculated_at"`
}

// CreateRuleRequest creates a costing rule
type CreateRuleRequest struct {
	MethodCode  string     `json:"method" validate:"required"`
	WarehouseID uuid.UUID  `json:"warehouse_id" validate:"required"`
	ProductID   *uuid.UUID `json:"product_id"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Priority    int        `json:"priority"`
}

// RuleResponse is a costing rule
type RuleResponse struct {
	ID          uuid.UUID           `json:"id"`
	Method      strategy.CostMethod `json:"method"`
	WarehouseID uuid.UUID           `json:"warehouse_id"`
	ProductID   *uuid.UUID          `json:"product_id,omitempty"`
	CategoryID  *uuid.UUID          `json:"category_id,omitempty"`
	Scope       costing.RuleScope   `json:"scope"`
	Priority    int                 `json:"priority"`
	CreatedAt   time.Time           `json:"created_at"`
}

// MethodResponse is a stored costing method
type MethodResponse struct {
	ID        uuid.UUID           `json:"id"`
	Code      strategy.CostMethod `json:"code"`
	Name      string              `json:"name"`
	IsDefault bool                `json:"is_default"`
}

// ResolvedMethodResponse reports which method applies and why
type ResolvedMethodResponse struct {
	Method MethodResponse           `json:"method"`
	Source costing.ResolutionSource `json:"source"`
}

// ConservationReport compares the projection with the batches it derives from
type ConservationReport struct {
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	BatchQuantity decimal.Decimal `json:"batch_quantity"`
	Balanced      bool            `json:"balanced"`
}

// UnitResponse is a unit of measure
type UnitResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Symbol string    `json:"symbol"`
	IsBase bool      `json:"is_base"`
}

// ProductResponse is a product reference
type ProductResponse struct {
	ID         uuid.UUID  `json:"id"`
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
}

// PackagingResponse is a packaging
type PackagingResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ProductID          uuid.UUID       `json:"product_id"`
	UnitID             uuid.UUID       `json:"unit_id"`
	QuantityPerPackage decimal.Decimal `json:"quantity_per_package"`
	Barcode            string          `json:"barcode,omitempty"`
	IsDefault          bool            `json:"is_default"`
}

// ToStockResponse converts a Stock projection
func ToStockResponse(s *inventory.Stock) StockResponse {
	updated := s.UpdatedAt
	return StockResponse{
		WarehouseID:       s.WarehouseID,
		ProductID:         s.ProductID,
		PackagingID:       s.PackagingID,
		Quantity:          s.Quantity,
		ReservedQuantity:  s.ReservedQuantity,
		AvailableQuantity: s.AvailableQuantity(),
		CostPrice:         s.CostPrice,
		TotalValue:        shared.RoundMoney(s.TotalValue()),
		Version:           s.Version,
		UpdatedAt:         &updated,
	}
}

// emptyStockResponse describes a position that has never held stock
func emptyStockResponse(key inventory.StockKey) StockResponse {
	return StockResponse{
		WarehouseID:       key.WarehouseID,
		ProductID:         key.ProductID,
		PackagingID:       key.PackagingID,
		Quantity:          decimal.Zero,
		ReservedQuantity:  decimal.Zero,
		AvailableQuantity: decimal.Zero,
		CostPrice:         decimal.Zero,
		TotalValue:        decimal.Zero,
	}
}

// ToBatchResponse converts a StockBatch
func ToBatchResponse(b *inventory.StockBatch) BatchResponse {
	return BatchResponse{
		ID:                b.ID,
		WarehouseID:       b.WarehouseID,
		ProductID:         b.ProductID,
		PackagingID:       b.PackagingID,
		BatchNumber:       b.BatchNumber,
		InitialQuantity:   b.InitialQuantity,
		RemainingQuantity: b.RemainingQuantity,
		UnitCost:          b.UnitCost,
		ReceivedAt:        b.ReceivedAt,
		ExpiryDate:        b.ExpiryDate,
		SupplierRef:       b.SupplierRef,
		IsActive:          b.IsActive,
	}
}

// ToBatchResponses converts a list of batches
func ToBatchResponses(batches []inventory.StockBatch) []BatchResponse {
	out := make([]BatchResponse, len(batches))
	for i := range batches {
		out[i] = ToBatchResponse(&batches[i])
	}
	return out
}

// ToMovementResponse converts a StockMovement
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:                m.ID,
		WarehouseID:       m.WarehouseID,
		ProductID:         m.ProductID,
		PackagingID:       m.PackagingID,
		BatchID:           m.BatchID,
		MovementType:      m.MovementType,
		Quantity:          m.Quantity,
		UnitCost:          m.UnitCost,
		ReferenceDocument: m.ReferenceDocument,
		OccurredAt:        m.OccurredAt,
	}
}

// ToMovementResponses converts a list of movements
func ToMovementResponses(movements []inventory.StockMovement) []MovementResponse {
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = ToMovementResponse(&movements[i])
	}
	return out
}

// ToAllocationResponses converts allocations, keeping full precision quantities
func ToAllocationResponses(allocations []strategy.BatchAllocation) []BatchAllocationResponse {
	out := make([]BatchAllocationResponse, len(allocations))
	for i, a := range allocations {
		out[i] = BatchAllocationResponse{
			BatchID:     a.BatchID,
			BatchNumber: a.BatchNumber,
			Quantity:    a.Quantity,
			UnitCost:    a.UnitCost,
		}
	}
	return out
}

// ToCostCalculationResponse converts a CostCalculation
func ToCostCalculationResponse(c *inventory.CostCalculation) CostCalculationResponse {
	return CostCalculationResponse{
		ID:                    c.ID,
		WarehouseID:           c.WarehouseID,
		ProductID:             c.ProductID,
		PackagingID:           c.PackagingID,
		TotalQuantity:         c.TotalQuantity,
		BaseQuantity:          c.BaseQuantity,
		AverageCost:           c.AverageCost,
		FIFOCost:              c.FIFOCost,
		LIFOCost:              c.LIFOCost,
		FIFOUnavailableReason: c.FIFOUnavailableReason,
		LIFOUnavailableReason: c.LIFOUnavailableReason,
		TotalValue:            c.TotalValue,
		BatchCount:            c.BatchCount,
		IsCurrent:             c.IsCurrent,
		CalculatedAt:          c.CalculatedAt,
	}
}

// ToMethodResponse converts a CostingMethod
func ToMethodResponse(m *costing.CostingMethod) MethodResponse {
	return MethodResponse{ID: m.ID, Code: m.Code, Name: m.Name, IsDefault: m.IsDefault}
}

// ToRuleResponse converts a CostingRule with its method code
func ToRuleResponse(r *costing.CostingRule, method strategy.CostMethod) RuleResponse {
	return RuleResponse{
		ID:          r.ID,
		Method:      method,
		WarehouseID: r.WarehouseID,
		ProductID:   r.ProductID,
		CategoryID:  r.CategoryID,
		Scope:       r.Scope(),
		Priority:    r.Priority,
		CreatedAt:   r.CreatedAt,
	}
}

// ToUnitResponse converts a Unit
func ToUnitResponse(u *catalog.Unit) UnitResponse {
	return UnitResponse{ID: u.ID, Name: u.Name, Symbol: u.Symbol, IsBase: u.IsBase}
}

// ToProductResponse converts a Product
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{ID: p.ID, Code: p.Code, Name: p.Name, CategoryID: p.CategoryID}
}

// ToPackagingResponse converts a Packaging
func ToPackagingResponse(p *catalog.Packaging) PackagingResponse {
	return PackagingResponse{
		ID:                 p.ID,
		ProductID:          p.ProductID,
		UnitID:             p.UnitID,
		QuantityPerPackage: p.QuantityPerPackage,
		Barcode:            p.Barcode,
		IsDefault:          p.IsDefault,
	}
}
