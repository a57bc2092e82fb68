package models

import (
	"time"

	"github.com/erp/costing/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockKeyColumns is the (warehouse, product, packaging) triple shared by
// the stock tables
type StockKeyColumns struct {
	WarehouseID uuid.UUID `gorm:"type:uuid;not null"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null"`
	PackagingID uuid.UUID `gorm:"type:uuid;not null"`
}

// Key returns the domain StockKey
func (c StockKeyColumns) Key() inventory.StockKey {
	return inventory.NewStockKey(c.WarehouseID, c.ProductID, c.PackagingID)
}

func keyColumns(k inventory.StockKey) StockKeyColumns {
	return StockKeyColumns{WarehouseID: k.WarehouseID, ProductID: k.ProductID, PackagingID: k.PackagingID}
}

// StockBatchModel is the persistence model for inventory.StockBatch.
// The unique index covers the triple plus batch number.
type StockBatchModel struct {
	BaseModel
	WarehouseID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_batch_number,priority:1;index:idx_stock_batch_key,priority:1"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_batch_number,priority:2;index:idx_stock_batch_key,priority:2"`
	PackagingID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_batch_number,priority:3;index:idx_stock_batch_key,priority:3"`
	BatchNumber       string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_stock_batch_number,priority:4"`
	InitialQuantity   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	RemainingQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReceivedAt        time.Time       `gorm:"not null;index"`
	ExpiryDate        *time.Time      `gorm:"index"`
	SupplierRef       string          `gorm:"type:varchar(100)"`
	IsActive          bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (StockBatchModel) TableName() string {
	return "stock_batches"
}

// ToDomain converts the persistence model to a domain StockBatch
func (m *StockBatchModel) ToDomain() *inventory.StockBatch {
	return &inventory.StockBatch{
		BaseEntity:        m.BaseModel.ToDomain(),
		StockKey:          inventory.NewStockKey(m.WarehouseID, m.ProductID, m.PackagingID),
		BatchNumber:       m.BatchNumber,
		InitialQuantity:   m.InitialQuantity,
		RemainingQuantity: m.RemainingQuantity,
		UnitCost:          m.UnitCost,
		ReceivedAt:        m.ReceivedAt,
		ExpiryDate:        m.ExpiryDate,
		SupplierRef:       m.SupplierRef,
		IsActive:          m.IsActive,
	}
}

// StockBatchModelFromDomain creates a persistence model from a domain StockBatch
func StockBatchModelFromDomain(b *inventory.StockBatch) *StockBatchModel {
	m := &StockBatchModel{
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
	m.FromDomainBaseEntity(b.BaseEntity)
	return m
}

// StockMovementModel is the persistence model for inventory.StockMovement
type StockMovementModel struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key"`
	StockKeyColumns
	BatchID           *uuid.UUID      `gorm:"type:uuid;index"`
	MovementType      string          `gorm:"type:varchar(30);not null;index"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReferenceDocument string          `gorm:"type:varchar(100);index"`
	OccurredAt        time.Time       `gorm:"not null;index"`
	CreatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		ID:                m.ID,
		StockKey:          m.Key(),
		BatchID:           m.BatchID,
		MovementType:      inventory.MovementType(m.MovementType),
		Quantity:          m.Quantity,
		UnitCost:          m.UnitCost,
		ReferenceDocument: m.ReferenceDocument,
		OccurredAt:        m.OccurredAt,
		CreatedAt:         m.CreatedAt,
	}
}

// StockMovementModelFromDomain creates a persistence model from a domain StockMovement
func StockMovementModelFromDomain(mv *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:                mv.ID,
		StockKeyColumns:   keyColumns(mv.StockKey),
		BatchID:           mv.BatchID,
		MovementType:      string(mv.MovementType),
		Quantity:          mv.Quantity,
		UnitCost:          mv.UnitCost,
		ReferenceDocument: mv.ReferenceDocument,
		OccurredAt:        mv.OccurredAt,
		CreatedAt:         mv.CreatedAt,
	}
}

// StockModel is the persistence model for the inventory.Stock projection
type StockModel struct {
	AggregateModel
	WarehouseID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_key,priority:1"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_key,priority:2"`
	PackagingID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_key,priority:3"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReservedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CostPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (StockModel) TableName() string {
	return "stocks"
}

// ToDomain converts the persistence model to a domain Stock
func (m *StockModel) ToDomain() *inventory.Stock {
	return &inventory.Stock{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		StockKey:          inventory.NewStockKey(m.WarehouseID, m.ProductID, m.PackagingID),
		Quantity:          m.Quantity,
		ReservedQuantity:  m.ReservedQuantity,
		CostPrice:         m.CostPrice,
	}
}

// StockModelFromDomain creates a persistence model from a domain Stock
func StockModelFromDomain(s *inventory.Stock) *StockModel {
	m := &StockModel{
		WarehouseID:      s.WarehouseID,
		ProductID:        s.ProductID,
		PackagingID:      s.PackagingID,
		Quantity:         s.Quantity,
		ReservedQuantity: s.ReservedQuantity,
		CostPrice:        s.CostPrice,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}

// CostCalculationModel is the persistence model for inventory.CostCalculation
type CostCalculationModel struct {
	BaseModel
	WarehouseID           uuid.UUID        `gorm:"type:uuid;not null;index:idx_cost_calc_key,priority:1"`
	ProductID             uuid.UUID        `gorm:"type:uuid;not null;index:idx_cost_calc_key,priority:2"`
	PackagingID           uuid.UUID        `gorm:"type:uuid;not null;index:idx_cost_calc_key,priority:3"`
	TotalQuantity         decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	BaseQuantity          decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	AverageCost           decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	FIFOCost              *decimal.Decimal `gorm:"column:fifo_cost;type:decimal(18,4)"`
	LIFOCost              *decimal.Decimal `gorm:"column:lifo_cost;type:decimal(18,4)"`
	FIFOUnavailableReason string           `gorm:"column:fifo_unavailable_reason;type:varchar(255)"`
	LIFOUnavailableReason string           `gorm:"column:lifo_unavailable_reason;type:varchar(255)"`
	TotalValue            decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	BatchCount            int              `gorm:"not null"`
	IsCurrent             bool             `gorm:"not null;default:true;index"`
	CalculatedAt          time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CostCalculationModel) TableName() string {
	return "cost_calculations"
}

// ToDomain converts the persistence model to a domain CostCalculation
func (m *CostCalculationModel) ToDomain() *inventory.CostCalculation {
	return &inventory.CostCalculation{
		BaseEntity:            m.BaseModel.ToDomain(),
		StockKey:              inventory.NewStockKey(m.WarehouseID, m.ProductID, m.PackagingID),
		TotalQuantity:         m.TotalQuantity,
		BaseQuantity:          m.BaseQuantity,
		AverageCost:           m.AverageCost,
		FIFOCost:              m.FIFOCost,
		LIFOCost:              m.LIFOCost,
		FIFOUnavailableReason: m.FIFOUnavailableReason,
		LIFOUnavailableReason: m.LIFOUnavailableReason,
		TotalValue:            m.TotalValue,
		BatchCount:            m.BatchCount,
		IsCurrent:             m.IsCurrent,
		CalculatedAt:          m.CalculatedAt,
	}
}

// CostCalculationModelFromDomain creates a persistence model from a domain CostCalculation
func CostCalculationModelFromDomain(c *inventory.CostCalculation) *CostCalculationModel {
	m := &CostCalculationModel{
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
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}
