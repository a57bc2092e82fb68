package handler

import (
	"time"

	"github.com/erp/costing/internal/domain/inventory"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/interfaces/http/dto"
	"github.com/google/uuid"
)

// Query strings are bound as strings and checked by the binding tags, so
// the conversions below never see malformed input.

const rfc3339 = "2006-01-02T15:04:05Z07:00"

type stockKeyQuery struct {
	WarehouseID string `form:"warehouse_id" binding:"required,uuid"`
	ProductID   string `form:"product_id" binding:"required,uuid"`
	PackagingID string `form:"packaging_id" binding:"required,uuid"`
}

func (q stockKeyQuery) key() inventory.StockKey {
	return inventory.NewStockKey(
		uuid.MustParse(q.WarehouseID),
		uuid.MustParse(q.ProductID),
		uuid.MustParse(q.PackagingID),
	)
}

type costPreviewQuery struct {
	stockKeyQuery
	Quantity        string `form:"quantity" binding:"required,numeric"`
	Method          string `form:"method" binding:"omitempty,oneof=fifo lifo average specific"`
	SpecificBatchID string `form:"specific_batch_id" binding:"omitempty,uuid"`
}

type reportListQuery struct {
	stockKeyQuery
	dto.ListQuery
}

type batchListQuery struct {
	dto.ListQuery
	WarehouseID   string `form:"warehouse_id" binding:"omitempty,uuid"`
	ProductID     string `form:"product_id" binding:"omitempty,uuid"`
	PackagingID   string `form:"packaging_id" binding:"omitempty,uuid"`
	IncludeEmpty  bool   `form:"include_empty"`
	IncludeClosed bool   `form:"include_closed"`
}

func (q batchListQuery) filter() inventory.BatchFilter {
	q.ListQuery = q.ListQuery.WithDefaults()
	return inventory.BatchFilter{
		Filter:        pageFilter(q.ListQuery),
		WarehouseID:   optionalUUID(q.WarehouseID),
		ProductID:     optionalUUID(q.ProductID),
		PackagingID:   optionalUUID(q.PackagingID),
		IncludeEmpty:  q.IncludeEmpty,
		IncludeClosed: q.IncludeClosed,
	}
}

type movementListQuery struct {
	dto.ListQuery
	WarehouseID  string `form:"warehouse_id" binding:"omitempty,uuid"`
	ProductID    string `form:"product_id" binding:"omitempty,uuid"`
	PackagingID  string `form:"packaging_id" binding:"omitempty,uuid"`
	BatchID      string `form:"batch_id" binding:"omitempty,uuid"`
	MovementType string `form:"movement_type" binding:"omitempty,max=30"`
	Reference    string `form:"reference" binding:"omitempty,max=100"`
	From         string `form:"from" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	To           string `form:"to" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

func (q movementListQuery) filter() inventory.MovementFilter {
	q.ListQuery = q.ListQuery.WithDefaults()
	return inventory.MovementFilter{
		Filter:            pageFilter(q.ListQuery),
		WarehouseID:       optionalUUID(q.WarehouseID),
		ProductID:         optionalUUID(q.ProductID),
		PackagingID:       optionalUUID(q.PackagingID),
		BatchID:           optionalUUID(q.BatchID),
		MovementType:      inventory.MovementType(q.MovementType),
		ReferenceDocument: q.Reference,
		From:              optionalTime(q.From),
		To:                optionalTime(q.To),
	}
}

type expiringQuery struct {
	Within      string `form:"within"`
	WarehouseID string `form:"warehouse_id" binding:"omitempty,uuid"`
}

type resolveQuery struct {
	WarehouseID string `form:"warehouse_id" binding:"required,uuid"`
	ProductID   string `form:"product_id" binding:"required,uuid"`
}

type warehouseQuery struct {
	WarehouseID string `form:"warehouse_id" binding:"required,uuid"`
}

type idParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

func (p idParam) uuid() uuid.UUID {
	return uuid.MustParse(p.ID)
}

// CleanupRequest scopes a batch cleanup to one warehouse when set
type CleanupRequest struct {
	WarehouseID *uuid.UUID `json:"warehouse_id"`
}

// CleanupResponse reports how many batches were deactivated
type CleanupResponse struct {
	Deactivated int64 `json:"deactivated"`
}

// SetDefaultMethodRequest names the method to store as default
type SetDefaultMethodRequest struct {
	Method string `json:"method" binding:"required,oneof=fifo lifo average specific"`
}

func pageFilter(q dto.ListQuery) shared.Filter {
	f := shared.DefaultFilter()
	f.Page = q.Page
	f.PageSize = q.PageSize
	f.OrderBy = q.OrderBy
	if q.OrderDir != "" {
		f.OrderDir = q.OrderDir
	}
	return f
}

func optionalUUID(raw string) *uuid.UUID {
	if raw == "" {
		return nil
	}
	id := uuid.MustParse(raw)
	return &id
}

func optionalTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(rfc3339, raw)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
