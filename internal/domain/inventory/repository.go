package inventory

import (
	"context"
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
)

// BatchFilter narrows batch listings
type BatchFilter struct {
	shared.Filter
	WarehouseID   *uuid.UUID
	ProductID     *uuid.UUID
	PackagingID   *uuid.UUID
	IncludeEmpty  bool
	IncludeClosed bool
}

// MovementFilter narrows movement journal listings
type MovementFilter struct {
	shared.Filter
	WarehouseID       *uuid.UUID
	ProductID         *uuid.UUID
	PackagingID       *uuid.UUID
	BatchID           *uuid.UUID
	MovementType      MovementType
	ReferenceDocument string
	From              *time.Time
	To                *time.Time
}

// StockBatchRepository persists batches. Batches are never deleted.
type StockBatchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockBatch, error)
	// FindActiveByKey returns the active batches of a position
	FindActiveByKey(ctx context.Context, key StockKey) ([]StockBatch, error)
	// FindActiveByKeyForUpdate is FindActiveByKey holding row locks until the
	// surrounding transaction ends
	FindActiveByKeyForUpdate(ctx context.Context, key StockKey) ([]StockBatch, error)
	FindAll(ctx context.Context, filter BatchFilter) ([]StockBatch, int64, error)
	// FindExpiring returns active non-empty batches expiring before the cutoff
	FindExpiring(ctx context.Context, before time.Time, warehouseID *uuid.UUID) ([]StockBatch, error)
	ExistsByNumber(ctx context.Context, key StockKey, batchNumber string) (bool, error)
	CountByNumberPrefix(ctx context.Context, key StockKey, prefix string) (int64, error)
	Create(ctx context.Context, batch *StockBatch) error
	// UpdateRemaining writes the remaining quantity of each batch
	UpdateRemaining(ctx context.Context, batches []*StockBatch) error
	// DeactivateEmpty marks every active batch with remaining <= 0 inactive
	// and returns how many changed
	DeactivateEmpty(ctx context.Context, warehouseID *uuid.UUID) (int64, error)
}

// StockMovementRepository is insert-only
type StockMovementRepository interface {
	Create(ctx context.Context, movements ...*StockMovement) error
	FindAll(ctx context.Context, filter MovementFilter) ([]StockMovement, int64, error)
}

// StockRepository persists the stock projection
type StockRepository interface {
	FindByKey(ctx context.Context, key StockKey) (*Stock, error)
	// FindOrCreate returns the projection for key, inserting an empty one first if needed
	FindOrCreate(ctx context.Context, key StockKey) (*Stock, error)
	// SaveWithLock updates the row when its stored version equals stock.Version
	// and bumps the version; a mismatch is shared.ErrConcurrencyConflict
	SaveWithLock(ctx context.Context, stock *Stock) error
	FindByWarehouse(ctx context.Context, warehouseID uuid.UUID, filter shared.Filter) ([]Stock, int64, error)
}

// CostCalculationRepository persists cost reports
type CostCalculationRepository interface {
	Create(ctx context.Context, calc *CostCalculation) error
	// ClearCurrent drops the current flag of the position's reports
	ClearCurrent(ctx context.Context, key StockKey) error
	FindCurrent(ctx context.Context, key StockKey) (*CostCalculation, error)
	FindByKey(ctx context.Context, key StockKey, filter shared.Filter) ([]CostCalculation, int64, error)
}
