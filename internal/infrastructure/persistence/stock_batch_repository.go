package persistence

import (
	"context"
	"time"

	"github.com/erp/costing/internal/domain/inventory"
	"github.com/erp/costing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockBatchRepository implements StockBatchRepository using GORM
type GormStockBatchRepository struct {
	db *gorm.DB
}

// NewGormStockBatchRepository creates a new GormStockBatchRepository
func NewGormStockBatchRepository(db *gorm.DB) *GormStockBatchRepository {
	return &GormStockBatchRepository{db: db}
}

func whereKey(db *gorm.DB, key inventory.StockKey) *gorm.DB {
	return db.Where("warehouse_id = ? AND product_id = ? AND packaging_id = ?",
		key.WarehouseID, key.ProductID, key.PackagingID)
}

func batchesToDomain(rows []models.StockBatchModel) []inventory.StockBatch {
	out := make([]inventory.StockBatch, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// FindByID finds a stock batch by its ID
func (r *GormStockBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockBatch, error) {
	var model models.StockBatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindActiveByKey returns the active batches of a position in receipt order
func (r *GormStockBatchRepository) FindActiveByKey(ctx context.Context, key inventory.StockKey) ([]inventory.StockBatch, error) {
	return r.findActive(r.db.WithContext(ctx), key)
}

// FindActiveByKeyForUpdate is FindActiveByKey with the rows locked until
// the transaction ends
func (r *GormStockBatchRepository) FindActiveByKeyForUpdate(ctx context.Context, key inventory.StockKey) ([]inventory.StockBatch, error) {
	return r.findActive(forUpdate(r.db.WithContext(ctx)), key)
}

func (r *GormStockBatchRepository) findActive(db *gorm.DB, key inventory.StockKey) ([]inventory.StockBatch, error) {
	var rows []models.StockBatchModel
	err := whereKey(db, key).
		Where("is_active = ?", true).
		Order("received_at ASC, batch_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return batchesToDomain(rows), nil
}

// FindAll lists batches with filtering and pagination
func (r *GormStockBatchRepository) FindAll(ctx context.Context, filter inventory.BatchFilter) ([]inventory.StockBatch, int64, error) {
	filter.Filter = filter.Filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.StockBatchModel{})
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.PackagingID != nil {
		query = query.Where("packaging_id = ?", *filter.PackagingID)
	}
	if !filter.IncludeClosed {
		query = query.Where("is_active = ?", true)
	}
	if !filter.IncludeEmpty {
		query = query.Where("remaining_quantity > 0")
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.StockBatchModel
	err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, BatchSortFields, "received_at")).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return batchesToDomain(rows), total, nil
}

// FindExpiring returns active batches with stock left that expire before the cutoff
func (r *GormStockBatchRepository) FindExpiring(ctx context.Context, before time.Time, warehouseID *uuid.UUID) ([]inventory.StockBatch, error) {
	query := r.db.WithContext(ctx).
		Where("is_active = ? AND remaining_quantity > 0", true).
		Where("expiry_date IS NOT NULL AND expiry_date <= ?", before)
	if warehouseID != nil {
		query = query.Where("warehouse_id = ?", *warehouseID)
	}

	var rows []models.StockBatchModel
	if err := query.Order("expiry_date ASC, batch_number ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return batchesToDomain(rows), nil
}

// ExistsByNumber reports whether the position already has a batch with this number
func (r *GormStockBatchRepository) ExistsByNumber(ctx context.Context, key inventory.StockKey, batchNumber string) (bool, error) {
	var count int64
	err := whereKey(r.db.WithContext(ctx).Model(&models.StockBatchModel{}), key).
		Where("batch_number = ?", batchNumber).
		Count(&count).Error
	if err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// CountByNumberPrefix counts the position's batches whose number starts with prefix
func (r *GormStockBatchRepository) CountByNumberPrefix(ctx context.Context, key inventory.StockKey, prefix string) (int64, error) {
	var count int64
	err := whereKey(r.db.WithContext(ctx).Model(&models.StockBatchModel{}), key).
		Where("batch_number LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// Create inserts a new batch
func (r *GormStockBatchRepository) Create(ctx context.Context, batch *inventory.StockBatch) error {
	return translateError(r.db.WithContext(ctx).Create(models.StockBatchModelFromDomain(batch)).Error)
}

// UpdateRemaining writes remaining quantity and active flag of each batch
func (r *GormStockBatchRepository) UpdateRemaining(ctx context.Context, batches []*inventory.StockBatch) error {
	db := r.db.WithContext(ctx)
	for _, b := range batches {
		result := db.Model(&models.StockBatchModel{}).
			Where("id = ?", b.ID).
			Updates(map[string]any{
				"remaining_quantity": b.RemainingQuantity,
				"is_active":          b.IsActive,
				"updated_at":         b.UpdatedAt,
			})
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return translateError(gorm.ErrRecordNotFound)
		}
	}
	return nil
}

// DeactivateEmpty marks active batches with nothing remaining inactive
func (r *GormStockBatchRepository) DeactivateEmpty(ctx context.Context, warehouseID *uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockBatchModel{}).
		Where("is_active = ? AND remaining_quantity <= 0", true)
	if warehouseID != nil {
		query = query.Where("warehouse_id = ?", *warehouseID)
	}
	result := query.Updates(map[string]any{
		"is_active":  false,
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}

// Ensure GormStockBatchRepository implements StockBatchRepository
var _ inventory.StockBatchRepository = (*GormStockBatchRepository)(nil)
