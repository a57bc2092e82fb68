package persistence

import (
	"context"
	"fmt"

	"github.com/erp/costing/internal/domain/inventory"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockRepository persists the stock projection
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// FindByKey finds the projection of a position
func (r *GormStockRepository) FindByKey(ctx context.Context, key inventory.StockKey) (*inventory.Stock, error) {
	var model models.StockModel
	if err := whereKey(r.db.WithContext(ctx), key).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindOrCreate inserts an empty projection unless one exists, then reads it
func (r *GormStockRepository) FindOrCreate(ctx context.Context, key inventory.StockKey) (*inventory.Stock, error) {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "warehouse_id"}, {Name: "product_id"}, {Name: "packaging_id"}},
		DoNothing: true,
	}).Create(models.StockModelFromDomain(inventory.NewStock(key))).Error
	if err != nil {
		return nil, translateError(err)
	}
	return r.FindByKey(ctx, key)
}

// SaveWithLock updates the row if nobody changed it since it was read
func (r *GormStockRepository) SaveWithLock(ctx context.Context, stock *inventory.Stock) error {
	result := r.db.WithContext(ctx).
		Model(&models.StockModel{}).
		Where("id = ? AND version = ?", stock.ID, stock.Version).
		Updates(map[string]any{
			"quantity":          stock.Quantity,
			"reserved_quantity": stock.ReservedQuantity,
			"cost_price":        stock.CostPrice,
			"version":           stock.Version + 1,
			"updated_at":        stock.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: stock %s was modified by another transaction", shared.ErrConcurrencyConflict, stock.StockKey)
	}
	stock.IncrementVersion()
	return nil
}

// FindByWarehouse lists the projections of a warehouse
func (r *GormStockRepository) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID, filter shared.Filter) ([]inventory.Stock, int64, error) {
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.StockModel{}).Where("warehouse_id = ?", warehouseID)

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.StockModel
	err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, StockSortFields, "updated_at")).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	out := make([]inventory.Stock, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

var _ inventory.StockRepository = (*GormStockRepository)(nil)
