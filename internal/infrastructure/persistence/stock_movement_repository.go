package persistence

import (
	"context"

	"github.com/erp/costing/internal/domain/inventory"
	"github.com/erp/costing/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockMovementRepository implements the insert-only movement journal
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Create inserts movements in one statement
func (r *GormStockMovementRepository) Create(ctx context.Context, movements ...*inventory.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	rows := make([]*models.StockMovementModel, len(movements))
	for i, m := range movements {
		rows[i] = models.StockMovementModelFromDomain(m)
	}
	return translateError(r.db.WithContext(ctx).Create(rows).Error)
}

// FindAll lists movements with filtering and pagination
func (r *GormStockMovementRepository) FindAll(ctx context.Context, filter inventory.MovementFilter) ([]inventory.StockMovement, int64, error) {
	filter.Filter = filter.Filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.StockMovementModel{})
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.PackagingID != nil {
		query = query.Where("packaging_id = ?", *filter.PackagingID)
	}
	if filter.BatchID != nil {
		query = query.Where("batch_id = ?", *filter.BatchID)
	}
	if filter.MovementType != "" {
		query = query.Where("movement_type = ?", string(filter.MovementType))
	}
	if filter.ReferenceDocument != "" {
		query = query.Where("reference_document = ?", filter.ReferenceDocument)
	}
	if filter.From != nil {
		query = query.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_at < ?", *filter.To)
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.StockMovementModel
	err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, MovementSortFields, "occurred_at")).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, translateError(err)
	}

	out := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
