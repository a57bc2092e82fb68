package persistence

import (
	"context"

	"github.com/erp/costing/internal/domain/inventory"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCostCalculationRepository persists cost reports
type GormCostCalculationRepository struct {
	db *gorm.DB
}

// NewGormCostCalculationRepository creates a new GormCostCalculationRepository
func NewGormCostCalculationRepository(db *gorm.DB) *GormCostCalculationRepository {
	return &GormCostCalculationRepository{db: db}
}

// Create inserts a report
func (r *GormCostCalculationRepository) Create(ctx context.Context, calc *inventory.CostCalculation) error {
	return translateError(r.db.WithContext(ctx).Create(models.CostCalculationModelFromDomain(calc)).Error)
}

// ClearCurrent drops the current flag from the position's reports
func (r *GormCostCalculationRepository) ClearCurrent(ctx context.Context, key inventory.StockKey) error {
	err := whereKey(r.db.WithContext(ctx).Model(&models.CostCalculationModel{}), key).
		Where("is_current = ?", true).
		Update("is_current", false).Error
	return translateError(err)
}

// FindCurrent returns the position's current report
func (r *GormCostCalculationRepository) FindCurrent(ctx context.Context, key inventory.StockKey) (*inventory.CostCalculation, error) {
	var model models.CostCalculationModel
	err := whereKey(r.db.WithContext(ctx), key).
		Where("is_current = ?", true).
		Order("calculated_at DESC").
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByKey lists the position's reports, newest first by default
func (r *GormCostCalculationRepository) FindByKey(ctx context.Context, key inventory.StockKey, filter shared.Filter) ([]inventory.CostCalculation, int64, error) {
	filter = filter.Normalize()
	query := whereKey(r.db.WithContext(ctx).Model(&models.CostCalculationModel{}), key)

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.CostCalculationModel
	err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, CostCalculationSortFields, "calculated_at")).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	out := make([]inventory.CostCalculation, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

var _ inventory.CostCalculationRepository = (*GormCostCalculationRepository)(nil)
