package persistence

import (
	"context"
	"fmt"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared/strategy"
	"github.com/erp/costing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCostingMethodRepository implements CostingMethodRepository using GORM
type GormCostingMethodRepository struct {
	db *gorm.DB
}

// NewGormCostingMethodRepository creates a new GormCostingMethodRepository
func NewGormCostingMethodRepository(db *gorm.DB) *GormCostingMethodRepository {
	return &GormCostingMethodRepository{db: db}
}

func (r *GormCostingMethodRepository) first(ctx context.Context, query string, args ...any) (*costing.CostingMethod, error) {
	var model models.CostingMethodModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByID finds a method by its ID
func (r *GormCostingMethodRepository) FindByID(ctx context.Context, id uuid.UUID) (*costing.CostingMethod, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByCode finds a method by its code
func (r *GormCostingMethodRepository) FindByCode(ctx context.Context, code strategy.CostMethod) (*costing.CostingMethod, error) {
	return r.first(ctx, "code = ?", string(code))
}

// FindDefault returns the stored default method
func (r *GormCostingMethodRepository) FindDefault(ctx context.Context) (*costing.CostingMethod, error) {
	return r.first(ctx, "is_default = ?", true)
}

// FindAll returns every stored method
func (r *GormCostingMethodRepository) FindAll(ctx context.Context) ([]costing.CostingMethod, error) {
	var rows []models.CostingMethodModel
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	out := make([]costing.CostingMethod, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates a method
func (r *GormCostingMethodRepository) Save(ctx context.Context, method *costing.CostingMethod) error {
	return translateError(r.db.WithContext(ctx).Save(models.CostingMethodModelFromDomain(method)).Error)
}

// SetDefault clears the previous default and flags id
func (r *GormCostingMethodRepository) SetDefault(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.CostingMethodModel{}).
		Where("is_default = ? AND id <> ?", true, id).
		Update("is_default", false).Error; err != nil {
		return translateError(err)
	}
	result := db.Model(&models.CostingMethodModel{}).Where("id = ?", id).Update("is_default", true)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}

// GormCostingRuleRepository implements CostingRuleRepository using GORM
type GormCostingRuleRepository struct {
	db *gorm.DB
}

// NewGormCostingRuleRepository creates a new GormCostingRuleRepository
func NewGormCostingRuleRepository(db *gorm.DB) *GormCostingRuleRepository {
	return &GormCostingRuleRepository{db: db}
}

// FindByID finds a rule by its ID
func (r *GormCostingRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*costing.CostingRule, error) {
	var model models.CostingRuleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindForProduct returns the product-scoped rules of a warehouse with their methods
func (r *GormCostingRuleRepository) FindForProduct(ctx context.Context, warehouseID, productID uuid.UUID) ([]costing.RuleCandidate, error) {
	return r.candidates(ctx, "warehouse_id = ? AND product_id = ?", warehouseID, productID)
}

// FindForCategory returns the category-scoped rules of a warehouse with their methods
func (r *GormCostingRuleRepository) FindForCategory(ctx context.Context, warehouseID, categoryID uuid.UUID) ([]costing.RuleCandidate, error) {
	return r.candidates(ctx, "warehouse_id = ? AND category_id = ?", warehouseID, categoryID)
}

func (r *GormCostingRuleRepository) candidates(ctx context.Context, query string, args ...any) ([]costing.RuleCandidate, error) {
	db := r.db.WithContext(ctx)
	var rules []models.CostingRuleModel
	if err := db.Where(query, args...).Order("priority DESC, created_at DESC").Find(&rules).Error; err != nil {
		return nil, translateError(err)
	}
	if len(rules) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(rules))
	for _, rule := range rules {
		ids = append(ids, rule.MethodID)
	}
	var methods []models.CostingMethodModel
	if err := db.Where("id IN ?", ids).Find(&methods).Error; err != nil {
		return nil, translateError(err)
	}
	byID := make(map[uuid.UUID]*models.CostingMethodModel, len(methods))
	for i := range methods {
		byID[methods[i].ID] = &methods[i]
	}

	out := make([]costing.RuleCandidate, 0, len(rules))
	for i := range rules {
		method, ok := byID[rules[i].MethodID]
		if !ok {
			return nil, fmt.Errorf("costing rule %s references missing method %s", rules[i].ID, rules[i].MethodID)
		}
		out = append(out, costing.RuleCandidate{Rule: *rules[i].ToDomain(), Method: *method.ToDomain()})
	}
	return out, nil
}

// FindByWarehouse returns all rules of a warehouse
func (r *GormCostingRuleRepository) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]costing.CostingRule, error) {
	var rows []models.CostingRuleModel
	err := r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("priority DESC, created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]costing.CostingRule, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates a rule
func (r *GormCostingRuleRepository) Save(ctx context.Context, rule *costing.CostingRule) error {
	return translateError(r.db.WithContext(ctx).Save(models.CostingRuleModelFromDomain(rule)).Error)
}

var (
	_ costing.CostingMethodRepository = (*GormCostingMethodRepository)(nil)
	_ costing.CostingRuleRepository   = (*GormCostingRuleRepository)(nil)
)
