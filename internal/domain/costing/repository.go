package costing

import (
	"context"

	"github.com/erp/costing/internal/domain/shared/strategy"
	"github.com/google/uuid"
)

// CostingMethodRepository persists costing methods
type CostingMethodRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CostingMethod, error)
	FindByCode(ctx context.Context, code strategy.CostMethod) (*CostingMethod, error)
	FindDefault(ctx context.Context) (*CostingMethod, error)
	FindAll(ctx context.Context) ([]CostingMethod, error)
	Save(ctx context.Context, method *CostingMethod) error
	// SetDefault makes id the only default method
	SetDefault(ctx context.Context, id uuid.UUID) error
}

// CostingRuleRepository persists costing rules
type CostingRuleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CostingRule, error)
	// FindForProduct returns rules for (warehouse, product) with their methods
	FindForProduct(ctx context.Context, warehouseID, productID uuid.UUID) ([]RuleCandidate, error)
	// FindForCategory returns rules for (warehouse, category) with their methods
	FindForCategory(ctx context.Context, warehouseID, categoryID uuid.UUID) ([]RuleCandidate, error)
	FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]CostingRule, error)
	Save(ctx context.Context, rule *CostingRule) error
}
