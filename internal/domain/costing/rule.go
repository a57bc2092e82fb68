package costing

import (
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
)

// RuleScope tells whether a rule targets a product or a category
type RuleScope string

const (
	RuleScopeProduct  RuleScope = "product"
	RuleScopeCategory RuleScope = "category"
)

// CostingRule binds a costing method to a warehouse and exactly one of a
// product or a category
type CostingRule struct {
	shared.BaseEntity
	MethodID    uuid.UUID
	WarehouseID uuid.UUID
	ProductID   *uuid.UUID
	CategoryID  *uuid.UUID
	Priority    int
}

// NewCostingRule creates a rule; exactly one of productID and categoryID must be set
func NewCostingRule(methodID, warehouseID uuid.UUID, productID, categoryID *uuid.UUID, priority int) (*CostingRule, error) {
	if methodID == uuid.Nil {
		return nil, shared.NewValidationError(shared.CodeInvalidMethod, "costing rule requires a method")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewValidationError(shared.CodeInvalidRuleScope, "costing rule requires a warehouse")
	}
	hasProduct := productID != nil && *productID != uuid.Nil
	hasCategory := categoryID != nil && *categoryID != uuid.Nil
	if hasProduct == hasCategory {
		return nil, shared.NewValidationError(shared.CodeInvalidRuleScope, "costing rule must target exactly one of product or category")
	}
	if !hasProduct {
		productID = nil
	}
	if !hasCategory {
		categoryID = nil
	}

	return &CostingRule{
		BaseEntity:  shared.NewBaseEntity(),
		MethodID:    methodID,
		WarehouseID: warehouseID,
		ProductID:   productID,
		CategoryID:  categoryID,
		Priority:    priority,
	}, nil
}

// Scope returns the rule's target kind
func (r *CostingRule) Scope() RuleScope {
	if r.ProductID != nil {
		return RuleScopeProduct
	}
	return RuleScopeCategory
}
