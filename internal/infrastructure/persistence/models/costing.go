package models

import (
	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared/strategy"
	"github.com/google/uuid"
)

// CostingMethodModel is the persistence model for costing.CostingMethod
type CostingMethodModel struct {
	BaseModel
	Code        string `gorm:"type:varchar(20);not null;uniqueIndex:idx_costing_method_code"`
	Name        string `gorm:"type:varchar(100);not null"`
	Description string `gorm:"type:text"`
	IsDefault   bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (CostingMethodModel) TableName() string {
	return "costing_methods"
}

// ToDomain converts the persistence model to a domain CostingMethod
func (m *CostingMethodModel) ToDomain() *costing.CostingMethod {
	return &costing.CostingMethod{
		BaseEntity:  m.BaseModel.ToDomain(),
		Code:        strategy.CostMethod(m.Code),
		Name:        m.Name,
		Description: m.Description,
		IsDefault:   m.IsDefault,
	}
}

// CostingMethodModelFromDomain creates a persistence model from a domain CostingMethod
func CostingMethodModelFromDomain(c *costing.CostingMethod) *CostingMethodModel {
	m := &CostingMethodModel{
		Code:        string(c.Code),
		Name:        c.Name,
		Description: c.Description,
		IsDefault:   c.IsDefault,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// CostingRuleModel is the persistence model for costing.CostingRule
type CostingRuleModel struct {
	BaseModel
	MethodID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID  `gorm:"type:uuid;not null;index:idx_costing_rule_product,priority:1;index:idx_costing_rule_category,priority:1"`
	ProductID   *uuid.UUID `gorm:"type:uuid;index:idx_costing_rule_product,priority:2"`
	CategoryID  *uuid.UUID `gorm:"type:uuid;index:idx_costing_rule_category,priority:2"`
	Priority    int        `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (CostingRuleModel) TableName() string {
	return "costing_rules"
}

// ToDomain converts the persistence model to a domain CostingRule
func (m *CostingRuleModel) ToDomain() *costing.CostingRule {
	return &costing.CostingRule{
		BaseEntity:  m.BaseModel.ToDomain(),
		MethodID:    m.MethodID,
		WarehouseID: m.WarehouseID,
		ProductID:   m.ProductID,
		CategoryID:  m.CategoryID,
		Priority:    m.Priority,
	}
}

// CostingRuleModelFromDomain creates a persistence model from a domain CostingRule
func CostingRuleModelFromDomain(r *costing.CostingRule) *CostingRuleModel {
	m := &CostingRuleModel{
		MethodID:    r.MethodID,
		WarehouseID: r.WarehouseID,
		ProductID:   r.ProductID,
		CategoryID:  r.CategoryID,
		Priority:    r.Priority,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}
