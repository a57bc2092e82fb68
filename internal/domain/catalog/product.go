package catalog

import (
	"strings"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
)

// Product is the costing engine's reference to a catalog product.
// Only the category matters here, for category-scoped costing rules.
type Product struct {
	shared.BaseEntity
	Code       string
	Name       string
	CategoryID *uuid.UUID
}

// NewProduct creates a product reference
func NewProduct(code, name string, categoryID *uuid.UUID) (*Product, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" || len(code) > 50 {
		return nil, shared.NewValidationError(shared.CodeValidation, "product code must be 1-50 characters")
	}
	if name == "" || len(name) > 200 {
		return nil, shared.NewValidationError(shared.CodeValidation, "product name must be 1-200 characters")
	}
	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
		CategoryID: categoryID,
	}, nil
}

// HasCategory reports whether the product is assigned to a category
func (p *Product) HasCategory() bool {
	return p.CategoryID != nil && *p.CategoryID != uuid.Nil
}
