package catalog

import (
	"strings"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Packaging is the form a product is stocked in, e.g. "box of 24 pieces".
// Stock and batches are always kept per packaging.
type Packaging struct {
	shared.BaseEntity
	ProductID          uuid.UUID
	UnitID             uuid.UUID
	QuantityPerPackage decimal.Decimal
	Barcode            string
	IsDefault          bool
}

// NewPackaging creates a packaging for a product
func NewPackaging(productID, unitID uuid.UUID, quantityPerPackage decimal.Decimal, barcode string) (*Packaging, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError(shared.CodeInvalidPackaging, "packaging requires a product")
	}
	if unitID == uuid.Nil {
		return nil, shared.NewValidationError(shared.CodeInvalidPackaging, "packaging requires a unit")
	}
	if !quantityPerPackage.IsPositive() {
		return nil, shared.NewValidationError(shared.CodeInvalidQuantity, "quantity per package must be positive")
	}
	if !shared.FitsStorageScale(quantityPerPackage) {
		return nil, shared.NewValidationError(shared.CodeInvalidQuantity, "quantity per package allows at most %d decimal places", shared.StorageScale)
	}
	barcode = strings.TrimSpace(barcode)
	if len(barcode) > 64 {
		return nil, shared.NewValidationError(shared.CodeInvalidPackaging, "barcode must be at most 64 characters")
	}

	return &Packaging{
		BaseEntity:         shared.NewBaseEntity(),
		ProductID:          productID,
		UnitID:             unitID,
		QuantityPerPackage: quantityPerPackage,
		Barcode:            barcode,
	}, nil
}

// BelongsTo reports whether the packaging is one of productID's packagings
func (p *Packaging) BelongsTo(productID uuid.UUID) bool {
	return p.ProductID == productID
}

// BaseQuantity converts a quantity of packages into base units
func (p *Packaging) BaseQuantity(packages decimal.Decimal) decimal.Decimal {
	return packages.Mul(p.QuantityPerPackage)
}

// MarkDefault flags this packaging as the product's default.
// Clearing the previous default is the repository's job.
func (p *Packaging) MarkDefault() {
	p.IsDefault = true
	p.Touch()
}

// ClearDefault removes the default flag
func (p *Packaging) ClearDefault() {
	p.IsDefault = false
	p.Touch()
}
