package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitRepository persists units of measure
type UnitRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Unit, error)
	FindAll(ctx context.Context) ([]Unit, error)
	Save(ctx context.Context, unit *Unit) error
	// IsReferenced reports whether any packaging uses the unit
	IsReferenced(ctx context.Context, id uuid.UUID) (bool, error)
}

// ProductRepository persists product references
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Save(ctx context.Context, product *Product) error
}

// PackagingRepository persists packagings
type PackagingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Packaging, error)
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]Packaging, error)
	FindDefault(ctx context.Context, productID uuid.UUID) (*Packaging, error)
	ExistsByKey(ctx context.Context, productID, unitID uuid.UUID, quantityPerPackage decimal.Decimal) (bool, error)
	Save(ctx context.Context, packaging *Packaging) error
	// ClearDefault unsets the default flag on every packaging of the product
	ClearDefault(ctx context.Context, productID uuid.UUID) error
}
