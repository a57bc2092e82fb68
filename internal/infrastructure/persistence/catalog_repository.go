package persistence

import (
	"context"

	"github.com/erp/costing/internal/domain/catalog"
	"github.com/erp/costing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormUnitRepository implements UnitRepository using GORM
type GormUnitRepository struct {
	db *gorm.DB
}

// NewGormUnitRepository creates a new GormUnitRepository
func NewGormUnitRepository(db *gorm.DB) *GormUnitRepository {
	return &GormUnitRepository{db: db}
}

// FindByID finds a unit by its ID
func (r *GormUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Unit, error) {
	var model models.UnitModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns every unit ordered by name
func (r *GormUnitRepository) FindAll(ctx context.Context) ([]catalog.Unit, error) {
	var rows []models.UnitModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	out := make([]catalog.Unit, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates a unit
func (r *GormUnitRepository) Save(ctx context.Context, unit *catalog.Unit) error {
	return translateError(r.db.WithContext(ctx).Save(models.UnitModelFromDomain(unit)).Error)
}

// IsReferenced reports whether any packaging uses the unit
func (r *GormUnitRepository) IsReferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PackagingModel{}).Where("unit_id = ?", id).Count(&count).Error
	if err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return translateError(r.db.WithContext(ctx).Save(models.ProductModelFromDomain(product)).Error)
}

// GormPackagingRepository implements PackagingRepository using GORM
type GormPackagingRepository struct {
	db *gorm.DB
}

// NewGormPackagingRepository creates a new GormPackagingRepository
func NewGormPackagingRepository(db *gorm.DB) *GormPackagingRepository {
	return &GormPackagingRepository{db: db}
}

// FindByID finds a packaging by its ID
func (r *GormPackagingRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Packaging, error) {
	var model models.PackagingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByProduct returns a product's packagings, default first
func (r *GormPackagingRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.Packaging, error) {
	var rows []models.PackagingModel
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("is_default DESC, quantity_per_package ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]catalog.Packaging, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// FindDefault returns the product's default packaging
func (r *GormPackagingRepository) FindDefault(ctx context.Context, productID uuid.UUID) (*catalog.Packaging, error) {
	var model models.PackagingModel
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_default = ?", productID, true).
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ExistsByKey reports whether the (product, unit, quantity) packaging exists
func (r *GormPackagingRepository) ExistsByKey(ctx context.Context, productID, unitID uuid.UUID, quantityPerPackage decimal.Decimal) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PackagingModel{}).
		Where("product_id = ? AND unit_id = ? AND quantity_per_package = ?", productID, unitID, quantityPerPackage).
		Count(&count).Error
	if err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// Save creates or updates a packaging
func (r *GormPackagingRepository) Save(ctx context.Context, packaging *catalog.Packaging) error {
	return translateError(r.db.WithContext(ctx).Save(models.PackagingModelFromDomain(packaging)).Error)
}

// ClearDefault unsets the default flag on all of a product's packagings
func (r *GormPackagingRepository) ClearDefault(ctx context.Context, productID uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&models.PackagingModel{}).
		Where("product_id = ? AND is_default = ?", productID, true).
		Update("is_default", false).Error
	return translateError(err)
}

var (
	_ catalog.UnitRepository      = (*GormUnitRepository)(nil)
	_ catalog.ProductRepository   = (*GormProductRepository)(nil)
	_ catalog.PackagingRepository = (*GormPackagingRepository)(nil)
)
