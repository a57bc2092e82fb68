package costing

import (
	"context"
	"fmt"

	"github.com/erp/costing/internal/domain/catalog"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RegisterUnitRequest registers a unit of measure
type RegisterUnitRequest struct {
	Name   string `json:"name" validate:"required,max=50"`
	Symbol string `json:"symbol" validate:"required,max=20"`
	IsBase bool   `json:"is_base"`
}

// RenameUnitRequest changes a unit's labels
type RenameUnitRequest struct {
	Name   string `json:"name" validate:"required,max=50"`
	Symbol string `json:"symbol" validate:"required,max=20"`
}

// RegisterProductRequest registers a product reference. ID is optional so
// the upstream catalog's identifier can be kept.
type RegisterProductRequest struct {
	ID         *uuid.UUID `json:"id"`
	Code       string     `json:"code" validate:"required,max=50"`
	Name       string     `json:"name" validate:"required,max=200"`
	CategoryID *uuid.UUID `json:"category_id"`
}

// RegisterPackagingRequest registers a packaging of a product
type RegisterPackagingRequest struct {
	ProductID          uuid.UUID       `json:"product_id" validate:"required"`
	UnitID             uuid.UUID       `json:"unit_id" validate:"required"`
	QuantityPerPackage decimal.Decimal `json:"quantity_per_package"`
	Barcode            string          `json:"barcode" validate:"max=64"`
	IsDefault          bool            `json:"is_default"`
}

// CatalogService manages the units, products and packagings stock is kept in
type CatalogService struct {
	txScope TransactionScope
	repos   TransactionalRepositories
	logger  *zap.Logger
}

// NewCatalogService creates a CatalogService
func NewCatalogService(txScope TransactionScope, repos TransactionalRepositories, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{txScope: txScope, repos: repos, logger: logger}
}

// RegisterUnit creates a unit of measure
func (s *CatalogService) RegisterUnit(ctx context.Context, req RegisterUnitRequest) (*UnitResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	unit, err := catalog.NewUnit(req.Name, req.Symbol, req.IsBase)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Units().Save(ctx, unit); err != nil {
		return nil, err
	}
	s.logger.Info("unit registered", zap.Stringer("unit_id", unit.ID), zap.String("symbol", unit.Symbol))
	resp := ToUnitResponse(unit)
	return &resp, nil
}

// RenameUnit changes a unit that no packaging refers to yet
func (s *CatalogService) RenameUnit(ctx context.Context, id uuid.UUID, req RenameUnitRequest) (*UnitResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var resp UnitResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		unit, err := repos.Units().FindByID(ctx, id)
		if err != nil {
			return err
		}
		referenced, err := repos.Units().IsReferenced(ctx, id)
		if err != nil {
			return err
		}
		if err := unit.Rename(req.Name, req.Symbol, referenced); err != nil {
			return err
		}
		if err := repos.Units().Save(ctx, unit); err != nil {
			return err
		}
		resp = ToUnitResponse(unit)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListUnits returns every unit of measure
func (s *CatalogService) ListUnits(ctx context.Context) ([]UnitResponse, error) {
	units, err := s.repos.Units().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UnitResponse, len(units))
	for i := range units {
		out[i] = ToUnitResponse(&units[i])
	}
	return out, nil
}

// RegisterProduct creates a product reference
func (s *CatalogService) RegisterProduct(ctx context.Context, req RegisterProductRequest) (*ProductResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	product, err := catalog.NewProduct(req.Code, req.Name, req.CategoryID)
	if err != nil {
		return nil, err
	}
	if req.ID != nil && *req.ID != uuid.Nil {
		product.ID = *req.ID
	}
	if err := s.repos.Products().Save(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info("product registered", zap.Stringer("product_id", product.ID), zap.String("code", product.Code))
	resp := ToProductResponse(product)
	return &resp, nil
}

// GetProduct returns a product reference
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.repos.Products().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// RegisterPackaging creates a packaging. The first packaging of a product
// becomes its default.
func (s *CatalogService) RegisterPackaging(ctx context.Context, req RegisterPackagingRequest) (*PackagingResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	packaging, err := catalog.NewPackaging(req.ProductID, req.UnitID, req.QuantityPerPackage, req.Barcode)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Products().FindByID(ctx, req.ProductID); err != nil {
			if shared.IsNotFound(err) {
				return shared.NewValidationError(shared.CodeInvalidPackaging, "product %s does not exist", req.ProductID)
			}
			return err
		}
		if _, err := repos.Units().FindByID(ctx, req.UnitID); err != nil {
			if shared.IsNotFound(err) {
				return shared.NewValidationError(shared.CodeInvalidPackaging, "unit %s does not exist", req.UnitID)
			}
			return err
		}
		exists, err := repos.Packagings().ExistsByKey(ctx, req.ProductID, req.UnitID, req.QuantityPerPackage)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: product already has a packaging of %s per unit", shared.ErrAlreadyExists, req.QuantityPerPackage)
		}

		existing, err := repos.Packagings().FindByProduct(ctx, req.ProductID)
		if err != nil {
			return err
		}
		if req.IsDefault || len(existing) == 0 {
			if err := repos.Packagings().ClearDefault(ctx, req.ProductID); err != nil {
				return err
			}
			packaging.MarkDefault()
		}
		return repos.Packagings().Save(ctx, packaging)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("packaging registered",
		zap.Stringer("packaging_id", packaging.ID),
		zap.Stringer("product_id", packaging.ProductID),
		zap.String("quantity_per_package", packaging.QuantityPerPackage.String()),
	)
	resp := ToPackagingResponse(packaging)
	return &resp, nil
}

// ListPackagings returns the packagings of a product
func (s *CatalogService) ListPackagings(ctx context.Context, productID uuid.UUID) ([]PackagingResponse, error) {
	packagings, err := s.repos.Packagings().FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]PackagingResponse, len(packagings))
	for i := range packagings {
		out[i] = ToPackagingResponse(&packagings[i])
	}
	return out, nil
}

// SetDefaultPackaging makes a packaging its product's only default
func (s *CatalogService) SetDefaultPackaging(ctx context.Context, id uuid.UUID) (*PackagingResponse, error) {
	var resp PackagingResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		packaging, err := repos.Packagings().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := repos.Packagings().ClearDefault(ctx, packaging.ProductID); err != nil {
			return err
		}
		packaging.MarkDefault()
		if err := repos.Packagings().Save(ctx, packaging); err != nil {
			return err
		}
		resp = ToPackagingResponse(packaging)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
