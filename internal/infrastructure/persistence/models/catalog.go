package models

import (
	"github.com/erp/costing/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitModel is the persistence model for catalog.Unit
type UnitModel struct {
	BaseModel
	Name   string `gorm:"type:varchar(50);not null"`
	Symbol string `gorm:"type:varchar(20);not null;uniqueIndex:idx_unit_symbol"`
	IsBase bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (UnitModel) TableName() string {
	return "units"
}

// ToDomain converts the persistence model to a domain Unit
func (m *UnitModel) ToDomain() *catalog.Unit {
	return &catalog.Unit{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Symbol:     m.Symbol,
		IsBase:     m.IsBase,
	}
}

// UnitModelFromDomain creates a persistence model from a domain Unit
func UnitModelFromDomain(u *catalog.Unit) *UnitModel {
	m := &UnitModel{Name: u.Name, Symbol: u.Symbol, IsBase: u.IsBase}
	m.FromDomainBaseEntity(u.BaseEntity)
	return m
}

// ProductModel is the persistence model for the product reference
type ProductModel struct {
	BaseModel
	Code       string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_product_code"`
	Name       string     `gorm:"type:varchar(200);not null"`
	CategoryID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity: m.BaseModel.ToDomain(),
		Code:       m.Code,
		Name:       m.Name,
		CategoryID: m.CategoryID,
	}
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{Code: p.Code, Name: p.Name, CategoryID: p.CategoryID}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// PackagingModel is the persistence model for catalog.Packaging
type PackagingModel struct {
	BaseModel
	ProductID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_packaging_key,priority:1"`
	UnitID             uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_packaging_key,priority:2"`
	QuantityPerPackage decimal.Decimal `gorm:"type:decimal(18,4);not null;uniqueIndex:idx_packaging_key,priority:3"`
	Barcode            string          `gorm:"type:varchar(64)"`
	IsDefault          bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (PackagingModel) TableName() string {
	return "packagings"
}

// ToDomain converts the persistence model to a domain Packaging
func (m *PackagingModel) ToDomain() *catalog.Packaging {
	return &catalog.Packaging{
		BaseEntity:         m.BaseModel.ToDomain(),
		ProductID:          m.ProductID,
		UnitID:             m.UnitID,
		QuantityPerPackage: m.QuantityPerPackage,
		Barcode:            m.Barcode,
		IsDefault:          m.IsDefault,
	}
}

// PackagingModelFromDomain creates a persistence model from a domain Packaging
func PackagingModelFromDomain(p *catalog.Packaging) *PackagingModel {
	m := &PackagingModel{
		ProductID:          p.ProductID,
		UnitID:             p.UnitID,
		QuantityPerPackage: p.QuantityPerPackage,
		Barcode:            p.Barcode,
		IsDefault:          p.IsDefault,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
