// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: BaseModel and AggregateModel
// - catalog.go: units, products, packagings
// - inventory.go: stock batches, movements, stock projection, cost calculations
// - costing.go: costing methods and rules
package models
