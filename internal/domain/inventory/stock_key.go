package inventory

import (
	"fmt"

	"github.com/google/uuid"
)

// StockKey identifies one stock position: a product in a packaging held in a warehouse
type StockKey struct {
	WarehouseID uuid.UUID
	ProductID   uuid.UUID
	PackagingID uuid.UUID
}

// NewStockKey creates a StockKey
func NewStockKey(warehouseID, productID, packagingID uuid.UUID) StockKey {
	return StockKey{WarehouseID: warehouseID, ProductID: productID, PackagingID: packagingID}
}

// IsZero reports whether any part of the key is missing
func (k StockKey) IsZero() bool {
	return k.WarehouseID == uuid.Nil || k.ProductID == uuid.Nil || k.PackagingID == uuid.Nil
}

// WithWarehouse returns the same product/packaging in another warehouse
func (k StockKey) WithWarehouse(warehouseID uuid.UUID) StockKey {
	k.WarehouseID = warehouseID
	return k
}

// String renders the key for logs and cache keys
func (k StockKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.WarehouseID, k.ProductID, k.PackagingID)
}
