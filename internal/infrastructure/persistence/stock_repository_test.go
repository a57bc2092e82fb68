package persistence

import (
	"context"
	"testing"

	"github.com/erp/costing/internal/domain/inventory"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStockRepository_FindOrCreate(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockRepository(db)
	ctx := context.Background()
	key := newTestKey()

	_, err := repo.FindByKey(ctx, key)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	first, err := repo.FindOrCreate(ctx, key)
	require.NoError(t, err)
	assert.True(t, first.Quantity.IsZero())
	assert.Equal(t, key, first.StockKey)

	second, err := repo.FindOrCreate(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGormStockRepository_SaveWithLock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockRepository(db)
	ctx := context.Background()
	key := newTestKey()

	stock, err := repo.FindOrCreate(ctx, key)
	require.NoError(t, err)
	stale, err := repo.FindByKey(ctx, key)
	require.NoError(t, err)

	startVersion := stock.Version
	stock.Quantity = decimal.NewFromInt(150)
	stock.CostPrice = decimal.RequireFromString("10.4")
	stock.ReservedQuantity = decimal.NewFromInt(5)
	require.NoError(t, repo.SaveWithLock(ctx, stock))
	assert.Equal(t, startVersion+1, stock.Version)

	stored, err := repo.FindByKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, startVersion+1, stored.Version)
	assert.True(t, stored.Quantity.Equal(decimal.NewFromInt(150)))
	assert.True(t, stored.CostPrice.Equal(decimal.RequireFromString("10.4")))
	assert.True(t, stored.ReservedQuantity.Equal(decimal.NewFromInt(5)))

	stale.Quantity = decimal.NewFromInt(1)
	err = repo.SaveWithLock(ctx, stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.True(t, shared.IsConcurrencyConflict(err))
	assert.Equal(t, startVersion, stale.Version)
}

func TestGormStockRepository_FindByWarehouse(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockRepository(db)
	ctx := context.Background()
	key := newTestKey()

	for i := 0; i < 3; i++ {
		k := inventory.NewStockKey(key.WarehouseID, newTestKey().ProductID, key.PackagingID)
		_, err := repo.FindOrCreate(ctx, k)
		require.NoError(t, err)
	}
	_, err := repo.FindOrCreate(ctx, newTestKey())
	require.NoError(t, err)

	stocks, total, err := repo.FindByWarehouse(ctx, key.WarehouseID, shared.Filter{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, stocks, 2)
	for _, s := range stocks {
		assert.Equal(t, key.WarehouseID, s.WarehouseID)
	}
}
