package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/erp/costing/internal/domain/inventory"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStockBatchRepository_CreateAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockBatchRepository(db)
	ctx := context.Background()
	key := newTestKey()

	expiry := baseTime.Add(30 * 24 * time.Hour)
	batch := newTestBatch(t, key, "B-1", 100, 10, baseTime)
	batch.ExpiryDate = &expiry
	batch.SupplierRef = "PO-77"
	require.NoError(t, repo.Create(ctx, batch))

	got, err := repo.FindByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, key, got.StockKey)
	assert.Equal(t, "B-1", got.BatchNumber)
	assert.True(t, got.InitialQuantity.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.RemainingQuantity.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.UnitCost.Equal(decimal.NewFromInt(10)))
	assert.True(t, got.ReceivedAt.Equal(baseTime))
	require.NotNil(t, got.ExpiryDate)
	assert.True(t, got.ExpiryDate.Equal(expiry))
	assert.Equal(t, "PO-77", got.SupplierRef)
	assert.True(t, got.IsActive)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormStockBatchRepository_DuplicateNumber(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockBatchRepository(db)
	ctx := context.Background()
	key := newTestKey()

	require.NoError(t, repo.Create(ctx, newTestBatch(t, key, "B-1", 10, 1, baseTime)))
	err := repo.Create(ctx, newTestBatch(t, key, "B-1", 5, 1, baseTime))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	// the same number is free in another position
	other := key.WithWarehouse(uuid.New())
	assert.NoError(t, repo.Create(ctx, newTestBatch(t, other, "B-1", 5, 1, baseTime)))
}

func TestGormStockBatchRepository_FindActiveByKeyOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockBatchRepository(db)
	ctx := context.Background()
	key := newTestKey()

	late := newTestBatch(t, key, "B-3", 10, 12, baseTime.Add(2*time.Hour))
	early := newTestBatch(t, key, "B-1", 10, 10, baseTime)
	sameTimeB := newTestBatch(t, key, "B-2b", 10, 11, baseTime.Add(time.Hour))
	sameTimeA := newTestBatch(t, key, "B-2a", 10, 11, baseTime.Add(time.Hour))
	closed := newTestBatch(t, key, "B-0", 10, 9, baseTime.Add(-time.Hour))
	closed.IsActive = false
	for _, b := range []*inventory.StockBatch{late, early, sameTimeB, sameTimeA, closed} {
		require.NoError(t, repo.Create(ctx, b))
	}
	require.NoError(t, repo.UpdateRemaining(ctx, []*inventory.StockBatch{closed}))
	require.NoError(t, repo.Create(ctx, newTestBatch(t, newTestKey(), "X-1", 10, 1, baseTime)))

	for name, find := range map[string]func(context.Context, inventory.StockKey) ([]inventory.StockBatch, error){
		"plain":      repo.FindActiveByKey,
		"for update": repo.FindActiveByKeyForUpdate,
	} {
		t.Run(name, func(t *testing.T) {
			batches, err := find(ctx, key)
			require.NoError(t, err)
			numbers := make([]string, len(batches))
			for i, b := range batches {
				numbers[i] = b.BatchNumber
			}
			assert.Equal(t, []string{"B-1", "B-2a", "B-2b", "B-3"}, numbers)
		})
	}
}

func TestGormStockBatchRepository_UpdateRemaining(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockBatchRepository(db)
	ctx := context.Background()
	key := newTestKey()

	b := newTestBatch(t, key, "B-1", 100, 10, baseTime)
	require.NoError(t, repo.Create(ctx, b))

	require.NoError(t, b.Deduct(decimal.RequireFromString("37.5")))
	require.NoError(t, repo.UpdateRemaining(ctx, []*inventory.StockBatch{b}))

	got, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.RemainingQuantity.Equal(decimal.RequireFromString("62.5")), got.RemainingQuantity.String())
	assert.True(t, got.InitialQuantity.Equal(decimal.NewFromInt(100)))

	missing := newTestBatch(t, key, "B-9", 1, 1, baseTime)
	err = repo.UpdateRemaining(ctx, []*inventory.StockBatch{missing})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormStockBatchRepository_FindAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockBatchRepository(db)
	ctx := context.Background()
	key := newTestKey()

	for i, qty := range []int64{10, 20, 30} {
		b := newTestBatch(t, key, fmt.Sprintf("B-%d", i+1), qty, 5, baseTime.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Create(ctx, b))
	}
	empty := newTestBatch(t, key, "B-E", 5, 5, baseTime.Add(5*time.Hour))
	require.NoError(t, repo.Create(ctx, empty))
	require.NoError(t, empty.Deduct(decimal.NewFromInt(5)))
	require.NoError(t, repo.UpdateRemaining(ctx, []*inventory.StockBatch{empty}))

	tests := []struct {
		name      string
		filter    inventory.BatchFilter
		wantTotal int64
		wantFirst string
		wantLen   int
	}{
		{
			name:      "active with stock, newest first",
			filter:    inventory.BatchFilter{WarehouseID: &key.WarehouseID},
			wantTotal: 3, wantFirst: "B-3", wantLen: 3,
		},
		{
			name:      "include empty",
			filter:    inventory.BatchFilter{WarehouseID: &key.WarehouseID, IncludeEmpty: true},
			wantTotal: 4, wantFirst: "B-E", wantLen: 4,
		},
		{
			name: "paged ascending",
			filter: inventory.BatchFilter{
				Filter:    shared.Filter{Page: 2, PageSize: 2, OrderBy: "received_at", OrderDir: "asc"},
				ProductID: &key.ProductID,
			},
			wantTotal: 3, wantFirst: "B-3", wantLen: 1,
		},
		{
			name:      "unknown sort field falls back",
			filter:    inventory.BatchFilter{Filter: shared.Filter{OrderBy: "1; DROP TABLE stock_batches"}, PackagingID: &key.PackagingID},
			wantTotal: 3, wantFirst: "B-3", wantLen: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches, total, err := repo.FindAll(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			require.Len(t, batches, tt.wantLen)
			assert.Equal(t, tt.wantFirst, batches[0].BatchNumber)
		})
	}
}

func TestGormStockBatchRepository_FindExpiring(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockBatchRepository(db)
	ctx := context.Background()
	key := newTestKey()

	soon := baseTime.Add(24 * time.Hour)
	later := baseTime.Add(90 * 24 * time.Hour)
	expiring := newTestBatch(t, key, "B-SOON", 10, 1, baseTime)
	expiring.ExpiryDate = &soon
	fresh := newTestBatch(t, key, "B-LATER", 10, 1, baseTime)
	fresh.ExpiryDate = &later
	noExpiry := newTestBatch(t, key, "B-NONE", 10, 1, baseTime)
	otherWarehouse := newTestBatch(t, key.WithWarehouse(uuid.New()), "B-OTHER", 10, 1, baseTime)
	otherWarehouse.ExpiryDate = &soon
	for _, b := range []*inventory.StockBatch{expiring, fresh, noExpiry, otherWarehouse} {
		require.NoError(t, repo.Create(ctx, b))
	}

	cutoff := baseTime.Add(7 * 24 * time.Hour)
	all, err := repo.FindExpiring(ctx, cutoff, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := repo.FindExpiring(ctx, cutoff, &key.WarehouseID)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "B-SOON", scoped[0].BatchNumber)
}

func TestGormStockBatchRepository_NumberLookups(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockBatchRepository(db)
	ctx := context.Background()
	key := newTestKey()

	prefix := inventory.BatchNumberPrefix(baseTime)
	for seq := int64(1); seq <= 3; seq++ {
		require.NoError(t, repo.Create(ctx, newTestBatch(t, key, inventory.GenerateBatchNumber(baseTime, seq), 1, 1, baseTime)))
	}
	require.NoError(t, repo.Create(ctx, newTestBatch(t, key, "MANUAL", 1, 1, baseTime)))

	count, err := repo.CountByNumberPrefix(ctx, key, prefix)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	exists, err := repo.ExistsByNumber(ctx, key, "MANUAL")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByNumber(ctx, key.WithWarehouse(uuid.New()), "MANUAL")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGormStockBatchRepository_DeactivateEmpty(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockBatchRepository(db)
	ctx := context.Background()
	key := newTestKey()
	otherKey := key.WithWarehouse(uuid.New())

	var emptied []*inventory.StockBatch
	for _, k := range []inventory.StockKey{key, key, otherKey} {
		b := newTestBatch(t, k, uuid.NewString()[:8], 4, 1, baseTime)
		require.NoError(t, repo.Create(ctx, b))
		require.NoError(t, b.Deduct(decimal.NewFromInt(4)))
		emptied = append(emptied, b)
	}
	require.NoError(t, repo.UpdateRemaining(ctx, emptied))
	require.NoError(t, repo.Create(ctx, newTestBatch(t, key, "KEEP", 4, 1, baseTime)))

	n, err := repo.DeactivateEmpty(ctx, &key.WarehouseID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.DeactivateEmpty(ctx, &key.WarehouseID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = repo.DeactivateEmpty(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	active, err := repo.FindActiveByKey(ctx, key)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "KEEP", active[0].BatchNumber)
}
