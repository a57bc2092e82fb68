package cache

import (
	"context"
	"testing"
	"time"

	appcosting "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey() inventory.StockKey {
	return inventory.StockKey{WarehouseID: uuid.New(), ProductID: uuid.New(), PackagingID: uuid.New()}
}

func samplePreview() *appcosting.CostPreviewResponse {
	return &appcosting.CostPreviewResponse{
		Method:    "fifo",
		Quantity:  decimal.NewFromInt(5),
		Available: decimal.NewFromInt(8),
		UnitCost:  decimal.RequireFromString("10.5"),
		TotalCost: decimal.RequireFromString("52.5"),
		Allocations: []appcosting.BatchAllocationResponse{
			{BatchID: uuid.New(), BatchNumber: "B-1", Quantity: decimal.NewFromInt(5), UnitCost: decimal.RequireFromString("10.5")},
		},
	}
}

func TestInMemoryPreviewCache_SetGet(t *testing.T) {
	c := NewInMemoryPreviewCache(time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()
	key := appcosting.PreviewCacheKey(newKey(), "fifo", decimal.NewFromInt(5), "")

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	c.Set(ctx, key, samplePreview())
	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.True(t, got.TotalCost.Equal(decimal.RequireFromString("52.5")))

	// callers cannot mutate the stored copy
	got.Allocations[0].BatchNumber = "changed"
	again, _ := c.Get(ctx, key)
	assert.Equal(t, "B-1", again.Allocations[0].BatchNumber)
}

func TestInMemoryPreviewCache_Expiry(t *testing.T) {
	c := NewInMemoryPreviewCache(time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, "k", samplePreview())
	now = now.Add(59 * time.Second)
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)

	c.sweep()
	assert.Equal(t, 0, c.Len())
}

func TestInMemoryPreviewCache_InvalidateByPosition(t *testing.T) {
	c := NewInMemoryPreviewCache(time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	a, b := newKey(), newKey()
	keyA1 := appcosting.PreviewCacheKey(a, "fifo", decimal.NewFromInt(1), "")
	keyA2 := appcosting.PreviewCacheKey(a, "average", decimal.NewFromInt(2), "")
	keyB := appcosting.PreviewCacheKey(b, "fifo", decimal.NewFromInt(1), "")
	for _, k := range []string{keyA1, keyA2, keyB} {
		c.Set(ctx, k, samplePreview())
	}

	c.Invalidate(ctx, a)

	_, ok := c.Get(ctx, keyA1)
	assert.False(t, ok)
	_, ok = c.Get(ctx, keyA2)
	assert.False(t, ok)
	_, ok = c.Get(ctx, keyB)
	assert.True(t, ok)
}

func TestInMemoryPreviewCache_SetNil(t *testing.T) {
	c := NewInMemoryPreviewCache(time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	c.Set(context.Background(), "k", nil)
	assert.Equal(t, 0, c.Len())
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestStockPart(t *testing.T) {
	key := newKey()
	full := appcosting.PreviewCacheKey(key, "lifo", decimal.NewFromInt(3), "")
	assert.Equal(t, key.String(), stockPart(full))
	assert.Equal(t, "plain", stockPart("plain"))
}
