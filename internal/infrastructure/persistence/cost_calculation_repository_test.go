package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/costing/internal/domain/inventory"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCostCalculationRepository_CurrentReport(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCostCalculationRepository(db)
	ctx := context.Background()
	key := newTestKey()

	_, err := repo.FindCurrent(ctx, key)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	batches := []inventory.StockBatch{
		*newTestBatch(t, key, "B-1", 100, 10, baseTime),
		*newTestBatch(t, key, "B-2", 50, 12, baseTime.Add(time.Hour)),
	}
	first := inventory.NewCostCalculation(key, batches, decimal.NewFromInt(1))
	first.SetFIFO(decimal.NewFromInt(10), nil)
	first.SetLIFO(decimal.Zero, errors.New("no batches"))
	require.NoError(t, repo.Create(ctx, first))

	require.NoError(t, repo.ClearCurrent(ctx, key))
	second := inventory.NewCostCalculation(key, batches[:1], decimal.NewFromInt(12))
	second.CalculatedAt = first.CalculatedAt.Add(time.Minute)
	require.NoError(t, repo.Create(ctx, second))

	current, err := repo.FindCurrent(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)
	assert.True(t, current.BaseQuantity.Equal(decimal.NewFromInt(1200)))

	reports, total, err := repo.FindByKey(ctx, key, shared.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, reports, 2)
	assert.Equal(t, second.ID, reports[0].ID)
	old := reports[1]
	assert.False(t, old.IsCurrent)
	require.NotNil(t, old.FIFOCost)
	assert.True(t, old.FIFOCost.Equal(decimal.NewFromInt(10)))
	assert.Nil(t, old.LIFOCost)
	assert.Equal(t, "no batches", old.LIFOUnavailableReason)
}
