package persistence

import (
	"context"
	"errors"
	"testing"

	appcosting "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope_Execute(t *testing.T) {
	db := newTestDB(t)
	scope := NewGormTransactionScope(db)
	batches := NewGormStockBatchRepository(db)
	ctx := context.Background()
	key := newTestKey()

	t.Run("commit", func(t *testing.T) {
		err := scope.Execute(ctx, func(repos appcosting.TransactionalRepositories) error {
			return repos.Batches().Create(ctx, newTestBatch(t, key, "B-1", 10, 1, baseTime))
		})
		require.NoError(t, err)
		ok, err := batches.ExistsByNumber(ctx, key, "B-1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := scope.Execute(ctx, func(repos appcosting.TransactionalRepositories) error {
			if err := repos.Batches().Create(ctx, newTestBatch(t, key, "B-2", 10, 1, baseTime)); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		ok, err := batches.ExistsByNumber(ctx, key, "B-2")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("domain errors pass through", func(t *testing.T) {
		err := scope.Execute(ctx, func(repos appcosting.TransactionalRepositories) error {
			_, err := repos.Stocks().FindByKey(ctx, newTestKey())
			return err
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
