package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/costing/internal/domain/inventory"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindActiveByKeyForUpdate_PostgresLocksRows(t *testing.T) {
	db, mock, _ := newMockDB(t)
	repo := NewGormStockBatchRepository(db)
	key := newTestKey()

	mock.ExpectQuery(`SELECT \* FROM "stock_batches" WHERE .*is_active.* ORDER BY received_at ASC, batch_number ASC FOR UPDATE`).
		WithArgs(key.WarehouseID, key.ProductID, key.PackagingID, true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	batches, err := repo.FindActiveByKeyForUpdate(context.Background(), key)
	require.NoError(t, err)
	assert.Empty(t, batches)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveByKeyForUpdate_SQLiteSkipsLock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockBatchRepository(db)
	ctx := context.Background()
	key := newTestKey()
	require.NoError(t, repo.Create(ctx, newTestBatch(t, key, "B-1", 10, 1, baseTime)))

	batches, err := repo.FindActiveByKeyForUpdate(ctx, key)
	require.NoError(t, err)
	assert.Len(t, batches, 1)
}

func TestSaveWithLock_SerializationFailureIsConflict(t *testing.T) {
	db, mock, _ := newMockDB(t)
	repo := NewGormStockRepository(db)
	stock := inventory.NewStock(newTestKey())
	stock.Quantity = decimal.NewFromInt(3)

	mock.ExpectExec(`UPDATE "stocks" SET .* WHERE .*id = \$\d+ AND version = \$\d+`).
		WillReturnError(&pgconn.PgError{Code: "40001", Message: "could not serialize access"})

	err := repo.SaveWithLock(context.Background(), stock)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, 1, stock.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
