package persistence

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/costing/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens a migrated in-memory SQLite database. One connection
// keeps every statement on the same memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open("file::memory:"), Options{LogLevel: "silent"})
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate())
	return db.DB
}

// newMockDB opens gorm on sqlmock with the postgres dialector
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return gormDB, mock, mockDB
}

func newTestKey() inventory.StockKey {
	return inventory.NewStockKey(uuid.New(), uuid.New(), uuid.New())
}

var baseTime = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func newTestBatch(t *testing.T, key inventory.StockKey, number string, qty, cost int64, receivedAt time.Time) *inventory.StockBatch {
	t.Helper()
	b, err := inventory.NewStockBatch(inventory.StockBatchParams{
		Key:         key,
		BatchNumber: number,
		Quantity:    decimal.NewFromInt(qty),
		UnitCost:    decimal.NewFromInt(cost),
		ReceivedAt:  receivedAt,
	})
	require.NoError(t, err)
	return b
}
