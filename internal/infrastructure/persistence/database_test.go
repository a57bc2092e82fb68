package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/costing/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
)

func TestOpen_SQLite(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	db, err := Open(sqlite.Open("file::memory:"), Options{
		Logger:        zap.New(core),
		SlowThreshold: time.Nanosecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	assert.True(t, db.DB.Config.TranslateError)
	assert.True(t, db.DB.Config.SkipDefaultTransaction)
	assert.Equal(t, time.UTC, db.DB.Config.NowFunc().Location())

	require.NoError(t, db.Ping(context.Background()))
	require.NoError(t, db.AutoMigrate())
	for _, model := range models.All() {
		assert.True(t, db.DB.Migrator().HasTable(model))
	}
	assert.NotZero(t, logs.FilterMessage("slow sql").Len())
}

func TestDatabase_Stats(t *testing.T) {
	db, err := Open(sqlite.Open("file::memory:"), Options{LogLevel: "silent"})
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(3)

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.MaxOpenConnections)
	assert.Equal(t, 0, stats.InUse)

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(context.Background()))
}

func TestNewRepositories(t *testing.T) {
	repos := NewRepositories(newTestDB(t))
	assert.IsType(t, &GormStockBatchRepository{}, repos.Batches())
	assert.IsType(t, &GormStockMovementRepository{}, repos.Movements())
	assert.IsType(t, &GormStockRepository{}, repos.Stocks())
	assert.IsType(t, &GormCostCalculationRepository{}, repos.CostCalculations())
	assert.IsType(t, &GormCostingMethodRepository{}, repos.Methods())
	assert.IsType(t, &GormCostingRuleRepository{}, repos.Rules())
	assert.IsType(t, &GormUnitRepository{}, repos.Units())
	assert.IsType(t, &GormProductRepository{}, repos.Products())
	assert.IsType(t, &GormPackagingRepository{}, repos.Packagings())
}
