package integration

import (
	"testing"

	"github.com/erp/costing/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_RoundTrip(t *testing.T) {
	db := NewTestDB(t)

	db.Migrate(t, func(m *migration.Migrator) error {
		version, dirty, err := m.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(1), version)
		assert.False(t, dirty)
		return nil
	})
	assert.True(t, db.DB.Migrator().HasTable("stock_batches"))

	db.Migrate(t, func(m *migration.Migrator) error { return m.Down() })
	assert.False(t, db.DB.Migrator().HasTable("stock_batches"))
	assert.False(t, db.DB.Migrator().HasTable("cost_calculations"))

	db.Migrate(t, func(m *migration.Migrator) error { return m.Up() })
	assert.True(t, db.DB.Migrator().HasTable("stock_batches"))

	// Up again is a no-op
	db.Migrate(t, func(m *migration.Migrator) error { return m.Up() })
}

func TestMigrations_SchemaRejectsInvalidRows(t *testing.T) {
	db := NewTestDB(t)

	err := db.DB.Exec(`INSERT INTO costing_methods (id, code, name, is_default, created_at, updated_at)
		VALUES (gen_random_uuid(), 'hifo', 'HIFO', FALSE, now(), now())`).Error
	assert.Error(t, err)

	require.NoError(t, db.DB.Exec(`INSERT INTO costing_methods (id, code, name, is_default, created_at, updated_at)
		VALUES (gen_random_uuid(), 'fifo', 'FIFO', TRUE, now(), now())`).Error)
	err = db.DB.Exec(`INSERT INTO costing_methods (id, code, name, is_default, created_at, updated_at)
		VALUES (gen_random_uuid(), 'lifo', 'LIFO', TRUE, now(), now())`).Error
	assert.Error(t, err, "only one default method")

	db.CleanTables()
	var count int64
	require.NoError(t, db.DB.Raw(`SELECT count(*) FROM costing_methods`).Scan(&count).Error)
	assert.Zero(t, count)
}
