package testutil

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/costing/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
)

// NewSQLiteDB opens a migrated in-memory database. The pool is limited to one
// connection so every query sees the same memory database.
func NewSQLiteDB(t *testing.T) *persistence.Database {
	t.Helper()

	db, err := persistence.Open(sqlite.Open("file::memory:"), persistence.Options{LogLevel: "silent"})
	require.NoError(t, err)
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate())
	return db
}

// NewMockDB opens a database on the postgres dialector backed by sqlmock.
// Pings are monitored; the one issued while opening is already consumed.
func NewMockDB(t *testing.T) (*persistence.Database, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	mock.ExpectPing()

	db, err := persistence.Open(postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	}), persistence.Options{LogLevel: "silent"})
	require.NoError(t, err)
	return db, mock
}
