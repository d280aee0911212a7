package repository

import (
	"testing"

	"github.com/nimasrn/smartcart/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AllEntities lists every table the repositories touch, in migration order.
func AllEntities() []interface{} {
	return []interface{}{
		&ProductEntity{},
		&CustomerEntity{},
		&PurchaseEntity{},
		&CashIntentEntity{},
		&CashierCodeHistoryEntity{},
		&AdminEntity{},
	}
}

// NewTestDB opens a private in-memory sqlite database with every table
// migrated. The single connection keeps transactions and plain queries on
// the same database.
func NewTestDB(t testing.TB) *pg.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(AllEntities()...))

	return pg.New(db, db)
}
