package db

import (
	"testing"

	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type slugRow struct {
	ID   string `gorm:"primaryKey"`
	Slug string `gorm:"uniqueIndex"`
}

func TestConnectSQLiteTranslatesUniqueViolations(t *testing.T) {
	database, err := Connect(config.DatabaseConfig{Driver: "sqlite", DSN: "file:db_slug_rows?mode=memory&cache=shared"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, database.Migrate(func(db *gorm.DB) error { return db.AutoMigrate(&slugRow{}) }))
	require.NoError(t, database.DB.Create(&slugRow{ID: "a", Slug: "same"}).Error)
	err = database.DB.Create(&slugRow{ID: "b", Slug: "same"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestConnectRejectsBadConfig(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "sqlite"})
	require.Error(t, err)

	_, err = Connect(config.DatabaseConfig{Driver: "oracle", DSN: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestMigrateWrapsFailure(t *testing.T) {
	database, err := Connect(config.DatabaseConfig{Driver: "sqlite", DSN: "file:db_migrate?mode=memory&cache=shared"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	err = database.Migrate(func(*gorm.DB) error { return gorm.ErrInvalidDB })
	require.ErrorIs(t, err, gorm.ErrInvalidDB)
	assert.Contains(t, err.Error(), "auto migrate")
}

func TestCloseNilDatabase(t *testing.T) {
	var database *Database
	assert.NoError(t, database.Close())
}
