package persistence

import (
	"testing"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Driver:          "sqlite",
		DBName:          ":memory:",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 60,
		ConnMaxIdleTime: 30,
	}
}

func TestNewDatabase_SQLite(t *testing.T) {
	db, err := NewDatabase(sqliteConfig(), Options{})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.NotNil(t, db.DB)
	assert.NoError(t, db.Ping())
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	cfg := sqliteConfig()
	cfg.Driver = "oracle"

	_, err := NewDatabase(cfg, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestDatabase_Stats(t *testing.T) {
	db, err := NewDatabase(sqliteConfig(), Options{})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 5, stats.MaxOpenConnections)
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(sqliteConfig(), Options{})
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping())
}
