package database

import (
	"path/filepath"
	"testing"

	"shortlink-service/internal/config"
	"shortlink-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shortlink.db")
	db, err := Open(config.DB{Driver: "sqlite", Path: path}, nil)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable(&model.ShortLink{}))
	assert.True(t, db.Migrator().HasTable(&model.User{}))
	assert.True(t, db.Migrator().HasIndex(&model.ShortLink{}, "idx_short_links_owner_created"))
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.DB{Driver: "oracle"}, nil)
	assert.ErrorContains(t, err, "oracle")
}

func TestDSN(t *testing.T) {
	cfg := config.DB{Host: "db", Port: 3306, User: "root", Password: "pw", Name: "shortlink"}
	assert.Equal(t, "root:pw@tcp(db:3306)/shortlink?charset=utf8mb4&parseTime=True&loc=UTC", MySQLDSN(cfg))

	cfg.Port = 5432
	cfg.SSLMode = "require"
	assert.Equal(t, "host=db port=5432 user=root password=pw dbname=shortlink sslmode=require TimeZone=UTC", PostgresDSN(cfg))
}
