package store_test

import (
	"fmt"
	"sync/atomic"
	"testing"

	"shortlink-service/internal/model"
	"shortlink-service/internal/store"
	"shortlink-service/internal/store/storetest"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// newSQLiteDB 为每个测试创建独立的内存数据库
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:store_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 单连接避免 sqlite 共享缓存下的表锁冲突
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.ShortLink{}))
	return db
}

func TestGormStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return store.NewGormStore(newSQLiteDB(t))
	})
}
