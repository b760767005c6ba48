package redis

import (
	"context"
	"fmt"
	"time"

	"shortlink-service/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewClient 创建Redis客户端, 未配置 Host 时返回 nil 表示不启用缓存
func NewClient(ctx context.Context, cfg config.Cache) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     20,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis连接失败: %w", err)
	}
	return rdb, nil
}
