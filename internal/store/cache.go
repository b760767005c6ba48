package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"shortlink-service/internal/model"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "shortlink:"

// CachedStore 在任意 Store 之前加一层 Redis 读缓存 (cache-aside)
// 缓存中的 ClickCount 是写入缓存时的快照, 可能滞后
type CachedStore struct {
	Store
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewCachedStore 包装 next, ttl 为缓存条目的最长存活时间
func NewCachedStore(next Store, rdb *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *CachedStore {
	return &CachedStore{
		Store:  next,
		redis:  rdb,
		ttl:    ttl,
		logger: logger.Named("link_cache"),
		now:    time.Now,
	}
}

func cacheKey(code string) string {
	return cacheKeyPrefix + code
}

func (s *CachedStore) Get(ctx context.Context, code string) (*model.ShortLink, error) {
	data, err := s.redis.Get(ctx, cacheKey(code)).Bytes()
	switch {
	case err == nil:
		var link model.ShortLink
		if jsonErr := json.Unmarshal(data, &link); jsonErr == nil {
			return &link, nil
		}
		s.logger.Warnf("缓存内容无法解析, 已忽略: code=%s", code)
	case !errors.Is(err, redis.Nil):
		// 缓存不可用时直接回源
		s.logger.Warnf("读取缓存失败: code=%s err=%v", code, err)
	}

	link, err := s.Store.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, link)
	return link, nil
}

// SetActive 写入后用最新记录覆盖缓存
// 读路径只用 SET NX 回填, 并发 Get 读到的旧快照不会覆盖这里写入的值
func (s *CachedStore) SetActive(ctx context.Context, code string, active bool) error {
	if err := s.Store.SetActive(ctx, code, active); err != nil {
		return err
	}
	link, err := s.Store.Get(ctx, code)
	if err != nil {
		s.invalidate(ctx, code)
		return nil
	}
	if err := s.write(ctx, link, true); err != nil {
		s.logger.Warnf("刷新缓存失败: code=%s err=%v", code, err)
		s.invalidate(ctx, code)
	}
	return nil
}

// fill 在缓存缺失时回填, 已有条目不覆盖
func (s *CachedStore) fill(ctx context.Context, link *model.ShortLink) {
	if err := s.write(ctx, link, false); err != nil {
		s.logger.Warnf("写入缓存失败: code=%s err=%v", link.Code, err)
	}
}

// write 过期时间不超过记录自身的 expires_at; 已过期的记录直接从缓存删除
func (s *CachedStore) write(ctx context.Context, link *model.ShortLink, overwrite bool) error {
	ttl := s.ttl
	if link.ExpiresAt != nil {
		if remaining := link.ExpiresAt.Sub(s.now()); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl <= 0 {
		return s.redis.Del(ctx, cacheKey(link.Code)).Err()
	}
	data, err := json.Marshal(link)
	if err != nil {
		return err
	}
	if overwrite {
		return s.redis.Set(ctx, cacheKey(link.Code), data, ttl).Err()
	}
	return s.redis.SetNX(ctx, cacheKey(link.Code), data, ttl).Err()
}

func (s *CachedStore) invalidate(ctx context.Context, code string) {
	if err := s.redis.Del(ctx, cacheKey(code)).Err(); err != nil {
		s.logger.Errorf("删除缓存失败: code=%s err=%v", code, err)
	}
}
