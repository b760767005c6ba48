package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"shortlink-service/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	rateLimitWindow  = time.Minute
	rateLimitPrefix  = "ratelimit:"
	redisCallTimeout = 200 * time.Millisecond
	// 内存限流器闲置超过该时间后被清理
	limiterIdleTTL = 3 * time.Minute
)

// RateLimit 按客户端 IP 限流
// 有 Redis 时使用固定窗口计数, 多实例共享额度; Redis 不可用时退回进程内令牌桶
func RateLimit(redisClient *redis.Client, limitConfig *config.Limit, logger *zap.SugaredLogger) gin.HandlerFunc {
	if !limitConfig.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	local := newLocalLimiter(limitConfig.Requests, limitConfig.Burst)
	limit := limitConfig.Requests + limitConfig.Burst

	return func(c *gin.Context) {
		// 跳过特定路径
		for _, path := range limitConfig.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}

		ip := c.ClientIP()
		allowed := true
		if redisClient != nil {
			count, ttl, err := incrWindow(c.Request.Context(), redisClient, ip)
			if err == nil {
				c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
				c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(limit-count, 0), 10))
				c.Header("X-RateLimit-Reset", strconv.Itoa(int(ttl.Seconds())))
				allowed = count <= limit
			} else {
				logger.Warnw("Redis 限流失败, 使用本地限流", "error", err)
				allowed = local.Allow(ip)
			}
		} else {
			allowed = local.Allow(ip)
		}

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(rateLimitWindow.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "请求过于频繁，请稍后再试",
			})
			return
		}
		c.Next()
	}
}

// incrWindow 在当前窗口内为 ip 计数, 返回计数和窗口剩余时间
func incrWindow(ctx context.Context, rdb *redis.Client, ip string) (int64, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()

	key := rateLimitPrefix + ip
	pipe := rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, rateLimitWindow)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	remaining := ttl.Val()
	if remaining <= 0 {
		remaining = rateLimitWindow
	}
	return incr.Val(), remaining, nil
}

type localLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	every     rate.Limit
	burst     int
	lastSweep time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalLimiter(requestsPerMinute, burst int64) *localLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &localLimiter{
		limiters:  make(map[string]*limiterEntry),
		every:     rate.Limit(float64(requestsPerMinute) / rateLimitWindow.Seconds()),
		burst:     int(burst),
		lastSweep: time.Now(),
	}
}

func (l *localLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(l.limiters, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.every, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}
