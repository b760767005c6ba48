package middleware

import (
	"slices"
	"time"

	"shortlink-service/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// 浏览器端脚本需要读取的响应头
var exposedHeaders = []string{
	RequestIDHeader,
	"Location",
	"X-Next-Cursor",
	"X-RateLimit-Limit",
	"X-RateLimit-Remaining",
}

// CORS 根据配置处理跨域请求
// 未配置任何来源时不设置跨域响应头, 浏览器会拒绝跨域访问
func CORS(corsConfig *config.CORS) gin.HandlerFunc {
	if len(corsConfig.AllowOrigins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	cfg := cors.Config{
		AllowMethods:     corsConfig.AllowMethods,
		AllowHeaders:     corsConfig.AllowHeaders,
		ExposeHeaders:    exposedHeaders,
		AllowCredentials: corsConfig.AllowCredentials,
		MaxAge:           time.Duration(corsConfig.MaxAgeHours) * time.Hour,
	}
	if slices.Contains(corsConfig.AllowOrigins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = corsConfig.AllowOrigins
	}
	return cors.New(cfg)
}
