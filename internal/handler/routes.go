package handler

import (
	"shortlink-service/internal/middleware"
	auth "shortlink-service/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册业务路由, /metrics 和 /swagger 由调用方按需挂载
func RegisterRoutes(router *gin.Engine, linkHandler *ShortLinkHandler, authHandler *AuthHandler, jwtManager *auth.TokenManager) {
	authMiddleware := middleware.AuthMiddleware(jwtManager)
	adminMiddleware := middleware.AdminMiddleware()

	router.GET("/health", linkHandler.HealthCheck)

	router.POST("/links", middleware.OptionalAuth(jwtManager), linkHandler.CreateShortLink)
	router.GET("/links/:code", linkHandler.Redirect)
	router.GET("/owners/:owner_id/links", linkHandler.ListOwnerLinks)
	router.GET("/:code", linkHandler.Redirect)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	api := router.Group("/api")
	api.Use(authMiddleware)
	{
		api.GET("/me", authHandler.GetCurrentUser)
		api.GET("/links", linkHandler.MyLinks)
		api.DELETE("/links/:code", linkHandler.DeleteLink)
		api.GET("/stats", linkHandler.GetStats)
	}

	admin := api.Group("")
	admin.Use(adminMiddleware)
	{
		admin.PUT("/links/:code", linkHandler.ToggleLink)
	}
}
