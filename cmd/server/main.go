package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "shortlink-service/docs"
	"shortlink-service/internal/config"
	"shortlink-service/internal/handler"
	"shortlink-service/internal/metrics"
	"shortlink-service/internal/middleware"
	"shortlink-service/internal/model"
	"shortlink-service/internal/registry"
	"shortlink-service/internal/shortcode"
	"shortlink-service/internal/store"
	"shortlink-service/pkg/database"
	auth "shortlink-service/pkg/jwt"
	"shortlink-service/pkg/logger"
	"shortlink-service/pkg/redis"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// @title           短链接服务 API
// @version         1.0
// @description     短链接的创建, 跳转, 按所有者查询和管理接口
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Bearer {token}
func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "配置加载失败:", err)
		os.Exit(1)
	}

	if err := logger.InitLogger(cfg.Log); err != nil {
		fmt.Fprintln(os.Stderr, "日志初始化失败:", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Logger.Sync()
	}()
	sugaredLogger := logger.Sugar

	if err := run(cfg, sugaredLogger); err != nil {
		sugaredLogger.Fatalf("服务异常退出: %v", err)
	}
}

func run(cfg *config.Config, sugaredLogger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormLevel := gormlogger.Warn
	if cfg.App.Mode == "development" {
		gormLevel = gormlogger.Info
	}
	db, err := database.Open(cfg.Database, logger.NewGormLogger(logger.Logger, gormLevel, 200*time.Millisecond))
	if err != nil {
		return err
	}
	sugaredLogger.Infof("✅ 数据库连接成功 (%s)", cfg.Database.Driver)
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := database.Migrate(db); err != nil {
		return err
	}
	sugaredLogger.Info("✅ 数据库迁移成功")

	var linkStore store.Store = store.NewGormStore(db)
	rdb, err := redis.NewClient(ctx, cfg.Cache)
	if err != nil {
		sugaredLogger.Warnf("缓存连接失败, 不启用缓存: %v", err)
	} else if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				sugaredLogger.Errorf("关闭 Redis 连接失败: %v", err)
			}
		}()
		linkStore = store.NewCachedStore(linkStore, rdb, cfg.CacheTTL(), sugaredLogger)
		sugaredLogger.Info("✅ 缓存连接成功")
	}

	m := metrics.New()
	reg := registry.New(linkStore, shortcode.NewGenerator(sugaredLogger), sugaredLogger, registry.Options{
		BaseURL: cfg.App.BaseURL,
		Timeout: cfg.StoreTimeout(),
		Metrics: m,
	})

	tokenManager := auth.NewManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.ExpirationHours)
	sugaredLogger.Info("✅ 认证管理器初始化成功")

	if err := createAdminUser(ctx, db, cfg.Auth.AdminPassword); err != nil {
		sugaredLogger.Errorf("创建管理员失败: %v", err)
	}

	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.GinZapLogger(logger.Logger))
	router.Use(middleware.GinZapRecovery(logger.Logger, true))
	router.Use(middleware.CORS(&cfg.CORS))
	router.Use(m.GinMiddleware())
	router.Use(middleware.RateLimit(rdb, &cfg.RateLimit, sugaredLogger))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(m.Handler()))

	handler.RegisterRoutes(router,
		handler.NewShortLinkHandler(reg, db, rdb),
		handler.NewAuthHandler(db, tokenManager, sugaredLogger),
		tokenManager,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		sugaredLogger.Infof("🚀 服务启动成功, 访问 %s", cfg.App.BaseURL)
		sugaredLogger.Infof("📚 Swagger 文档地址: %s/swagger/index.html", cfg.App.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	sugaredLogger.Info("收到退出信号, 正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		sugaredLogger.Errorf("服务关闭超时: %v", err)
	}
	// 等待后台点击计数写完
	reg.Wait()
	sugaredLogger.Info("👋 服务已停止")
	return nil
}

// createAdminUser 首次启动时创建管理员, 未配置密码时跳过
func createAdminUser(ctx context.Context, db *gorm.DB, password string) error {
	if password == "" {
		return nil
	}
	var existing model.User
	err := db.WithContext(ctx).Where("username = ?", "admin").First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	admin := model.User{Username: "admin", Email: "admin@shortlink.local", Role: model.RoleAdmin, IsActive: true}
	if err := admin.SetPassword(password); err != nil {
		return err
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return err
	}
	zap.S().Infow("✅ 默认管理员创建成功", "username", admin.Username)
	return nil
}
