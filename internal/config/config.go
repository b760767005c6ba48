package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 环境变量前缀, 例如 SHORTLINK_DATABASE_DRIVER
const EnvPrefix = "SHORTLINK_"

// 主配置结构
type Config struct {
	App       App    `yaml:"app" envPrefix:"APP_"`
	Server    Server `yaml:"server" envPrefix:"SERVER_"`
	Database  DB     `yaml:"database" envPrefix:"DATABASE_"`
	Cache     Cache  `yaml:"cache" envPrefix:"CACHE_"`
	Store     Store  `yaml:"store" envPrefix:"STORE_"`
	Auth      Auth   `yaml:"auth" envPrefix:"AUTH_"`
	RateLimit Limit  `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`
	CORS      CORS   `yaml:"cors" envPrefix:"CORS_"`
	Log       Log    `yaml:"log" envPrefix:"LOG_"`
}

// 应用配置
type App struct {
	Name    string `yaml:"name" env:"NAME"`
	Mode    string `yaml:"mode" env:"MODE"`
	Version string `yaml:"version" env:"VERSION"`
	// BaseURL 是短链接对外的前缀, 短链接为 <base_url>/<code>
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
}

// 服务器配置
type Server struct {
	Port            int `yaml:"port" env:"PORT"`
	ReadTimeout     int `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    int `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout int `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// 数据库配置
type DB struct {
	Driver   string `yaml:"driver" env:"DRIVER"` // mysql, postgres, sqlite
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	Name     string `yaml:"name" env:"NAME"`
	Charset  string `yaml:"charset" env:"CHARSET"`
	SSLMode  string `yaml:"ssl_mode" env:"SSL_MODE"`
	// Path 仅用于 sqlite, 例如 ./data/shortlink.db 或 file::memory:?cache=shared
	Path string `yaml:"path" env:"PATH"`
}

// 缓存配置（Redis）
type Cache struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	TTL      int    `yaml:"ttl_seconds" env:"TTL_SECONDS"`
}

// 存储调用配置
type Store struct {
	TimeoutSeconds int `yaml:"timeout_seconds" env:"TIMEOUT_SECONDS"`
}

// 认证配置
type Auth struct {
	Secret          string `yaml:"secret" env:"SECRET"`
	Issuer          string `yaml:"issuer" env:"ISSUER"`
	ExpirationHours int    `yaml:"expiration_hours" env:"EXPIRATION_HOURS"`
	AdminPassword   string `yaml:"admin_password" env:"ADMIN_PASSWORD"`
}

// 限流配置
type Limit struct {
	Enabled   bool     `yaml:"enabled" env:"ENABLED"`
	Requests  int64    `yaml:"requests_per_minute" env:"REQUESTS_PER_MINUTE"`
	Burst     int64    `yaml:"burst" env:"BURST"`
	SkipPaths []string `yaml:"skip_paths" env:"SKIP_PATHS" envSeparator:","`
}

// 跨域配置, AllowOrigins 为空时不允许任何跨域请求
type CORS struct {
	AllowOrigins     []string `yaml:"allow_origins" env:"ALLOW_ORIGINS" envSeparator:","`
	AllowMethods     []string `yaml:"allow_methods" env:"ALLOW_METHODS" envSeparator:","`
	AllowHeaders     []string `yaml:"allow_headers" env:"ALLOW_HEADERS" envSeparator:","`
	AllowCredentials bool     `yaml:"allow_credentials" env:"ALLOW_CREDENTIALS"`
	MaxAgeHours      int      `yaml:"max_age_hours" env:"MAX_AGE_HOURS"`
}

// 日志配置
type Log struct {
	Level      string `yaml:"level" env:"LEVEL"`
	File       string `yaml:"file" env:"FILE"`
	MaxSize    int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
	MaxAge     int    `yaml:"max_age_days" env:"MAX_AGE_DAYS"`
	Compress   bool   `yaml:"compress" env:"COMPRESS"`
}

// Default 返回一份可以直接运行的默认配置 (sqlite, 无缓存)
func Default() *Config {
	return &Config{
		App: App{
			Name:    "shortlink-service",
			Mode:    "development",
			Version: "1.0.0",
			BaseURL: "http://localhost:8080",
		},
		Server: Server{Port: 8080, ReadTimeout: 15, WriteTimeout: 15, ShutdownTimeout: 10},
		Database: DB{
			Driver:  "sqlite",
			Charset: "utf8mb4",
			SSLMode: "disable",
			Path:    "./data/shortlink.db",
		},
		Cache: Cache{Port: 6379, TTL: 24 * 60 * 60},
		Store: Store{TimeoutSeconds: 5},
		Auth: Auth{
			Secret:          "change-me",
			Issuer:          "shortlink-service",
			ExpirationHours: 24,
		},
		RateLimit: Limit{
			Enabled:   true,
			Requests:  600,
			Burst:     50,
			SkipPaths: []string{"/health", "/metrics", "/swagger"},
		},
		CORS: CORS{
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID"},
			AllowCredentials: true,
			MaxAgeHours:      12,
		},
		Log: Log{Level: "info", File: "./logs/app.log", MaxSize: 10, MaxBackups: 5, MaxAge: 30},
	}
}

// 加载配置: 默认值 -> yaml 文件 -> .env -> 环境变量
// 配置文件不存在时只使用默认值和环境变量
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("解析配置文件失败: %w", err)
			}
		}
	}

	// .env 不存在时忽略
	_ = godotenv.Load()

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("解析环境变量失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置的基本合法性
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("不支持的数据库驱动: %q", c.Database.Driver)
	}
	if !strings.HasPrefix(c.App.BaseURL, "http://") && !strings.HasPrefix(c.App.BaseURL, "https://") {
		return fmt.Errorf("base_url 必须以 http:// 或 https:// 开头: %q", c.App.BaseURL)
	}
	c.App.BaseURL = strings.TrimSuffix(c.App.BaseURL, "/")
	if c.Store.TimeoutSeconds <= 0 {
		return fmt.Errorf("store.timeout_seconds 必须为正数")
	}
	for _, origin := range c.CORS.AllowOrigins {
		if origin == "*" {
			// 浏览器拒绝 "*" 与凭据同时出现
			if c.CORS.AllowCredentials {
				return fmt.Errorf("cors.allow_origins 为 * 时不能开启 allow_credentials")
			}
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("cors.allow_origins 必须以 http:// 或 https:// 开头: %q", origin)
		}
	}
	return nil
}

// StoreTimeout 每次存储调用的超时时间
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.Store.TimeoutSeconds) * time.Second
}

// CacheTTL 缓存条目的最长存活时间
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}
