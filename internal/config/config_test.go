package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "http://localhost:8080", cfg.App.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout())
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  base_url: https://sho.rt/
database:
  driver: mysql
  host: db
  port: 3306
store:
  timeout_seconds: 12
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://sho.rt", cfg.App.BaseURL, "末尾的 / 应被去掉")
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, 12*time.Second, cfg.StoreTimeout())
	// 未出现在文件中的字段保留默认值
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: mysql
`)
	t.Setenv("SHORTLINK_DATABASE_DRIVER", "postgres")
	t.Setenv("SHORTLINK_SERVER_PORT", "9090")
	t.Setenv("SHORTLINK_RATE_LIMIT_SKIP_PATHS", "/a,/b")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"/a", "/b"}, cfg.RateLimit.SkipPaths)
}

func TestLoad_CORS(t *testing.T) {
	path := writeConfig(t, "cors:\n  allow_origins: [\"*\"]\n  allow_credentials: false\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowOrigins)
	assert.Contains(t, cfg.CORS.AllowMethods, "POST", "未配置的字段保留默认值")

	t.Setenv("SHORTLINK_CORS_ALLOW_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("SHORTLINK_CORS_ALLOW_CREDENTIALS", "true")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowOrigins)
	assert.True(t, cfg.CORS.AllowCredentials)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "未知驱动", content: "database:\n  driver: oracle\n"},
		{name: "base_url 无协议", content: "app:\n  base_url: sho.rt\n"},
		{name: "超时为零", content: "store:\n  timeout_seconds: 0\n"},
		{name: "非法 yaml", content: "app: [\n"},
		{name: "跨域通配符带凭据", content: "cors:\n  allow_origins: [\"*\"]\n  allow_credentials: true\n"},
		{name: "跨域来源无协议", content: "cors:\n  allow_origins: [app.example.com]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
