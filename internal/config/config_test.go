package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigContent = `
server:
  host: "localhost"
  port: 8080
  mode: "test"
  read_timeout: 30s

database:
  driver: "sqlite"
  sqlite:
    path: "file::memory:"
    log_level: "silent"
  redis:
    enabled: false

log:
  level: "info"
  format: "json"
  output: "stdout"

security:
  jwt:
    secret: "test_jwt_secret_key_at_least_32_chars"
    issuer: "neovuln-test"

app:
  name: "neovuln"
  environment: "test"
  system_account:
    email: "system@example.com"
  summary_cache:
    ttl: 1m
`

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// TestLoadConfig 测试配置加载功能
func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yaml", testConfigContent)

	cfg, err := LoadConfig(tempDir, "development")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file::memory:", cfg.Database.SQLite.Path)
	assert.Equal(t, "system@example.com", cfg.App.SystemAccount.Email)
	assert.Equal(t, time.Minute, cfg.App.SummaryCache.TTL)
	// 缺省字段取默认值
	assert.Equal(t, "neovuln:summary:", cfg.App.SummaryCache.KeyPrefix)
	assert.Equal(t, 1<<20, cfg.Server.MaxHeaderBytes)
	assert.Same(t, cfg, GetConfig())
}

// TestLoadConfigEnvOverride 测试环境变量覆盖
func TestLoadConfigEnvOverride(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yaml", testConfigContent)

	t.Setenv("NEOVULN_SERVER_PORT", "9090")
	t.Setenv("NEOVULN_SYSTEM_ACCOUNT_EMAIL", "bot@example.com")

	cfg, err := LoadConfig(tempDir, "development")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "bot@example.com", cfg.App.SystemAccount.Email)
}

// TestLoadConfigMissingFile 测试配置文件不存在
func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(t.TempDir(), "development")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

// TestGetConfigFileName 测试按环境选择配置文件
func TestGetConfigFileName(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yaml", testConfigContent)

	// 测试环境专用文件不存在时回落到 config.yaml
	assert.Equal(t, filepath.Join(tempDir, "config.yaml"), getConfigFileName(tempDir, "test"))

	writeConfig(t, tempDir, "config.test.yaml", testConfigContent)
	assert.Equal(t, filepath.Join(tempDir, "config.test.yaml"), getConfigFileName(tempDir, "testing"))
	assert.Equal(t, filepath.Join(tempDir, "config.yaml"), getConfigFileName(tempDir, "prod"))
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, Mode: "release"},
		Database: DatabaseConfig{
			Driver: "mysql",
			MySQL:  MySQLConfig{Host: "db", Database: "neovuln"},
		},
		Log:      LogConfig{Level: "info", Format: "json", Output: "stdout"},
		Security: SecurityConfig{JWT: JWTConfig{Secret: strings.Repeat("s", 32)}},
		App:      AppConfig{SystemAccount: SystemAccountConfig{Email: "system@example.com"}},
	}
}

// TestValidateConfig 测试配置校验
func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "invalid server port"},
		{name: "bad mode", mutate: func(c *Config) { c.Server.Mode = "dev" }, wantErr: "invalid server mode"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: "unsupported database driver"},
		{name: "mysql host", mutate: func(c *Config) { c.Database.MySQL.Host = "" }, wantErr: "mysql host is required"},
		{name: "postgres db", mutate: func(c *Config) {
			c.Database.Driver = "postgres"
			c.Database.Postgres.Host = "pg"
		}, wantErr: "postgres database name is required"},
		{name: "sqlite ok", mutate: func(c *Config) {
			c.Database.Driver = "sqlite"
			c.Database.SQLite.Path = "x.db"
		}},
		{name: "redis host", mutate: func(c *Config) { c.Database.Redis.Enabled = true }, wantErr: "redis host is required"},
		{name: "rate limit burst", mutate: func(c *Config) {
			c.Security.RateLimit = RateLimitConfig{Enabled: true, RequestsPerSecond: 10}
		}, wantErr: "rate limit requires"},
		{name: "rate limit ok", mutate: func(c *Config) {
			c.Security.RateLimit = RateLimitConfig{Enabled: true, RequestsPerSecond: 10, Burst: 20}
		}},
		{name: "short secret", mutate: func(c *Config) { c.Security.JWT.Secret = "short" }, wantErr: "at least 32 characters"},
		{name: "log level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: "invalid log level"},
		{name: "log file path", mutate: func(c *Config) { c.Log.Output = "file" }, wantErr: "log file path is required"},
		{name: "system account", mutate: func(c *Config) { c.App.SystemAccount.Email = " " }, wantErr: "system_account"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigHelpers(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	assert.Equal(t, "127.0.0.1:8080", s.GetAddress())

	m := MySQLConfig{Username: "u", Password: "p", Host: "h", Port: 3306, Database: "d", Charset: "utf8mb4", ParseTime: true, Loc: "Local"}
	assert.Equal(t, "u:p@tcp(h:3306)/d?charset=utf8mb4&parseTime=true&loc=Local", m.GetMySQLDSN())

	p := PostgresConfig{Host: "h", Port: 5432, Username: "u", Password: "p", Database: "d", SSLMode: "disable", TimeZone: "UTC"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable TimeZone=UTC", p.GetPostgresDSN())

	a := AppConfig{Environment: "production"}
	assert.True(t, a.IsProduction())
	assert.False(t, a.IsTest())
}
