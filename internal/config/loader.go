package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
)

// LoadConfig 加载配置文件
// configPath: 配置文件目录，如果为空则使用默认路径
// env: 环境标识，支持 development, test, production
func LoadConfig(configPath, env string) (*Config, error) {
	// 设置默认环境
	if env == "" {
		env = getEnvFromEnvironment()
	}

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath == "" {
		configPath = getDefaultConfigPath()
	}

	// 根据环境选择配置文件
	configFile := getConfigFileName(configPath, env)
	v.SetConfigFile(configFile)

	// 设置环境变量前缀
	v.SetEnvPrefix("NEOVULN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnvironmentVariables(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	GlobalConfig = &config

	return &config, nil
}

// getEnvFromEnvironment 从环境变量获取环境标识
func getEnvFromEnvironment() string {
	env := os.Getenv("NEOVULN_ENV")
	if env == "" {
		env = os.Getenv("GO_ENV")
	}
	if env == "" {
		env = "development" // 默认开发环境
	}
	return env
}

// getDefaultConfigPath 获取默认配置文件路径
func getDefaultConfigPath() string {
	if configPath := os.Getenv("NEOVULN_CONFIG_PATH"); configPath != "" {
		return configPath
	}
	return "configs"
}

// getConfigFileName 根据环境获取配置文件名
func getConfigFileName(configPath, env string) string {
	var configFile string

	switch env {
	case "production", "prod":
		configFile = filepath.Join(configPath, "config.prod.yaml")
	case "test", "testing":
		configFile = filepath.Join(configPath, "config.test.yaml")
	default:
		configFile = filepath.Join(configPath, "config.yaml")
	}

	// 检查文件是否存在，如果不存在则使用默认配置文件
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		defaultConfig := filepath.Join(configPath, "config.yaml")
		if _, err := os.Stat(defaultConfig); err == nil {
			return defaultConfig
		}
	}

	return configFile
}

// setDefaults 设置默认值，配置文件中缺省的字段使用这里的值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.mysql.charset", "utf8mb4")
	v.SetDefault("database.mysql.parse_time", true)
	v.SetDefault("database.mysql.loc", "Local")
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.time_zone", "UTC")
	v.SetDefault("database.sqlite.path", "data/neovuln.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("security.jwt.issuer", "neovuln")
	v.SetDefault("security.jwt.access_token_expire", 24*time.Hour)

	v.SetDefault("security.rate_limit.requests_per_second", 20.0)
	v.SetDefault("security.rate_limit.burst", 40)
	v.SetDefault("security.rate_limit.idle_ttl", 10*time.Minute)

	v.SetDefault("app.name", "neovuln")
	v.SetDefault("app.system_account.email", "system@neovuln.local")
	v.SetDefault("app.summary_cache.ttl", 5*time.Minute)
	v.SetDefault("app.summary_cache.key_prefix", "neovuln:summary:")
	v.SetDefault("app.upload.max_line_bytes", 1<<20)
}

// bindEnvironmentVariables 绑定环境变量
func bindEnvironmentVariables(v *viper.Viper) {
	v.BindEnv("database.driver", "NEOVULN_DB_DRIVER")

	v.BindEnv("database.mysql.host", "NEOVULN_MYSQL_HOST")
	v.BindEnv("database.mysql.port", "NEOVULN_MYSQL_PORT")
	v.BindEnv("database.mysql.username", "NEOVULN_MYSQL_USERNAME")
	v.BindEnv("database.mysql.password", "NEOVULN_MYSQL_PASSWORD")
	v.BindEnv("database.mysql.database", "NEOVULN_MYSQL_DATABASE")

	v.BindEnv("database.postgres.host", "NEOVULN_POSTGRES_HOST")
	v.BindEnv("database.postgres.port", "NEOVULN_POSTGRES_PORT")
	v.BindEnv("database.postgres.username", "NEOVULN_POSTGRES_USERNAME")
	v.BindEnv("database.postgres.password", "NEOVULN_POSTGRES_PASSWORD")
	v.BindEnv("database.postgres.database", "NEOVULN_POSTGRES_DATABASE")

	v.BindEnv("database.sqlite.path", "NEOVULN_SQLITE_PATH")

	v.BindEnv("database.redis.enabled", "NEOVULN_REDIS_ENABLED")
	v.BindEnv("database.redis.host", "NEOVULN_REDIS_HOST")
	v.BindEnv("database.redis.port", "NEOVULN_REDIS_PORT")
	v.BindEnv("database.redis.password", "NEOVULN_REDIS_PASSWORD")
	v.BindEnv("database.redis.database", "NEOVULN_REDIS_DATABASE")

	v.BindEnv("security.jwt.secret", "NEOVULN_JWT_SECRET")
	v.BindEnv("security.jwt.issuer", "NEOVULN_JWT_ISSUER")

	v.BindEnv("server.host", "NEOVULN_SERVER_HOST")
	v.BindEnv("server.port", "NEOVULN_SERVER_PORT")
	v.BindEnv("server.mode", "NEOVULN_SERVER_MODE")

	v.BindEnv("app.environment", "NEOVULN_APP_ENVIRONMENT")
	v.BindEnv("app.debug", "NEOVULN_APP_DEBUG")
	v.BindEnv("app.system_account.email", "NEOVULN_SYSTEM_ACCOUNT_EMAIL")
}

// validateConfig 验证配置
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Server.Mode != "debug" && config.Server.Mode != "release" && config.Server.Mode != "test" {
		return fmt.Errorf("invalid server mode: %s", config.Server.Mode)
	}

	// 验证数据库配置
	switch config.Database.Driver {
	case "mysql":
		if config.Database.MySQL.Host == "" {
			return fmt.Errorf("mysql host is required")
		}
		if config.Database.MySQL.Database == "" {
			return fmt.Errorf("mysql database name is required")
		}
	case "postgres":
		if config.Database.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
		if config.Database.Postgres.Database == "" {
			return fmt.Errorf("postgres database name is required")
		}
	case "sqlite":
		if config.Database.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}

	if config.Database.Redis.Enabled && config.Database.Redis.Host == "" {
		return fmt.Errorf("redis host is required when redis is enabled")
	}

	if config.Security.RateLimit.Enabled && (config.Security.RateLimit.RequestsPerSecond <= 0 || config.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit requires positive requests_per_second and burst")
	}

	if config.Security.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}

	if len(config.Security.JWT.Secret) < 32 {
		return fmt.Errorf("jwt secret must be at least 32 characters long")
	}

	// 验证日志配置
	validLogLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	if !contains(validLogLevels, config.Log.Level) {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, config.Log.Format) {
		return fmt.Errorf("invalid log format: %s", config.Log.Format)
	}

	validLogOutputs := []string{"stdout", "stderr", "file"}
	if !contains(validLogOutputs, config.Log.Output) {
		return fmt.Errorf("invalid log output: %s", config.Log.Output)
	}

	if config.Log.Output == "file" && config.Log.FilePath == "" {
		return fmt.Errorf("log file path is required when output is file")
	}

	if strings.TrimSpace(config.App.SystemAccount.Email) == "" {
		return fmt.Errorf("app.system_account.email is required")
	}

	return nil
}

// contains 检查切片是否包含指定元素
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	return GlobalConfig
}

// MustLoadConfig 加载配置，如果失败则panic
func MustLoadConfig(configPath, env string) *Config {
	config, err := LoadConfig(configPath, env)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	return config
}

// GetEnv 获取当前环境
func GetEnv() string {
	if GlobalConfig != nil {
		return GlobalConfig.App.Environment
	}
	return getEnvFromEnvironment()
}
