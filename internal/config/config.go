// Package config 提供配置管理
//
// 配置来源按优先级从低到高：内置默认值、可选的 YAML 配置文件
// （CONFIG_FILE 指定路径）、环境变量
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Engine   EngineConfig   `yaml:"engine"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig API配置
type APIConfig struct {
	RateLimit int           `yaml:"rate_limit"`
	Timeout   time.Duration `yaml:"timeout"`
	CORS      CORSConfig    `yaml:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Origins []string `yaml:"origins"`
}

// EngineConfig 排班生成引擎配置
type EngineConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxWindowDays 单次生成允许的最大窗口天数，防止误传超长窗口
	MaxWindowDays int `yaml:"max_window_days"`

	// AllowChainedSegments 允许同一员工承接同日相接的班段
	AllowChainedSegments bool `yaml:"allow_chained_segments"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// defaultConfig 内置默认值
func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:     "turni",
			Env:      "development",
			Port:     7021,
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "turni",
			User:            "turni",
			Password:        "turni123",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		API: APIConfig{
			RateLimit: 100,
			Timeout:   5 * time.Minute,
			CORS: CORSConfig{
				Enabled: true,
				Origins: []string{"*"},
			},
		},
		Engine: EngineConfig{
			RequestTimeout:       5 * time.Minute,
			MaxWindowDays:        366,
			AllowChainedSegments: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load 加载配置
// 多月窗口的生成是分钟级操作，API 超时默认给到 5 分钟
func Load() (*Config, error) {
	base := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, base); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", base.App.Name),
			Env:      getEnv("APP_ENV", base.App.Env),
			Port:     getEnvInt("APP_PORT", base.App.Port),
			LogLevel: getEnv("APP_LOG_LEVEL", base.App.LogLevel),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", base.Database.Host),
			Port:            getEnvInt("DB_PORT", base.Database.Port),
			Name:            getEnv("DB_NAME", base.Database.Name),
			User:            getEnv("DB_USER", base.Database.User),
			Password:        getEnv("DB_PASSWORD", base.Database.Password),
			SSLMode:         getEnv("DB_SSL_MODE", base.Database.SSLMode),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", base.Database.MaxOpenConns),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", base.Database.MaxIdleConns),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", base.Database.ConnMaxLifetime),
		},
		API: APIConfig{
			RateLimit: getEnvInt("API_RATE_LIMIT", base.API.RateLimit),
			Timeout:   getEnvDuration("API_TIMEOUT", base.API.Timeout),
			CORS: CORSConfig{
				Enabled: getEnvBool("API_CORS_ENABLED", base.API.CORS.Enabled),
				Origins: base.API.CORS.Origins,
			},
		},
		Engine: EngineConfig{
			RequestTimeout:       getEnvDuration("ENGINE_TIMEOUT", base.Engine.RequestTimeout),
			MaxWindowDays:        getEnvInt("ENGINE_MAX_WINDOW_DAYS", base.Engine.MaxWindowDays),
			AllowChainedSegments: getEnvBool("ENGINE_ALLOW_CHAINED_SEGMENTS", base.Engine.AllowChainedSegments),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", base.Metrics.Enabled),
			Path:    getEnv("METRICS_PATH", base.Metrics.Path),
		},
	}

	return cfg, nil
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsTest 检查是否为测试环境
func (c *Config) IsTest() bool {
	return c.App.Env == "test"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
