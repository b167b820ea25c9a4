package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}

	if cfg.App.Name != "turni" {
		t.Errorf("App.Name = %s, expected turni", cfg.App.Name)
	}
	if cfg.App.Port != 7021 {
		t.Errorf("App.Port = %d, expected 7021", cfg.App.Port)
	}
	if cfg.Engine.RequestTimeout != 5*time.Minute {
		t.Errorf("Engine.RequestTimeout = %v, expected 5m", cfg.Engine.RequestTimeout)
	}
	if cfg.Engine.MaxWindowDays != 366 {
		t.Errorf("Engine.MaxWindowDays = %d, expected 366", cfg.Engine.MaxWindowDays)
	}
	if !cfg.Engine.AllowChainedSegments {
		t.Error("AllowChainedSegments 默认应开启")
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("ENGINE_MAX_WINDOW_DAYS", "31")
	t.Setenv("ENGINE_ALLOW_CHAINED_SEGMENTS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}

	if cfg.App.Port != 9000 {
		t.Errorf("App.Port = %d, expected 9000", cfg.App.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %s", cfg.Database.Host)
	}
	if cfg.Engine.MaxWindowDays != 31 {
		t.Errorf("Engine.MaxWindowDays = %d, expected 31", cfg.Engine.MaxWindowDays)
	}
	if cfg.Engine.AllowChainedSegments {
		t.Error("环境变量应关闭 AllowChainedSegments")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("app:\n  port: 8080\nengine:\n  max_window_days: 62\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("写配置文件失败: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.App.Port != 8080 {
		t.Errorf("App.Port = %d, expected 8080", cfg.App.Port)
	}
	if cfg.Engine.MaxWindowDays != 62 {
		t.Errorf("Engine.MaxWindowDays = %d, expected 62", cfg.Engine.MaxWindowDays)
	}
	// 文件未覆盖的字段保留默认值
	if cfg.App.Name != "turni" {
		t.Errorf("App.Name = %s, expected turni", cfg.App.Name)
	}
}

func TestLoad_BadConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("缺失的配置文件应报错")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := &DatabaseConfig{
		Host: "localhost", Port: 5432,
		Name: "turni", User: "turni", Password: "secret", SSLMode: "disable",
	}
	want := "host=localhost port=5432 user=turni password=secret dbname=turni sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q, expected %q", got, want)
	}
}

func TestConfig_EnvChecks(t *testing.T) {
	cfg := &Config{App: AppConfig{Env: "production"}}
	if !cfg.IsProduction() || cfg.IsDevelopment() || cfg.IsTest() {
		t.Error("production 环境判断错误")
	}
}
