package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoadFromFile 测试从文件加载配置
func TestLoadFromFile(t *testing.T) {
	// 创建临时配置文件
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := `
server:
  addr: ":9090"
  mode: "release"
  read_timeout: "15s"
  write_timeout: "15s"

database:
  driver: "postgres"
  postgres:
    host: "testhost"
    port: 5433
    user: "testuser"
    password: "testpass"
    dbname: "testdb"
    sslmode: "require"

redis:
  addr: "testredis:6380"
  password: "redispass"
  db: 1

jwt:
  secret: "test-secret"
  issuer: "test-issuer"
  access_expiry: "1h"
  refresh_expiry: "24h"

log:
  level: "debug"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("创建测试配置文件失败: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	// 验证服务器配置
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr 期望 :9090, 实际 %s", cfg.Server.Addr)
	}
	if cfg.Server.Mode != "release" {
		t.Errorf("Server.Mode 期望 release, 实际 %s", cfg.Server.Mode)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("Server.ReadTimeout 期望 15s, 实际 %v", cfg.Server.ReadTimeout)
	}

	// 验证数据库配置
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver 期望 postgres, 实际 %s", cfg.Database.Driver)
	}
	if cfg.Database.Postgres.Host != "testhost" {
		t.Errorf("Database.Postgres.Host 期望 testhost, 实际 %s", cfg.Database.Postgres.Host)
	}
	if cfg.Database.Postgres.Port != 5433 {
		t.Errorf("Database.Postgres.Port 期望 5433, 实际 %d", cfg.Database.Postgres.Port)
	}

	// 验证 Redis 配置
	if cfg.Redis.Addr != "testredis:6380" {
		t.Errorf("Redis.Addr 期望 testredis:6380, 实际 %s", cfg.Redis.Addr)
	}
	if cfg.Redis.DB != 1 {
		t.Errorf("Redis.DB 期望 1, 实际 %d", cfg.Redis.DB)
	}

	// 验证 JWT 配置
	if cfg.JWT.Secret != "test-secret" {
		t.Errorf("JWT.Secret 期望 test-secret, 实际 %s", cfg.JWT.Secret)
	}
	if cfg.JWT.Issuer != "test-issuer" {
		t.Errorf("JWT.Issuer 期望 test-issuer, 实际 %s", cfg.JWT.Issuer)
	}
	if cfg.JWT.AccessExpiry != time.Hour {
		t.Errorf("JWT.AccessExpiry 期望 1h, 实际 %v", cfg.JWT.AccessExpiry)
	}
	if cfg.JWT.RefreshExpiry != 24*time.Hour {
		t.Errorf("JWT.RefreshExpiry 期望 24h, 实际 %v", cfg.JWT.RefreshExpiry)
	}

	// 验证日志配置
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level 期望 debug, 实际 %s", cfg.Log.Level)
	}
}

// TestLoadDefaults 测试默认配置
func TestLoadDefaults(t *testing.T) {
	// 创建空配置文件
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(""), 0644); err != nil {
		t.Fatalf("创建测试配置文件失败: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	// 验证默认值
	if cfg.Server.Addr != ":8080" {
		t.Errorf("默认 Server.Addr 期望 :8080, 实际 %s", cfg.Server.Addr)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("默认 Database.Driver 期望 postgres, 实际 %s", cfg.Database.Driver)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("默认 Redis.Addr 期望 localhost:6379, 实际 %s", cfg.Redis.Addr)
	}
	if cfg.JWT.AccessExpiry != 2*time.Hour {
		t.Errorf("默认 JWT.AccessExpiry 期望 2h, 实际 %v", cfg.JWT.AccessExpiry)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("默认 Log.Level 期望 info, 实际 %s", cfg.Log.Level)
	}
}

// TestLoadFromFileNotFound 测试加载不存在的配置文件
func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("期望返回错误, 实际为 nil")
	}
}
