package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/pu-ac-cn/sysadmin-backend/internal/config"
)

// setupTestRedis 启动内存 Redis 并初始化客户端
func setupTestRedis(t *testing.T) {
	t.Helper()
	mr := miniredis.RunT(t)
	if err := Init(&config.RedisConfig{Addr: mr.Addr()}); err != nil {
		t.Fatalf("初始化 Redis 失败: %v", err)
	}
	t.Cleanup(func() { Close() })
}

// TestInit 测试 Redis 初始化
func TestInit(t *testing.T) {
	setupTestRedis(t)

	// 验证客户端已初始化
	if GetClient() == nil {
		t.Error("GetClient() 返回 nil")
	}
}

// TestInitFailure 测试连接失败
func TestInitFailure(t *testing.T) {
	err := Init(&config.RedisConfig{Addr: "127.0.0.1:1"})
	if err == nil {
		t.Fatal("期望返回错误, 实际为 nil")
	}
}

// TestSetGet 测试 Set 和 Get 操作
func TestSetGet(t *testing.T) {
	setupTestRedis(t)

	ctx := context.Background()
	key := "test:key:setget"
	value := "test_value"

	// 设置值
	if err := Set(ctx, key, value, time.Minute); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}

	// 获取值
	got, err := Get(ctx, key)
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if got != value {
		t.Errorf("Get 期望 %s, 实际 %s", value, got)
	}
}

// TestDel 测试删除操作
func TestDel(t *testing.T) {
	setupTestRedis(t)

	ctx := context.Background()
	key := "test:key:del"

	// 设置值
	Set(ctx, key, "value", time.Minute)

	// 删除
	if err := Del(ctx, key); err != nil {
		t.Fatalf("Del 失败: %v", err)
	}

	// 验证已删除
	exists, _ := Exists(ctx, key)
	if exists != 0 {
		t.Error("删除后键仍然存在")
	}
}

// TestExists 测试键存在检查
func TestExists(t *testing.T) {
	setupTestRedis(t)

	ctx := context.Background()

	Set(ctx, "test:key:exists", "value", time.Minute)

	exists, err := Exists(ctx, "test:key:exists")
	if err != nil {
		t.Fatalf("Exists 失败: %v", err)
	}
	if exists != 1 {
		t.Errorf("Exists 期望 1, 实际 %d", exists)
	}

	exists, _ = Exists(ctx, "test:key:missing")
	if exists != 0 {
		t.Errorf("不存在的键期望 0, 实际 %d", exists)
	}
}

// TestExpireTTL 测试过期时间
func TestExpireTTL(t *testing.T) {
	setupTestRedis(t)

	ctx := context.Background()
	key := "test:key:ttl"

	Set(ctx, key, "value", 0)

	if err := Expire(ctx, key, time.Minute); err != nil {
		t.Fatalf("Expire 失败: %v", err)
	}

	ttl, err := TTL(ctx, key)
	if err != nil {
		t.Fatalf("TTL 失败: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL 期望 (0, 1m], 实际 %v", ttl)
	}
}
