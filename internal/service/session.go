package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pu-ac-cn/sysadmin-backend/internal/redis"
)

// ErrSessionRevoked 会话已失效（被新登录挤下线或已登出）
var ErrSessionRevoked = errors.New("会话已失效，请重新登录")

// SessionStore 单会话存储
// 每个用户只保留最近一次登录的会话标识，新登录覆盖旧会话，
// 旧令牌随即失效
type SessionStore struct{}

// NewSessionStore 创建会话存储
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func sessionKey(userID uint) string {
	return fmt.Sprintf("session:user:%d", userID)
}

// Bind 绑定用户当前会话，ttl 取刷新令牌有效期
func (s *SessionStore) Bind(ctx context.Context, userID uint, sessionID string, ttl time.Duration) error {
	return redis.Set(ctx, sessionKey(userID), sessionID, ttl)
}

// Validate 校验令牌携带的会话标识是否仍是用户的当前会话
func (s *SessionStore) Validate(ctx context.Context, userID uint, sessionID string) error {
	current, err := redis.Get(ctx, sessionKey(userID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return ErrSessionRevoked
		}
		return err
	}
	if current != sessionID {
		return ErrSessionRevoked
	}
	return nil
}

// Revoke 注销用户当前会话
func (s *SessionStore) Revoke(ctx context.Context, userID uint) error {
	return redis.Del(ctx, sessionKey(userID))
}
