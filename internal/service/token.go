package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pu-ac-cn/sysadmin-backend/internal/config"
)

// 令牌错误定义
var (
	ErrTokenInvalid = errors.New("令牌无效")
	ErrTokenExpired = errors.New("令牌已过期")
)

// TokenType 令牌类型
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims JWT 载荷
type Claims struct {
	UserID    uint   `json:"user_id"`
	UserName  string `json:"user_name"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair 一次签发的访问令牌与刷新令牌
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // 访问令牌有效期（秒）
	SessionID    string `json:"-"`          // 会话标识，与令牌 jti 一致
}

// TokenService JWT 令牌服务，HS256 签名
type TokenService struct {
	cfg *config.JWTConfig
}

// NewTokenService 创建令牌服务
func NewTokenService(cfg *config.JWTConfig) *TokenService {
	return &TokenService{cfg: cfg}
}

// Issue 为用户签发一对令牌，jti 用唯一标识以支持单会话控制
func (s *TokenService) Issue(userID uint, userName string) (*TokenPair, error) {
	sessionID := uuid.NewString()
	access, err := s.sign(userID, userName, TokenTypeAccess, sessionID, s.cfg.AccessExpiry)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(userID, userName, TokenTypeRefresh, sessionID, s.cfg.RefreshExpiry)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.AccessExpiry.Seconds()),
		SessionID:    sessionID,
	}, nil
}

// Parse 解析并校验令牌
func (s *TokenService) Parse(tokenString, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("意外的签名算法: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *TokenService) sign(userID uint, userName, tokenType, sessionID string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    userID,
		UserName:  userName,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    s.cfg.Issuer,
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Secret))
}
