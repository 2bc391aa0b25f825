package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pu-ac-cn/sysadmin-backend/internal/repository"
	"github.com/pu-ac-cn/sysadmin-backend/internal/service"
	"github.com/pu-ac-cn/sysadmin-backend/pkg/response"
)

// 上下文键
const (
	ContextKeyPrincipal = "principal"
	ContextKeyRequestID = "request_id"
)

// JWTAuth JWT 认证中间件
// 验证访问令牌与单会话绑定，加载当前用户上下文
// （有效角色、权限集合、数据范围）存入请求上下文
func JWTAuth(tokens *service.TokenService, sessions *service.SessionStore, principals *service.PrincipalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.ErrorWithMsg(c, response.CodeInvalidToken, "未提供认证令牌")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.ErrorWithMsg(c, response.CodeInvalidToken, "认证令牌格式错误")
			c.Abort()
			return
		}

		claims, err := tokens.Parse(parts[1], service.TokenTypeAccess)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTokenExpired):
				response.ErrorWithMsg(c, response.CodeInvalidToken, "令牌已过期")
			default:
				response.Error(c, response.CodeInvalidToken)
			}
			c.Abort()
			return
		}

		// 单会话控制：令牌携带的会话必须仍是用户的当前会话
		if err := sessions.Validate(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			response.Error(c, response.CodeSessionRevoked)
			c.Abort()
			return
		}

		principal, err := principals.Resolve(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				response.Error(c, response.CodeSessionRevoked)
			} else {
				response.Error(c, response.CodeServerError)
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyPrincipal, principal)
		c.Next()
	}
}

// CurrentPrincipal 从请求上下文取当前用户，认证中间件之后可用
func CurrentPrincipal(c *gin.Context) (*service.Principal, bool) {
	v, ok := c.Get(ContextKeyPrincipal)
	if !ok {
		return nil, false
	}
	p, ok := v.(*service.Principal)
	return p, ok
}
