package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/pu-ac-cn/sysadmin-backend/internal/service"
	"github.com/pu-ac-cn/sysadmin-backend/pkg/response"
)

// RequirePermission 权限检查中间件
// 检查当前用户是否拥有 resource:action 权限，管理员直接放行
func RequirePermission(authz *service.Authorizer, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			response.Error(c, response.CodeInvalidToken)
			c.Abort()
			return
		}

		allowed, err := authz.Check(p, resource, action, "", false)
		if err != nil {
			response.Error(c, response.CodeServerError)
			c.Abort()
			return
		}
		if !allowed {
			response.ErrorWithMsg(c, response.CodeForbidden, "没有权限执行此操作")
			c.Abort()
			return
		}

		c.Next()
	}
}
