// Package handler HTTP 处理器
package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pu-ac-cn/sysadmin-backend/internal/logger"
	"github.com/pu-ac-cn/sysadmin-backend/internal/middleware"
	"github.com/pu-ac-cn/sysadmin-backend/internal/repository"
	"github.com/pu-ac-cn/sysadmin-backend/internal/service"
	"github.com/pu-ac-cn/sysadmin-backend/pkg/response"
)

// searchRequest 通用检索请求
// fields 为动态条件集合，按服务层约定展开；page 缺省不分页
type searchRequest struct {
	Fields map[string]any `json:"fields"`
	Page   *service.Page  `json:"page"`
}

// writeError 业务错误统一转响应
func writeError(c *gin.Context, err error) {
	var unknownField *service.UnknownFieldError
	var missingField *service.MissingFieldError
	var hasDependents *service.HasDependentsError

	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Error(c, response.CodeForbidden)
	case errors.Is(err, service.ErrOutOfScope):
		response.Error(c, response.CodeOutOfScope)
	case errors.Is(err, service.ErrInvalidArguments):
		response.ErrorWithMsg(c, response.CodeInvalidRequest, err.Error())
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrDeptNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		response.Error(c, response.CodeNotFound)
	case errors.Is(err, repository.ErrParentNotFound):
		response.Error(c, response.CodeParentNotFound)
	case errors.Is(err, repository.ErrInvalidParent):
		response.ErrorWithMsg(c, response.CodeInvalidRequest, err.Error())
	case errors.Is(err, repository.ErrCycleDetected):
		response.Error(c, response.CodeCycleDetected)
	case errors.Is(err, service.ErrBadCredentials):
		response.Error(c, response.CodeInvalidCredentials)
	case errors.Is(err, service.ErrAccountLocked):
		response.Error(c, response.CodeAccountLocked)
	case errors.Is(err, service.ErrSessionRevoked):
		response.Error(c, response.CodeSessionRevoked)
	case errors.Is(err, service.ErrTokenExpired), errors.Is(err, service.ErrTokenInvalid):
		response.Error(c, response.CodeInvalidToken)
	case errors.As(err, &unknownField):
		response.ErrorWithMsg(c, response.CodeUnknownField, err.Error())
	case errors.As(err, &missingField):
		response.ErrorWithMsg(c, response.CodeMissingField, err.Error())
	case errors.As(err, &hasDependents):
		response.ErrorWithMsg(c, response.CodeHasDependents, err.Error())
	default:
		logger.L().Error("请求处理失败",
			zap.String("path", c.Request.URL.Path), zap.Error(err))
		response.Error(c, response.CodeServerError)
	}
}

// parseID 解析路径中的 :id 参数
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "ID 参数无效")
		return 0, false
	}
	return uint(id), true
}

// principal 取当前用户上下文，认证中间件保证存在
func principal(c *gin.Context) (*service.Principal, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		response.Error(c, response.CodeInvalidToken)
		return nil, false
	}
	return p, true
}

// pageFromQuery 从查询参数解析分页
func pageFromQuery(c *gin.Context) *service.Page {
	num, _ := strconv.Atoi(c.DefaultQuery("page_num", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	return &service.Page{Num: num, Size: size}
}

// listPayload 列表响应体
func listPayload(list any, total int64, page *service.Page) gin.H {
	payload := gin.H{
		"list":  list,
		"total": total,
	}
	if page != nil {
		payload["page_num"] = page.Num
		payload["page_size"] = page.Size
	}
	return payload
}
