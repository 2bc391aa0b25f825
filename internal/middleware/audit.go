package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
	"github.com/pu-ac-cn/sysadmin-backend/internal/service"
)

// Audit 审计中间件
// 变更类请求（POST/PUT/DELETE）完成后写操作日志：模块取路由前缀，
// 操作按 HTTP 方法归类，结果按响应状态判定。落库失败只告警，
// 不影响请求本身的响应
func Audit(logs *service.OperationLogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		p, ok := CurrentPrincipal(c)
		if !ok {
			return
		}

		module := auditModule(c.Request.URL.Path)
		entry := &model.OperationLog{
			Module:     module,
			Action:     auditAction(c),
			TargetID:   auditTargetID(c),
			Outcome:    model.OutcomeSuccess,
			DurationMs: time.Since(start).Milliseconds(),
			IP:         c.ClientIP(),
		}
		if entry.TargetID != 0 {
			entry.TargetType = module
		}
		entry.CreateBy = p.ID
		if c.Writer.Status() >= http.StatusBadRequest {
			entry.Outcome = model.OutcomeFailure
			entry.Message = "HTTP " + strconv.Itoa(c.Writer.Status())
		}
		logs.Record(c.Request.Context(), entry)
	}
}

func auditModule(path string) string {
	rest := strings.TrimPrefix(path, "/api/v1/")
	if idx := strings.IndexByte(rest, '/'); idx > 0 {
		rest = rest[:idx]
	}
	return rest
}

func auditAction(c *gin.Context) string {
	switch c.Request.Method {
	case http.MethodPost:
		if strings.HasSuffix(c.Request.URL.Path, "/search") {
			return model.ActionQuery
		}
		return model.ActionCreate
	case http.MethodPut:
		return model.ActionUpdate
	case http.MethodDelete:
		return model.ActionDelete
	default:
		return strings.ToLower(c.Request.Method)
	}
}

func auditTargetID(c *gin.Context) uint {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}
