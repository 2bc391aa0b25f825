package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pu-ac-cn/sysadmin-backend/internal/service"
	"github.com/pu-ac-cn/sysadmin-backend/pkg/response"
)

// OperationLogHandler 操作日志处理器
type OperationLogHandler struct {
	logService *service.OperationLogService
}

// NewOperationLogHandler 创建操作日志处理器
func NewOperationLogHandler(logSvc *service.OperationLogService) *OperationLogHandler {
	return &OperationLogHandler{logService: logSvc}
}

// Get 操作日志详情
// GET /api/v1/operation-logs/:id
func (h *OperationLogHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	entry, err := h.logService.Get(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, entry)
}

// Search 操作日志检索，支持 create_time_start/_end 时间区间
// POST /api/v1/operation-logs/search
func (h *OperationLogHandler) Search(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "请求参数无效: "+err.Error())
		return
	}
	list, total, err := h.logService.Search(c.Request.Context(), p, req.Fields, req.Page)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, listPayload(list, total, req.Page))
}
