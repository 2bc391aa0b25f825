package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pu-ac-cn/sysadmin-backend/internal/service"
	"github.com/pu-ac-cn/sysadmin-backend/pkg/response"
)

// PermissionHandler 权限字符处理器
type PermissionHandler struct {
	permissionService *service.PermissionService
}

// NewPermissionHandler 创建权限字符处理器
func NewPermissionHandler(permSvc *service.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissionService: permSvc}
}

// Search 权限字符检索
// POST /api/v1/permissions/search
func (h *PermissionHandler) Search(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "请求参数无效: "+err.Error())
		return
	}
	list, total, err := h.permissionService.Search(c.Request.Context(), p, req.Fields, req.Page)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, listPayload(list, total, req.Page))
}

// Sync 按模块×操作矩阵重建权限表，仅管理员可用
// POST /api/v1/permissions/sync
func (h *PermissionHandler) Sync(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if !p.IsAdmin {
		response.ErrorWithMsg(c, response.CodeForbidden, "只有管理员可以同步权限")
		return
	}
	count, err := h.permissionService.Sync(c.Request.Context(), p.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"count": count})
}
