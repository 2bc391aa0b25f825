package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
	"github.com/pu-ac-cn/sysadmin-backend/internal/service"
	"github.com/pu-ac-cn/sysadmin-backend/pkg/response"
)

// RoleHandler 角色管理处理器
type RoleHandler struct {
	roleService *service.RoleService
}

// NewRoleHandler 创建角色管理处理器
func NewRoleHandler(roleSvc *service.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleSvc}
}

// Get 角色详情
// GET /api/v1/roles/:id
func (h *RoleHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	role, err := h.roleService.Get(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, role)
}

// DeptTree 角色部门树
// GET /api/v1/roles/:id/depts/tree
func (h *RoleHandler) DeptTree(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	tree, err := h.roleService.DeptTree(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, tree)
}

// Search 角色检索
// POST /api/v1/roles/search
func (h *RoleHandler) Search(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "请求参数无效: "+err.Error())
		return
	}
	list, total, err := h.roleService.Search(c.Request.Context(), p, req.Fields, req.Page)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, listPayload(list, total, req.Page))
}

// Options 角色下拉选项
// GET /api/v1/roles/options
func (h *RoleHandler) Options(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	options, err := h.roleService.Options(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, options)
}

// Create 创建角色
// POST /api/v1/roles
func (h *RoleHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "请求参数无效: "+err.Error())
		return
	}
	role, err := h.roleService.Create(c.Request.Context(), p, fields)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, role)
}

// Update 更新角色
// PUT /api/v1/roles/:id
func (h *RoleHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "请求参数无效: "+err.Error())
		return
	}
	role, err := h.roleService.Update(c.Request.Context(), p, id, fields)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, role)
}

// Delete 删除角色
// DELETE /api/v1/roles/:id
func (h *RoleHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.roleService.Delete(c.Request.Context(), p, id); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMsg(c, "删除成功", nil)
}

// ConfigurePermissionsRequest 权限配置请求
type ConfigurePermissionsRequest struct {
	PermissionKeys []string             `json:"permission_keys"`
	DeptIDs        []uint               `json:"dept_ids"`
	DataScopeType  *model.DataScopeType `json:"data_scope_type"`
}

// ConfigurePermissions 配置角色的权限集合、部门集合与数据范围类型
// PUT /api/v1/roles/:id/permissions
func (h *RoleHandler) ConfigurePermissions(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req ConfigurePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "请求参数无效: "+err.Error())
		return
	}
	result, err := h.roleService.ConfigurePermissions(c.Request.Context(), p, id,
		req.PermissionKeys, req.DeptIDs, req.DataScopeType)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}

// AssignUsersRequest 分配用户请求
type AssignUsersRequest struct {
	UserIDs []uint `json:"user_ids"`
}

// AssignUsers 整体替换角色的用户集合
// PUT /api/v1/roles/:id/users
func (h *RoleHandler) AssignUsers(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req AssignUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "请求参数无效: "+err.Error())
		return
	}
	if err := h.roleService.AssignUsers(c.Request.Context(), p, id, req.UserIDs); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMsg(c, "用户已更新", nil)
}
