package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pu-ac-cn/sysadmin-backend/internal/service"
	"github.com/pu-ac-cn/sysadmin-backend/pkg/response"
)

// DeptHandler 部门管理处理器
type DeptHandler struct {
	deptService *service.DeptService
}

// NewDeptHandler 创建部门管理处理器
func NewDeptHandler(deptSvc *service.DeptService) *DeptHandler {
	return &DeptHandler{deptService: deptSvc}
}

// Tree 数据范围内的部门树
// GET /api/v1/depts/tree
func (h *DeptHandler) Tree(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	tree, err := h.deptService.Tree(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, tree)
}

// Get 部门详情
// GET /api/v1/depts/:id
func (h *DeptHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	dept, err := h.deptService.Get(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dept)
}

// Search 部门检索
// POST /api/v1/depts/search
func (h *DeptHandler) Search(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "请求参数无效: "+err.Error())
		return
	}
	list, total, err := h.deptService.Search(c.Request.Context(), p, req.Fields, req.Page)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, listPayload(list, total, req.Page))
}

// Options 部门下拉选项
// GET /api/v1/depts/options
func (h *DeptHandler) Options(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	options, err := h.deptService.Options(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, options)
}

// Create 创建部门
// POST /api/v1/depts
func (h *DeptHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req service.CreateDeptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "请求参数无效: "+err.Error())
		return
	}
	dept, err := h.deptService.Create(c.Request.Context(), p, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dept)
}

// Update 更新部门，parent_id 变更触发子树迁移
// PUT /api/v1/depts/:id
func (h *DeptHandler) Update(c *gin.Context) {
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
	dept, err := h.deptService.Update(c.Request.Context(), p, id, fields)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dept)
}

// Delete 删除部门
// DELETE /api/v1/depts/:id
func (h *DeptHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.deptService.Delete(c.Request.Context(), p, id); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMsg(c, "删除成功", nil)
}
