package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pu-ac-cn/sysadmin-backend/internal/service"
	"github.com/pu-ac-cn/sysadmin-backend/pkg/response"
)

// PostHandler 岗位管理处理器
type PostHandler struct {
	postService *service.PostService
}

// NewPostHandler 创建岗位管理处理器
func NewPostHandler(postSvc *service.PostService) *PostHandler {
	return &PostHandler{postService: postSvc}
}

// Get 岗位详情
// GET /api/v1/posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	post, err := h.postService.Get(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, post)
}

// Search 岗位检索
// POST /api/v1/posts/search
func (h *PostHandler) Search(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "请求参数无效: "+err.Error())
		return
	}
	list, total, err := h.postService.Search(c.Request.Context(), p, req.Fields, req.Page)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, listPayload(list, total, req.Page))
}

// Options 岗位下拉选项
// GET /api/v1/posts/options
func (h *PostHandler) Options(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	options, err := h.postService.Options(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, options)
}

// Create 创建岗位
// POST /api/v1/posts
func (h *PostHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "请求参数无效: "+err.Error())
		return
	}
	post, err := h.postService.Create(c.Request.Context(), p, fields)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, post)
}

// Update 更新岗位
// PUT /api/v1/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
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
	post, err := h.postService.Update(c.Request.Context(), p, id, fields)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, post)
}

// Delete 删除岗位
// DELETE /api/v1/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.postService.Delete(c.Request.Context(), p, id); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMsg(c, "删除成功", nil)
}
