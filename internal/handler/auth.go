package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pu-ac-cn/sysadmin-backend/internal/service"
	"github.com/pu-ac-cn/sysadmin-backend/pkg/response"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	userService *service.UserService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(userSvc *service.UserService) *AuthHandler {
	return &AuthHandler{userService: userSvc}
}

// LoginRequest 登录请求
type LoginRequest struct {
	UserName string `json:"user_name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 账号密码登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "请求参数无效: "+err.Error())
		return
	}

	pair, err := h.userService.Login(c.Request.Context(), req.UserName, req.Password, c.ClientIP())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, pair)
}

// RefreshRequest 刷新令牌请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh 刷新令牌
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "请求参数无效: "+err.Error())
		return
	}

	pair, err := h.userService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, pair)
}

// Logout 注销当前会话
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.userService.Logout(c.Request.Context(), p.ID); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMsg(c, "已注销", nil)
}

// Profile 当前用户信息
// GET /api/v1/auth/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	roles := make([]gin.H, len(p.Roles))
	for i, r := range p.Roles {
		roles[i] = gin.H{
			"id":              r.ID,
			"name":            r.Name,
			"role_key":        r.RoleKey,
			"is_admin":        r.IsAdmin,
			"data_scope_type": r.DataScopeType,
		}
	}
	permissions := p.PermissionKeys()
	keys := make([]string, 0, len(permissions))
	for k := range permissions {
		keys = append(keys, k)
	}

	response.Success(c, gin.H{
		"id":          p.ID,
		"dept_id":     p.DeptID,
		"is_admin":    p.IsAdmin,
		"roles":       roles,
		"permissions": keys,
	})
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// ChangePassword 用户修改本人密码
// POST /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "请求参数无效: "+err.Error())
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), p.ID, req.OldPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMsg(c, "密码已修改，请重新登录", nil)
}
