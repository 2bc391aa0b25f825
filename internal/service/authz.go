package service

import (
	"strings"

	"github.com/pu-ac-cn/sysadmin-backend/internal/logger"
	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
	"go.uber.org/zap"
)

// 操作类型，与权限矩阵的 action 维度一致
const (
	ActionQuery  = model.ActionQuery
	ActionCreate = model.ActionCreate
	ActionUpdate = model.ActionUpdate
	ActionDelete = model.ActionDelete
)

// PermissionTag 由资源名与操作类型生成权限标识
// 资源名会被归一化：剥离系统表前缀 sys 与 Model 类型后缀并转小写，
// 如 SysUserModel -> user，与权限矩阵中的模块标识对齐
func PermissionTag(resource, action string) string {
	name := strings.ToLower(strings.TrimSuffix(resource, "Model"))
	name = strings.TrimPrefix(name, "sys")
	name = strings.TrimPrefix(name, "_")
	return model.BuildPermissionKey(name, action)
}

// Authorizer 权限校验门面
// 在每次增删改查前以权限标识做成员校验，管理员直接放行
type Authorizer struct{}

// NewAuthorizer 创建权限校验门面
func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

// Check 权限校验双模式方法
// action 与 permissionTag 必须且只能指定其一，否则返回参数错误。
// 管理员恒为 true；其余情况在用户全部有效角色的权限并集中做成员校验。
// raise 为 true 且校验失败时返回 ErrForbidden，否则仅返回布尔结果
func (a *Authorizer) Check(p *Principal, resource, action, permissionTag string, raise bool) (bool, error) {
	if (action == "") == (permissionTag == "") {
		logger.L().Warn("权限校验参数错误：必须且只能指定 action 或 permissionTag 中的一个",
			zap.Uint("user_id", p.ID),
			zap.String("resource", resource),
		)
		return false, ErrInvalidArguments
	}

	if p.IsAdmin {
		return true, nil
	}

	finalTag := permissionTag
	if finalTag == "" {
		finalTag = PermissionTag(resource, action)
	}

	_, ok := p.PermissionKeys()[finalTag]
	if !ok {
		logger.L().Warn("权限校验失败",
			zap.Uint("user_id", p.ID),
			zap.String("tag", finalTag),
		)
		if raise {
			return false, ErrForbidden
		}
	}
	return ok, nil
}

// Require 按资源与操作做强制校验，失败返回 ErrForbidden
func (a *Authorizer) Require(p *Principal, resource, action string) error {
	_, err := a.Check(p, resource, action, "", true)
	return err
}
