package service

import (
	"context"

	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
	"github.com/pu-ac-cn/sysadmin-backend/internal/repository"
)

// Principal 当前操作用户的授权上下文
// 由调用方在进入服务层前解析；服务层只做授权，不做认证
type Principal struct {
	ID     uint          // 用户 ID
	DeptID uint          // 主部门 ID
	Roles  []*model.Role // 有效角色（启用未删除，已预加载部门与权限）
	IsAdmin bool         // 任一角色带管理员标志即为 true
}

// NewPrincipal 基于已预加载角色的用户构建授权上下文
func NewPrincipal(user *model.User) *Principal {
	roles := user.ActiveRoles()
	isAdmin := false
	for _, r := range roles {
		if r.IsAdmin {
			isAdmin = true
			break
		}
	}
	return &Principal{
		ID:      user.ID,
		DeptID:  user.DeptID,
		Roles:   roles,
		IsAdmin: isAdmin,
	}
}

// EffectiveScopeType 有效数据范围类型
// 取非禁用角色中数值最小（最宽松）的范围；管理员视为全部数据
func (p *Principal) EffectiveScopeType() model.DataScopeType {
	if p.IsAdmin {
		return model.ScopeAll
	}
	scope := model.ScopeCustom
	for _, r := range p.Roles {
		if r.DataScopeType.Valid() && r.DataScopeType < scope {
			scope = r.DataScopeType
		}
	}
	return scope
}

// PermissionKeys 聚合全部角色的权限标识集合
func (p *Principal) PermissionKeys() map[string]struct{} {
	keys := make(map[string]struct{})
	for _, role := range p.Roles {
		for _, perm := range role.Permissions {
			keys[perm.Key] = struct{}{}
		}
	}
	return keys
}

// PrincipalService 用户上下文解析服务
type PrincipalService struct {
	repo repository.PrincipalRepository
}

// NewPrincipalService 创建用户上下文解析服务
func NewPrincipalService(repo repository.PrincipalRepository) *PrincipalService {
	return &PrincipalService{repo: repo}
}

// Resolve 按用户 ID 解析授权上下文
func (s *PrincipalService) Resolve(ctx context.Context, userID uint) (*Principal, error) {
	user, err := s.repo.LoadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewPrincipal(user), nil
}
