package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pu-ac-cn/sysadmin-backend/internal/logger"
	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
)

// RoleService 角色服务
// 在通用实体服务之上叠加权限与范围配置：权限集合、自定义部门
// 集合与数据范围类型在单事务内整体替换
type RoleService struct {
	entities *EntityService[model.Role]
	scope    *ScopeResolver
	authz    *Authorizer
	db       *gorm.DB
}

// NewRoleService 创建角色服务
func NewRoleService(db *gorm.DB, authz *Authorizer, scope *ScopeResolver) *RoleService {
	return &RoleService{
		entities: NewEntityService[model.Role](db, RoleMeta(), authz, scope),
		scope:    scope,
		authz:    authz,
		db:       db,
	}
}

// Create 创建角色，数据范围类型默认本部门
func (s *RoleService) Create(ctx context.Context, p *Principal, fields map[string]any) (*model.Role, error) {
	if raw, ok := fields["data_scope_type"]; ok && raw != nil {
		n, ok := toUint(raw)
		if !ok || !model.DataScopeType(n).Valid() {
			return nil, ErrInvalidArguments
		}
	}
	return s.entities.Create(ctx, p, fields)
}

// Get 按 ID 获取角色，附带已配置的权限与部门集合
func (s *RoleService) Get(ctx context.Context, p *Principal, id uint) (*model.Role, error) {
	role, err := s.entities.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := s.loadAssociations(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// loadAssociations 加载角色的权限与部门关联，过滤已删除记录
func (s *RoleService) loadAssociations(ctx context.Context, role *model.Role) error {
	tx := s.db.WithContext(ctx)
	if err := tx.Model(role).Association("Permissions").
		Find(&role.Permissions, "del_flag = ?", false); err != nil {
		return err
	}
	return tx.Model(role).Association("Depts").
		Find(&role.Depts, "del_flag = ?", false)
}

// DeptTree 角色已配置的部门集合的树形结构
func (s *RoleService) DeptTree(ctx context.Context, p *Principal, id uint) ([]*model.DeptTreeNode, error) {
	role, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return model.BuildDeptTree(role.Depts), nil
}

// Search 按字段条件检索角色
func (s *RoleService) Search(ctx context.Context, p *Principal, fields map[string]any, page *Page) ([]model.Role, int64, error) {
	return s.entities.Search(ctx, p, fields, page)
}

// Options 角色下拉选项
func (s *RoleService) Options(ctx context.Context, p *Principal) ([]Option, error) {
	return s.entities.Options(ctx, p)
}

// Update 更新角色基础字段，数据范围类型取值需合法
func (s *RoleService) Update(ctx context.Context, p *Principal, id uint, fields map[string]any) (*model.Role, error) {
	if raw, ok := fields["data_scope_type"]; ok && raw != nil {
		n, ok := toUint(raw)
		if !ok || !model.DataScopeType(n).Valid() {
			return nil, ErrInvalidArguments
		}
	}
	return s.entities.Update(ctx, p, id, fields)
}

// Delete 软删除角色，存在关联用户、部门或权限时拒绝
func (s *RoleService) Delete(ctx context.Context, p *Principal, id uint) error {
	return s.entities.Delete(ctx, p, id)
}

// AssignmentResult 权限配置结果
type AssignmentResult struct {
	PermissionCount int `json:"permission_count"` // 本次生效的权限数量
	DeptCount       int `json:"dept_count"`       // 本次生效的部门数量
}

// ConfigurePermissions 配置角色的权限集合、自定义部门集合与数据范围类型
// 三项入参均不可为空：权限与部门集合整体替换既有配置，数据范围同步更新。
// 部门集合必须整体落在当前用户的数据范围内；全部替换在单事务内完成
func (s *RoleService) ConfigurePermissions(ctx context.Context, p *Principal, roleID uint,
	permissionKeys []string, deptIDs []uint, scopeType *model.DataScopeType) (result *AssignmentResult, err error) {
	done := logger.Op("role", ActionUpdate)
	defer func() { done(err) }()

	if err = s.authz.Require(p, "role", ActionUpdate); err != nil {
		return nil, err
	}
	if len(permissionKeys) == 0 || len(deptIDs) == 0 || scopeType == nil {
		return nil, fmt.Errorf("%w: 权限、部门、数据范围均不可为空", ErrInvalidArguments)
	}
	if !scopeType.Valid() {
		return nil, fmt.Errorf("%w: 数据范围类型取值不合法", ErrInvalidArguments)
	}

	role, err := s.entities.Get(ctx, p, roleID)
	if err != nil {
		return nil, err
	}

	var perms []*model.Permission
	if err = s.db.WithContext(ctx).
		Where("key IN ? AND status = ? AND del_flag = ?", permissionKeys, true, false).
		Find(&perms).Error; err != nil {
		return nil, err
	}
	if len(perms) == 0 {
		return nil, fmt.Errorf("%w: 没有匹配的权限标识", ErrNotFound)
	}

	in, err := s.scope.InScope(ctx, p, deptIDs)
	if err != nil {
		return nil, err
	}
	if !in {
		return nil, ErrOutOfScope
	}
	var depts []*model.Dept
	if err = s.db.WithContext(ctx).
		Where("id IN ? AND status = ? AND del_flag = ?", deptIDs, true, false).
		Find(&depts).Error; err != nil {
		return nil, err
	}
	if len(depts) == 0 {
		return nil, fmt.Errorf("%w: 没有匹配的部门", ErrNotFound)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Role{}).Where("id = ?", roleID).Updates(map[string]any{
			"data_scope_type": *scopeType,
			"update_by":       p.ID,
			"update_time":     time.Now(),
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(role).Association("Permissions").Replace(perms); err != nil {
			return err
		}
		return tx.Model(role).Association("Depts").Replace(depts)
	})
	if err != nil {
		return nil, err
	}
	return &AssignmentResult{PermissionCount: len(perms), DeptCount: len(depts)}, nil
}

// AssignUsers 整体替换角色的用户集合，目标用户必须在数据范围内
func (s *RoleService) AssignUsers(ctx context.Context, p *Principal, roleID uint, userIDs []uint) (err error) {
	done := logger.Op("role", ActionUpdate)
	defer func() { done(err) }()

	if err = s.authz.Require(p, "role", ActionUpdate); err != nil {
		return err
	}
	role, err := s.entities.Get(ctx, p, roleID)
	if err != nil {
		return err
	}

	var users []*model.User
	if len(userIDs) > 0 {
		if err = s.db.WithContext(ctx).
			Where("id IN ? AND status = ? AND del_flag = ?", userIDs, true, false).
			Find(&users).Error; err != nil {
			return err
		}
		if len(users) != len(userIDs) {
			return fmt.Errorf("%w: 存在无效的用户", ErrNotFound)
		}
		deptIDs := make([]uint, 0, len(users))
		for _, u := range users {
			deptIDs = append(deptIDs, u.DeptID)
		}
		in, err := s.scope.InScope(ctx, p, deptIDs)
		if err != nil {
			return err
		}
		if !in {
			return ErrOutOfScope
		}
	}
	return s.db.WithContext(ctx).Model(role).Association("Users").Replace(users)
}
