package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/pu-ac-cn/sysadmin-backend/internal/logger"
	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
)

// PermissionService 权限字符服务
// 权限由模块×操作矩阵生成，同步时整体删除重建并保留角色绑定中
// 仍然有效的 key
type PermissionService struct {
	entities *EntityService[model.Permission]
	db       *gorm.DB
}

// NewPermissionService 创建权限字符服务
func NewPermissionService(db *gorm.DB, authz *Authorizer, scope *ScopeResolver) *PermissionService {
	return &PermissionService{
		entities: NewEntityService[model.Permission](db, PermissionMeta(), authz, scope),
		db:       db,
	}
}

// Get 按 ID 获取权限字符
func (s *PermissionService) Get(ctx context.Context, p *Principal, id uint) (*model.Permission, error) {
	return s.entities.Get(ctx, p, id)
}

// Search 按字段条件检索权限字符
func (s *PermissionService) Search(ctx context.Context, p *Principal, fields map[string]any, page *Page) ([]model.Permission, int64, error) {
	return s.entities.Search(ctx, p, fields, page)
}

// Sync 按默认模块×操作矩阵重建权限表
// 物理删除后整体重建；角色与权限的绑定按 key 重新挂接，
// 矩阵中已不存在的 key 的绑定被清掉
func (s *PermissionService) Sync(ctx context.Context, actorID uint) (count int, err error) {
	done := logger.Op("permission", "sync")
	defer func() { done(err) }()

	permissions := model.DefaultPermissions(actorID)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 记下旧 ID 到 key 的映射，重建后恢复角色绑定
		var olds []model.Permission
		if err := tx.Find(&olds).Error; err != nil {
			return err
		}
		oldKeyByID := make(map[uint]string, len(olds))
		for _, perm := range olds {
			oldKeyByID[perm.ID] = perm.Key
		}
		var bindings []model.RolePermission
		if err := tx.Find(&bindings).Error; err != nil {
			return err
		}

		if err := tx.Where("1 = 1").Delete(&model.Permission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.RolePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&permissions).Error; err != nil {
			return err
		}

		newIDByKey := make(map[string]uint, len(permissions))
		for _, perm := range permissions {
			newIDByKey[perm.Key] = perm.ID
		}
		var rebinds []model.RolePermission
		seen := make(map[model.RolePermission]struct{})
		for _, b := range bindings {
			key, ok := oldKeyByID[b.PermissionID]
			if !ok {
				continue
			}
			newID, ok := newIDByKey[key]
			if !ok {
				continue
			}
			rb := model.RolePermission{RoleID: b.RoleID, PermissionID: newID}
			if _, dup := seen[rb]; dup {
				continue
			}
			seen[rb] = struct{}{}
			rebinds = append(rebinds, rb)
		}
		if len(rebinds) > 0 {
			if err := tx.Create(&rebinds).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(permissions), nil
}
