package repository

import (
	"context"
	"errors"

	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
	"gorm.io/gorm"
)

// 用户上下文错误定义
var (
	ErrUserNotFound = errors.New("用户不存在或已禁用")
)

// PrincipalRepository 当前用户上下文数据访问接口
// 加载启用且未删除的用户，并预加载其有效角色（含角色部门与权限），
// 供权限校验与数据范围解析使用
type PrincipalRepository interface {
	LoadUser(ctx context.Context, userID uint) (*model.User, error)
	LoadUserByName(ctx context.Context, userName string) (*model.User, error)
}

// principalRepository 用户上下文数据访问实现
type principalRepository struct {
	db *gorm.DB
}

// NewPrincipalRepository 创建用户上下文数据访问实例
func NewPrincipalRepository(db *gorm.DB) PrincipalRepository {
	return &principalRepository{db: db}
}

func (r *principalRepository) LoadUser(ctx context.Context, userID uint) (*model.User, error) {
	return r.load(ctx, "id = ?", userID)
}

func (r *principalRepository) LoadUserByName(ctx context.Context, userName string) (*model.User, error) {
	return r.load(ctx, "user_name = ?", userName)
}

func (r *principalRepository) load(ctx context.Context, cond string, arg interface{}) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Roles", "status = ? AND del_flag = ?", true, false).
		Preload("Roles.Depts", "status = ? AND del_flag = ?", true, false).
		Preload("Roles.Permissions", "status = ? AND del_flag = ?", true, false).
		Where(cond, arg).
		Where("status = ? AND del_flag = ?", true, false).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
