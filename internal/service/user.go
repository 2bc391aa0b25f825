package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pu-ac-cn/sysadmin-backend/internal/config"
	"github.com/pu-ac-cn/sysadmin-backend/internal/logger"
	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
	"github.com/pu-ac-cn/sysadmin-backend/internal/repository"
)

// 认证错误定义
var (
	ErrBadCredentials = errors.New("用户名或密码错误")
	ErrAccountLocked  = errors.New("账号已锁定，请稍后再试")
)

// UserService 用户服务
// 通用实体服务之外承担认证：登录失败计数与锁定、单会话控制、
// 密码修改与重置
type UserService struct {
	entities   *EntityService[model.User]
	principals repository.PrincipalRepository
	tokens     *TokenService
	sessions   *SessionStore
	scope      *ScopeResolver
	authz      *Authorizer
	db         *gorm.DB
	jwtCfg     *config.JWTConfig
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB, principals repository.PrincipalRepository,
	tokens *TokenService, sessions *SessionStore,
	authz *Authorizer, scope *ScopeResolver, jwtCfg *config.JWTConfig) *UserService {
	return &UserService{
		entities:   NewEntityService[model.User](db, UserMeta(), authz, scope),
		principals: principals,
		tokens:     tokens,
		sessions:   sessions,
		scope:      scope,
		authz:      authz,
		db:         db,
		jwtCfg:     jwtCfg,
	}
}

// Create 创建用户
// 明文密码经 bcrypt 哈希后入库，归属部门必须在数据范围内
func (s *UserService) Create(ctx context.Context, p *Principal, fields map[string]any) (*model.User, error) {
	raw, ok := fields["password"]
	if !ok {
		return nil, &MissingFieldError{Fields: []string{"password"}}
	}
	password, ok := raw.(string)
	if !ok || password == "" {
		return nil, fmt.Errorf("%w: 密码不能为空", ErrInvalidArguments)
	}
	var probe model.User
	if err := probe.SetPassword(password); err != nil {
		return nil, err
	}

	prepared := make(map[string]any, len(fields))
	for name, value := range fields {
		if name != "password" {
			prepared[name] = value
		}
	}
	prepared["password_hash"] = probe.PasswordHash
	return s.entities.Create(ctx, p, prepared)
}

// Get 按 ID 获取用户
func (s *UserService) Get(ctx context.Context, p *Principal, id uint) (*model.User, error) {
	return s.entities.Get(ctx, p, id)
}

// Search 按字段条件检索用户
func (s *UserService) Search(ctx context.Context, p *Principal, fields map[string]any, page *Page) ([]model.User, int64, error) {
	return s.entities.Search(ctx, p, fields, page)
}

// Options 用户下拉选项
func (s *UserService) Options(ctx context.Context, p *Principal) ([]Option, error) {
	return s.entities.Options(ctx, p)
}

// Update 更新用户，密码走专门的重置接口
func (s *UserService) Update(ctx context.Context, p *Principal, id uint, fields map[string]any) (*model.User, error) {
	delete(fields, "password")
	delete(fields, "password_hash")
	return s.entities.Update(ctx, p, id, fields)
}

// Delete 软删除用户，管理着部门或仍有角色绑定时拒绝
func (s *UserService) Delete(ctx context.Context, p *Principal, id uint) error {
	return s.entities.Delete(ctx, p, id)
}

// AssignRoles 整体替换用户的角色集合
func (s *UserService) AssignRoles(ctx context.Context, p *Principal, userID uint, roleIDs []uint) (err error) {
	done := logger.Op("user", ActionUpdate)
	defer func() { done(err) }()

	if err = s.authz.Require(p, "user", ActionUpdate); err != nil {
		return err
	}
	user, err := s.entities.Get(ctx, p, userID)
	if err != nil {
		return err
	}

	var roles []*model.Role
	if len(roleIDs) > 0 {
		if err = s.db.WithContext(ctx).
			Where("id IN ? AND status = ? AND del_flag = ?", roleIDs, true, false).
			Find(&roles).Error; err != nil {
			return err
		}
		if len(roles) != len(roleIDs) {
			return fmt.Errorf("%w: 存在无效的角色", ErrNotFound)
		}
	}
	return s.db.WithContext(ctx).Model(user).Association("Roles").Replace(roles)
}

// Login 账号密码登录
// 连续失败触发锁定；成功后签发令牌并绑定为用户唯一会话，
// 旧会话的令牌随之失效
func (s *UserService) Login(ctx context.Context, userName, password, ip string) (pair *TokenPair, err error) {
	done := logger.Op("auth", "login")
	defer func() { done(err) }()

	user, err := s.principals.LoadUserByName(ctx, userName)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if user.IsLocked() {
		return nil, ErrAccountLocked
	}

	if !user.VerifyPassword(password) {
		user.IncrementFailedLogin()
		if err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", user.ID).Updates(map[string]any{
			"failed_login_count": user.FailedLoginCount,
			"locked_until":       user.LockedUntil,
		}).Error; err != nil {
			return nil, err
		}
		if user.IsLocked() {
			return nil, ErrAccountLocked
		}
		return nil, ErrBadCredentials
	}

	pair, err = s.tokens.Issue(user.ID, user.UserName)
	if err != nil {
		return nil, err
	}
	if err = s.sessions.Bind(ctx, user.ID, pair.SessionID, s.jwtCfg.RefreshExpiry); err != nil {
		return nil, err
	}

	now := time.Now()
	if err = s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"failed_login_count": 0,
		"locked_until":       nil,
		"login_ip":           ip,
		"login_date":         now,
	}).Error; err != nil {
		return nil, err
	}
	return pair, nil
}

// Refresh 用刷新令牌换发新令牌，旧会话随之失效
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Validate(ctx, claims.UserID, claims.ID); err != nil {
		return nil, err
	}
	user, err := s.principals.LoadUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, err
	}
	pair, err := s.tokens.Issue(user.ID, user.UserName)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Bind(ctx, user.ID, pair.SessionID, s.jwtCfg.RefreshExpiry); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout 注销当前会话
func (s *UserService) Logout(ctx context.Context, userID uint) error {
	return s.sessions.Revoke(ctx, userID)
}

// ChangePassword 用户修改本人密码，需验证旧密码，成功后强制重新登录
func (s *UserService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) (err error) {
	done := logger.Op("user", "change_password")
	defer func() { done(err) }()

	if newPassword == "" {
		return fmt.Errorf("%w: 新密码不能为空", ErrInvalidArguments)
	}
	user, err := s.principals.LoadUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.VerifyPassword(oldPassword) {
		return ErrBadCredentials
	}
	if err = user.SetPassword(newPassword); err != nil {
		return err
	}
	if err = s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Update("password_hash", user.PasswordHash).Error; err != nil {
		return err
	}
	return s.sessions.Revoke(ctx, userID)
}

// ResetPassword 管理员重置范围内用户的密码，同时解除锁定并踢下线
func (s *UserService) ResetPassword(ctx context.Context, p *Principal, userID uint, newPassword string) (err error) {
	done := logger.Op("user", "reset_password")
	defer func() { done(err) }()

	if err = s.authz.Require(p, "user", ActionUpdate); err != nil {
		return err
	}
	if newPassword == "" {
		return fmt.Errorf("%w: 新密码不能为空", ErrInvalidArguments)
	}
	user, err := s.entities.Get(ctx, p, userID)
	if err != nil {
		return err
	}
	if err = user.SetPassword(newPassword); err != nil {
		return err
	}
	if err = s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(map[string]any{
		"password_hash":      user.PasswordHash,
		"failed_login_count": 0,
		"locked_until":       nil,
		"update_by":          p.ID,
		"update_time":        time.Now(),
	}).Error; err != nil {
		return err
	}
	return s.sessions.Revoke(ctx, userID)
}
