package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 用户模型
// 用户归属唯一主部门，通过角色集合获得权限与数据范围
type User struct {
	BaseModel
	DeptID       uint       `gorm:"not null;index" json:"dept_id"`                 // 主部门 ID
	PostID       *uint      `gorm:"index" json:"post_id,omitempty"`                // 岗位 ID
	UserName     string     `gorm:"type:varchar(30);uniqueIndex;not null" json:"user_name"` // 用户账号
	Name         string     `gorm:"type:varchar(30);not null" json:"name"`         // 用户昵称
	Email        string     `gorm:"type:varchar(50)" json:"email,omitempty"`       // 邮箱
	Phone        string     `gorm:"type:varchar(11)" json:"phone,omitempty"`       // 手机号
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`           // 密码哈希

	// 登录信息
	LoginIP          string     `gorm:"type:varchar(128)" json:"-"`
	LoginDate        *time.Time `json:"-"`
	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`

	// 关联
	Roles []*Role `gorm:"many2many:sys_role_to_user;" json:"roles,omitempty"`
}

// TableName 指定表名
func (User) TableName() string {
	return "sys_user"
}

// SetPassword 设置密码（哈希存储）
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// VerifyPassword 验证密码
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsLocked 检查用户是否被锁定
func (u *User) IsLocked() bool {
	if u.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*u.LockedUntil)
}

// IncrementFailedLogin 增加登录失败次数，连续失败 5 次锁定 15 分钟
func (u *User) IncrementFailedLogin() {
	u.FailedLoginCount++
	if u.FailedLoginCount >= 5 {
		lockTime := time.Now().Add(15 * time.Minute)
		u.LockedUntil = &lockTime
	}
}

// ResetFailedLogin 重置登录失败次数
func (u *User) ResetFailedLogin() {
	u.FailedLoginCount = 0
	u.LockedUntil = nil
}

// ActiveRoles 返回启用且未删除的角色
func (u *User) ActiveRoles() []*Role {
	var roles []*Role
	for _, r := range u.Roles {
		if r.IsActive() {
			roles = append(roles, r)
		}
	}
	return roles
}
