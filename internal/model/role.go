package model

// DataScopeType 角色数据范围类型
// 数值越小权限越大，多角色取最小值即最宽松的范围
type DataScopeType int8

const (
	ScopeAll           DataScopeType = 1 // 全部数据
	ScopeDeptWithChild DataScopeType = 2 // 本部门及以下
	ScopeDept          DataScopeType = 3 // 本部门
	ScopeCustom        DataScopeType = 4 // 自定义（角色上预先配置的部门列表）
)

// Valid 检查数据范围类型取值是否合法
func (t DataScopeType) Valid() bool {
	return t >= ScopeAll && t <= ScopeCustom
}

// String 数据范围类型的展示名称
func (t DataScopeType) String() string {
	switch t {
	case ScopeAll:
		return "全部"
	case ScopeDeptWithChild:
		return "本部门及以下"
	case ScopeDept:
		return "本部门"
	case ScopeCustom:
		return "自定义"
	default:
		return "未知"
	}
}

// Role 角色模型
type Role struct {
	BaseModel
	Name          string        `gorm:"type:varchar(30);uniqueIndex;not null" json:"name"`     // 角色名称
	RoleKey       string        `gorm:"type:varchar(100);uniqueIndex;not null" json:"role_key"` // 角色标识符
	IsAdmin       bool          `gorm:"default:false;not null" json:"is_admin"`                // 超级管理员，绕过全部权限与范围检查
	DataScopeType DataScopeType `gorm:"not null;default:3" json:"data_scope_type"`             // 数据范围类型

	// 关联
	Depts       []*Dept       `gorm:"many2many:sys_role_to_dept;" json:"depts,omitempty"`             // 角色归属部门（OWN / OWN_AND_DESCENDANTS / CUSTOM 的作用域来源）
	Permissions []*Permission `gorm:"many2many:sys_role_to_permission;" json:"permissions,omitempty"` // 角色权限
	Users       []*User       `gorm:"many2many:sys_role_to_user;" json:"-"`                           // 角色用户
}

// TableName 指定表名
func (Role) TableName() string {
	return "sys_role"
}

// RoleDept 角色-部门关联（GORM 自动维护，显式定义以便关联计数查询）
type RoleDept struct {
	RoleID uint `gorm:"primaryKey" json:"role_id"`
	DeptID uint `gorm:"primaryKey" json:"dept_id"`
}

// TableName 指定表名
func (RoleDept) TableName() string {
	return "sys_role_to_dept"
}

// RolePermission 角色-权限关联
type RolePermission struct {
	RoleID       uint `gorm:"primaryKey" json:"role_id"`
	PermissionID uint `gorm:"primaryKey" json:"permission_id"`
}

// TableName 指定表名
func (RolePermission) TableName() string {
	return "sys_role_to_permission"
}

// UserRole 用户-角色关联
type UserRole struct {
	RoleID uint `gorm:"primaryKey" json:"role_id"`
	UserID uint `gorm:"primaryKey" json:"user_id"`
}

// TableName 指定表名
func (UserRole) TableName() string {
	return "sys_role_to_user"
}
