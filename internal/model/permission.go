package model

// Permission 权限模型
// 权限由模块×操作矩阵批量生成，key 格式为 resource:action（如 user:delete）
type Permission struct {
	BaseModel
	PageKey string `gorm:"type:varchar(50);index" json:"page_key"`    // 归属页面/资源标识
	Key     string `gorm:"type:varchar(150);uniqueIndex" json:"key"`  // 权限标识
	Name    string `gorm:"type:varchar(100);not null" json:"name"`    // 展示名称
}

// TableName 指定表名
func (Permission) TableName() string {
	return "sys_permission"
}

// PermissionModule 权限矩阵中的模块项
type PermissionModule struct {
	Key  string // 模块标识，与实体资源名一致（权限校验按 resource:action 匹配）
	Name string // 模块展示名称
}

// DefaultPermissionModules 系统模块列表
func DefaultPermissionModules() []PermissionModule {
	return []PermissionModule{
		{Key: "user", Name: "用户"},
		{Key: "role", Name: "角色"},
		{Key: "post", Name: "岗位"},
		{Key: "dept", Name: "部门"},
		{Key: "permission", Name: "权限字符"},
		{Key: "operationlog", Name: "操作日志"},
	}
}

// DefaultPermissions 按模块×操作矩阵生成系统权限列表
// 路由/配置重新同步时整体删除重建
func DefaultPermissions(creatorID uint) []Permission {
	actions := []struct {
		Code string
		Name string
	}{
		{ActionQuery, "查询"},
		{ActionCreate, "新增"},
		{ActionUpdate, "修改"},
		{ActionDelete, "删除"},
	}

	var permissions []Permission
	for _, m := range DefaultPermissionModules() {
		for _, a := range actions {
			permissions = append(permissions, Permission{
				BaseModel: BaseModel{Status: true, CreateBy: creatorID},
				PageKey:   m.Key,
				Key:       BuildPermissionKey(m.Key, a.Code),
				Name:      m.Name + ":" + a.Name,
			})
		}
	}
	return permissions
}
