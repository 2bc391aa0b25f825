package service

// ScopeStrategy 数据范围过滤策略
// 普通业务表按 dept_id 列过滤；部门、角色两张表没有部门归属列，
// 分别按自身 ID 与角色-部门关联表过滤；无部门归属的表不过滤
type ScopeStrategy int8

const (
	ScopeByDeptColumn ScopeStrategy = iota // dept_id IN 范围
	ScopeByDeptSelf                        // 部门表自身：id IN 范围
	ScopeByRoleDepts                       // 角色表：经 sys_role_to_dept 过滤
	ScopeNone                              // 不做范围过滤
)

// FieldMeta 字段元数据
type FieldMeta struct {
	Column   string // 数据库列名
	Required bool   // 创建时必填（非空且无默认值的列）
}

// RelationRef 反向引用注册项，删除前按此统计存量关联数据
type RelationRef struct {
	Table   string // 引用方表名或多对多关联表名
	Column  string // 指向本实体 ID 的列
	Name    string // 展示名称
	SoftDel bool   // 引用表带软删除标志时只统计未删除行
}

// Meta 实体元数据
// 泛型服务的每实体配置：资源名（权限标识前缀）、范围策略、
// 字段表（动态条件与写入校验的依据）与反向引用注册表
type Meta struct {
	Resource  string
	Table     string
	Scope     ScopeStrategy
	Fields    map[string]FieldMeta
	Relations []RelationRef
}

// 各实体共有的基础列
func baseFields() map[string]FieldMeta {
	return map[string]FieldMeta{
		"id":          {Column: "id"},
		"status":      {Column: "status"},
		"create_by":   {Column: "create_by"},
		"create_time": {Column: "create_time"},
		"update_by":   {Column: "update_by"},
		"update_time": {Column: "update_time"},
		"remark":      {Column: "remark"},
	}
}

func withBase(fields map[string]FieldMeta) map[string]FieldMeta {
	merged := baseFields()
	for name, fm := range fields {
		merged[name] = fm
	}
	return merged
}

// DeptMeta 部门元数据
func DeptMeta() *Meta {
	return &Meta{
		Resource: "dept",
		Table:    "sys_dept",
		Scope:    ScopeByDeptSelf,
		Fields: withBase(map[string]FieldMeta{
			"name":           {Column: "name", Required: true},
			"parent_id":      {Column: "parent_id"},
			"leader_user_id": {Column: "leader_user_id"},
			"order_num":      {Column: "order_num"},
		}),
		Relations: []RelationRef{
			{Table: "sys_user", Column: "dept_id", Name: "部门关联用户", SoftDel: true},
			{Table: "sys_role_to_dept", Column: "dept_id", Name: "部门关联角色"},
			{Table: "sys_post", Column: "dept_id", Name: "部门关联岗位", SoftDel: true},
			{Table: "sys_dept", Column: "parent_id", Name: "部门子部门", SoftDel: true},
		},
	}
}

// UserMeta 用户元数据
func UserMeta() *Meta {
	return &Meta{
		Resource: "user",
		Table:    "sys_user",
		Scope:    ScopeByDeptColumn,
		Fields: withBase(map[string]FieldMeta{
			"dept_id":       {Column: "dept_id", Required: true},
			"post_id":       {Column: "post_id"},
			"user_name":     {Column: "user_name", Required: true},
			"name":          {Column: "name", Required: true},
			"email":         {Column: "email"},
			"phone":         {Column: "phone"},
			"password_hash": {Column: "password_hash", Required: true},
		}),
		Relations: []RelationRef{
			{Table: "sys_dept", Column: "leader_user_id", Name: "管理的部门", SoftDel: true},
			{Table: "sys_role_to_user", Column: "user_id", Name: "用户关联角色"},
		},
	}
}

// RoleMeta 角色元数据
func RoleMeta() *Meta {
	return &Meta{
		Resource: "role",
		Table:    "sys_role",
		Scope:    ScopeByRoleDepts,
		Fields: withBase(map[string]FieldMeta{
			"name":            {Column: "name", Required: true},
			"role_key":        {Column: "role_key", Required: true},
			"is_admin":        {Column: "is_admin"},
			"data_scope_type": {Column: "data_scope_type"},
		}),
		Relations: []RelationRef{
			{Table: "sys_role_to_user", Column: "role_id", Name: "角色关联用户"},
			{Table: "sys_role_to_dept", Column: "role_id", Name: "角色关联部门"},
			{Table: "sys_role_to_permission", Column: "role_id", Name: "角色关联权限"},
		},
	}
}

// PostMeta 岗位元数据
func PostMeta() *Meta {
	return &Meta{
		Resource: "post",
		Table:    "sys_post",
		Scope:    ScopeByDeptColumn,
		Fields: withBase(map[string]FieldMeta{
			"dept_id":   {Column: "dept_id", Required: true},
			"name":      {Column: "name", Required: true},
			"post_key":  {Column: "post_key", Required: true},
			"order_num": {Column: "order_num"},
		}),
		Relations: []RelationRef{
			{Table: "sys_user", Column: "post_id", Name: "岗位关联用户", SoftDel: true},
		},
	}
}

// PermissionMeta 权限元数据
func PermissionMeta() *Meta {
	return &Meta{
		Resource: "permission",
		Table:    "sys_permission",
		Scope:    ScopeNone,
		Fields: withBase(map[string]FieldMeta{
			"page_key": {Column: "page_key"},
			"key":      {Column: "key", Required: true},
			"name":     {Column: "name", Required: true},
		}),
		Relations: []RelationRef{
			{Table: "sys_role_to_permission", Column: "permission_id", Name: "权限关联角色"},
		},
	}
}

// OperationLogMeta 操作日志元数据
func OperationLogMeta() *Meta {
	return &Meta{
		Resource: "operationlog",
		Table:    "sys_operation_log",
		Scope:    ScopeNone,
		Fields: withBase(map[string]FieldMeta{
			"module":      {Column: "module"},
			"action":      {Column: "action"},
			"target_type": {Column: "target_type"},
			"target_id":   {Column: "target_id"},
			"outcome":     {Column: "outcome"},
			"message":     {Column: "message"},
			"duration_ms": {Column: "duration_ms"},
			"ip":          {Column: "ip"},
		}),
	}
}
