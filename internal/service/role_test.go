package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
)

func mustRole(t *testing.T, db *gorm.DB, name, key string, scope model.DataScopeType) *model.Role {
	t.Helper()
	role := &model.Role{
		BaseModel:     model.BaseModel{Status: true, CreateBy: 1},
		Name:          name,
		RoleKey:       key,
		DataScopeType: scope,
	}
	require.NoError(t, db.Create(role).Error)
	return role
}

func mustPermissions(t *testing.T, db *gorm.DB, keys ...string) {
	t.Helper()
	for _, key := range keys {
		require.NoError(t, db.Create(&model.Permission{
			BaseModel: model.BaseModel{Status: true, CreateBy: 1},
			Key:       key,
			Name:      key,
		}).Error)
	}
}

func TestRoleService_ConfigurePermissions(t *testing.T) {
	db := setupTestDB(t)
	scope, _ := newTestScopeResolver(db)
	svc := NewRoleService(db, NewAuthorizer(), scope)
	ctx := context.Background()

	root := mustDept(t, db, "集团总公司", nil)
	a := mustDept(t, db, "A 事业部", root)
	role := mustRole(t, db, "部门管理员", "dept-admin", model.ScopeDept)
	mustPermissions(t, db, "user:query", "user:update", "post:query")

	scopeType := model.ScopeCustom
	result, err := svc.ConfigurePermissions(ctx, adminPrincipal(), role.ID,
		[]string{"user:query", "user:update"}, []uint{a.ID}, &scopeType)
	require.NoError(t, err)

	assert.Equal(t, 2, result.PermissionCount)
	assert.Equal(t, 1, result.DeptCount)

	// 整体替换已生效
	var reloaded model.Role
	require.NoError(t, db.Preload("Permissions").Preload("Depts").
		First(&reloaded, role.ID).Error)
	assert.Equal(t, model.ScopeCustom, reloaded.DataScopeType)
	assert.Len(t, reloaded.Permissions, 2)
	require.Len(t, reloaded.Depts, 1)
	assert.Equal(t, a.ID, reloaded.Depts[0].ID)

	// 再次配置整体覆盖旧集合
	b := mustDept(t, db, "B 事业部", root)
	scopeType = model.ScopeDept
	result, err = svc.ConfigurePermissions(ctx, adminPrincipal(), role.ID,
		[]string{"post:query"}, []uint{b.ID}, &scopeType)
	require.NoError(t, err)
	assert.Equal(t, 1, result.PermissionCount)
	assert.Equal(t, 1, result.DeptCount)

	require.NoError(t, db.Preload("Permissions").Preload("Depts").
		First(&reloaded, role.ID).Error)
	assert.Equal(t, model.ScopeDept, reloaded.DataScopeType)
	require.Len(t, reloaded.Permissions, 1)
	assert.Equal(t, "post:query", reloaded.Permissions[0].Key)
	require.Len(t, reloaded.Depts, 1)
	assert.Equal(t, b.ID, reloaded.Depts[0].ID)
}

func TestRoleService_ConfigurePermissions_MissingArguments(t *testing.T) {
	db := setupTestDB(t)
	scope, _ := newTestScopeResolver(db)
	svc := NewRoleService(db, NewAuthorizer(), scope)
	ctx := context.Background()

	root := mustDept(t, db, "集团总公司", nil)
	a := mustDept(t, db, "A 事业部", root)
	role := mustRole(t, db, "角色", "r1", model.ScopeDept)
	mustPermissions(t, db, "user:query")
	scopeType := model.ScopeCustom

	// 三项入参缺一不可
	cases := []struct {
		name  string
		keys  []string
		depts []uint
		scope *model.DataScopeType
	}{
		{"全部为空", nil, nil, nil},
		{"缺部门与范围", []string{"user:query"}, nil, nil},
		{"缺权限", nil, []uint{a.ID}, &scopeType},
		{"缺部门", []string{"user:query"}, nil, &scopeType},
		{"缺范围", []string{"user:query"}, []uint{a.ID}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ConfigurePermissions(ctx, adminPrincipal(), role.ID,
				tc.keys, tc.depts, tc.scope)
			assert.ErrorIs(t, err, ErrInvalidArguments)
		})
	}

	// 拒绝发生在写入之前，角色配置原样未动
	var reloaded model.Role
	require.NoError(t, db.Preload("Permissions").Preload("Depts").
		First(&reloaded, role.ID).Error)
	assert.Equal(t, model.ScopeDept, reloaded.DataScopeType)
	assert.Empty(t, reloaded.Permissions)
	assert.Empty(t, reloaded.Depts)
}

func TestRoleService_ConfigurePermissions_InvalidScopeType(t *testing.T) {
	db := setupTestDB(t)
	scope, _ := newTestScopeResolver(db)
	svc := NewRoleService(db, NewAuthorizer(), scope)

	root := mustDept(t, db, "集团总公司", nil)
	a := mustDept(t, db, "A 事业部", root)
	role := mustRole(t, db, "角色", "r1", model.ScopeDept)
	mustPermissions(t, db, "user:query")

	bad := model.DataScopeType(9)
	_, err := svc.ConfigurePermissions(context.Background(), adminPrincipal(), role.ID,
		[]string{"user:query"}, []uint{a.ID}, &bad)
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestRoleService_ConfigurePermissions_NoMatchingKeys(t *testing.T) {
	db := setupTestDB(t)
	scope, _ := newTestScopeResolver(db)
	svc := NewRoleService(db, NewAuthorizer(), scope)

	root := mustDept(t, db, "集团总公司", nil)
	a := mustDept(t, db, "A 事业部", root)
	role := mustRole(t, db, "角色", "r1", model.ScopeDept)
	scopeType := model.ScopeCustom

	_, err := svc.ConfigurePermissions(context.Background(), adminPrincipal(), role.ID,
		[]string{"ghost:query"}, []uint{a.ID}, &scopeType)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoleService_ConfigurePermissions_DeptOutOfScope(t *testing.T) {
	db := setupTestDB(t)
	scope, _ := newTestScopeResolver(db)
	svc := NewRoleService(db, NewAuthorizer(), scope)
	ctx := context.Background()

	root := mustDept(t, db, "集团总公司", nil)
	a := mustDept(t, db, "A 事业部", root)
	b := mustDept(t, db, "B 事业部", root)
	role := mustRole(t, db, "部门管理员", "dept-admin", model.ScopeDept)
	mustPermissions(t, db, "user:query")
	// 把角色挂到 A 部门，使其对 A 范围的操作者可见
	require.NoError(t, db.Create(&model.RoleDept{RoleID: role.ID, DeptID: a.ID}).Error)

	operator := scopedPrincipal(2, a.ID, model.ScopeDept, []*model.Dept{a},
		"role:query", "role:update")
	scopeType := model.ScopeCustom

	// 目标部门集合包含范围外的 B：整体拒绝
	_, err := svc.ConfigurePermissions(ctx, operator, role.ID,
		[]string{"user:query"}, []uint{a.ID, b.ID}, &scopeType)
	assert.ErrorIs(t, err, ErrOutOfScope)
}

func TestRoleService_ConfigurePermissions_RoleOutOfScope(t *testing.T) {
	db := setupTestDB(t)
	scope, _ := newTestScopeResolver(db)
	svc := NewRoleService(db, NewAuthorizer(), scope)
	ctx := context.Background()

	root := mustDept(t, db, "集团总公司", nil)
	a := mustDept(t, db, "A 事业部", root)
	b := mustDept(t, db, "B 事业部", root)
	role := mustRole(t, db, "外部角色", "other", model.ScopeDept)
	mustPermissions(t, db, "user:query")
	// 角色只挂在 B 部门
	require.NoError(t, db.Create(&model.RoleDept{RoleID: role.ID, DeptID: b.ID}).Error)

	operator := scopedPrincipal(2, a.ID, model.ScopeDept, []*model.Dept{a},
		"role:query", "role:update")
	scopeType := model.ScopeCustom

	// 范围外的角色等同不存在
	_, err := svc.ConfigurePermissions(ctx, operator, role.ID,
		[]string{"user:query"}, []uint{a.ID}, &scopeType)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoleService_Get_IncludesAssociations(t *testing.T) {
	db := setupTestDB(t)
	scope, _ := newTestScopeResolver(db)
	svc := NewRoleService(db, NewAuthorizer(), scope)
	ctx := context.Background()

	root := mustDept(t, db, "集团总公司", nil)
	a := mustDept(t, db, "A 事业部", root)
	role := mustRole(t, db, "部门管理员", "dept-admin", model.ScopeDept)
	mustPermissions(t, db, "user:query", "user:update")

	scopeType := model.ScopeCustom
	_, err := svc.ConfigurePermissions(ctx, adminPrincipal(), role.ID,
		[]string{"user:query", "user:update"}, []uint{a.ID}, &scopeType)
	require.NoError(t, err)

	// 配置后的权限与部门集合可以读回
	got, err := svc.Get(ctx, adminPrincipal(), role.ID)
	require.NoError(t, err)
	require.Len(t, got.Permissions, 2)
	require.Len(t, got.Depts, 1)
	assert.Equal(t, a.ID, got.Depts[0].ID)
}

func TestRoleService_DeptTree(t *testing.T) {
	db := setupTestDB(t)
	scope, _ := newTestScopeResolver(db)
	svc := NewRoleService(db, NewAuthorizer(), scope)
	ctx := context.Background()

	root := mustDept(t, db, "集团总公司", nil)
	a := mustDept(t, db, "A 事业部", root)
	a1 := mustDept(t, db, "A1 部门", a)
	role := mustRole(t, db, "部门管理员", "dept-admin", model.ScopeCustom)
	mustPermissions(t, db, "user:query")

	scopeType := model.ScopeCustom
	_, err := svc.ConfigurePermissions(ctx, adminPrincipal(), role.ID,
		[]string{"user:query"}, []uint{a.ID, a1.ID}, &scopeType)
	require.NoError(t, err)

	tree, err := svc.DeptTree(ctx, adminPrincipal(), role.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, a.ID, tree[0].ID)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, a1.ID, tree[0].Children[0].ID)

	// 角色不存在
	_, err = svc.DeptTree(ctx, adminPrincipal(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoleService_Create_InvalidScopeType(t *testing.T) {
	db := setupTestDB(t)
	scope, _ := newTestScopeResolver(db)
	svc := NewRoleService(db, NewAuthorizer(), scope)

	_, err := svc.Create(context.Background(), adminPrincipal(), map[string]any{
		"name":            "角色",
		"role_key":        "r1",
		"data_scope_type": 99,
	})
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestRoleService_AssignUsers(t *testing.T) {
	db := setupTestDB(t)
	scope, _ := newTestScopeResolver(db)
	svc := NewRoleService(db, NewAuthorizer(), scope)
	ctx := context.Background()

	root := mustDept(t, db, "集团总公司", nil)
	a := mustDept(t, db, "A 事业部", root)
	role := mustRole(t, db, "角色", "r1", model.ScopeDept)

	user := &model.User{
		BaseModel: model.BaseModel{Status: true, CreateBy: 1},
		DeptID:    a.ID,
		UserName:  "lisi",
		Name:      "李四",
	}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, db.Create(user).Error)

	require.NoError(t, svc.AssignUsers(ctx, adminPrincipal(), role.ID, []uint{user.ID}))

	var count int64
	require.NoError(t, db.Model(&model.UserRole{}).
		Where("role_id = ? AND user_id = ?", role.ID, user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// 空集合清空绑定
	require.NoError(t, svc.AssignUsers(ctx, adminPrincipal(), role.ID, nil))
	require.NoError(t, db.Model(&model.UserRole{}).
		Where("role_id = ?", role.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
