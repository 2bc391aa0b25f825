package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
	"github.com/pu-ac-cn/sysadmin-backend/internal/repository"
)

func setupDeptService(t *testing.T) (*DeptService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	scope, repo := newTestScopeResolver(db)
	return NewDeptService(db, repo, NewAuthorizer(), scope), db
}

func TestDeptService_Create(t *testing.T) {
	svc, _ := setupDeptService(t)
	ctx := context.Background()

	root, err := svc.Create(ctx, adminPrincipal(), &CreateDeptRequest{Name: "集团总公司"})
	require.NoError(t, err)
	assert.Equal(t, model.ChildDeptPath(model.RootDeptPath, root.ID), root.DeptPath)

	child, err := svc.Create(ctx, adminPrincipal(), &CreateDeptRequest{
		Name: "研发部", ParentID: &root.ID,
	})
	require.NoError(t, err)
	assert.True(t, model.IsDescendantPath(child.DeptPath, root.DeptPath))
}

func TestDeptService_Create_ParentOutOfScope(t *testing.T) {
	svc, db := setupDeptService(t)
	ctx := context.Background()

	root := mustDept(t, db, "集团总公司", nil)
	a := mustDept(t, db, "A 事业部", root)

	operator := scopedPrincipal(2, a.ID, model.ScopeDept, []*model.Dept{a},
		"dept:query", "dept:create")

	// 范围内的上级可以
	_, err := svc.Create(ctx, operator, &CreateDeptRequest{Name: "A 子部门", ParentID: &a.ID})
	require.NoError(t, err)

	// 范围外的上级拒绝
	_, err = svc.Create(ctx, operator, &CreateDeptRequest{Name: "越权部门", ParentID: &root.ID})
	assert.ErrorIs(t, err, ErrOutOfScope)
}

func TestDeptService_Create_ParentNotFound(t *testing.T) {
	svc, _ := setupDeptService(t)

	missing := uint(999)
	_, err := svc.Create(context.Background(), adminPrincipal(), &CreateDeptRequest{
		Name: "无主部门", ParentID: &missing,
	})
	assert.ErrorIs(t, err, repository.ErrParentNotFound)
}

func TestDeptService_Update_Reparent(t *testing.T) {
	svc, db := setupDeptService(t)
	ctx := context.Background()

	root := mustDept(t, db, "集团总公司", nil)
	a := mustDept(t, db, "A 事业部", root)
	b := mustDept(t, db, "B 事业部", root)
	x := mustDept(t, db, "X 部门", a)

	// parent_id 变更连同普通字段一起提交
	updated, err := svc.Update(ctx, adminPrincipal(), x.ID, map[string]any{
		"parent_id": b.ID,
		"name":      "X 部门（已迁移）",
	})
	require.NoError(t, err)

	assert.Equal(t, b.ID, *updated.ParentID)
	assert.Equal(t, "X 部门（已迁移）", updated.Name)
	assert.Equal(t, model.ChildDeptPath(b.DeptPath, x.ID), updated.DeptPath)
}

func TestDeptService_Update_ReparentCycle(t *testing.T) {
	svc, db := setupDeptService(t)
	ctx := context.Background()

	root := mustDept(t, db, "集团总公司", nil)
	a := mustDept(t, db, "A 事业部", root)
	x := mustDept(t, db, "X 部门", a)

	_, err := svc.Update(ctx, adminPrincipal(), a.ID, map[string]any{"parent_id": x.ID})
	assert.ErrorIs(t, err, repository.ErrCycleDetected)

	_, err = svc.Update(ctx, adminPrincipal(), a.ID, map[string]any{"parent_id": a.ID})
	assert.ErrorIs(t, err, repository.ErrInvalidParent)
}

func TestDeptService_Tree_Scoped(t *testing.T) {
	svc, db := setupDeptService(t)
	ctx := context.Background()

	root := mustDept(t, db, "集团总公司", nil)
	a := mustDept(t, db, "A 事业部", root)
	x := mustDept(t, db, "X 部门", a)
	mustDept(t, db, "B 事业部", root)

	// 管理员看到完整树
	tree, err := svc.Tree(ctx, adminPrincipal())
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Len(t, tree[0].Children, 2)

	// A 子树范围的用户只看到自己的子树，A 提升为根
	operator := scopedPrincipal(2, a.ID, model.ScopeDeptWithChild, []*model.Dept{a}, "dept:query")
	tree, err = svc.Tree(ctx, operator)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, a.ID, tree[0].ID)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, x.ID, tree[0].Children[0].ID)
}

func TestDeptService_Delete_BlockedByChildren(t *testing.T) {
	svc, db := setupDeptService(t)
	ctx := context.Background()

	root := mustDept(t, db, "集团总公司", nil)
	mustDept(t, db, "A 事业部", root)

	err := svc.Delete(ctx, adminPrincipal(), root.ID)
	var blocked *HasDependentsError
	require.ErrorAs(t, err, &blocked)
}
