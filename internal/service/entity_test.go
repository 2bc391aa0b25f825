package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
)

type entityFixture struct {
	db      *gorm.DB
	posts   *EntityService[model.Post]
	root    *model.Dept
	deptA   *model.Dept
	deptB   *model.Dept
	manager *Principal // A 部门本部门范围，岗位全权限
}

func setupEntityFixture(t *testing.T) *entityFixture {
	t.Helper()
	db := setupTestDB(t)
	scope, _ := newTestScopeResolver(db)

	root := mustDept(t, db, "集团总公司", nil)
	a := mustDept(t, db, "A 事业部", root)
	b := mustDept(t, db, "B 事业部", root)

	manager := scopedPrincipal(2, a.ID, model.ScopeDept, []*model.Dept{a},
		"post:query", "post:create", "post:update", "post:delete")

	return &entityFixture{
		db:      db,
		posts:   NewEntityService[model.Post](db, PostMeta(), NewAuthorizer(), scope),
		root:    root,
		deptA:   a,
		deptB:   b,
		manager: manager,
	}
}

func TestEntityService_Create(t *testing.T) {
	f := setupEntityFixture(t)
	ctx := context.Background()

	post, err := f.posts.Create(ctx, f.manager, map[string]any{
		"dept_id":  f.deptA.ID,
		"name":     "开发工程师",
		"post_key": "dev",
	})
	require.NoError(t, err)

	assert.NotZero(t, post.ID)
	assert.Equal(t, f.manager.ID, post.CreateBy, "创建者自动落审计字段")
	assert.True(t, post.Status, "状态默认启用")
	assert.Equal(t, f.deptA.ID, post.DeptID)
}

func TestEntityService_Create_DoesNotMutateFields(t *testing.T) {
	f := setupEntityFixture(t)

	fields := map[string]any{
		"dept_id":  f.deptA.ID,
		"name":     "开发工程师",
		"post_key": "dev",
	}
	_, err := f.posts.Create(context.Background(), f.manager, fields)
	require.NoError(t, err)

	// 审计打戳落在内部副本上，调用方的字段表原样不动
	assert.Len(t, fields, 3)
	assert.NotContains(t, fields, "create_by")
	assert.NotContains(t, fields, "status")
}

func TestEntityService_Create_UnknownField(t *testing.T) {
	f := setupEntityFixture(t)

	_, err := f.posts.Create(context.Background(), f.manager, map[string]any{
		"dept_id":   f.deptA.ID,
		"name":      "开发工程师",
		"post_key":  "dev",
		"bad_field": 1,
	})

	var unknown *UnknownFieldError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"bad_field"}, unknown.Fields)
}

func TestEntityService_Create_MissingRequired(t *testing.T) {
	f := setupEntityFixture(t)

	_, err := f.posts.Create(context.Background(), f.manager, map[string]any{
		"dept_id": f.deptA.ID,
	})

	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.ElementsMatch(t, []string{"name", "post_key"}, missing.Fields)
}

func TestEntityService_Create_OutOfScope(t *testing.T) {
	f := setupEntityFixture(t)

	// B 部门不在 manager 的数据范围内
	_, err := f.posts.Create(context.Background(), f.manager, map[string]any{
		"dept_id":  f.deptB.ID,
		"name":     "越权岗位",
		"post_key": "oops",
	})
	assert.ErrorIs(t, err, ErrOutOfScope)
}

func TestEntityService_Create_NoPermission(t *testing.T) {
	f := setupEntityFixture(t)

	readonly := scopedPrincipal(3, f.deptA.ID, model.ScopeDept, []*model.Dept{f.deptA}, "post:query")
	_, err := f.posts.Create(context.Background(), readonly, map[string]any{
		"dept_id":  f.deptA.ID,
		"name":     "岗位",
		"post_key": "x",
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEntityService_Get_ScopeFiltering(t *testing.T) {
	f := setupEntityFixture(t)
	ctx := context.Background()

	// 管理员在 B 部门建一个岗位
	other, err := f.posts.Create(ctx, adminPrincipal(), map[string]any{
		"dept_id":  f.deptB.ID,
		"name":     "B 部门岗位",
		"post_key": "b-post",
	})
	require.NoError(t, err)

	// manager 看不见范围外的记录，等同不存在
	_, err = f.posts.Get(ctx, f.manager, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// 管理员不受限
	got, err := f.posts.Get(ctx, adminPrincipal(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.ID)
}

func TestEntityService_Update(t *testing.T) {
	f := setupEntityFixture(t)
	ctx := context.Background()

	post, err := f.posts.Create(ctx, f.manager, map[string]any{
		"dept_id":  f.deptA.ID,
		"name":     "开发工程师",
		"post_key": "dev",
	})
	require.NoError(t, err)

	updated, err := f.posts.Update(ctx, f.manager, post.ID, map[string]any{
		"name":      "高级开发工程师",
		"order_num": 5,
		"ignored":   "dropped", // 未声明字段丢弃
	})
	require.NoError(t, err)

	assert.Equal(t, "高级开发工程师", updated.Name)
	assert.Equal(t, 5, updated.OrderNum)
	assert.Equal(t, "dev", updated.PostKey, "未提交字段保持不变")
	require.NotNil(t, updated.UpdateBy)
	assert.Equal(t, f.manager.ID, *updated.UpdateBy)
	assert.NotNil(t, updated.UpdateTime)
}

func TestEntityService_Update_MoveOutOfScope(t *testing.T) {
	f := setupEntityFixture(t)
	ctx := context.Background()

	post, err := f.posts.Create(ctx, f.manager, map[string]any{
		"dept_id":  f.deptA.ID,
		"name":     "开发工程师",
		"post_key": "dev",
	})
	require.NoError(t, err)

	// 不能把记录迁移到范围外的部门
	_, err = f.posts.Update(ctx, f.manager, post.ID, map[string]any{
		"dept_id": f.deptB.ID,
	})
	assert.ErrorIs(t, err, ErrOutOfScope)
}

func TestEntityService_Delete_SoftDelete(t *testing.T) {
	f := setupEntityFixture(t)
	ctx := context.Background()

	post, err := f.posts.Create(ctx, f.manager, map[string]any{
		"dept_id":  f.deptA.ID,
		"name":     "开发工程师",
		"post_key": "dev",
	})
	require.NoError(t, err)

	require.NoError(t, f.posts.Delete(ctx, f.manager, post.ID))

	// 软删除后不可见
	_, err = f.posts.Get(ctx, f.manager, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// 行仍在库里，del_flag 置位
	var raw model.Post
	require.NoError(t, f.db.Unscoped().Where("id = ?", post.ID).First(&raw).Error)
	assert.True(t, raw.DelFlag)
}

func TestEntityService_Delete_BlockedByDependents(t *testing.T) {
	f := setupEntityFixture(t)
	ctx := context.Background()

	post, err := f.posts.Create(ctx, f.manager, map[string]any{
		"dept_id":  f.deptA.ID,
		"name":     "开发工程师",
		"post_key": "dev",
	})
	require.NoError(t, err)

	// 挂一个引用该岗位的用户
	user := &model.User{
		BaseModel: model.BaseModel{Status: true, CreateBy: 1},
		DeptID:    f.deptA.ID,
		PostID:    &post.ID,
		UserName:  "zhangsan",
		Name:      "张三",
	}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, f.db.Create(user).Error)

	err = f.posts.Delete(ctx, f.manager, post.ID)
	var blocked *HasDependentsError
	require.ErrorAs(t, err, &blocked)
	require.Len(t, blocked.Relations, 1)
	assert.Equal(t, int64(1), blocked.Relations[0].Count)

	// 引用方软删除后即可删除
	require.NoError(t, f.db.Model(user).Update("del_flag", true).Error)
	assert.NoError(t, f.posts.Delete(ctx, f.manager, post.ID))
}

func TestEntityService_Search_Conventions(t *testing.T) {
	f := setupEntityFixture(t)
	ctx := context.Background()
	admin := adminPrincipal()

	seed := []map[string]any{
		{"dept_id": f.deptA.ID, "name": "开发工程师", "post_key": "dev", "order_num": 1},
		{"dept_id": f.deptA.ID, "name": "测试工程师", "post_key": "qa", "order_num": 2},
		{"dept_id": f.deptB.ID, "name": "产品经理", "post_key": "pm", "order_num": 3},
	}
	for _, fields := range seed {
		_, err := f.posts.Create(ctx, admin, fields)
		require.NoError(t, err)
	}

	// name 模糊匹配
	list, total, err := f.posts.Search(ctx, admin, map[string]any{"name": "工程师"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	// 切片转 IN
	list, total, err = f.posts.Search(ctx, admin, map[string]any{"post_key": []string{"dev", "pm"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// _start/_end 闭区间
	list, total, err = f.posts.Search(ctx, admin, map[string]any{
		"order_num_start": 2,
		"order_num_end":   3,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, p := range list {
		assert.GreaterOrEqual(t, p.OrderNum, 2)
	}

	// 未声明字段忽略，不影响其余条件
	_, total, err = f.posts.Search(ctx, admin, map[string]any{
		"nonsense": "x",
		"post_key": "dev",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestEntityService_Search_ScopeAndPagination(t *testing.T) {
	f := setupEntityFixture(t)
	ctx := context.Background()
	admin := adminPrincipal()

	for i := 0; i < 5; i++ {
		_, err := f.posts.Create(ctx, admin, map[string]any{
			"dept_id":  f.deptA.ID,
			"name":     "A 岗位",
			"post_key": "a-" + string(rune('a'+i)),
		})
		require.NoError(t, err)
	}
	_, err := f.posts.Create(ctx, admin, map[string]any{
		"dept_id":  f.deptB.ID,
		"name":     "B 岗位",
		"post_key": "b-0",
	})
	require.NoError(t, err)

	// manager 只能看到 A 部门的记录
	list, total, err := f.posts.List(ctx, f.manager, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, list, 5)

	// 总数不受分页影响
	list, total, err = f.posts.List(ctx, f.manager, &Page{Num: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, list, 2)
}

func TestEntityService_Options(t *testing.T) {
	f := setupEntityFixture(t)
	ctx := context.Background()

	post, err := f.posts.Create(ctx, f.manager, map[string]any{
		"dept_id":  f.deptA.ID,
		"name":     "开发工程师",
		"post_key": "dev",
	})
	require.NoError(t, err)

	options, err := f.posts.Options(ctx, f.manager)
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "开发工程师", options[0].Label)
	assert.Equal(t, post.ID, options[0].Value)
}
