package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
	"github.com/pu-ac-cn/sysadmin-backend/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// 每个测试独立的共享缓存内存库，连接池多连接也落在同一实例上
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Dept{}, &model.User{}, &model.Role{}, &model.Post{},
		&model.Permission{}, &model.OperationLog{},
		&model.RoleDept{}, &model.RolePermission{}, &model.UserRole{},
	))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

// mustDept 直接建一棵部门并写好路径
func mustDept(t *testing.T, db *gorm.DB, name string, parent *model.Dept) *model.Dept {
	t.Helper()
	dept := &model.Dept{
		BaseModel: model.BaseModel{Status: true, CreateBy: 1},
		Name:      name,
	}
	if parent != nil {
		dept.ParentID = &parent.ID
	}
	require.NoError(t, db.Create(dept).Error)
	parentPath := model.RootDeptPath
	if parent != nil {
		parentPath = parent.DeptPath
	}
	dept.DeptPath = model.ChildDeptPath(parentPath, dept.ID)
	require.NoError(t, db.Model(dept).Update("dept_path", dept.DeptPath).Error)
	return dept
}

// adminPrincipal 管理员上下文
func adminPrincipal() *Principal {
	return &Principal{
		ID:      1,
		DeptID:  1,
		IsAdmin: true,
		Roles: []*model.Role{{
			BaseModel:     model.BaseModel{ID: 1, Status: true},
			Name:          "超级管理员",
			RoleKey:       "admin",
			IsAdmin:       true,
			DataScopeType: model.ScopeAll,
		}},
	}
}

// scopedPrincipal 普通用户上下文
// 单角色：指定数据范围类型、角色部门与权限标识集合
func scopedPrincipal(userID, deptID uint, scope model.DataScopeType, depts []*model.Dept, keys ...string) *Principal {
	perms := make([]*model.Permission, len(keys))
	for i, key := range keys {
		perms[i] = &model.Permission{
			BaseModel: model.BaseModel{ID: uint(i + 1), Status: true},
			Key:       key,
			Name:      key,
		}
	}
	return &Principal{
		ID:     userID,
		DeptID: deptID,
		Roles: []*model.Role{{
			BaseModel:     model.BaseModel{ID: 10, Status: true},
			Name:          "普通角色",
			RoleKey:       "member",
			DataScopeType: scope,
			Depts:         depts,
			Permissions:   perms,
		}},
	}
}

// newTestScopeResolver 基于真实部门仓储的范围解析器
func newTestScopeResolver(db *gorm.DB) (*ScopeResolver, repository.DeptRepository) {
	repo := repository.NewDeptRepository(db)
	return NewScopeResolver(repo), repo
}
