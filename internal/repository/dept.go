// Package repository 数据访问层
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 部门结构错误定义
var (
	ErrDeptNotFound   = errors.New("部门不存在")
	ErrParentNotFound = errors.New("上级部门不存在")
	ErrInvalidParent  = errors.New("不能将部门自身设置为上级部门")
	ErrCycleDetected  = errors.New("上级部门不能是本部门的子部门")
)

// DeptRepository 部门数据访问接口
// 维护部门树的物化路径：任何结构变更（新增、换父）与其引发的
// 子孙路径改写都在同一事务内完成，不会出现部分改写的中间态
type DeptRepository interface {
	Create(ctx context.Context, dept *model.Dept) error
	GetByID(ctx context.Context, id uint) (*model.Dept, error)
	Reparent(ctx context.Context, id uint, newParentID *uint, actorID uint) error
	Descendants(ctx context.Context, ids []uint) (map[uint]struct{}, error)
	ListScoped(ctx context.Context, deptIDs []uint, unrestricted bool) ([]*model.Dept, error)
	ListByIDs(ctx context.Context, ids []uint) ([]*model.Dept, error)
}

// deptRepository 部门数据访问实现
type deptRepository struct {
	db *gorm.DB
}

// NewDeptRepository 创建部门数据访问实例
func NewDeptRepository(db *gorm.DB) DeptRepository {
	return &deptRepository{db: db}
}

// Create 创建部门并在同一事务内计算物化路径
// 路径 = 父路径 + 本部门 ID + "."；父路径缺失按根路径处理
func (r *deptRepository) Create(ctx context.Context, dept *model.Dept) error {
	if dept.ParentID != nil && dept.ID != 0 && *dept.ParentID == dept.ID {
		return ErrInvalidParent
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		parentPath := model.RootDeptPath
		if dept.ParentID != nil {
			var parent model.Dept
			err := tx.Where("id = ? AND del_flag = ?", *dept.ParentID, false).First(&parent).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrParentNotFound
				}
				return err
			}
			if parent.DeptPath != "" {
				parentPath = parent.DeptPath
			}
		}

		if err := tx.Create(dept).Error; err != nil {
			return err
		}

		// 自增主键在插入后才可知，路径随后补写
		dept.DeptPath = model.ChildDeptPath(parentPath, dept.ID)
		return tx.Model(&model.Dept{}).Where("id = ?", dept.ID).
			Update("dept_path", dept.DeptPath).Error
	})
}

// GetByID 根据 ID 获取未删除的部门
func (r *deptRepository) GetByID(ctx context.Context, id uint) (*model.Dept, error) {
	var dept model.Dept
	err := r.db.WithContext(ctx).Where("id = ? AND del_flag = ?", id, false).First(&dept).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeptNotFound
		}
		return nil, err
	}
	return &dept, nil
}

// Reparent 变更部门的上级部门
// 自引用与成环（新父位于本部门子树内，按路径前缀判断）在任何写入前拒绝；
// 本部门路径与全部子孙路径的前缀替换在同一事务内完成
func (r *deptRepository) Reparent(ctx context.Context, id uint, newParentID *uint, actorID uint) error {
	if newParentID != nil && *newParentID == id {
		return ErrInvalidParent
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dept model.Dept
		if err := r.lockForUpdate(tx).Where("id = ? AND del_flag = ?", id, false).First(&dept).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDeptNotFound
			}
			return err
		}

		// 父部门未变化时不做任何写入
		if equalParent(dept.ParentID, newParentID) {
			return nil
		}

		oldPath := dept.DeptPath
		newPath := model.ChildDeptPath(model.RootDeptPath, dept.ID)
		if newParentID != nil {
			var parent model.Dept
			if err := r.lockForUpdate(tx).Where("id = ? AND del_flag = ?", *newParentID, false).First(&parent).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrParentNotFound
				}
				return err
			}
			if model.IsDescendantPath(parent.DeptPath, oldPath) {
				return ErrCycleDetected
			}
			newPath = model.ChildDeptPath(parent.DeptPath, dept.ID)
		}

		if err := tx.Model(&model.Dept{}).Where("id = ?", dept.ID).
			Updates(map[string]interface{}{
				"parent_id": newParentID,
				"dept_path": newPath,
				"update_by": actorID,
			}).Error; err != nil {
			return err
		}

		// 按旧路径前缀批量改写全部子孙
		var descendants []model.Dept
		if err := r.lockForUpdate(tx).
			Where("dept_path LIKE ? AND id <> ?", likePrefix(oldPath), dept.ID).
			Find(&descendants).Error; err != nil {
			return err
		}
		for _, d := range descendants {
			rewritten := strings.Replace(d.DeptPath, oldPath, newPath, 1)
			if err := tx.Model(&model.Dept{}).Where("id = ?", d.ID).
				Update("dept_path", rewritten).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Descendants 获取种子部门及其全部子部门的 ID 集合（含种子自身）
// 通过 dept_path 前缀扫描实现，只返回启用且未删除的部门；空入参返回空集
func (r *deptRepository) Descendants(ctx context.Context, ids []uint) (map[uint]struct{}, error) {
	result := make(map[uint]struct{})
	if len(ids) == 0 {
		return result, nil
	}

	var seeds []model.Dept
	err := r.db.WithContext(ctx).Select("id", "dept_path").
		Where("id IN ? AND del_flag = ?", ids, false).Find(&seeds).Error
	if err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		return result, nil
	}

	query := r.db.WithContext(ctx).Model(&model.Dept{}).
		Where("status = ? AND del_flag = ?", true, false)
	prefix := r.db.Session(&gorm.Session{NewDB: true})
	for _, seed := range seeds {
		prefix = prefix.Or("dept_path LIKE ?", likePrefix(seed.DeptPath))
	}
	query = query.Where(prefix)

	var descendantIDs []uint
	if err := query.Pluck("id", &descendantIDs).Error; err != nil {
		return nil, err
	}
	for _, id := range descendantIDs {
		result[id] = struct{}{}
	}
	return result, nil
}

// ListScoped 列出数据范围内启用且未删除的部门，按显示顺序排序
func (r *deptRepository) ListScoped(ctx context.Context, deptIDs []uint, unrestricted bool) ([]*model.Dept, error) {
	query := r.db.WithContext(ctx).
		Where("del_flag = ?", false).
		Order("order_num ASC")
	if !unrestricted {
		query = query.Where("id IN ?", deptIDs)
	}

	var depts []*model.Dept
	if err := query.Find(&depts).Error; err != nil {
		return nil, err
	}
	return depts, nil
}

// ListByIDs 按 ID 集合获取启用且未删除的部门
func (r *deptRepository) ListByIDs(ctx context.Context, ids []uint) ([]*model.Dept, error) {
	var depts []*model.Dept
	if len(ids) == 0 {
		return depts, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ? AND status = ? AND del_flag = ?", ids, true, false).
		Find(&depts).Error
	if err != nil {
		return nil, err
	}
	return depts, nil
}

// lockForUpdate 对受影响子树加行级写锁
// sqlite 无行锁语法，依赖其单写事务串行化
func (r *deptRepository) lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// likePrefix 转义 LIKE 前缀匹配中的通配符
func likePrefix(path string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(path) + "%"
}

// equalParent 比较两个可空父部门 ID 是否相同
func equalParent(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
