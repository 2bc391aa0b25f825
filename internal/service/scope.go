package service

import (
	"context"

	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
	"github.com/pu-ac-cn/sysadmin-backend/internal/repository"
)

// ScopeSet 数据范围解析结果
// Unrestricted 为 true 表示不受限（管理员或任一角色为全部数据），
// 此时不计算具体部门集合
type ScopeSet struct {
	Unrestricted bool
	DeptIDs      map[uint]struct{}
}

// Contains 判断部门是否在范围内
func (s ScopeSet) Contains(deptID uint) bool {
	if s.Unrestricted {
		return true
	}
	_, ok := s.DeptIDs[deptID]
	return ok
}

// ContainsAll 判断部门集合是否全部在范围内，空集合视为不在范围内
func (s ScopeSet) ContainsAll(deptIDs []uint) bool {
	if s.Unrestricted {
		return true
	}
	if len(deptIDs) == 0 {
		return false
	}
	for _, id := range deptIDs {
		if _, ok := s.DeptIDs[id]; !ok {
			return false
		}
	}
	return true
}

// IDs 返回范围内的部门 ID 列表
func (s ScopeSet) IDs() []uint {
	ids := make([]uint, 0, len(s.DeptIDs))
	for id := range s.DeptIDs {
		ids = append(ids, id)
	}
	return ids
}

// ScopeResolver 数据范围解析器
// 将用户角色集合归结为可访问的部门 ID 集合：
// 多角色取并集，任一角色为管理员或全部数据时整体不受限（最宽松者生效），
// 角色只会扩大而不会收窄另一角色的授权
type ScopeResolver struct {
	depts repository.DeptRepository
}

// NewScopeResolver 创建数据范围解析器
func NewScopeResolver(depts repository.DeptRepository) *ScopeResolver {
	return &ScopeResolver{depts: depts}
}

// Resolve 解析用户的数据范围
// 逐角色分支：本部门与自定义范围直接取角色关联部门；
// 本部门及以下先收集再做一次子孙展开；全部数据短路返回不受限
func (r *ScopeResolver) Resolve(ctx context.Context, p *Principal) (ScopeSet, error) {
	if p.IsAdmin {
		return ScopeSet{Unrestricted: true}, nil
	}

	deptIDs := make(map[uint]struct{})
	var expand []uint
	for _, role := range p.Roles {
		switch role.DataScopeType {
		case model.ScopeAll:
			return ScopeSet{Unrestricted: true}, nil
		case model.ScopeDept, model.ScopeCustom:
			// 自定义范围即角色上预先配置的部门列表，解析上与本部门一致
			for _, d := range role.Depts {
				deptIDs[d.ID] = struct{}{}
			}
		case model.ScopeDeptWithChild:
			for _, d := range role.Depts {
				expand = append(expand, d.ID)
			}
		}
	}

	// 单次子孙展开覆盖所有需要递归的角色
	if len(expand) > 0 {
		descendants, err := r.depts.Descendants(ctx, expand)
		if err != nil {
			return ScopeSet{}, err
		}
		for id := range descendants {
			deptIDs[id] = struct{}{}
		}
	}

	return ScopeSet{DeptIDs: deptIDs}, nil
}

// InScope 判断部门集合是否全部在用户数据范围内
func (r *ScopeResolver) InScope(ctx context.Context, p *Principal, deptIDs []uint) (bool, error) {
	scope, err := r.Resolve(ctx, p)
	if err != nil {
		return false, err
	}
	return scope.ContainsAll(deptIDs), nil
}
