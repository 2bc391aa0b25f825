package model

import (
	"sort"
	"strconv"
	"strings"
)

// Dept 部门模型
// 部门树通过 dept_path 物化路径维护：路径为点分隔的祖先 ID 串，
// 如 .1.3.5. 表示 5 的祖先链为 1 -> 3。根部门路径为 .id.
// 子孙查询、环检测都退化为路径前缀匹配，不需要递归遍历
type Dept struct {
	BaseModel
	Name         string `gorm:"type:varchar(30);not null" json:"name"`                    // 部门名称
	DeptPath     string `gorm:"type:varchar(500);index;not null;default:." json:"dept_path"` // 部门路径
	ParentID     *uint  `gorm:"index" json:"parent_id"`                                   // 直属上级部门 ID，空表示根部门
	LeaderUserID *uint  `gorm:"index" json:"leader_user_id,omitempty"`                    // 负责人用户 ID
	OrderNum     int    `gorm:"default:0" json:"order_num"`                               // 显示顺序
}

// TableName 指定表名
func (Dept) TableName() string {
	return "sys_dept"
}

// RootDeptPath 根部门的路径前缀
const RootDeptPath = "."

// ChildDeptPath 由父路径和节点 ID 计算节点路径
// 父路径缺失时按根路径处理
func ChildDeptPath(parentPath string, id uint) string {
	if parentPath == "" {
		parentPath = RootDeptPath
	}
	return parentPath + strconv.FormatUint(uint64(id), 10) + "."
}

// IsDescendantPath 判断 path 是否位于 ancestorPath 所指子树内（含自身）
func IsDescendantPath(path, ancestorPath string) bool {
	return strings.HasPrefix(path, ancestorPath)
}

// DeptTreeNode 部门树节点，用于前端展示
type DeptTreeNode struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	ParentID *uint           `json:"parent_id"`
	OrderNum int             `json:"order_num"`
	Status   bool            `json:"status"`
	Children []*DeptTreeNode `json:"children"`
}

// BuildDeptTree 将部门平铺列表转换为按 order_num 排序的树形结构
// 纯内存变换，不访问数据库；父节点不在列表中的节点视为根
func BuildDeptTree(depts []*Dept) []*DeptTreeNode {
	nodeMap := make(map[uint]*DeptTreeNode, len(depts))
	for _, d := range depts {
		nodeMap[d.ID] = &DeptTreeNode{
			ID:       d.ID,
			Name:     d.Name,
			ParentID: d.ParentID,
			OrderNum: d.OrderNum,
			Status:   d.Status,
			Children: []*DeptTreeNode{},
		}
	}

	var roots []*DeptTreeNode
	for _, d := range depts {
		node := nodeMap[d.ID]
		if d.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodeMap[*d.ParentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	var sortChildren func(nodes []*DeptTreeNode)
	sortChildren = func(nodes []*DeptTreeNode) {
		sort.SliceStable(nodes, func(i, j int) bool {
			return nodes[i].OrderNum < nodes[j].OrderNum
		})
		for _, n := range nodes {
			sortChildren(n.Children)
		}
	}
	sortChildren(roots)

	return roots
}
