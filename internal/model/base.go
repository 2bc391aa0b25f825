// Package model 定义数据模型
package model

import (
	"time"
)

// BaseModel 基础模型，包含状态、软删除与审计字段
// 所有需要数据范围控制的业务表都继承该结构
type BaseModel struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Status     bool       `gorm:"default:true" json:"status"`         // 状态（true 正常 false 停用）
	DelFlag    bool       `gorm:"default:false;index" json:"-"`       // 删除标志（true 已删除）
	CreateBy   uint       `gorm:"not null" json:"create_by"`          // 创建者用户 ID
	CreateTime time.Time  `gorm:"autoCreateTime" json:"create_time"`  // 创建时间
	UpdateBy   *uint      `json:"update_by,omitempty"`                // 更新者用户 ID
	UpdateTime *time.Time `json:"update_time,omitempty"`              // 更新时间
	Remark     string     `gorm:"type:varchar(500)" json:"remark,omitempty"` // 备注
}

// IsActive 检查记录是否启用
func (b *BaseModel) IsActive() bool {
	return b.Status && !b.DelFlag
}

// 操作类型代码，用于生成权限标识
const (
	ActionQuery  = "query"  // 查询
	ActionCreate = "create" // 新增
	ActionUpdate = "update" // 修改
	ActionDelete = "delete" // 删除
)

// BuildPermissionKey 构建权限标识，格式：resource:action（如 user:delete）
func BuildPermissionKey(resource, action string) string {
	return resource + ":" + action
}
