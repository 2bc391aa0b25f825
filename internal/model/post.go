package model

// Post 岗位模型
type Post struct {
	BaseModel
	DeptID   uint   `gorm:"not null;index" json:"dept_id"`                  // 归属部门 ID
	Name     string `gorm:"type:varchar(30);not null" json:"name"`          // 岗位名称
	PostKey  string `gorm:"type:varchar(50);uniqueIndex" json:"post_key"`   // 岗位标识
	OrderNum int    `gorm:"default:0" json:"order_num"`                     // 显示顺序
}

// TableName 指定表名
func (Post) TableName() string {
	return "sys_post"
}
