package model

// OperationLog 操作日志模型
// 结构化审计事件：谁在哪个模块对什么目标执行了什么操作、结果与耗时
// create_by 即操作者，由审计落库路径统一填写
type OperationLog struct {
	BaseModel
	Module     string `gorm:"type:varchar(50);index" json:"module"`       // 业务模块
	Action     string `gorm:"type:varchar(20);index" json:"action"`       // 操作类型
	TargetType string `gorm:"type:varchar(50)" json:"target_type"`        // 目标实体类型
	TargetID   uint   `gorm:"index" json:"target_id"`                     // 目标实体 ID
	Outcome    string `gorm:"type:varchar(20)" json:"outcome"`            // success / failure
	Message    string `gorm:"type:varchar(500)" json:"message,omitempty"` // 附加信息
	DurationMs int64  `json:"duration_ms"`                                // 耗时（毫秒）
	IP         string `gorm:"type:varchar(128)" json:"ip,omitempty"`      // 来源 IP
}

// TableName 指定表名
func (OperationLog) TableName() string {
	return "sys_operation_log"
}

// 操作结果
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
