package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pu-ac-cn/sysadmin-backend/internal/logger"
	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
)

// OperationLogService 操作日志服务
// 写入不走权限校验（审计落库由系统路径触发），查询受权限约束
type OperationLogService struct {
	entities *EntityService[model.OperationLog]
	db       *gorm.DB
}

// NewOperationLogService 创建操作日志服务
func NewOperationLogService(db *gorm.DB, authz *Authorizer, scope *ScopeResolver) *OperationLogService {
	return &OperationLogService{
		entities: NewEntityService[model.OperationLog](db, OperationLogMeta(), authz, scope),
		db:       db,
	}
}

// Record 写入一条审计事件，失败只告警不阻断业务
func (s *OperationLogService) Record(ctx context.Context, entry *model.OperationLog) {
	entry.Status = true
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.L().Warn("操作日志写入失败", zap.Error(err))
	}
}

// Get 按 ID 获取操作日志
func (s *OperationLogService) Get(ctx context.Context, p *Principal, id uint) (*model.OperationLog, error) {
	return s.entities.Get(ctx, p, id)
}

// Search 按字段条件检索操作日志，支持 create_time_start/_end 时间区间
func (s *OperationLogService) Search(ctx context.Context, p *Principal, fields map[string]any, page *Page) ([]model.OperationLog, int64, error) {
	return s.entities.Search(ctx, p, fields, page)
}
