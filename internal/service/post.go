package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
)

// PostService 岗位服务，通用实体服务的直接应用
type PostService struct {
	entities *EntityService[model.Post]
}

// NewPostService 创建岗位服务
func NewPostService(db *gorm.DB, authz *Authorizer, scope *ScopeResolver) *PostService {
	return &PostService{entities: NewEntityService[model.Post](db, PostMeta(), authz, scope)}
}

// Create 创建岗位
func (s *PostService) Create(ctx context.Context, p *Principal, fields map[string]any) (*model.Post, error) {
	return s.entities.Create(ctx, p, fields)
}

// Get 按 ID 获取岗位
func (s *PostService) Get(ctx context.Context, p *Principal, id uint) (*model.Post, error) {
	return s.entities.Get(ctx, p, id)
}

// Search 按字段条件检索岗位
func (s *PostService) Search(ctx context.Context, p *Principal, fields map[string]any, page *Page) ([]model.Post, int64, error) {
	return s.entities.Search(ctx, p, fields, page)
}

// Options 岗位下拉选项
func (s *PostService) Options(ctx context.Context, p *Principal) ([]Option, error) {
	return s.entities.Options(ctx, p)
}

// Update 更新岗位
func (s *PostService) Update(ctx context.Context, p *Principal, id uint, fields map[string]any) (*model.Post, error) {
	return s.entities.Update(ctx, p, id, fields)
}

// Delete 软删除岗位，仍有用户挂靠时拒绝
func (s *PostService) Delete(ctx context.Context, p *Principal, id uint) error {
	return s.entities.Delete(ctx, p, id)
}
