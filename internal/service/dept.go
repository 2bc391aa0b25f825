package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pu-ac-cn/sysadmin-backend/internal/logger"
	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
	"github.com/pu-ac-cn/sysadmin-backend/internal/repository"
)

// DeptService 部门服务
// 在通用实体服务之上叠加部门树的路径维护：创建时计算物化路径，
// 变更上级时做环检测并级联改写子树路径
type DeptService struct {
	entities *EntityService[model.Dept]
	repo     repository.DeptRepository
	scope    *ScopeResolver
	authz    *Authorizer
}

// NewDeptService 创建部门服务
func NewDeptService(db *gorm.DB, repo repository.DeptRepository, authz *Authorizer, scope *ScopeResolver) *DeptService {
	return &DeptService{
		entities: NewEntityService[model.Dept](db, DeptMeta(), authz, scope),
		repo:     repo,
		scope:    scope,
		authz:    authz,
	}
}

// CreateDeptRequest 创建部门请求
type CreateDeptRequest struct {
	Name         string `json:"name" binding:"required"`
	ParentID     *uint  `json:"parent_id"`
	LeaderUserID *uint  `json:"leader_user_id"`
	OrderNum     int    `json:"order_num"`
	Remark       string `json:"remark"`
}

// Create 创建部门
// 上级部门必须存在且落在当前用户的数据范围内；
// 路径由仓储在插入事务内按上级路径计算
func (s *DeptService) Create(ctx context.Context, p *Principal, req *CreateDeptRequest) (dept *model.Dept, err error) {
	done := logger.Op("dept", ActionCreate)
	defer func() { done(err) }()

	if err = s.authz.Require(p, "dept", ActionCreate); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, &MissingFieldError{Fields: []string{"name"}}
	}
	if err = s.checkParentInScope(ctx, p, req.ParentID); err != nil {
		return nil, err
	}

	dept = &model.Dept{
		BaseModel: model.BaseModel{
			Status:   true,
			CreateBy: p.ID,
			Remark:   req.Remark,
		},
		Name:         req.Name,
		ParentID:     req.ParentID,
		LeaderUserID: req.LeaderUserID,
		OrderNum:     req.OrderNum,
	}
	if err = s.repo.Create(ctx, dept); err != nil {
		return nil, err
	}
	return dept, nil
}

// Get 按 ID 获取部门
func (s *DeptService) Get(ctx context.Context, p *Principal, id uint) (*model.Dept, error) {
	return s.entities.Get(ctx, p, id)
}

// Search 按字段条件检索部门
func (s *DeptService) Search(ctx context.Context, p *Principal, fields map[string]any, page *Page) ([]model.Dept, int64, error) {
	return s.entities.Search(ctx, p, fields, page)
}

// Options 部门下拉选项
func (s *DeptService) Options(ctx context.Context, p *Principal) ([]Option, error) {
	return s.entities.Options(ctx, p)
}

// Tree 返回数据范围内的部门树
func (s *DeptService) Tree(ctx context.Context, p *Principal) ([]*model.DeptTreeNode, error) {
	if err := s.authz.Require(p, "dept", ActionQuery); err != nil {
		return nil, err
	}
	set, err := s.scope.Resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	depts, err := s.repo.ListScoped(ctx, set.IDs(), set.Unrestricted)
	if err != nil {
		return nil, err
	}
	return model.BuildDeptTree(depts), nil
}

// Update 更新部门
// parent_id 变更走专门的迁移路径：校验新上级在范围内，
// 由仓储在单事务内完成环检测与子树路径改写
func (s *DeptService) Update(ctx context.Context, p *Principal, id uint, fields map[string]any) (dept *model.Dept, err error) {
	raw, hasParent := fields["parent_id"]
	if !hasParent {
		return s.entities.Update(ctx, p, id, fields)
	}

	done := logger.Op("dept", ActionUpdate)
	defer func() { done(err) }()

	if err = s.authz.Require(p, "dept", ActionUpdate); err != nil {
		return nil, err
	}
	if _, err = s.entities.Get(ctx, p, id); err != nil {
		return nil, err
	}

	var newParentID *uint
	if raw != nil {
		pid, ok := toUint(raw)
		if !ok || pid == 0 {
			return nil, ErrInvalidArguments
		}
		newParentID = &pid
	}
	if err = s.checkParentInScope(ctx, p, newParentID); err != nil {
		return nil, err
	}
	if err = s.repo.Reparent(ctx, id, newParentID, p.ID); err != nil {
		return nil, mapDeptError(err)
	}

	rest := make(map[string]any, len(fields))
	for name, value := range fields {
		if name != "parent_id" {
			rest[name] = value
		}
	}
	if len(rest) > 0 {
		return s.entities.Update(ctx, p, id, rest)
	}
	return s.entities.Get(ctx, p, id)
}

// Delete 软删除部门，存在子部门或关联用户、角色、岗位时拒绝
func (s *DeptService) Delete(ctx context.Context, p *Principal, id uint) error {
	return s.entities.Delete(ctx, p, id)
}

// checkParentInScope 校验上级部门存在且在当前用户数据范围内
func (s *DeptService) checkParentInScope(ctx context.Context, p *Principal, parentID *uint) error {
	if parentID == nil {
		return nil
	}
	if _, err := s.repo.GetByID(ctx, *parentID); err != nil {
		if errors.Is(err, repository.ErrDeptNotFound) {
			return repository.ErrParentNotFound
		}
		return err
	}
	in, err := s.scope.InScope(ctx, p, []uint{*parentID})
	if err != nil {
		return err
	}
	if !in {
		return ErrOutOfScope
	}
	return nil
}

func mapDeptError(err error) error {
	if errors.Is(err, repository.ErrDeptNotFound) {
		return ErrNotFound
	}
	return err
}
