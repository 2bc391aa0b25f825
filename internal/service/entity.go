package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pu-ac-cn/sysadmin-backend/internal/logger"
)

// Page 分页参数，页码从 1 开始；传 nil 表示不分页返回全量
type Page struct {
	Num  int `json:"page_num" form:"page_num"`
	Size int `json:"page_size" form:"page_size"`
}

func (p *Page) normalize() (offset, limit int) {
	num, size := p.Num, p.Size
	if num < 1 {
		num = 1
	}
	if size < 1 {
		size = 10
	}
	return (num - 1) * size, size
}

// Option 下拉选项
type Option struct {
	Label string `json:"label"`
	Value uint   `json:"value"`
}

// EntityService 受数据范围约束的通用实体服务
// 所有读写先做权限校验，再按实体的范围策略把查询收敛到
// 当前用户可见的部门范围内；写操作补齐审计字段并做软删除
type EntityService[T any] struct {
	db    *gorm.DB
	meta  *Meta
	authz *Authorizer
	scope *ScopeResolver
}

// NewEntityService 创建通用实体服务
func NewEntityService[T any](db *gorm.DB, meta *Meta, authz *Authorizer, scope *ScopeResolver) *EntityService[T] {
	return &EntityService[T]{db: db, meta: meta, authz: authz, scope: scope}
}

// Meta 返回实体元数据
func (s *EntityService[T]) Meta() *Meta { return s.meta }

// DB 返回底层数据库句柄，供定制服务复用事务
func (s *EntityService[T]) DB() *gorm.DB { return s.db }

func (s *EntityService[T]) baseQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(new(T)).Where("del_flag = ?", false)
}

// applyScope 按实体的范围策略收敛查询
func (s *EntityService[T]) applyScope(ctx context.Context, q *gorm.DB, p *Principal) (*gorm.DB, error) {
	if s.meta.Scope == ScopeNone {
		return q, nil
	}
	set, err := s.scope.Resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	if set.Unrestricted {
		return q, nil
	}
	ids := set.IDs()
	switch s.meta.Scope {
	case ScopeByDeptSelf:
		return q.Where("id IN ?", ids), nil
	case ScopeByRoleDepts:
		sub := s.db.WithContext(ctx).Table("sys_role_to_dept").
			Select("role_id").Where("dept_id IN ?", ids)
		return q.Where("id IN (?)", sub), nil
	default:
		return q.Where("dept_id IN ?", ids), nil
	}
}

// Get 按 ID 获取实体，范围外与已删除等同不存在
func (s *EntityService[T]) Get(ctx context.Context, p *Principal, id uint) (*T, error) {
	if err := s.authz.Require(p, s.meta.Resource, ActionQuery); err != nil {
		return nil, err
	}
	q, err := s.applyScope(ctx, s.baseQuery(ctx).Where("id = ?", id), p)
	if err != nil {
		return nil, err
	}
	var obj T
	if err := q.First(&obj).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &obj, nil
}

// Create 创建实体
// 字段名必须在元数据中声明，必填字段缺失报错；带 dept_id 的
// 实体要求目标部门落在当前用户的数据范围内
func (s *EntityService[T]) Create(ctx context.Context, p *Principal, fields map[string]any) (obj *T, err error) {
	done := logger.Op(s.meta.Resource, ActionCreate)
	defer func() { done(err) }()

	if err = s.authz.Require(p, s.meta.Resource, ActionCreate); err != nil {
		return nil, err
	}
	if err = s.validateFieldNames(fields); err != nil {
		return nil, err
	}
	if err = s.validateRequired(fields); err != nil {
		return nil, err
	}
	if err = s.checkDeptInScope(ctx, p, fields); err != nil {
		return nil, err
	}

	// 打戳在副本上进行，不回写调用方的字段表
	stamped := make(map[string]any, len(fields)+2)
	for name, value := range fields {
		stamped[name] = value
	}
	stamped["create_by"] = p.ID
	if _, ok := stamped["status"]; !ok {
		stamped["status"] = true
	}
	obj = new(T)
	if err = decodeFields(stamped, obj); err != nil {
		return nil, err
	}
	if err = s.db.WithContext(ctx).Create(obj).Error; err != nil {
		return nil, err
	}
	return obj, nil
}

// Update 按 ID 部分更新
// 先经 Get 做范围校验，未声明的字段丢弃并告警
func (s *EntityService[T]) Update(ctx context.Context, p *Principal, id uint, fields map[string]any) (obj *T, err error) {
	done := logger.Op(s.meta.Resource, ActionUpdate)
	defer func() { done(err) }()

	if err = s.authz.Require(p, s.meta.Resource, ActionUpdate); err != nil {
		return nil, err
	}
	if _, err = s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	if err = s.checkDeptInScope(ctx, p, fields); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	for name, value := range fields {
		fm, ok := s.meta.Fields[name]
		if !ok {
			logger.L().Warn("忽略未声明的更新字段",
				zap.String("resource", s.meta.Resource), zap.String("field", name))
			continue
		}
		updates[fm.Column] = value
	}
	updates["update_by"] = p.ID
	updates["update_time"] = time.Now()
	if err = s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, p, id)
}

// Delete 按 ID 软删除
// 存在未删除的反向引用时拒绝删除，并报告各引用的数量
func (s *EntityService[T]) Delete(ctx context.Context, p *Principal, id uint) (err error) {
	done := logger.Op(s.meta.Resource, ActionDelete)
	defer func() { done(err) }()

	if err = s.authz.Require(p, s.meta.Resource, ActionDelete); err != nil {
		return err
	}
	if _, err = s.Get(ctx, p, id); err != nil {
		return err
	}

	var blocked []RelationCount
	for _, rel := range s.meta.Relations {
		q := s.db.WithContext(ctx).Table(rel.Table).Where(rel.Column+" = ?", id)
		if rel.SoftDel {
			q = q.Where("del_flag = ?", false)
		}
		var count int64
		if err = q.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			blocked = append(blocked, RelationCount{Name: rel.Name, Count: count})
		}
	}
	if len(blocked) > 0 {
		return &HasDependentsError{Relations: blocked}
	}

	return s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(map[string]any{
		"del_flag":    true,
		"update_by":   p.ID,
		"update_time": time.Now(),
	}).Error
}

// List 列出范围内的实体，总数不受分页影响
func (s *EntityService[T]) List(ctx context.Context, p *Principal, page *Page) ([]T, int64, error) {
	return s.Search(ctx, p, nil, page)
}

// Search 按字段条件检索范围内的实体
// 条件按约定展开：*_start/*_end 为闭区间、切片为 IN、
// name 为模糊匹配、其余为等值；未声明的字段忽略并告警
func (s *EntityService[T]) Search(ctx context.Context, p *Principal, fields map[string]any, page *Page) ([]T, int64, error) {
	if err := s.authz.Require(p, s.meta.Resource, ActionQuery); err != nil {
		return nil, 0, err
	}
	q := s.baseQuery(ctx)
	for _, name := range sortedKeys(fields) {
		q = s.buildCondition(q, name, fields[name])
	}
	q, err := s.applyScope(ctx, q, p)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page != nil {
		offset, limit := page.normalize()
		q = q.Offset(offset).Limit(limit)
	}
	var items []T
	if err := q.Order("id").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Options 返回范围内实体的下拉选项
func (s *EntityService[T]) Options(ctx context.Context, p *Principal) ([]Option, error) {
	items, _, err := s.Search(ctx, p, nil, nil)
	if err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(items))
	for i := range items {
		options = append(options, entityOption(&items[i]))
	}
	return options, nil
}

func (s *EntityService[T]) buildCondition(q *gorm.DB, name string, value any) *gorm.DB {
	if base, ok := strings.CutSuffix(name, "_start"); ok {
		if fm, ok := s.meta.Fields[base]; ok {
			return q.Where(fm.Column+" >= ?", value)
		}
	} else if base, ok := strings.CutSuffix(name, "_end"); ok {
		if fm, ok := s.meta.Fields[base]; ok {
			return q.Where(fm.Column+" <= ?", value)
		}
	} else if fm, ok := s.meta.Fields[name]; ok {
		rv := reflect.ValueOf(value)
		switch {
		case rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array:
			return q.Where(fm.Column+" IN ?", value)
		case name == "name":
			return q.Where(fm.Column+" LIKE ?", fmt.Sprintf("%%%v%%", value))
		default:
			return q.Where(fm.Column+" = ?", value)
		}
	}
	logger.L().Warn("忽略未声明的查询字段",
		zap.String("resource", s.meta.Resource), zap.String("field", name))
	return q
}

func (s *EntityService[T]) validateFieldNames(fields map[string]any) error {
	var unknown []string
	for name := range fields {
		if _, ok := s.meta.Fields[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &UnknownFieldError{Fields: unknown}
	}
	return nil
}

func (s *EntityService[T]) validateRequired(fields map[string]any) error {
	var missing []string
	for name, fm := range s.meta.Fields {
		if !fm.Required {
			continue
		}
		if v, ok := fields[name]; !ok || v == nil || v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingFieldError{Fields: missing}
	}
	return nil
}

// checkDeptInScope 校验写入的 dept_id 落在当前用户的数据范围内
func (s *EntityService[T]) checkDeptInScope(ctx context.Context, p *Principal, fields map[string]any) error {
	v, ok := fields["dept_id"]
	if !ok || v == nil {
		return nil
	}
	deptID, ok := toUint(v)
	if !ok || deptID == 0 {
		return ErrInvalidArguments
	}
	in, err := s.scope.InScope(ctx, p, []uint{deptID})
	if err != nil {
		return err
	}
	if !in {
		return ErrOutOfScope
	}
	return nil
}

// decodeFields 把字段集解码进实体结构体
// 借道 JSON 往返复用模型的 json 标签做名称映射
func decodeFields(fields map[string]any, obj any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, obj); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}

func entityOption(obj any) Option {
	v := reflect.ValueOf(obj).Elem()
	opt := Option{}
	if f := v.FieldByName("Name"); f.IsValid() && f.Kind() == reflect.String {
		opt.Label = f.String()
	}
	if f := v.FieldByName("ID"); f.IsValid() && f.CanUint() {
		opt.Value = uint(f.Uint())
	}
	return opt
}

func sortedKeys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for name := range fields {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

func toUint(v any) (uint, bool) {
	switch n := v.(type) {
	case uint:
		return n, true
	case uint32:
		return uint(n), true
	case uint64:
		return uint(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint(n), true
	case float64:
		if n < 0 || n != float64(uint(n)) {
			return 0, false
		}
		return uint(n), true
	default:
		return 0, false
	}
}
