// Package service 业务逻辑层
package service

import (
	"errors"
	"fmt"
	"strings"
)

// 错误定义
// 授权类失败统一以 ErrForbidden 对外暴露，不泄露缺失的具体权限；
// 数据库错误记录后原样上抛，由调用方的事务回滚
var (
	ErrForbidden        = errors.New("无权限执行该操作")
	ErrInvalidArguments = errors.New("参数无效")
	ErrNotFound         = errors.New("数据不存在或已被删除")
	ErrOutOfScope       = errors.New("部门不在当前用户数据权限范围内")
)

// UnknownFieldError 写入时携带了实体未声明的字段
type UnknownFieldError struct {
	Fields []string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("无效字段: %s", strings.Join(e.Fields, ", "))
}

// MissingFieldError 写入时缺失必填字段
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("缺失必填字段: %s", strings.Join(e.Fields, ", "))
}

// RelationCount 一条关联关系的名称与存量数量
type RelationCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// HasDependentsError 删除被存量关联数据阻止
// Relations 仅包含数量非零的关系
type HasDependentsError struct {
	Relations []RelationCount
}

func (e *HasDependentsError) Error() string {
	parts := make([]string, len(e.Relations))
	for i, r := range e.Relations {
		parts[i] = fmt.Sprintf("%s: %d", r.Name, r.Count)
	}
	return "存在关联数据，禁止删除: " + strings.Join(parts, ", ")
}
