package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind 业务错误分类，Handler 层据此映射 HTTP 状态码
type Kind int

const (
	KindValidation Kind = iota + 1 // 输入格式错误 / 取值越界
	KindPermission                 // 操作者不是资源所有者 / 组织者
	KindConflict                   // 状态机前置条件不满足
	KindNotFound                   // 引用的资源不存在
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPermission:
		return "permission"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// 各分类的哨兵错误，用于 errors.Is 判断
var (
	ErrValidation = &AppError{Kind: KindValidation, Message: "参数校验失败"}
	ErrPermission = &AppError{Kind: KindPermission, Message: "无权限操作"}
	ErrConflict   = &AppError{Kind: KindConflict, Message: "状态冲突"}
	ErrNotFound   = &AppError{Kind: KindNotFound, Message: "资源不存在"}
)

// AppError 带分类的业务错误
type AppError struct {
	Kind    Kind
	Message string
	// Fields 字段级错误（仅 Validation 使用），key 为字段名
	Fields map[string]string
}

func (e *AppError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range sortedKeys(e.Fields) {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Fields[f]))
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Is 同分类即视为匹配，使 errors.Is(err, ErrConflict) 对任意冲突错误成立
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	// 哨兵只比较分类；具体错误实例之间还需比较消息
	return isSentinel(t) || t.Message == e.Message
}

func isSentinel(e *AppError) bool {
	return e == ErrValidation || e == ErrPermission || e == ErrConflict || e == ErrNotFound
}

// ── 构造函数 ──

// Validation 创建校验错误
func Validation(msg string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg}
}

// ValidationFields 创建带字段明细的校验错误
func ValidationFields(msg string, fields map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg, Fields: fields}
}

// Permission 创建权限错误
func Permission(msg string) *AppError {
	return &AppError{Kind: KindPermission, Message: msg}
}

// Conflict 创建状态冲突错误
func Conflict(msg string) *AppError {
	return &AppError{Kind: KindConflict, Message: msg}
}

// NotFound 创建资源不存在错误
func NotFound(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Message: msg}
}

// KindOf 提取错误分类；非业务错误返回 0
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

// As 透传标准库 errors.As，避免调用方同时导入两个 errors 包
func As(err error, target any) bool {
	return errors.As(err, target)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
