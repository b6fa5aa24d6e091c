package services

import (
	"fmt"

	"github.com/pkg/errors"

	"foodconnect/store"
)

// Kind 业务错误类型，对外暴露的稳定标识
type Kind string

const (
	KindNotFound        Kind = "not_found"       // 记录不存在
	KindInvalidState    Kind = "invalid_state"   // 当前状态不允许该操作
	KindConflict        Kind = "conflict"        // 唯一性冲突或被依赖记录阻止
	KindCapacity        Kind = "capacity"        // 活动名额已满
	KindExpired         Kind = "expired"         // 已过报名截止时间
	KindAuthorization   Kind = "authorization"   // 无权操作
	KindValidation      Kind = "validation"      // 参数不合法
	KindUnauthenticated Kind = "unauthenticated" // 未登录或凭证无效
	KindLocked          Kind = "locked"          // 登录失败次数过多被锁定
	KindInternal        Kind = "internal"        // 内部错误
)

// Error 业务错误，包含类型和可读信息
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"msg"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is 按类型比较，可以直接用 errors.Is(err, services.ErrCapacity) 判断
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// 各类型的哨兵错误，仅用于 errors.Is 判断
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrInvalidState    = &Error{Kind: KindInvalidState}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrCapacity        = &Error{Kind: KindCapacity}
	ErrExpired         = &Error{Kind: KindExpired}
	ErrAuthorization   = &Error{Kind: KindAuthorization}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrLocked          = &Error{Kind: KindLocked}
)

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf 返回错误类型，非业务错误视为内部错误
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// fromStore 把存储层错误翻译为业务错误
// 唯一约束冲突统一视为Conflict，不泄露存储细节
func fromStore(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return newError(KindNotFound, "%s不存在", entity)
	case errors.Is(err, store.ErrDuplicate):
		return newError(KindConflict, "%s已存在", entity)
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return errors.Wrapf(err, "处理%s失败", entity)
}
