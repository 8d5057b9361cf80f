package domain

import (
	"errors"
	"fmt"
)

// ErrorKind 引擎错误分类，供调用方做机器可读的分支处理
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"         // 工单或技师不存在
	KindInvalidState     ErrorKind = "invalid_state"     // 当前状态下该操作不合法
	KindValidation       ErrorKind = "validation"        // 入参不合法（缺 reason、频率非法等）
	KindConflict         ErrorKind = "conflict"          // 条件更新竞争失败
	KindStoreUnavailable ErrorKind = "store_unavailable" // 存储临时不可用
)

// Error 带分类的引擎错误
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidStatef(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func StoreUnavailable(err error, msg string) *Error {
	return &Error{Kind: KindStoreUnavailable, Message: msg, Err: err}
}

// KindOf 提取错误分类，非引擎错误返回空串
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
