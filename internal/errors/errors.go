package errors

import (
	"errors"
	"fmt"
)

// AppError 应用错误类型
// 握手拒绝原因、REST 层错误都使用它，Message 会原样返回给客户端
type AppError struct {
	Code    int    // 错误码
	Message string // 客户端可见的原因
	Err     error  // 原始错误（可选，仅用于日志）
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError 创建新错误
func NewError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装原始错误，保留错误码和消息
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Is 判断是否为指定错误（按错误码比较）
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// GetCode 获取错误码，如果不是 AppError 返回 CodeServerError
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeServerError
}

// GetMessage 获取客户端可见的错误消息
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

// ============== 错误码定义 ==============

const (
	CodeSuccess = 0

	// 握手认证 10000-10999
	CodeMissingCredential = 10010
	CodeInvalidCredential = 10011
	CodeIdentityNotFound  = 10012
	CodeIdentityLookup    = 10013

	// 参数 11000-11999
	CodeInvalidParams = 11002

	// 实时投递 13000-13999
	CodeNotConnected = 13001

	// 系统错误 50000-50999
	CodeServerError = 50001
)

// ============== 预定义错误 ==============

// 握手认证
var (
	ErrMissingCredential = NewError(CodeMissingCredential, "missing credential")
	ErrInvalidCredential = NewError(CodeInvalidCredential, "invalid credential")
	ErrIdentityNotFound  = NewError(CodeIdentityNotFound, "identity not found")
	ErrIdentityLookup    = NewError(CodeIdentityLookup, "identity lookup failed")
)

// 其他
var (
	ErrInvalidParams = NewError(CodeInvalidParams, "invalid parameters")
	ErrNotConnected  = NewError(CodeNotConnected, "user not connected")
	ErrServerError   = NewError(CodeServerError, "internal server error")
)
