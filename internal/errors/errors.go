// Package errors 定义带错误码的领域错误，handler 据此决定 HTTP 状态码与提示信息。
//
// 用法:
//
//	// service 中返回带类型的错误
//	if strings.TrimSpace(name) == "" {
//	    return nil, errors.Validation("Name is required")
//	}
//
//	// handler 中按错误码分类
//	if errors.Is(err, errors.ErrValidation) { ... }
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// 重新导出标准库函数，避免调用方同时导入两个 errors 包
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
)

// Code 机器可读的错误码
type Code string

const (
	CodeValidation         Code = "VALIDATION"
	CodeNotFound           Code = "NOT_FOUND"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
	CodeInternal           Code = "INTERNAL"
)

// HTTPStatus 错误码对应的 HTTP 状态码
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidCredentials, CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error 领域错误
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is 错误码相同即视为匹配
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus 当前错误的 HTTP 状态码
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails 附加细节（例如字段级校验信息）
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// 哨兵错误，配合 errors.Is 使用
var (
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "Invalid credentials"}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized, Message: "Unauthorized"}
	ErrStorageUnavailable = &Error{Code: CodeStorageUnavailable, Message: "storage unavailable"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
)

// Validation 必填字段缺失或为空
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// NotFound 目标不存在或不属于调用方，两者刻意不作区分
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// InvalidCredentials 登录失败，不区分用户名不存在与密码错误
func InvalidCredentials() *Error {
	return &Error{Code: CodeInvalidCredentials, Message: ErrInvalidCredentials.Message}
}

// Unauthorized 访客访问需要身份的资源
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// Storage 包装存储层错误；已是领域错误的直接返回
func Storage(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return err
	}
	return &Error{Code: CodeStorageUnavailable, Message: ErrStorageUnavailable.Message, cause: err}
}

// Internal 内部错误
func Internal(msg string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: msg, cause: cause}
}

// CodeOf 取出错误码，非领域错误统一视为 INTERNAL
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// StatusOf 取出 HTTP 状态码
func StatusOf(err error) int {
	return CodeOf(err).HTTPStatus()
}

// MessageOf 面向用户的提示信息；存储/内部错误不暴露底层细节
func MessageOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ErrInternal.Message
}
