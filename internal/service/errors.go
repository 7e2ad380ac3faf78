package service

import "errors"

// 错误分类，handler 通过 errors.Is 映射 HTTP 状态码
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error 携带分类和面向调用方的提示
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// NewInvalidInput 供 handler 在解析请求阶段复用同一错误分类
func NewInvalidInput(msg string) error {
	return newError(ErrInvalidInput, msg)
}
