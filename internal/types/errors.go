package types

import (
	"errors"
	"fmt"
)

// 错误分类
var (
	ErrMissingField         = errors.New("missing required field")
	ErrTooManyValues        = errors.New("too many values")
	ErrInvalidFormat        = errors.New("invalid format")
	ErrUnsupportedFormat    = errors.New("unsupported file format")
	ErrFileTooLarge         = errors.New("file too large")
	ErrEmptyFile            = errors.New("empty file")
	ErrUnreadableDocument   = errors.New("unreadable document")
	ErrInsufficientContent  = errors.New("insufficient resume content")
	ErrBackendUnavailable   = errors.New("analysis backend unavailable")
	ErrInvalidResponseShape = errors.New("invalid analysis response shape")
	// ErrAnalysisUnavailable 后端和本地兜底都失败时给用户的统一提示
	ErrAnalysisUnavailable = errors.New("analysis unavailable, please retry")
)

// FieldError 字段级校验错误
type FieldError struct {
	Field  string
	Kind   error
	Detail string
}

func (e *FieldError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Field, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Kind)
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}

// NewFieldError 构造字段错误
func NewFieldError(field string, kind error, detail string) *FieldError {
	return &FieldError{Field: field, Kind: kind, Detail: detail}
}

// AnalysisError 分析流程中的错误，带会话ID和阶段
type AnalysisError struct {
	SessionID string
	Op        string
	BaseErr   error
	Detail    string
}

func (e *AnalysisError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 会话:%s): %s", e.BaseErr, e.Op, e.SessionID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 会话:%s)", e.BaseErr, e.Op, e.SessionID)
}

func (e *AnalysisError) Unwrap() error {
	return e.BaseErr
}

// Is 支持 errors.Is 比较
func (e *AnalysisError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// NewAnalysisError 构造流程错误
func NewAnalysisError(sessionID, op string, base error, detail string) error {
	return &AnalysisError{SessionID: sessionID, Op: op, BaseErr: base, Detail: detail}
}

// ErrorCode 把错误映射为稳定的错误码，供API返回
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingField):
		return "MissingField"
	case errors.Is(err, ErrTooManyValues):
		return "TooManyValues"
	case errors.Is(err, ErrInvalidFormat):
		return "InvalidFormat"
	case errors.Is(err, ErrUnsupportedFormat):
		return "UnsupportedFormat"
	case errors.Is(err, ErrFileTooLarge):
		return "FileTooLarge"
	case errors.Is(err, ErrEmptyFile):
		return "EmptyFile"
	case errors.Is(err, ErrUnreadableDocument):
		return "UnreadableDocument"
	case errors.Is(err, ErrInsufficientContent):
		return "InsufficientContent"
	case errors.Is(err, ErrInvalidResponseShape):
		return "InvalidResponseShape"
	case errors.Is(err, ErrAnalysisUnavailable):
		return "AnalysisUnavailable"
	case errors.Is(err, ErrBackendUnavailable):
		return "BackendUnavailable"
	default:
		return "Internal"
	}
}
