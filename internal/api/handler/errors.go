package handler

import (
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-match-go/internal/analysis"
	"resume-match-go/internal/types"
	"resume-match-go/internal/validation"
)

// FieldIssue 单个字段的问题
type FieldIssue struct {
	Field  string `json:"field"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

// ErrorResponse 统一的错误返回
type ErrorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldIssue `json:"fields,omitempty"`
}

// StatusFor 错误到HTTP状态码的映射
func StatusFor(err error) int {
	switch {
	case errors.Is(err, analysis.ErrSessionNotFound):
		return consts.StatusNotFound
	case errors.Is(err, analysis.ErrAnalysisInProgress):
		return consts.StatusConflict
	case errors.Is(err, types.ErrUnsupportedFormat):
		return consts.StatusUnsupportedMediaType
	case errors.Is(err, types.ErrFileTooLarge):
		return consts.StatusRequestEntityTooLarge
	case errors.Is(err, types.ErrMissingField),
		errors.Is(err, types.ErrTooManyValues),
		errors.Is(err, types.ErrInvalidFormat),
		errors.Is(err, types.ErrEmptyFile),
		errors.Is(err, types.ErrUnreadableDocument),
		errors.Is(err, types.ErrInsufficientContent):
		return consts.StatusUnprocessableEntity
	case errors.Is(err, types.ErrInvalidResponseShape):
		return consts.StatusBadGateway
	case errors.Is(err, types.ErrAnalysisUnavailable), errors.Is(err, types.ErrBackendUnavailable):
		return consts.StatusServiceUnavailable
	default:
		return consts.StatusInternalServerError
	}
}

// errorBody 组装错误返回，字段级问题逐条列出
func errorBody(err error) ErrorResponse {
	body := ErrorResponse{Code: errorCode(err), Message: err.Error()}

	var verr *validation.ValidationError
	if errors.As(err, &verr) {
		for _, issue := range verr.Issues {
			body.Fields = append(body.Fields, fieldIssue(issue))
		}
		return body
	}
	var ferr *types.FieldError
	if errors.As(err, &ferr) {
		body.Fields = []FieldIssue{fieldIssue(ferr)}
	}
	return body
}

func fieldIssue(e *types.FieldError) FieldIssue {
	return FieldIssue{Field: e.Field, Code: types.ErrorCode(e), Detail: e.Detail}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, analysis.ErrSessionNotFound):
		return "SessionNotFound"
	case errors.Is(err, analysis.ErrAnalysisInProgress):
		return "AnalysisInProgress"
	default:
		return types.ErrorCode(err)
	}
}

func writeError(c *app.RequestContext, err error) {
	c.JSON(StatusFor(err), errorBody(err))
}

func badRequest(c *app.RequestContext, msg string) {
	c.JSON(consts.StatusBadRequest, ErrorResponse{Code: "BadRequest", Message: msg})
}
