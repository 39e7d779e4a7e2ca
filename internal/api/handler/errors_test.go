package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/analysis"
	"resume-match-go/internal/types"
	"resume-match-go/internal/validation"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"会话不存在", analysis.ErrSessionNotFound, http.StatusNotFound},
		{"分析进行中", analysis.ErrAnalysisInProgress, http.StatusConflict},
		{"格式不支持", fmt.Errorf("upload: %w", types.ErrUnsupportedFormat), http.StatusUnsupportedMediaType},
		{"文件过大", types.NewFieldError("resume_file", types.ErrFileTooLarge, ""), http.StatusRequestEntityTooLarge},
		{"空文件", types.ErrEmptyFile, http.StatusUnprocessableEntity},
		{"内容不足", types.NewAnalysisError("s1", "resume_text", types.ErrInsufficientContent, ""), http.StatusUnprocessableEntity},
		{"返回结构错误", types.ErrInvalidResponseShape, http.StatusBadGateway},
		{"分析不可用", types.ErrAnalysisUnavailable, http.StatusServiceUnavailable},
		{"后端不可用", types.ErrBackendUnavailable, http.StatusServiceUnavailable},
		{"未知错误", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestErrorBody_ListsEveryFieldIssue(t *testing.T) {
	verr := &validation.ValidationError{Issues: []*types.FieldError{
		types.NewFieldError(validation.FieldFullName, types.ErrMissingField, ""),
		types.NewFieldError(validation.FieldEmail, types.ErrInvalidFormat, "邮箱格式不正确"),
	}}
	body := errorBody(types.NewAnalysisError("s1", "validate", verr, ""))

	require.Len(t, body.Fields, 2)
	assert.Equal(t, FieldIssue{Field: validation.FieldFullName, Code: "MissingField"}, body.Fields[0])
	assert.Equal(t, "InvalidFormat", body.Fields[1].Code)
	assert.Equal(t, "邮箱格式不正确", body.Fields[1].Detail)
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(verr))
}

func TestErrorBody_SingleFieldError(t *testing.T) {
	err := types.NewAnalysisError("s1", "attach_resume",
		types.NewFieldError("resume_file", types.ErrUnsupportedFormat, ".exe"), "setup.exe")
	body := errorBody(err)

	assert.Equal(t, "UnsupportedFormat", body.Code)
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "resume_file", body.Fields[0].Field)
}
