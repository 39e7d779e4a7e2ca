package handler

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog"

	"resume-match-go/internal/analysis"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/parser"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
	"resume-match-go/internal/validation"
)

// Pinger 探测外部分析后端
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker 存储组件连通性
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

// AnalysisHandler 会话、上传与分析接口
type AnalysisHandler struct {
	service *analysis.Service
	backend Pinger
	storage HealthChecker
	logger  zerolog.Logger
}

// NewAnalysisHandler backend/storage 可以为nil
func NewAnalysisHandler(service *analysis.Service, backend Pinger, storage HealthChecker) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		backend: backend,
		storage: storage,
		logger:  logger.Component("api"),
	}
}

// CreateSessionRequest 创建会话
type CreateSessionRequest struct {
	UserID string `json:"user_id"`
}

// AnalyzeResponse 分析结果
type AnalyzeResponse struct {
	SessionID string         `json:"session_id"`
	Stage     analysis.Stage `json:"stage"`
	*types.AnalysisResponse
}

// ExtractResponse 无状态提取结果
type ExtractResponse struct {
	Filename       string                 `json:"filename"`
	Format         types.SourceFormat     `json:"format"`
	Pages          int                    `json:"pages,omitempty"`
	Text           string                 `json:"text"`
	Links          []string               `json:"links"`
	LinkCategories *parser.LinkCategories `json:"link_categories"`
}

// UpdateFormResponse 更新表单后的会话与校验结果
type UpdateFormResponse struct {
	Session    *analysis.Session  `json:"session"`
	Validation *validation.Result `json:"validation"`
}

// HandleHealth 存活检查，附带后端与存储状态
// GET /health
func (h *AnalysisHandler) HandleHealth(ctx context.Context, c *app.RequestContext) {
	resp := map[string]any{"status": "ok"}
	if h.backend != nil {
		if err := h.backend.Ping(ctx); err != nil {
			resp["backend"] = err.Error()
		} else {
			resp["backend"] = "ok"
		}
	}
	if h.storage != nil {
		resp["storage"] = h.storage.Health(ctx)
	}
	c.JSON(consts.StatusOK, resp)
}

// HandleCatalog GET /api/v1/catalog
func (h *AnalysisHandler) HandleCatalog(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, h.service.Validator().Catalog())
}

// HandleValidate 无状态校验表单
// POST /api/v1/validate
func (h *AnalysisHandler) HandleValidate(ctx context.Context, c *app.RequestContext) {
	var form types.FormSubmission
	if err := c.BindJSON(&form); err != nil {
		badRequest(c, "请求体不是有效的表单JSON")
		return
	}
	c.JSON(consts.StatusOK, h.service.Validator().Validate(form))
}

// HandleCreateSession POST /api/v1/sessions
func (h *AnalysisHandler) HandleCreateSession(ctx context.Context, c *app.RequestContext) {
	var req CreateSessionRequest
	if len(c.Request.Body()) > 0 {
		if err := c.BindJSON(&req); err != nil {
			badRequest(c, "请求体不是有效的JSON")
			return
		}
	}
	session, err := h.service.CreateSession(ctx, req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusCreated, session)
}

// HandleGetSession GET /api/v1/sessions/:id
func (h *AnalysisHandler) HandleGetSession(ctx context.Context, c *app.RequestContext) {
	session, err := h.service.GetSession(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, session)
}

// HandleDeleteSession DELETE /api/v1/sessions/:id
func (h *AnalysisHandler) HandleDeleteSession(ctx context.Context, c *app.RequestContext) {
	if err := h.service.DeleteSession(ctx, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(consts.StatusNoContent)
}

// HandleUpdateForm 替换表单字段，返回会话和校验结果
// PUT /api/v1/sessions/:id/form
func (h *AnalysisHandler) HandleUpdateForm(ctx context.Context, c *app.RequestContext) {
	var form types.FormSubmission
	if err := c.BindJSON(&form); err != nil {
		badRequest(c, "请求体不是有效的表单JSON")
		return
	}
	session, result, err := h.service.UpdateForm(ctx, c.Param("id"), form)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, UpdateFormResponse{Session: session, Validation: result})
}

// HandleUploadResume 上传并附加简历文件
// POST /api/v1/sessions/:id/resume
func (h *AnalysisHandler) HandleUploadResume(ctx context.Context, c *app.RequestContext) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}
	session, err := h.service.AttachResume(ctx, c.Param("id"), filename, data)
	if err != nil {
		h.logger.Info().Err(err).Str("session_id", c.Param("id")).
			Str("filename", tracing.TruncateString(filename, tracing.MaxObjectLength)).
			Msg("简历上传被拒绝")
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, session)
}

// HandleAnalyze 执行分析
// POST /api/v1/sessions/:id/analyze
func (h *AnalysisHandler) HandleAnalyze(ctx context.Context, c *app.RequestContext) {
	session, err := h.service.Analyze(ctx, c.Param("id"))
	if err != nil {
		h.logger.Warn().Err(err).Str("session_id", c.Param("id")).Msg("分析失败")
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, AnalyzeResponse{
		SessionID:        session.ID,
		Stage:            session.Stage,
		AnalysisResponse: session.Response,
	})
}

// HandleExtract 只做文件校验和文本提取，不保存
// POST /api/v1/extract
func (h *AnalysisHandler) HandleExtract(ctx context.Context, c *app.RequestContext) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}
	resume, err := h.service.ExtractResume(ctx, filename, data)
	if err != nil {
		writeError(c, err)
		return
	}
	links := resume.Links
	if links == nil {
		links = []string{}
	}
	c.JSON(consts.StatusOK, ExtractResponse{
		Filename:       filename,
		Format:         resume.Format,
		Pages:          resume.PageCount,
		Text:           resume.RawText,
		Links:          links,
		LinkCategories: parser.Categorize(links),
	})
}

// readUpload 读取 multipart 的 file 字段，最多读到上限+1字节以便判断超限
func (h *AnalysisHandler) readUpload(c *app.RequestContext) (string, []byte, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "缺少上传文件字段 file")
		return "", nil, false
	}
	f, err := fileHeader.Open()
	if err != nil {
		writeError(c, fmt.Errorf("打开上传文件失败: %w", err))
		return "", nil, false
	}
	defer f.Close()

	limit := h.service.Validator().Config().MaxFileSize
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		writeError(c, fmt.Errorf("读取上传文件失败: %w", err))
		return "", nil, false
	}
	return fileHeader.Filename, data, true
}
