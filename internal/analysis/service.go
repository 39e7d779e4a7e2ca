// Package analysis 编排一次分析: 校验 -> 提取 -> 提交后端 -> 必要时本地兜底
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/metrics"
	"resume-match-go/internal/parser"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
	"resume-match-go/internal/validation"
)

var tracer = otel.Tracer("resume-match-go/analysis")

// ResumeCollection 简历记录所在的集合
const ResumeCollection = "resumes"

// Submitter 外部分析后端
type Submitter interface {
	Submit(ctx context.Context, req *types.AnalysisRequest) (*types.AnalysisResponse, error)
}

// FallbackAnalyzer 后端不可用时的本地分析
type FallbackAnalyzer interface {
	Analyze(ctx context.Context, req *types.AnalysisRequest) (*types.AnalysisResponse, error)
}

// DocumentUploader 保存原始文件，删除会话时一并清理
type DocumentUploader interface {
	Upload(ctx context.Context, data []byte, filename string) (*types.StoredObject, error)
	DeleteFile(ctx context.Context, objectKey string) error
}

// DocumentDB 扁平记录库；Insert 返回生成的记录ID
type DocumentDB interface {
	Insert(ctx context.Context, collection string, record map[string]any) (string, error)
	FindBySession(ctx context.Context, collection, sessionID string) ([]map[string]any, error)
}

// EventPublisher 发布分析完成事件
type EventPublisher interface {
	PublishAnalysisCompleted(ctx context.Context, evt *types.AnalysisCompletedEvent) error
}

// ErrAnalysisInProgress 同一会话已有分析在进行
var ErrAnalysisInProgress = errors.New("analysis already in progress")

// Locker 会话级互斥，返回释放函数
type Locker interface {
	Lock(ctx context.Context, sessionID string) (func(), error)
}

// Components 服务依赖，Uploader/DocumentDB/Events/Fallback 可以为nil
type Components struct {
	Validator  *validation.Validator
	Extractor  *parser.Extractor
	Backend    Submitter
	Fallback   FallbackAnalyzer
	Uploader   DocumentUploader
	DocumentDB DocumentDB
	Sessions   SessionStore
	Events     EventPublisher
	Locker     Locker
}

// Settings 服务参数
type Settings struct {
	TextRules        parser.TextRules
	ResumeCollection string
	Now              func() time.Time
	Logger           *zerolog.Logger
}

// Service 分析流程编排
type Service struct {
	validator  *validation.Validator
	extractor  *parser.Extractor
	backend    Submitter
	fallback   FallbackAnalyzer
	uploader   DocumentUploader
	docs       DocumentDB
	sessions   SessionStore
	events     EventPublisher
	locker     Locker
	textRules  parser.TextRules
	collection string
	now        func() time.Time
	logger     zerolog.Logger
}

// NewService 创建服务，缺省的组件使用默认实现
func NewService(components *Components, settings *Settings) *Service {
	if components == nil {
		components = &Components{}
	}
	if settings == nil {
		settings = &Settings{}
	}

	s := &Service{
		validator:  components.Validator,
		extractor:  components.Extractor,
		backend:    components.Backend,
		fallback:   components.Fallback,
		uploader:   components.Uploader,
		docs:       components.DocumentDB,
		sessions:   components.Sessions,
		events:     components.Events,
		locker:     components.Locker,
		textRules:  settings.TextRules,
		collection: settings.ResumeCollection,
		now:        settings.Now,
	}
	if s.validator == nil {
		s.validator = validation.NewValidator(validation.DefaultConfig())
	}
	if s.extractor == nil {
		s.extractor = parser.NewExtractor()
	}
	if s.sessions == nil {
		s.sessions = NewMemorySessionStore()
	}
	if s.textRules == (parser.TextRules{}) {
		s.textRules = parser.DefaultTextRules()
	}
	if s.collection == "" {
		s.collection = ResumeCollection
	}
	if s.now == nil {
		s.now = time.Now
	}
	if settings.Logger != nil {
		s.logger = *settings.Logger
	} else {
		s.logger = logger.Component("analysis")
	}
	return s
}

func (s *Service) Validator() *validation.Validator { return s.validator }

func (s *Service) Extractor() *parser.Extractor { return s.extractor }

func (s *Service) TextRules() parser.TextRules { return s.textRules }

// CreateSession 创建并保存新会话
func (s *Service) CreateSession(ctx context.Context, userID string) (*Session, error) {
	session := NewSession(strings.TrimSpace(userID), s.now())
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("保存会话失败: %w", err)
	}
	s.logger.Debug().Str("session_id", session.ID).Msg("会话已创建")
	return session, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (*Session, error) {
	return s.sessions.Load(ctx, id)
}

// DeleteSession 删除会话，并清理该会话上传过的原始文件
// 文件清理失败只记录日志
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	session, err := s.sessions.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	s.removeUploads(ctx, session)
	return nil
}

// removeUploads 当前简历加上记录库里历次上传的对象
func (s *Service) removeUploads(ctx context.Context, session *Session) {
	if s.uploader == nil {
		return
	}
	keys := make(map[string]struct{})
	if session.Resume != nil && session.Resume.ObjectKey != "" {
		keys[session.Resume.ObjectKey] = struct{}{}
	}
	if s.docs != nil {
		records, err := s.docs.FindBySession(ctx, s.collection, session.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("查询简历记录失败，只清理当前文件")
		}
		for _, record := range records {
			if key, ok := record["object_key"].(string); ok && key != "" {
				keys[key] = struct{}{}
			}
		}
	}

	for key := range keys {
		if err := s.uploader.DeleteFile(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("session_id", session.ID).Str("object", key).Msg("删除原始简历失败")
			continue
		}
		s.logger.Debug().Str("session_id", session.ID).Str("object", key).Msg("原始简历已删除")
	}
}

// UpdateForm 替换表单字段并重新计算阶段
// 已上传的简历文件保留；之前的分析结果作废
func (s *Service) UpdateForm(ctx context.Context, id string, form types.FormSubmission) (*Session, *validation.Result, error) {
	session, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	// 文件只能通过上传接口附加，文件元数据以服务端记录为准
	form.ResumeFile = nil
	if session.Resume != nil && session.Resume.Filename != "" && session.Form.ResumeFile != nil {
		file := *session.Form.ResumeFile
		form.ResumeFile = &file
	}

	result := s.validator.Validate(form)
	session.Form = result.Form
	session.Response = nil
	session.clearError()
	session.Stage = stageFor(result)
	session.UpdatedAt = s.now()

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("保存会话失败: %w", err)
	}
	return session, result, nil
}

// AttachResume 校验并提取上传的简历，可选地上传原文件并写入记录
func (s *Service) AttachResume(ctx context.Context, id, filename string, data []byte) (*Session, error) {
	ctx, span := tracer.Start(ctx, "analysis.AttachResume",
		trace.WithAttributes(
			attribute.String("session.id", id),
			attribute.String("file.name", tracing.TruncateString(filename, tracing.MaxObjectLength)),
			attribute.Int("file.size", len(data)),
		))
	defer span.End()

	session, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	resume, err := s.ExtractResume(ctx, filename, data)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExtraction)
		return nil, types.NewAnalysisError(id, "attach_resume", err, filename)
	}

	if s.uploader != nil {
		obj, err := s.uploader.Upload(ctx, data, filename)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeStorage)
			s.logger.Warn().Err(err).Str("session_id", id).Msg("上传原始简历失败，继续处理")
		} else {
			resume.ShareableRef = obj.URL
			resume.ObjectKey = obj.Key
		}
	}
	if s.docs != nil {
		recordID, err := s.docs.Insert(ctx, s.collection, resumeRecord(session, resume))
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeDB)
			s.logger.Warn().Err(err).Str("session_id", id).Msg("写入简历记录失败，继续处理")
		} else {
			resume.RecordID = recordID
		}
	}

	session.Resume = resume
	session.Form.ResumeFile = &types.ResumeFile{Filename: filename, Size: int64(len(data))}
	session.Response = nil
	session.clearError()
	session.Stage = stageFor(s.validator.Validate(session.Form))
	session.UpdatedAt = s.now()

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("保存会话失败: %w", err)
	}
	s.logger.Info().
		Str("session_id", id).
		Str("format", string(resume.Format)).
		Int("chars", len(resume.RawText)).
		Int("links", len(resume.Links)).
		Bool("uploaded", resume.ShareableRef != "").
		Msg("简历已附加到会话")
	return session, nil
}

// ExtractResume 文件检查 -> 文本提取 -> 规范化 -> 充分性检查
func (s *Service) ExtractResume(ctx context.Context, filename string, data []byte) (*types.ResumeData, error) {
	format, _ := types.ParseSourceFormat(filename)
	if issue := s.validator.ValidateFile(filename, int64(len(data))); issue != nil {
		metrics.ExtractionTotal.WithLabelValues(string(format), types.ErrorCode(issue)).Inc()
		return nil, issue
	}

	result, err := s.extractor.ExtractFile(ctx, filename, data)
	if err != nil {
		metrics.ExtractionTotal.WithLabelValues(string(format), types.ErrorCode(err)).Inc()
		return nil, err
	}

	text := parser.Normalize(result.Text)
	if err := parser.ValidateResumeText(text, s.textRules); err != nil {
		metrics.ExtractionTotal.WithLabelValues(string(format), types.ErrorCode(err)).Inc()
		return nil, err
	}
	metrics.ExtractionTotal.WithLabelValues(string(format), metrics.OutcomeOK).Inc()

	return &types.ResumeData{
		RawText:   text,
		Format:    result.Format,
		Links:     result.Links,
		Filename:  filename,
		PageCount: result.Pages,
	}, nil
}

// Analyze 对会话执行一次完整分析
// 后端不可用时执行一次本地兜底；返回结构不符合约定时直接报错
func (s *Service) Analyze(ctx context.Context, id string) (*Session, error) {
	ctx, span := tracer.Start(ctx, "analysis.Analyze", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, id)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	session, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Response = nil

	result := s.validator.Validate(session.Form)
	if !result.OK {
		for _, issue := range result.Issues {
			metrics.ValidationFailures.WithLabelValues(issue.Field, types.ErrorCode(issue)).Inc()
		}
		err := types.NewAnalysisError(id, "validate", result.Err(), "")
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return s.fail(ctx, session, StageFormIncomplete, err)
	}
	session.Form = result.Form
	span.SetAttributes(
		attribute.String("candidate.name", tracing.SafeAttributeValue("name", session.Form.PersonalDetails.FullName, tracing.DefaultMaxLength)),
		attribute.String("candidate.email", tracing.SafeAttributeValue("email", session.Form.PersonalDetails.Email, tracing.DefaultMaxLength)),
	)

	resume, err := s.resumeFor(session)
	if err != nil {
		err = types.NewAnalysisError(id, "resume_text", err, "")
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return s.fail(ctx, session, StageFormComplete, err)
	}

	req := types.NewAnalysisRequest(session.Form, *resume, session.UserID, s.now())
	session.Stage = StageWaiting
	session.clearError()
	session.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("保存会话失败: %w", err)
	}

	resp, err := s.submit(ctx, id, req)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return s.fail(ctx, session, StageFormComplete, err)
	}

	resp.Normalize()
	resp.SortByScore()
	session.Response = resp
	session.Stage = StageShowingResults
	session.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("保存会话失败: %w", err)
	}
	span.SetAttributes(
		attribute.String("analysis.source", string(resp.Source)),
		attribute.Int("analysis.recommendations", len(resp.JobRecommendations)),
	)

	s.publishCompleted(ctx, session)
	return session, nil
}

// submit 调用后端，仅在后端不可用时走一次本地兜底，不重试
func (s *Service) submit(ctx context.Context, id string, req *types.AnalysisRequest) (*types.AnalysisResponse, error) {
	if s.backend == nil {
		return s.runFallback(ctx, id, req, errors.New("未配置分析后端"))
	}

	resp, err := s.backend.Submit(ctx, req)
	switch {
	case err == nil:
		metrics.AnalysisTotal.WithLabelValues(string(types.SourceBackend), metrics.OutcomeOK).Inc()
		resp.Source = types.SourceBackend
		return resp, nil
	case errors.Is(err, types.ErrBackendUnavailable):
		metrics.AnalysisTotal.WithLabelValues(string(types.SourceBackend), metrics.OutcomeUnavailable).Inc()
		return s.runFallback(ctx, id, req, err)
	case errors.Is(err, types.ErrInvalidResponseShape):
		metrics.AnalysisTotal.WithLabelValues(string(types.SourceBackend), metrics.OutcomeBadShape).Inc()
		s.logger.Error().Err(err).Str("session_id", id).Msg("后端返回结构不符合约定")
		return nil, types.NewAnalysisError(id, "submit", types.ErrInvalidResponseShape, err.Error())
	default:
		metrics.AnalysisTotal.WithLabelValues(string(types.SourceBackend), metrics.OutcomeError).Inc()
		return nil, types.NewAnalysisError(id, "submit", err, "")
	}
}

func (s *Service) runFallback(ctx context.Context, id string, req *types.AnalysisRequest, cause error) (*types.AnalysisResponse, error) {
	if s.fallback == nil {
		s.logger.Error().Err(cause).Str("session_id", id).Msg("后端不可用且未启用本地分析")
		return nil, types.NewAnalysisError(id, "fallback", types.ErrAnalysisUnavailable, cause.Error())
	}

	s.logger.Warn().Err(cause).Str("session_id", id).Msg("后端不可用，使用本地分析")
	resp, err := s.fallback.Analyze(ctx, req)
	if err != nil {
		metrics.AnalysisTotal.WithLabelValues(string(types.SourceFallback), metrics.OutcomeError).Inc()
		s.logger.Error().Err(err).Str("session_id", id).Msg("本地分析失败")
		return nil, types.NewAnalysisError(id, "fallback", types.ErrAnalysisUnavailable,
			fmt.Sprintf("backend: %v; fallback: %v", cause, err))
	}
	metrics.AnalysisTotal.WithLabelValues(string(types.SourceFallback), metrics.OutcomeOK).Inc()
	resp.Source = types.SourceFallback
	return resp, nil
}

// resumeFor 优先使用已上传文件的文本，否则使用表单中的简历文本
func (s *Service) resumeFor(session *Session) (*types.ResumeData, error) {
	if session.Resume.Valid() {
		return session.Resume, nil
	}
	if session.Form.ResumeFile != nil {
		return nil, types.NewFieldError(validation.FieldResumeFile, types.ErrMissingField, "简历文件尚未上传")
	}

	text := parser.Normalize(session.Form.ResumeText)
	if err := parser.ValidateResumeText(text, s.textRules); err != nil {
		return nil, err
	}
	return &types.ResumeData{
		RawText: text,
		Format:  types.FormatTXT,
		Links:   parser.ExtractLinksFromText(text),
	}, nil
}

func (s *Service) fail(ctx context.Context, session *Session, stage Stage, cause error) (*Session, error) {
	session.Stage = stage
	session.Response = nil
	session.setError(cause, s.now())
	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.Error().Err(err).Str("session_id", session.ID).Msg("保存失败状态出错")
	}
	return session, cause
}

func (s *Service) publishCompleted(ctx context.Context, session *Session) {
	if s.events == nil || session.Response == nil {
		return
	}
	evt := &types.AnalysisCompletedEvent{
		SessionID:       session.ID,
		UserID:          session.UserID,
		Source:          session.Response.Source,
		Recommendations: len(session.Response.JobRecommendations),
		CompletedAt:     s.now().UTC(),
	}
	if len(session.Response.JobRecommendations) > 0 {
		evt.TopScore = session.Response.JobRecommendations[0].Score
	}
	if session.Resume != nil {
		evt.ResumeRecordID = session.Resume.RecordID
		evt.ShareableRef = session.Resume.ShareableRef
	}
	if err := s.events.PublishAnalysisCompleted(ctx, evt); err != nil {
		s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("发布分析完成事件失败")
	}
}

func stageFor(result *validation.Result) Stage {
	if result.OK {
		return StageFormComplete
	}
	return StageFormIncomplete
}

// resumeRecord 写入文档库的扁平记录
func resumeRecord(session *Session, resume *types.ResumeData) map[string]any {
	details := session.Form.PersonalDetails
	prefs := session.Form.JobPreferences
	return map[string]any{
		"session_id":          session.ID,
		"user_id":             session.UserID,
		"full_name":           details.FullName,
		"email":               details.Email,
		"phone":               details.Phone,
		"filename":            resume.Filename,
		"format":              string(resume.Format),
		"page_count":          resume.PageCount,
		"resume_text":         resume.RawText,
		"resume_links":        resume.Links,
		"shareable_ref":       resume.ShareableRef,
		"object_key":          resume.ObjectKey,
		"preferred_locations": prefs.PreferredLocations,
		"target_positions":    prefs.TargetPositions,
		"skills":              prefs.Skills,
	}
}
