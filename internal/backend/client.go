// Package backend 外部分析服务(工作流webhook)的HTTP客户端
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/metrics"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

const (
	DefaultTimeout   = 30 * time.Second
	defaultUserAgent = "resume-match-go/1.0"
	maxResponseBytes = 8 << 20
)

var tracer = otel.Tracer("resume-match-go/backend")

// Client 单次提交，不重试
type Client struct {
	URL        string
	HTTPClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     zerolog.Logger
}

// Option 客户端选项
type Option func(*Client)

// WithTimeout 单次请求的超时
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.HTTPClient = client
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient 创建后端客户端
func NewClient(url string, options ...Option) *Client {
	c := &Client{
		URL:        strings.TrimSpace(url),
		HTTPClient: &http.Client{},
		timeout:    DefaultTimeout,
		userAgent:  defaultUserAgent,
		logger:     logger.Component("backend"),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Timeout 当前生效的超时
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Submit 发送分析请求
// 网络错误、超时、非2xx状态 -> ErrBackendUnavailable
// 返回体不符合约定 -> ErrInvalidResponseShape
func (c *Client) Submit(ctx context.Context, req *types.AnalysisRequest) (*types.AnalysisResponse, error) {
	if req == nil || strings.TrimSpace(req.ResumeText) == "" {
		return nil, types.NewFieldError("resume_text", types.ErrMissingField, "提交前必须有简历文本")
	}

	ctx, span := tracer.Start(ctx, "backend.Submit",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.url", tracing.TruncateString(c.URL, tracing.DefaultMaxLength)),
			attribute.Int("resume.length", len(req.ResumeText)),
			attribute.String("user.id", req.UserID),
		))
	defer span.End()

	start := time.Now()
	resp, status, err := c.submit(ctx, req)
	elapsed := time.Since(start)

	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, types.ErrInvalidResponseShape):
		outcome = metrics.OutcomeBadShape
		tracing.RecordErrorWithInfo(span, err, tracing.ErrorTypeExternal, attribute.Int("http.status_code", status))
	case errors.Is(err, types.ErrBackendUnavailable):
		outcome = metrics.OutcomeUnavailable
		if status > 0 {
			tracing.RecordHTTPError(span, err, status)
		} else {
			tracing.RecordError(span, err, tracing.ClassifyTransportError(err))
		}
	case err != nil:
		outcome = metrics.OutcomeError
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
	}
	metrics.BackendRequestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())

	event := c.logger.Info()
	if err != nil {
		event = c.logger.Warn().Err(err)
	}
	event.Str("user_id", req.UserID).
		Int("status", status).
		Str("outcome", outcome).
		Dur("elapsed", elapsed).
		Msg("分析后端调用结束")

	if err != nil {
		return nil, err
	}
	resp.Source = types.SourceBackend
	span.SetAttributes(attribute.Int("recommendations.count", len(resp.JobRecommendations)))
	return resp, nil
}

func (c *Client) submit(ctx context.Context, req *types.AnalysisRequest) (*types.AnalysisResponse, int, error) {
	if c.URL == "" {
		return nil, 0, fmt.Errorf("%w: 未配置后端地址", types.ErrBackendUnavailable)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, 0, fmt.Errorf("序列化分析请求失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: 创建HTTP请求失败: %v", types.ErrBackendUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	httpResp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, httpResp.StatusCode, fmt.Errorf("%w: 后端返回状态码 %d: %s",
			types.ErrBackendUnavailable, httpResp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, httpResp.StatusCode, fmt.Errorf("%w: 读取响应失败: %v", types.ErrBackendUnavailable, err)
	}

	resp, err := DecodeResponse(body)
	if err != nil {
		return nil, httpResp.StatusCode, err
	}
	return resp, httpResp.StatusCode, nil
}

// Ping 探测后端是否可达，200 或 405(webhook只接受POST) 视为可达
func (c *Client) Ping(ctx context.Context) error {
	if c.URL == "" {
		return fmt.Errorf("%w: 未配置后端地址", types.ErrBackendUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusMethodNotAllowed {
		return nil
	}
	return fmt.Errorf("%w: 探测返回状态码 %d", types.ErrBackendUnavailable, resp.StatusCode)
}
