package parser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

// PDFContent 按页提取的PDF内容
type PDFContent struct {
	Pages []string
	Links []string // 链接注释中的URI
}

// PDFPageExtractor 按页提取PDF文本的引擎
type PDFPageExtractor interface {
	ExtractPages(ctx context.Context, data []byte) (*PDFContent, error)
	Name() string
}

// ExtractResult 提取结果，Text 为未经规范化的原始文本
type ExtractResult struct {
	Text   string
	Format types.SourceFormat
	Pages  int
	Links  []string
}

// Extractor 把PDF/DOCX/TXT字节流转换为纯文本
type Extractor struct {
	pdf          PDFPageExtractor
	extractLinks bool
	logger       zerolog.Logger
}

// Option 提取器选项
type Option func(*Extractor)

// WithPDFEngine 指定PDF引擎，默认使用 ledongthuc/pdf
func WithPDFEngine(engine PDFPageExtractor) Option {
	return func(e *Extractor) {
		if engine != nil {
			e.pdf = engine
		}
	}
}

// WithLinkExtraction 是否提取超链接
func WithLinkExtraction(enabled bool) Option {
	return func(e *Extractor) {
		e.extractLinks = enabled
	}
}

// WithLogger 自定义日志
func WithLogger(l zerolog.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// NewExtractor 创建提取器
func NewExtractor(options ...Option) *Extractor {
	e := &Extractor{
		pdf:          NewLedongthucPDFExtractor(),
		extractLinks: true,
		logger:       logger.Component("parser"),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Extract 按声明的格式提取文本
// 空字节流返回 ErrEmptyFile，解码失败返回 ErrUnreadableDocument
func (e *Extractor) Extract(ctx context.Context, data []byte, format types.SourceFormat) (*ExtractResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s 内容为空", types.ErrEmptyFile, format)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &ExtractResult{Format: format}
	var annotated []string

	switch format {
	case types.FormatPDF:
		content, err := e.pdf.ExtractPages(ctx, data)
		if err != nil {
			return nil, unreadable(format, err)
		}
		result.Text = strings.Join(content.Pages, "\n")
		result.Pages = len(content.Pages)
		annotated = content.Links
	case types.FormatDOCX:
		doc, err := ExtractDOCX(data)
		if err != nil {
			return nil, unreadable(format, err)
		}
		result.Text = strings.Join(doc.Paragraphs, "\n")
		annotated = doc.Links
	case types.FormatTXT:
		result.Text = DecodeText(data)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, string(format))
	}

	if e.extractLinks {
		result.Links = MergeLinks(annotated, ExtractLinksFromText(result.Text))
	}
	if result.Links == nil {
		result.Links = []string{}
	}

	e.logger.Debug().
		Str("format", string(format)).
		Int("bytes", len(data)).
		Int("chars", len(result.Text)).
		Int("pages", result.Pages).
		Int("links", len(result.Links)).
		Str("preview", tracing.SafeResumeContent(result.Text)).
		Dur("elapsed", time.Since(start)).
		Msg("简历文本提取完成")
	return result, nil
}

// ExtractFile 根据文件名判断格式后提取
func (e *Extractor) ExtractFile(ctx context.Context, filename string, data []byte) (*ExtractResult, error) {
	format, ok := types.ParseSourceFormat(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedFormat, filename)
	}
	return e.Extract(ctx, data, format)
}

func unreadable(format types.SourceFormat, err error) error {
	return fmt.Errorf("%w: %s 解析失败: %v", types.ErrUnreadableDocument, format, err)
}
