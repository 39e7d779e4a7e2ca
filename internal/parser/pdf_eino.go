package parser

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
)

// EinoPDFExtractor 使用 Eino PDF Parser 按页提取文本，不读取链接注释
type EinoPDFExtractor struct {
	parser  *pdf.PDFParser
	timeout time.Duration
}

var _ PDFPageExtractor = (*EinoPDFExtractor)(nil)

// EinoPDFOption PDF提取器的配置选项
type EinoPDFOption func(*EinoPDFExtractor)

// WithEinoTimeout 单个文档解析超时
func WithEinoTimeout(timeout time.Duration) EinoPDFOption {
	return func(e *EinoPDFExtractor) {
		e.timeout = timeout
	}
}

// NewEinoPDFExtractor 初始化，ToPages 打开以便每页单独返回
func NewEinoPDFExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: true})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}

	extractor := &EinoPDFExtractor{
		parser:  p,
		timeout: 30 * time.Second,
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor, nil
}

func (e *EinoPDFExtractor) Name() string {
	return "eino"
}

func (e *EinoPDFExtractor) ExtractPages(ctx context.Context, data []byte) (*PDFContent, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	docs, err := e.parser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithURI("memory://resume.pdf"),
		einoParser.WithExtraMeta(map[string]any{"extraction_time": time.Now().Format(time.RFC3339)}),
	)
	if err != nil {
		return nil, fmt.Errorf("eino PDF parser failed: %w", err)
	}

	content := &PDFContent{Pages: make([]string, 0, len(docs))}
	for _, doc := range docs {
		if doc == nil {
			content.Pages = append(content.Pages, "")
			continue
		}
		content.Pages = append(content.Pages, doc.Content)
	}
	return content, nil
}
