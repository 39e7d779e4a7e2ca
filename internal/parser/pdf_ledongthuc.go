package parser

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// LedongthucPDFExtractor 基于 ledongthuc/pdf 的逐页提取，同时读取链接注释
type LedongthucPDFExtractor struct{}

var _ PDFPageExtractor = (*LedongthucPDFExtractor)(nil)

func NewLedongthucPDFExtractor() *LedongthucPDFExtractor {
	return &LedongthucPDFExtractor{}
}

func (p *LedongthucPDFExtractor) Name() string {
	return "ledongthuc"
}

// ExtractPages 无文本的页(纯图片等)返回空字符串
func (p *LedongthucPDFExtractor) ExtractPages(ctx context.Context, data []byte) (content *PDFContent, err error) {
	// 库在遇到损坏的对象时会panic
	defer func() {
		if r := recover(); r != nil {
			content = nil
			err = fmt.Errorf("PDF解码异常: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("打开PDF失败: %w", err)
	}

	total := reader.NumPage()
	content = &PDFContent{Pages: make([]string, 0, total)}
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			content.Pages = append(content.Pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}
		content.Pages = append(content.Pages, text)
		content.Links = append(content.Links, pageLinks(page)...)
	}
	return content, nil
}

// pageLinks 读取 /Annots 中 /Subtype /Link 的 /URI
func pageLinks(page pdf.Page) []string {
	annots := page.V.Key("Annots")
	var links []string
	for i := 0; i < annots.Len(); i++ {
		annot := annots.Index(i)
		if annot.Key("Subtype").Name() != "Link" {
			continue
		}
		uri := annot.Key("A").Key("URI")
		if uri.Kind() != pdf.String {
			continue
		}
		if s := uri.RawString(); s != "" {
			links = append(links, s)
		}
	}
	return links
}
