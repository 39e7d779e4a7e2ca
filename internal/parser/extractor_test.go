package parser

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/parser/parsertest"
	"resume-match-go/internal/types"
)

func TestExtract_EmptyInput(t *testing.T) {
	extractor := NewExtractor()
	for _, format := range types.SupportedFormats {
		t.Run(string(format), func(t *testing.T) {
			result, err := extractor.Extract(context.Background(), nil, format)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrEmptyFile, "空文件应返回 ErrEmptyFile")
			assert.Nil(t, result)
		})
	}
}

func TestExtract_PDF(t *testing.T) {
	data := parsertest.BuildPDF([]string{"John Doe\nSoftware Engineer at Acme"}, nil)

	result, err := NewExtractor().Extract(context.Background(), data, types.FormatPDF)
	require.NoError(t, err, "PDF提取不应返回错误")
	assert.Equal(t, types.FormatPDF, result.Format)
	assert.Equal(t, 1, result.Pages)

	text := Normalize(result.Text)
	assert.Contains(t, text, "John Doe")
	assert.Contains(t, text, "Software Engineer at Acme")
	assert.NotNil(t, result.Links, "Links 不应为nil")
}

func TestExtract_PDFBlankPage(t *testing.T) {
	data := parsertest.BuildPDF([]string{"Page one text", ""}, nil)

	result, err := NewExtractor().Extract(context.Background(), data, types.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pages, "空白页也应计入页数")
	assert.Equal(t, "Page one text", Normalize(result.Text))
}

func TestLedongthucExtractPages_BlankPageIsEmpty(t *testing.T) {
	data := parsertest.BuildPDF([]string{""}, nil)

	content, err := NewLedongthucPDFExtractor().ExtractPages(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, content.Pages, 1)
	assert.Equal(t, "", strings.TrimSpace(content.Pages[0]))
}

func TestExtract_PDFAnnotationLinks(t *testing.T) {
	links := []string{"https://github.com/johndoe", "https://www.linkedin.com/in/johndoe"}
	data := parsertest.BuildPDF([]string{"John Doe portfolio"}, links)

	result, err := NewExtractor().Extract(context.Background(), data, types.FormatPDF)
	require.NoError(t, err)
	assert.ElementsMatch(t, links, result.Links, "应读取链接注释中的URI")

	noLinks, err := NewExtractor(WithLinkExtraction(false)).Extract(context.Background(), data, types.FormatPDF)
	require.NoError(t, err)
	assert.Empty(t, noLinks.Links, "关闭链接提取后不应返回链接")
}

func TestExtract_PDFCorrupted(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), []byte("this is not a pdf"), types.FormatPDF)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnreadableDocument)
}

func TestExtract_DOCX(t *testing.T) {
	data := parsertest.BuildDOCX(
		[]string{"Jane Smith", "Data Scientist & ML engineer", "Skills: Python, SQL"},
		[]string{"https://github.com/janesmith/ml-project"},
	)

	result, err := NewExtractor().Extract(context.Background(), data, types.FormatDOCX)
	require.NoError(t, err, "DOCX提取不应返回错误")
	assert.True(t, strings.HasPrefix(result.Text, "Jane Smith\nData Scientist & ML engineer\nSkills: Python, SQL"))
	assert.Equal(t, []string{"https://github.com/janesmith/ml-project"}, result.Links)
}

func TestExtract_DOCXCorrupted(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), []byte("PK broken"), types.FormatDOCX)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnreadableDocument)
}

func TestExtract_TXT(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"utf8", []byte("Résumé of John"), "Résumé of John"},
		{"utf8 with BOM", append([]byte{0xEF, 0xBB, 0xBF}, []byte("John Doe")...), "John Doe"},
		{"latin1", []byte("Caf\xe9 manager"), "Café manager"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewExtractor().Extract(context.Background(), tt.data, types.FormatTXT)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Text)
			assert.Equal(t, 0, result.Pages)
		})
	}
}

func TestExtract_TXTLinks(t *testing.T) {
	text := "Contact: mailto:john@example.com, code at github.com/johndoe and https://johndoe.github.io/."
	result, err := NewExtractor().Extract(context.Background(), []byte(text), types.FormatTXT)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"mailto:john@example.com",
		"https://johndoe.github.io/",
		"https://github.com/johndoe",
	}, result.Links)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), []byte("data"), types.SourceFormat("rtf"))
	assert.ErrorIs(t, err, types.ErrUnsupportedFormat)

	_, err = NewExtractor().ExtractFile(context.Background(), "resume.rtf", []byte("data"))
	assert.ErrorIs(t, err, types.ErrUnsupportedFormat)

	// 没有扩展名的文件名不按扩展名处理
	_, err = NewExtractor().ExtractFile(context.Background(), "txt", []byte(parsertest.SampleResumeText))
	assert.ErrorIs(t, err, types.ErrUnsupportedFormat)
}

func TestExtractFile_ByExtension(t *testing.T) {
	result, err := NewExtractor().ExtractFile(context.Background(), "Resume.TXT", []byte(parsertest.SampleResumeText))
	require.NoError(t, err)
	assert.Equal(t, types.FormatTXT, result.Format)
	assert.NoError(t, ValidateResumeText(result.Text, DefaultTextRules()))
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewExtractor().Extract(ctx, []byte("text"), types.FormatTXT)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEinoPDFExtractor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	engine, err := NewEinoPDFExtractor(ctx, WithEinoTimeout(5*time.Second))
	require.NoError(t, err, "创建Eino PDF提取器不应返回错误")
	assert.Equal(t, "eino", engine.Name())
	assert.Equal(t, 5*time.Second, engine.timeout)

	extractor := NewExtractor(WithPDFEngine(engine))
	result, err := extractor.Extract(ctx, parsertest.BuildPDF([]string{"John Doe resume"}, nil), types.FormatPDF)
	require.NoError(t, err)
	assert.Contains(t, Normalize(result.Text), "John Doe resume")
}
