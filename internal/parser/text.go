package parser

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"resume-match-go/internal/types"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText 按 UTF-8 解码，非法时按 Windows-1252 解码，不会失败
func DecodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err == nil {
		return string(decoded)
	}
	return strings.ToValidUTF8(string(data), "�")
}

// Normalize 去掉控制字符，连续空白合并为一个空格，去掉首尾空白
// 对结果再次调用结果不变
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			// 丢弃，不打断空白序列
		default:
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// 简历常见关键词
var resumeKeywords = []string{"experience", "education", "skills", "work", "job", "position", "company"}

// TextRules 简历文本充分性规则
type TextRules struct {
	MinChars       int
	MaxChars       int
	MinKeywordHits int
}

// DefaultTextRules 最少20字符，最多50000字符，不检查关键词
func DefaultTextRules() TextRules {
	return TextRules{MinChars: 20, MaxChars: 50000}
}

// StrictTextRules 最少50字符且至少命中2个常见简历关键词
// 对应配置 extractor.strict_text=true
func StrictTextRules() TextRules {
	return TextRules{MinChars: 50, MaxChars: 50000, MinKeywordHits: 2}
}

// ValidateResumeText 检查规范化后的文本是否像一份简历
func ValidateResumeText(text string, rules TextRules) error {
	normalized := Normalize(text)
	n := utf8.RuneCountInString(normalized)
	if n == 0 {
		return fmt.Errorf("%w: 简历文本为空", types.ErrInsufficientContent)
	}
	if rules.MinChars > 0 && n < rules.MinChars {
		return fmt.Errorf("%w: 简历文本过短(%d字符, 至少%d)", types.ErrInsufficientContent, n, rules.MinChars)
	}
	if rules.MaxChars > 0 && n > rules.MaxChars {
		return fmt.Errorf("%w: 简历文本过长(%d字符, 最多%d)", types.ErrInsufficientContent, n, rules.MaxChars)
	}
	if rules.MinKeywordHits > 0 {
		lower := strings.ToLower(normalized)
		hits := 0
		for _, kw := range resumeKeywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits < rules.MinKeywordHits {
			return fmt.Errorf("%w: 缺少常见简历关键词(命中%d个, 至少%d)", types.ErrInsufficientContent, hits, rules.MinKeywordHits)
		}
	}
	return nil
}
