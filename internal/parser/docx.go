package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	wordNamespace   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	docxMainPart    = "word/document.xml"
	docxRelsPart    = "word/_rels/document.xml.rels"
	hyperlinkRelEnd = "/hyperlink"
	// 单个XML部件的解压上限，防止压缩炸弹
	maxDocxPartSize = 32 << 20
)

// DOCXContent 段落文本与外部超链接
type DOCXContent struct {
	Paragraphs []string
	Links      []string
}

// ExtractDOCX 按文档顺序读取 w:p 段落
func ExtractDOCX(data []byte) (*DOCXContent, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("不是有效的DOCX压缩包: %w", err)
	}

	var mainPart, relsPart *zip.File
	for _, f := range zr.File {
		switch f.Name {
		case docxMainPart:
			mainPart = f
		case docxRelsPart:
			relsPart = f
		}
	}
	if mainPart == nil {
		return nil, errors.New("缺少 word/document.xml")
	}

	body, err := readZipPart(mainPart)
	if err != nil {
		return nil, err
	}
	paragraphs, err := parseParagraphs(body)
	if err != nil {
		return nil, fmt.Errorf("解析 document.xml 失败: %w", err)
	}

	content := &DOCXContent{Paragraphs: paragraphs}
	if relsPart != nil {
		rels, err := readZipPart(relsPart)
		if err == nil {
			content.Links = parseHyperlinkTargets(rels)
		}
	}
	return content, nil
}

func readZipPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("打开 %s 失败: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxDocxPartSize+1))
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", f.Name, err)
	}
	if len(data) > maxDocxPartSize {
		return nil, fmt.Errorf("%s 超过大小限制", f.Name)
	}
	return data, nil
}

func parseParagraphs(body []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var (
		paragraphs []string
		current    strings.Builder
		depth      int // 嵌套段落(文本框)按外层段落合并
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					current.Reset()
				}
				depth++
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if depth > 0 {
					depth--
				}
				if depth == 0 {
					paragraphs = append(paragraphs, current.String())
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}

type docxRelationships struct {
	Relationships []struct {
		Type       string `xml:"Type,attr"`
		Target     string `xml:"Target,attr"`
		TargetMode string `xml:"TargetMode,attr"`
	} `xml:"Relationship"`
}

func parseHyperlinkTargets(rels []byte) []string {
	var parsed docxRelationships
	if err := xml.Unmarshal(rels, &parsed); err != nil {
		return nil
	}
	var links []string
	for _, r := range parsed.Relationships {
		if strings.HasSuffix(r.Type, hyperlinkRelEnd) && strings.EqualFold(r.TargetMode, "External") && r.Target != "" {
			links = append(links, r.Target)
		}
	}
	return links
}
