package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"resume-match-go/internal/types"
)

// responseSchema 后端返回结构的约定，每条推荐必须有 title、apply_link、score
const responseSchema = `{
  "type": "object",
  "required": ["job_recommendations", "resume_tips"],
  "properties": {
    "job_recommendations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "apply_link", "score"],
        "properties": {
          "job_id":       {"type": ["string", "null"]},
          "title":        {"type": "string"},
          "company":      {"type": ["string", "null"]},
          "location":     {"type": ["string", "null"]},
          "apply_link":   {"type": "string"},
          "score":        {"type": "number", "minimum": 0, "maximum": 1},
          "description":  {"type": ["string", "null"]},
          "salary_range": {"type": ["string", "null"]},
          "date_posted":  {"type": ["string", "null"]},
          "requirements": {"type": ["array", "null"], "items": {"type": "string"}},
          "benefits":     {"type": ["array", "null"], "items": {"type": "string"}}
        }
      }
    },
    "resume_tips": {
      "type": "array",
      "items": {"type": "string"}
    }
  }
}`

var compiledSchema = mustCompileSchema(responseSchema)

func mustCompileSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("backend: 响应schema无效: %v", err))
	}
	return schema
}

// DecodeResponse 解析并校验后端返回体
// 单元素数组形式的包装 [{...}] 会先被拆开
func DecodeResponse(body []byte) (*types.AnalysisResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: 响应体为空", types.ErrInvalidResponseShape)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: 响应不是合法JSON: %v", types.ErrInvalidResponseShape, err)
	}

	if arr, ok := doc.([]any); ok {
		if len(arr) != 1 {
			return nil, fmt.Errorf("%w: 期望对象，收到长度为%d的数组", types.ErrInvalidResponseShape, len(arr))
		}
		doc = arr[0]
	}

	result, err := compiledSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidResponseShape, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidResponseShape, strings.Join(errs, "; "))
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidResponseShape, err)
	}
	var resp types.AnalysisResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidResponseShape, err)
	}
	resp.Normalize()
	return &resp, nil
}
