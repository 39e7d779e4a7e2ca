package types

import (
	"sort"
	"strings"
	"time"
)

// SourceFormat 简历文件格式
type SourceFormat string

const (
	FormatPDF  SourceFormat = "pdf"
	FormatDOCX SourceFormat = "docx"
	FormatTXT  SourceFormat = "txt"
)

// SupportedFormats 支持上传的文件格式
var SupportedFormats = []SourceFormat{FormatPDF, FormatDOCX, FormatTXT}

// ParseSourceFormat 根据文件名的扩展名判断格式，大小写不敏感
// 没有扩展名的文件名(包括 "pdf" 这种)一律不支持
func ParseSourceFormat(filename string) (SourceFormat, bool) {
	name := strings.ToLower(strings.TrimSpace(filename))
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return "", false
	}
	ext := name[i+1:]
	for _, f := range SupportedFormats {
		if string(f) == ext {
			return f, true
		}
	}
	return SourceFormat(ext), false
}

// JobLevel 求职级别
type JobLevel string

const (
	JobLevelEntry  JobLevel = "Entry Level"
	JobLevelMid    JobLevel = "Mid Level"
	JobLevelSenior JobLevel = "Senior Level"
)

// JobLevels 可选级别，空字符串表示不限
var JobLevels = []JobLevel{JobLevelEntry, JobLevelMid, JobLevelSenior}

// Valid 空值视为合法
func (l JobLevel) Valid() bool {
	if l == "" {
		return true
	}
	for _, v := range JobLevels {
		if v == l {
			return true
		}
	}
	return false
}

// PersonalDetails 个人信息
type PersonalDetails struct {
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Links    []string `json:"links,omitempty"`
}

// JobPreferences 求职偏好，多选字段都有数量上限
type JobPreferences struct {
	PreferredLocations []string `json:"preferred_locations"`
	TargetPositions    []string `json:"target_positions"`
	JobTypes           []string `json:"job_types"`
	JobLevel           JobLevel `json:"job_level"`
	Skills             []string `json:"skills"`
}

// ResumeData 提取后的简历内容
type ResumeData struct {
	RawText string       `json:"raw_text"`
	Format  SourceFormat `json:"format"`
	Links   []string     `json:"links"`
	// 以下为附加信息，不发送给后端
	Filename     string `json:"filename,omitempty"`
	PageCount    int    `json:"page_count,omitempty"`
	ShareableRef string `json:"shareable_ref,omitempty"`
	ObjectKey    string `json:"object_key,omitempty"`
	RecordID     string `json:"record_id,omitempty"`
}

// StoredObject 已上传到对象存储的原始文件
type StoredObject struct {
	Key string // 删除时使用
	URL string // 预签名下载链接
}

// Valid 去除首尾空白后非空
func (r *ResumeData) Valid() bool {
	return r != nil && strings.TrimSpace(r.RawText) != ""
}

// ResumeFile 表单中附带的简历文件元信息
type ResumeFile struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// FormSubmission 用户提交的表单
type FormSubmission struct {
	PersonalDetails PersonalDetails `json:"personal_details"`
	JobPreferences  JobPreferences  `json:"job_preferences"`
	ResumeText      string          `json:"resume_text,omitempty"`
	ResumeFile      *ResumeFile     `json:"resume_file,omitempty"`
}

// AnalysisRequest 发送给外部分析服务的请求
type AnalysisRequest struct {
	PersonalDetails PersonalDetails `json:"personal_details"`
	JobPreferences  JobPreferences  `json:"job_preferences"`
	ResumeText      string          `json:"resume_text"`
	ResumeLinks     []string        `json:"resume_links"`
	Timestamp       string          `json:"timestamp"`
	UserID          string          `json:"user_id"`
}

// NewAnalysisRequest 组装请求，nil切片统一转为空切片以保证JSON中是 []
func NewAnalysisRequest(form FormSubmission, resume ResumeData, userID string, now time.Time) *AnalysisRequest {
	prefs := form.JobPreferences
	prefs.PreferredLocations = nonNil(prefs.PreferredLocations)
	prefs.TargetPositions = nonNil(prefs.TargetPositions)
	prefs.JobTypes = nonNil(prefs.JobTypes)
	prefs.Skills = nonNil(prefs.Skills)

	return &AnalysisRequest{
		PersonalDetails: form.PersonalDetails,
		JobPreferences:  prefs,
		ResumeText:      resume.RawText,
		ResumeLinks:     nonNil(resume.Links),
		Timestamp:       now.UTC().Format(time.RFC3339),
		UserID:          userID,
	}
}

// ResponseSource 结果来源
type ResponseSource string

const (
	SourceBackend  ResponseSource = "backend"
	SourceFallback ResponseSource = "fallback"
)

// JobRecommendation 岗位推荐
type JobRecommendation struct {
	JobID        string   `json:"job_id,omitempty"`
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location,omitempty"`
	ApplyLink    string   `json:"apply_link"`
	Score        float64  `json:"score"` // [0,1]
	Description  string   `json:"description"`
	SalaryRange  string   `json:"salary_range,omitempty"`
	DatePosted   string   `json:"date_posted,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
	Benefits     []string `json:"benefits,omitempty"`
}

// AnalysisResponse 分析结果，后端和本地兜底返回同一结构
type AnalysisResponse struct {
	JobRecommendations []JobRecommendation `json:"job_recommendations"`
	ResumeTips         []string            `json:"resume_tips"`
	Source             ResponseSource      `json:"source,omitempty"`
}

// Normalize 保证两个列表不为nil
func (r *AnalysisResponse) Normalize() {
	if r.JobRecommendations == nil {
		r.JobRecommendations = []JobRecommendation{}
	}
	if r.ResumeTips == nil {
		r.ResumeTips = []string{}
	}
}

// SortByScore 按匹配分数降序，分数相同保持原顺序
func (r *AnalysisResponse) SortByScore() {
	sort.SliceStable(r.JobRecommendations, func(i, j int) bool {
		return r.JobRecommendations[i].Score > r.JobRecommendations[j].Score
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
