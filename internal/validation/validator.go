package validation

import (
	"fmt"
	"regexp"
	"strings"

	"resume-match-go/internal/types"
)

// 表单字段名，与请求JSON字段一致
const (
	FieldFullName           = "full_name"
	FieldEmail              = "email"
	FieldPhone              = "phone"
	FieldPreferredLocations = "preferred_locations"
	FieldTargetPositions    = "target_positions"
	FieldJobTypes           = "job_types"
	FieldJobLevel           = "job_level"
	FieldSkills             = "skills"
	FieldResumeText         = "resume_text"
	FieldResumeFile         = "resume_file"
)

// Policy 多选字段超出上限时的处理方式
type Policy string

const (
	// PolicyTruncate 静默保留前K项，不产生错误
	PolicyTruncate Policy = "truncate"
	// PolicyReject 返回 TooManyValues
	PolicyReject Policy = "reject"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nonDigit     = regexp.MustCompile(`\D`)
)

// Config 校验器配置
type Config struct {
	MaxLocations  int
	MaxPositions  int
	MaxSkills     int
	MaxJobTypes   int
	Policy        Policy
	MaxFileSize   int64
	FilterUnknown bool // 静默丢弃不像地点/职位/技能的项，默认关闭
}

// DefaultConfig 默认上限: 地点6、职位5、技能10、文件10MB
func DefaultConfig() Config {
	return Config{
		MaxLocations:  6,
		MaxPositions:  5,
		MaxSkills:     10,
		MaxJobTypes:   len(StandardJobTypes),
		Policy:        PolicyTruncate,
		MaxFileSize:   10 * 1024 * 1024,
		FilterUnknown: false,
	}
}

// Validator 表单校验器，无状态，可并发使用
type Validator struct {
	cfg Config
}

// NewValidator 创建校验器，未设置的上限使用默认值
func NewValidator(cfg Config) *Validator {
	def := DefaultConfig()
	if cfg.MaxLocations <= 0 {
		cfg.MaxLocations = def.MaxLocations
	}
	if cfg.MaxPositions <= 0 {
		cfg.MaxPositions = def.MaxPositions
	}
	if cfg.MaxSkills <= 0 {
		cfg.MaxSkills = def.MaxSkills
	}
	if cfg.MaxJobTypes <= 0 {
		cfg.MaxJobTypes = def.MaxJobTypes
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = def.MaxFileSize
	}
	if cfg.Policy != PolicyReject {
		cfg.Policy = PolicyTruncate
	}
	return &Validator{cfg: cfg}
}

// Config 返回生效的配置
func (v *Validator) Config() Config {
	return v.cfg
}

// Catalog 返回标准选项和当前上限
func (v *Validator) Catalog() Catalog {
	exts := make([]string, 0, len(types.SupportedFormats))
	for _, f := range types.SupportedFormats {
		exts = append(exts, string(f))
	}
	levels := make([]string, 0, len(types.JobLevels))
	for _, l := range types.JobLevels {
		levels = append(levels, string(l))
	}
	return Catalog{
		Locations: StandardLocations,
		Positions: StandardPositions,
		JobTypes:  StandardJobTypes,
		JobLevels: levels,
		Skills:    StandardSkills,
		Limits: Limits{
			MaxLocations:   v.cfg.MaxLocations,
			MaxPositions:   v.cfg.MaxPositions,
			MaxSkills:      v.cfg.MaxSkills,
			MaxJobTypes:    v.cfg.MaxJobTypes,
			MaxFileSize:    v.cfg.MaxFileSize,
			Extensions:     exts,
			OverflowPolicy: v.cfg.Policy,
		},
	}
}

// Result 校验结果
type Result struct {
	OK     bool                `json:"ok"`
	Errors []string            `json:"errors"`
	Issues []*types.FieldError `json:"-"`
	// Form 清洗、过滤、截断之后的表单
	Form types.FormSubmission `json:"form"`
	// Truncated 被静默截断的字段及截断前的数量
	Truncated map[string]int `json:"truncated,omitempty"`
}

// Err 把所有问题合并为一个错误，OK 时返回 nil
func (r *Result) Err() error {
	if r.OK {
		return nil
	}
	return &ValidationError{Issues: r.Issues}
}

// HasKind 是否包含某一类错误
func (r *Result) HasKind(kind error) bool {
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			return true
		}
	}
	return false
}

func (r *Result) add(issue *types.FieldError) {
	r.Issues = append(r.Issues, issue)
	r.Errors = append(r.Errors, issue.Error())
}

// ValidationError 多个字段错误的集合
type ValidationError struct {
	Issues []*types.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		msgs = append(msgs, issue.Error())
	}
	return "表单校验失败: " + strings.Join(msgs, "; ")
}

// Unwrap 让 errors.Is 能匹配到任一字段错误的类别
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Issues))
	for _, issue := range e.Issues {
		errs = append(errs, issue)
	}
	return errs
}

// Validate 校验整张表单，列出所有问题而不是只报第一个
func (v *Validator) Validate(form types.FormSubmission) *Result {
	res := &Result{Form: v.sanitize(form), Truncated: map[string]int{}}
	f := &res.Form

	// 必填项
	if strings.TrimSpace(f.PersonalDetails.FullName) == "" {
		res.add(types.NewFieldError(FieldFullName, types.ErrMissingField, ""))
	}
	if len(f.JobPreferences.PreferredLocations) == 0 {
		res.add(types.NewFieldError(FieldPreferredLocations, types.ErrMissingField, ""))
	}
	if len(f.JobPreferences.TargetPositions) == 0 {
		res.add(types.NewFieldError(FieldTargetPositions, types.ErrMissingField, ""))
	}
	if strings.TrimSpace(f.ResumeText) == "" && f.ResumeFile == nil {
		res.add(types.NewFieldError(FieldResumeText, types.ErrMissingField, "请上传简历文件或填写简历文本"))
	}

	// 数量上限
	f.JobPreferences.PreferredLocations = v.enforceMax(res, FieldPreferredLocations, f.JobPreferences.PreferredLocations, v.cfg.MaxLocations)
	f.JobPreferences.TargetPositions = v.enforceMax(res, FieldTargetPositions, f.JobPreferences.TargetPositions, v.cfg.MaxPositions)
	f.JobPreferences.JobTypes = v.enforceMax(res, FieldJobTypes, f.JobPreferences.JobTypes, v.cfg.MaxJobTypes)
	f.JobPreferences.Skills = v.enforceMax(res, FieldSkills, f.JobPreferences.Skills, v.cfg.MaxSkills)

	// 格式
	if err := ValidateEmail(f.PersonalDetails.Email); err != nil {
		res.add(err)
	}
	if err := ValidatePhone(f.PersonalDetails.Phone); err != nil {
		res.add(err)
	}
	if !f.JobPreferences.JobLevel.Valid() {
		res.add(types.NewFieldError(FieldJobLevel, types.ErrInvalidFormat,
			fmt.Sprintf("未知级别 %q", f.JobPreferences.JobLevel)))
	}

	// 文件
	if f.ResumeFile != nil {
		if err := v.ValidateFile(f.ResumeFile.Filename, f.ResumeFile.Size); err != nil {
			res.add(err)
		}
	}

	if len(res.Truncated) == 0 {
		res.Truncated = nil
	}
	res.OK = len(res.Issues) == 0
	if res.Errors == nil {
		res.Errors = []string{}
	}
	return res
}

// sanitize 复制表单并清理多选字段
func (v *Validator) sanitize(form types.FormSubmission) types.FormSubmission {
	out := form
	out.PersonalDetails.FullName = strings.TrimSpace(form.PersonalDetails.FullName)
	out.PersonalDetails.Email = strings.TrimSpace(form.PersonalDetails.Email)
	out.PersonalDetails.Phone = strings.TrimSpace(form.PersonalDetails.Phone)
	out.PersonalDetails.Links = cleanEntries(form.PersonalDetails.Links)

	prefs := form.JobPreferences
	prefs.PreferredLocations = cleanEntries(prefs.PreferredLocations)
	prefs.TargetPositions = cleanEntries(prefs.TargetPositions)
	prefs.JobTypes = cleanEntries(prefs.JobTypes)
	prefs.Skills = cleanEntries(prefs.Skills)
	prefs.JobLevel = types.JobLevel(strings.TrimSpace(string(prefs.JobLevel)))
	if v.cfg.FilterUnknown {
		prefs.PreferredLocations = filterEntries(prefs.PreferredLocations, ValidLocation)
		prefs.TargetPositions = filterEntries(prefs.TargetPositions, ValidPosition)
		prefs.Skills = filterEntries(prefs.Skills, ValidSkill)
	}
	out.JobPreferences = prefs

	if form.ResumeFile != nil {
		file := *form.ResumeFile
		out.ResumeFile = &file
	}
	return out
}

// enforceMax 按策略处理超限的多选字段
func (v *Validator) enforceMax(res *Result, field string, values []string, max int) []string {
	kept, over := EnforceMaxCount(values, max)
	if !over {
		return values
	}
	if v.cfg.Policy == PolicyReject {
		res.add(types.NewFieldError(field, types.ErrTooManyValues,
			fmt.Sprintf("最多%d项, 实际%d项", max, len(values))))
		return values
	}
	res.Truncated[field] = len(values)
	return kept
}

// EnforceMaxCount 保留前max项，返回是否超限
func EnforceMaxCount(values []string, max int) ([]string, bool) {
	if max <= 0 || len(values) <= max {
		return values, false
	}
	kept := make([]string, max)
	copy(kept, values[:max])
	return kept, true
}

// ValidateFile 校验扩展名和大小；扩展名不支持时不再检查大小
func (v *Validator) ValidateFile(filename string, size int64) *types.FieldError {
	format, ok := types.ParseSourceFormat(filename)
	if !ok {
		return types.NewFieldError(FieldResumeFile, types.ErrUnsupportedFormat,
			fmt.Sprintf("不支持的文件类型 %q, 仅支持 pdf, docx, txt", string(format)))
	}
	if size == 0 {
		return types.NewFieldError(FieldResumeFile, types.ErrEmptyFile, filename)
	}
	if size > v.cfg.MaxFileSize {
		return types.NewFieldError(FieldResumeFile, types.ErrFileTooLarge,
			fmt.Sprintf("%.1fMB 超过上限 %.1fMB", float64(size)/1024/1024, float64(v.cfg.MaxFileSize)/1024/1024))
	}
	return nil
}

// ValidateEmail 宽松的邮箱格式检查，空值视为未填写
func ValidateEmail(email string) *types.FieldError {
	if email == "" {
		return nil
	}
	if !emailPattern.MatchString(email) {
		return types.NewFieldError(FieldEmail, types.ErrInvalidFormat, "邮箱格式不正确")
	}
	return nil
}

// ValidatePhone 去掉非数字后应为10-15位，空值视为未填写
func ValidatePhone(phone string) *types.FieldError {
	if phone == "" {
		return nil
	}
	digits := nonDigit.ReplaceAllString(phone, "")
	if len(digits) < 10 || len(digits) > 15 {
		return types.NewFieldError(FieldPhone, types.ErrInvalidFormat, "电话号码应为10-15位数字")
	}
	return nil
}
