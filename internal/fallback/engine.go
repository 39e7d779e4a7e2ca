// Package fallback 后端不可用时的本地规则分析
package fallback

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/types"
)

const (
	minJobs  = 8
	maxJobs  = 12
	minScore = 0.70
	maxScore = 0.95
	// 发布日期在最近30天内
	maxDaysAgo = 30

	shortResumeWords = 150
	longResumeWords  = 1200
)

var quantifiedPattern = regexp.MustCompile(`(?i)\d+(\.\d+)?\s*(%|percent\b|x\b|k\b|\+)|\$\s?\d`)

// Engine 确定性的本地分析：同一请求总是得到同一结果
type Engine struct {
	now    func() time.Time
	logger zerolog.Logger
}

// Option 引擎选项
type Option func(*Engine)

// WithClock 请求没有时间戳时使用的时钟
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

func NewEngine(options ...Option) *Engine {
	e := &Engine{
		now:    time.Now,
		logger: logger.Component("fallback"),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Analyze 生成与后端相同结构的结果
func (e *Engine) Analyze(ctx context.Context, req *types.AnalysisRequest) (*types.AnalysisResponse, error) {
	if req == nil || strings.TrimSpace(req.ResumeText) == "" {
		return nil, types.NewFieldError("resume_text", types.ErrMissingField, "本地分析需要简历文本")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seed := requestSeed(req)
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))
	profile := ExtractProfile(req.ResumeText)

	tmpl := softwareTemplate
	dataTrack := isDataTrack(req.JobPreferences)
	if dataTrack {
		tmpl = dataTemplate
	}

	resp := &types.AnalysisResponse{
		JobRecommendations: e.recommend(rng, tmpl, req, profile),
		ResumeTips:         resumeTips(req, profile),
		Source:             types.SourceFallback,
	}
	resp.SortByScore()

	e.logger.Info().
		Str("user_id", req.UserID).
		Bool("data_track", dataTrack).
		Int("recommendations", len(resp.JobRecommendations)).
		Int("tips", len(resp.ResumeTips)).
		Msg("本地分析完成")
	return resp, nil
}

func (e *Engine) recommend(rng *rand.Rand, tmpl jobTemplate, req *types.AnalysisRequest, profile Profile) []types.JobRecommendation {
	base := e.now()
	if ts, err := time.Parse(time.RFC3339, req.Timestamp); err == nil {
		base = ts
	}

	locations := req.JobPreferences.PreferredLocations
	if len(locations) == 0 {
		locations = defaultLocations
	}

	count := minJobs + rng.IntN(maxJobs-minJobs+1)
	jobs := make([]types.JobRecommendation, 0, count)
	for i := 0; i < count; i++ {
		jobID := fmt.Sprintf("JOB-%05d", 10000+rng.IntN(90000))
		company := pick(rng, tmpl.Companies)
		score := math.Round((minScore+rng.Float64()*(maxScore-minScore))*100) / 100
		daysAgo := 1 + rng.IntN(maxDaysAgo)
		location := pick(rng, locations)
		// 没填偏好地点时，第一条推荐放在简历里的所在地
		if i == 0 && len(req.JobPreferences.PreferredLocations) == 0 && profile.Location != NotFound {
			location = profile.Location
		}

		jobs = append(jobs, types.JobRecommendation{
			JobID:        jobID,
			Title:        pick(rng, tmpl.Titles),
			Company:      company,
			Location:     location,
			ApplyLink:    fmt.Sprintf("https://careers.%s.com/jobs/%s", companySlug(company), jobID),
			Score:        score,
			Description:  pick(rng, tmpl.Descriptions),
			SalaryRange:  pick(rng, tmpl.SalaryRanges),
			DatePosted:   base.AddDate(0, 0, -daysAgo).Format(time.DateOnly),
			Requirements: append([]string(nil), tmpl.Requirements[rng.IntN(len(tmpl.Requirements))]...),
			Benefits:     append([]string(nil), tmpl.Benefits[rng.IntN(len(tmpl.Benefits))]...),
		})
	}
	return jobs
}

// resumeTips 规则生成改进建议，顺序固定
func resumeTips(req *types.AnalysisRequest, profile Profile) []string {
	text := req.ResumeText
	lower := strings.ToLower(text)
	var tips []string

	if profile.Name == NotFound && strings.TrimSpace(req.PersonalDetails.FullName) == "" {
		tips = append(tips, "Put your full name at the top of the resume.")
	}
	if profile.Email == NotFound {
		tips = append(tips, "Add a professional email address to the contact section.")
	}
	if profile.Phone == NotFound {
		tips = append(tips, "Include a phone number so recruiters can reach you quickly.")
	}
	if len(req.ResumeLinks) == 0 && len(req.PersonalDetails.Links) == 0 {
		tips = append(tips, "Add links to your LinkedIn profile, GitHub, or portfolio.")
	}
	for _, section := range []string{"experience", "education", "skills"} {
		if !strings.Contains(lower, section) {
			tips = append(tips, fmt.Sprintf("Add a clearly labeled %s section.", titleCase(section)))
		}
	}
	if !quantifiedPattern.MatchString(text) {
		tips = append(tips, "Quantify your achievements with numbers, percentages, or scale (e.g. \"reduced latency by 30%\").")
	}

	var missing []string
	for _, skill := range req.JobPreferences.Skills {
		if s := strings.TrimSpace(skill); s != "" && !strings.Contains(lower, strings.ToLower(s)) {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		tips = append(tips, fmt.Sprintf("Mention your experience with %s explicitly; these skills are in your preferences but not in your resume.", strings.Join(missing, ", ")))
	}

	words := len(strings.Fields(text))
	switch {
	case words < shortResumeWords:
		tips = append(tips, "Expand your resume with more detail about your responsibilities and impact.")
	case words > longResumeWords:
		tips = append(tips, "Condense your resume to one or two pages focused on the most relevant experience.")
	}

	if positions := req.JobPreferences.TargetPositions; len(positions) > 0 {
		tips = append(tips, fmt.Sprintf("Tailor your summary to the %s role and mirror keywords from job postings.", positions[0]))
	}
	return tips
}

func isDataTrack(prefs types.JobPreferences) bool {
	joined := strings.ToLower(strings.Join(append(append([]string{}, prefs.TargetPositions...), prefs.Skills...), " "))
	tokens := strings.FieldsFunc(joined, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}

	for _, kw := range dataTrackKeywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(joined, kw) {
				return true
			}
			continue
		}
		if _, ok := tokenSet[kw]; ok {
			return true
		}
	}
	return false
}

// requestSeed 由简历文本和偏好计算随机种子
func requestSeed(req *types.AnalysisRequest) uint64 {
	h := fnv.New64a()
	write := func(parts ...string) {
		for _, p := range parts {
			_, _ = h.Write([]byte(p))
			_, _ = h.Write([]byte{0})
		}
	}
	write(req.ResumeText, req.UserID)
	write(req.JobPreferences.PreferredLocations...)
	write(req.JobPreferences.TargetPositions...)
	write(req.JobPreferences.Skills...)
	return h.Sum64()
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}

func companySlug(company string) string {
	return strings.ToLower(strings.ReplaceAll(company, " ", ""))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
