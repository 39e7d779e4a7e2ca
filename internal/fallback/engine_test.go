package fallback

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/types"
)

const sampleResume = "John Doe Software Engineer. Email: john@example.com Phone: (201) 952-9492. Austin, TX. " +
	"Experience: 5 years Python at Acme company, reduced costs by 30%. Education: BS. Skills: Python, Go."

func sampleRequest(positions, skills []string) *types.AnalysisRequest {
	form := types.FormSubmission{
		PersonalDetails: types.PersonalDetails{FullName: "John Doe", Email: "john@example.com"},
		JobPreferences: types.JobPreferences{
			PreferredLocations: []string{"Remote", "Austin, TX"},
			TargetPositions:    positions,
			Skills:             skills,
		},
	}
	resume := types.ResumeData{RawText: sampleResume, Format: types.FormatTXT}
	return types.NewAnalysisRequest(form, resume, "user-42", time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
}

func TestAnalyze_Shape(t *testing.T) {
	engine := NewEngine()
	resp, err := engine.Analyze(context.Background(), sampleRequest([]string{"Software Engineer"}, nil))
	require.NoError(t, err)

	assert.Equal(t, types.SourceFallback, resp.Source)
	assert.GreaterOrEqual(t, len(resp.JobRecommendations), minJobs)
	assert.LessOrEqual(t, len(resp.JobRecommendations), maxJobs)
	assert.NotNil(t, resp.ResumeTips)

	for i, job := range resp.JobRecommendations {
		assert.GreaterOrEqual(t, job.Score, minScore)
		assert.LessOrEqual(t, job.Score, maxScore)
		assert.Contains(t, []string{"Remote", "Austin, TX"}, job.Location, "地点应来自偏好")
		assert.True(t, strings.HasPrefix(job.ApplyLink, "https://careers."), job.ApplyLink)
		assert.True(t, strings.HasSuffix(job.ApplyLink, "/jobs/"+job.JobID), job.ApplyLink)
		assert.Contains(t, softwareTemplate.Titles, job.Title)
		posted, err := time.Parse(time.DateOnly, job.DatePosted)
		require.NoError(t, err)
		assert.True(t, posted.Before(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)))
		if i > 0 {
			assert.GreaterOrEqual(t, resp.JobRecommendations[i-1].Score, job.Score, "应按分数降序")
		}
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	engine := NewEngine()
	first, err := engine.Analyze(context.Background(), sampleRequest([]string{"Backend Developer"}, []string{"Go"}))
	require.NoError(t, err)
	second, err := engine.Analyze(context.Background(), sampleRequest([]string{"Backend Developer"}, []string{"Go"}))
	require.NoError(t, err)
	assert.Equal(t, first, second, "相同请求应得到相同结果")
}

func TestAnalyze_DataTrack(t *testing.T) {
	resp, err := NewEngine().Analyze(context.Background(), sampleRequest([]string{"Data Scientist"}, nil))
	require.NoError(t, err)
	for _, job := range resp.JobRecommendations {
		assert.Contains(t, dataTemplate.Titles, job.Title)
		assert.Contains(t, dataTemplate.Companies, job.Company)
	}
}

func TestIsDataTrack(t *testing.T) {
	tests := []struct {
		prefs types.JobPreferences
		want  bool
	}{
		{types.JobPreferences{TargetPositions: []string{"Machine Learning Engineer"}}, true},
		{types.JobPreferences{Skills: []string{"ML"}}, true},
		{types.JobPreferences{TargetPositions: []string{"AI Researcher"}}, true},
		{types.JobPreferences{TargetPositions: []string{"Frontend Developer"}, Skills: []string{"HTML", "Email marketing"}}, false},
		{types.JobPreferences{}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isDataTrack(tt.prefs), "%+v", tt.prefs)
	}
}

func TestAnalyze_MissingText(t *testing.T) {
	req := sampleRequest(nil, nil)
	req.ResumeText = " "
	_, err := NewEngine().Analyze(context.Background(), req)
	assert.ErrorIs(t, err, types.ErrMissingField)

	_, err = NewEngine().Analyze(context.Background(), nil)
	assert.ErrorIs(t, err, types.ErrMissingField)
}

func TestAnalyze_DefaultLocationsAndClock(t *testing.T) {
	req := sampleRequest([]string{"Software Engineer"}, nil)
	req.JobPreferences.PreferredLocations = []string{}
	req.Timestamp = ""
	fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	resp, err := NewEngine(WithClock(func() time.Time { return fixed })).Analyze(context.Background(), req)
	require.NoError(t, err)
	for _, job := range resp.JobRecommendations {
		assert.Contains(t, defaultLocations, job.Location)
		assert.True(t, strings.HasPrefix(job.DatePosted, "2025-05"), job.DatePosted)
	}
}

func TestAnalyze_ResumeLocationWithoutPreferences(t *testing.T) {
	req := sampleRequest([]string{"Software Engineer"}, nil)
	req.JobPreferences.PreferredLocations = []string{}
	req.ResumeText = strings.Replace(req.ResumeText, "Austin, TX", "Denver, CO", 1)

	resp, err := NewEngine().Analyze(context.Background(), req)
	require.NoError(t, err)

	var fromResume int
	for _, job := range resp.JobRecommendations {
		if job.Location == "Denver, CO" {
			fromResume++
			continue
		}
		assert.Contains(t, defaultLocations, job.Location)
	}
	assert.GreaterOrEqual(t, fromResume, 1, "应包含简历中的所在地")

	// 填了偏好地点时不使用简历所在地
	req.JobPreferences.PreferredLocations = []string{"Remote"}
	resp, err = NewEngine().Analyze(context.Background(), req)
	require.NoError(t, err)
	for _, job := range resp.JobRecommendations {
		assert.Equal(t, "Remote", job.Location)
	}
}

func TestResumeTips(t *testing.T) {
	req := sampleRequest([]string{"Software Engineer"}, []string{"Kubernetes", "Python"})
	tips := resumeTips(req, ExtractProfile(req.ResumeText))

	joined := strings.Join(tips, "\n")
	assert.Contains(t, joined, "Kubernetes", "简历中没有的偏好技能应被提示")
	assert.NotContains(t, joined, "Python explicitly")
	assert.Contains(t, joined, "LinkedIn", "没有链接时应提示添加")
	assert.NotContains(t, joined, "email address")
	assert.NotContains(t, joined, "Quantify", "已有量化数据时不提示")
	assert.Contains(t, joined, "Software Engineer role")

	bare := &types.AnalysisRequest{ResumeText: "just some words here"}
	bareTips := resumeTips(bare, ExtractProfile(bare.ResumeText))
	assert.Contains(t, strings.Join(bareTips, "\n"), "full name")
	assert.Contains(t, strings.Join(bareTips, "\n"), "Experience section")
	assert.Contains(t, strings.Join(bareTips, "\n"), "Quantify")
}
