package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourceFormat(t *testing.T) {
	tests := []struct {
		in   string
		want SourceFormat
		ok   bool
	}{
		{"resume.pdf", FormatPDF, true},
		{"Resume.PDF", FormatPDF, true},
		{"cv.final.docx", FormatDOCX, true},
		{".txt", FormatTXT, true},
		{"setup.exe", SourceFormat("exe"), false},
		{"noext", "", false},
		{"pdf", "", false},
		{"DOCX", "", false},
		{"resume.", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseSourceFormat(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestAnalysisRequestWireKeys(t *testing.T) {
	form := FormSubmission{
		PersonalDetails: PersonalDetails{FullName: "John Doe", Email: "john@example.com"},
		JobPreferences: JobPreferences{
			PreferredLocations: []string{"Austin, TX"},
			TargetPositions:    []string{"Software Engineer"},
		},
	}
	req := NewAnalysisRequest(form, ResumeData{RawText: "John Doe", Format: FormatPDF}, "session-1",
		time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"personal_details", "job_preferences", "resume_text", "resume_links"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, []any{}, raw["resume_links"])
	assert.Equal(t, "2024-05-01T10:00:00Z", raw["timestamp"])

	prefs := raw["job_preferences"].(map[string]any)
	assert.Equal(t, []any{}, prefs["skills"])
}

func TestSortByScoreIsStableDescending(t *testing.T) {
	resp := &AnalysisResponse{JobRecommendations: []JobRecommendation{
		{Title: "a", Score: 0.5},
		{Title: "b", Score: 0.9},
		{Title: "c", Score: 0.5},
		{Title: "d", Score: 0.7},
	}}
	resp.SortByScore()

	var titles []string
	for _, r := range resp.JobRecommendations {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, titles)
}

func TestJobLevelValid(t *testing.T) {
	assert.True(t, JobLevel("").Valid())
	assert.True(t, JobLevelMid.Valid())
	assert.False(t, JobLevel("Principal").Valid())
}

func TestErrorCodes(t *testing.T) {
	fieldErr := NewFieldError("email", ErrInvalidFormat, "bad")
	assert.True(t, errors.Is(fieldErr, ErrInvalidFormat))
	assert.Equal(t, "InvalidFormat", ErrorCode(fieldErr))

	wrapped := fmt.Errorf("提交失败: %w", NewAnalysisError("s1", "submit", ErrInvalidResponseShape, "missing job_recommendations"))
	assert.True(t, errors.Is(wrapped, ErrInvalidResponseShape))
	assert.Equal(t, "InvalidResponseShape", ErrorCode(wrapped))

	var ae *AnalysisError
	require.True(t, errors.As(wrapped, &ae))
	assert.Equal(t, "submit", ae.Op)

	joined := errors.Join(ErrAnalysisUnavailable, ErrBackendUnavailable)
	assert.Equal(t, "AnalysisUnavailable", ErrorCode(joined))
	assert.Equal(t, "Internal", ErrorCode(errors.New("boom")))
	assert.Equal(t, "", ErrorCode(nil))
}
