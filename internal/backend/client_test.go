package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/types"
)

const okBody = `{
  "job_recommendations": [
    {"title": "Backend Engineer", "company": "Acme", "apply_link": "https://acme.example/jobs/1", "score": 0.82, "description": "Go services"},
    {"title": "Python Developer", "company": "Initech", "apply_link": "https://initech.example/jobs/7", "score": 0.91, "description": null}
  ],
  "resume_tips": ["Quantify your achievements"]
}`

func sampleRequest() *types.AnalysisRequest {
	form := types.FormSubmission{
		PersonalDetails: types.PersonalDetails{FullName: "John Doe", Email: "john@example.com"},
		JobPreferences: types.JobPreferences{
			PreferredLocations: []string{"Remote"},
			TargetPositions:    []string{"Software Engineer"},
		},
	}
	resume := types.ResumeData{RawText: "John Doe, Software Engineer, 5 years Python", Format: types.FormatPDF}
	return types.NewAnalysisRequest(form, resume, "user-1", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func TestSubmit_OK(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, WithTimeout(2*time.Second))
	resp, err := client.Submit(context.Background(), sampleRequest())
	require.NoError(t, err, "正常响应不应返回错误")

	require.Len(t, resp.JobRecommendations, 2)
	assert.Equal(t, "Backend Engineer", resp.JobRecommendations[0].Title)
	for _, rec := range resp.JobRecommendations {
		assert.GreaterOrEqual(t, rec.Score, 0.0)
		assert.LessOrEqual(t, rec.Score, 1.0)
	}
	assert.Equal(t, []string{"Quantify your achievements"}, resp.ResumeTips)
	assert.Equal(t, types.SourceBackend, resp.Source)

	for _, key := range []string{"personal_details", "job_preferences", "resume_text", "resume_links"} {
		assert.Contains(t, received, key, "请求体应包含 %s", key)
	}
	assert.Equal(t, []any{}, received["resume_links"], "resume_links 为空时应是 []")
}

func TestSubmit_EmptyResumeTextShortCircuits(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	req := sampleRequest()
	req.ResumeText = "   "
	_, err := NewClient(server.URL).Submit(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrMissingField)

	var fieldErr *types.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "resume_text", fieldErr.Field)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "缺少简历文本时不应发起请求")

	_, err = NewClient(server.URL).Submit(context.Background(), nil)
	assert.ErrorIs(t, err, types.ErrMissingField)
}

func TestSubmit_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, WithTimeout(50*time.Millisecond))
	_, err := client.Submit(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrBackendUnavailable, "超时应视为后端不可用")
}

func TestSubmit_UnreachableAndStatusErrors(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := NewClient(url, WithTimeout(time.Second)).Submit(context.Background(), sampleRequest())
		assert.ErrorIs(t, err, types.ErrBackendUnavailable)
	})

	t.Run("no url configured", func(t *testing.T) {
		_, err := NewClient("").Submit(context.Background(), sampleRequest())
		assert.ErrorIs(t, err, types.ErrBackendUnavailable)
	})

	for _, status := range []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusNotFound, http.StatusTooManyRequests} {
		status := status
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				_, _ = w.Write([]byte("workflow error"))
			}))
			defer server.Close()

			_, err := NewClient(server.URL).Submit(context.Background(), sampleRequest())
			assert.ErrorIs(t, err, types.ErrBackendUnavailable)
			assert.NotErrorIs(t, err, types.ErrInvalidResponseShape)
		})
	}
}

func TestSubmit_InvalidResponseShape(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"empty body", ``},
		{"missing job_recommendations", `{"resume_tips": ["a"]}`},
		{"missing resume_tips", `{"job_recommendations": []}`},
		{"recommendation missing apply_link", `{"job_recommendations": [{"title": "X", "score": 0.5}], "resume_tips": []}`},
		{"score out of range", `{"job_recommendations": [{"title": "X", "apply_link": "https://x", "score": 87}], "resume_tips": []}`},
		{"score as string", `{"job_recommendations": [{"title": "X", "apply_link": "https://x", "score": "0.8"}], "resume_tips": []}`},
		{"tips not strings", `{"job_recommendations": [], "resume_tips": [1, 2]}`},
		{"multi element envelope", `[{"job_recommendations": [], "resume_tips": []}, {}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			resp, err := NewClient(server.URL).Submit(context.Background(), sampleRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrInvalidResponseShape)
			assert.Nil(t, resp, "不应返回部分数据")
		})
	}
}

func TestDecodeResponse_Envelope(t *testing.T) {
	resp, err := DecodeResponse([]byte("[" + okBody + "]"))
	require.NoError(t, err, "单元素数组包装应被拆开")
	assert.Len(t, resp.JobRecommendations, 2)
}

func TestDecodeResponse_EmptyListsAccepted(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"job_recommendations": [], "resume_tips": []}`))
	require.NoError(t, err)
	assert.NotNil(t, resp.JobRecommendations)
	assert.NotNil(t, resp.ResumeTips)
}

func TestPing(t *testing.T) {
	tests := []struct {
		status int
		ok     bool
	}{
		{http.StatusOK, true},
		{http.StatusMethodNotAllowed, true},
		{http.StatusNotFound, false},
		{http.StatusServiceUnavailable, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			err := NewClient(server.URL).Ping(context.Background())
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, types.ErrBackendUnavailable)
			}
		})
	}
}

func TestNewClientOptions(t *testing.T) {
	custom := &http.Client{}
	c := NewClient(" http://backend.local/webhook ", WithTimeout(45*time.Second), WithHTTPClient(custom), WithUserAgent("test-agent"))
	assert.Equal(t, "http://backend.local/webhook", c.URL)
	assert.Equal(t, 45*time.Second, c.Timeout())
	assert.Same(t, custom, c.HTTPClient)
	assert.Equal(t, "test-agent", c.userAgent)

	d := NewClient("http://x", WithTimeout(0))
	assert.Equal(t, DefaultTimeout, d.Timeout(), "非正数超时应保留默认值")
}
