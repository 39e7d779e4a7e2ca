package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResumeObjectKey(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 30, 15, 0, time.UTC)
	tests := []struct {
		filename string
		want     string
	}{
		{"John Doe.pdf", "resumes/John_Doe_20260504_103015.pdf"},
		{"resume.DOCX", "resumes/resume_20260504_103015.docx"},
		{"../../etc/passwd.txt", "resumes/passwd_20260504_103015.txt"},
		{`C:\Users\me\cv (final).pdf`, "resumes/cv_final_20260504_103015.pdf"},
		{"简历.pdf", "resumes/resume_20260504_103015.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, ResumeObjectKey(tt.filename, now))
		})
	}
}

func TestShareLinkExpiry(t *testing.T) {
	assert.Equal(t, 24*time.Hour, shareLinkExpiry(24))
	assert.Equal(t, 7*24*time.Hour, shareLinkExpiry(0), "未配置时7天")
	assert.Equal(t, 7*24*time.Hour, shareLinkExpiry(24*30), "超过上限时截断")
}

func TestGetContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", getContentType(".PDF"))
	assert.Equal(t, "text/plain; charset=utf-8", getContentType(".txt"))
	assert.Equal(t, "application/octet-stream", getContentType(".exe"))
}
