package types

import "time"

// AnalysisCompletedEvent 分析完成后发布到消息队列的事件
type AnalysisCompletedEvent struct {
	SessionID       string         `json:"session_id"`
	UserID          string         `json:"user_id"`
	Source          ResponseSource `json:"source"`
	Recommendations int            `json:"recommendations"`
	TopScore        float64        `json:"top_score"`
	ResumeRecordID  string         `json:"resume_record_id,omitempty"`
	ShareableRef    string         `json:"shareable_ref,omitempty"`
	CompletedAt     time.Time      `json:"completed_at"`
}
