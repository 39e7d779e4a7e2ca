package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-match-go/internal/types"
)

// Stage 会话所处阶段
type Stage string

const (
	StageFormIncomplete Stage = "form_incomplete"
	StageFormComplete   Stage = "form_complete"
	StageWaiting        Stage = "waiting_for_response"
	StageShowingResults Stage = "showing_results"
)

// ErrSessionNotFound 会话不存在或已过期
var ErrSessionNotFound = errors.New("session not found")

// Session 单个用户的表单状态，在各步骤间显式传递
type Session struct {
	ID        string                  `json:"id"`
	UserID    string                  `json:"user_id"`
	Stage     Stage                   `json:"stage"`
	Form      types.FormSubmission    `json:"form"`
	Resume    *types.ResumeData       `json:"resume,omitempty"`
	Response  *types.AnalysisResponse `json:"response,omitempty"`
	LastError string                  `json:"last_error,omitempty"`
	ErrorCode string                  `json:"error_code,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// NewSession 新会话从 form_incomplete 开始
func NewSession(userID string, now time.Time) *Session {
	id := uuid.NewString()
	if userID == "" {
		userID = id
	}
	return &Session{
		ID:        id,
		UserID:    userID,
		Stage:     StageFormIncomplete,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) setError(err error, now time.Time) {
	s.LastError = err.Error()
	s.ErrorCode = types.ErrorCode(err)
	s.UpdatedAt = now
}

func (s *Session) clearError() {
	s.LastError = ""
	s.ErrorCode = ""
}

// SessionStore 会话持久化
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// MemorySessionStore 未启用Redis时使用的进程内存储
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

var _ SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string][]byte)}
}

// Save 存序列化后的副本，调用方后续修改不影响已保存的数据
func (m *MemorySessionStore) Save(_ context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.sessions[s.ID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	data, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}
