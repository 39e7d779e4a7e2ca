package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"resume-match-go/internal/analysis"
	"resume-match-go/internal/constants"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/tracing"
)

// RedisSessionStore 会话保存在Redis，每次写入刷新过期时间
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ analysis.SessionStore = (*RedisSessionStore)(nil)

// NewRedisSessionStore ttl<=0 时使用默认值
func NewRedisSessionStore(r *Redis) *RedisSessionStore {
	ttl := r.SessionTTL()
	if ttl <= 0 {
		ttl = constants.DefaultSessionTTL
	}
	return &RedisSessionStore{client: r.Client, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf(constants.KeySession, id)
}

func (s *RedisSessionStore) Save(ctx context.Context, session *analysis.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("序列化会话失败: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("写入会话 %s 失败: %w", session.ID, err)
	}
	return nil
}

func (s *RedisSessionStore) Load(ctx context.Context, id string) (*analysis.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, analysis.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取会话 %s 失败: %w", id, err)
	}

	var session analysis.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("解析会话 %s 失败: %w", id, err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("删除会话 %s 失败: %w", id, err)
	}
	if n == 0 {
		return analysis.ErrSessionNotFound
	}
	return nil
}

// AnalyzeLocker 保证同一会话同时只有一次分析在进行
type AnalyzeLocker struct {
	redis  *Redis
	expiry time.Duration
}

var _ analysis.Locker = (*AnalyzeLocker)(nil)

// NewAnalyzeLocker expiry 应大于后端超时
func NewAnalyzeLocker(r *Redis, expiry time.Duration) *AnalyzeLocker {
	return &AnalyzeLocker{redis: r, expiry: expiry}
}

func (l *AnalyzeLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := fmt.Sprintf(constants.KeyAnalyzeLock, sessionID)
	value, err := l.redis.AcquireLock(ctx, key, l.expiry)
	if errors.Is(err, ErrLockNotAcquired) {
		return nil, analysis.ErrAnalysisInProgress
	}
	if err != nil {
		return nil, err
	}
	return func() {
		// 请求可能已取消，释放锁不跟随请求上下文
		released, err := l.redis.ReleaseLock(context.WithoutCancel(ctx), key, value)
		if err != nil || !released {
			log := logger.Component("storage")
			log.Warn().Err(err).
				Str("key", tracing.SafeRedisKey(key)).
				Msg("分析锁释放失败或已过期")
		}
	}, nil
}
