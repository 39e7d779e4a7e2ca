package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"resume-match-go/internal/config"
)

// ErrLockNotAcquired 锁已被占用
var ErrLockNotAcquired = errors.New("lock not acquired")

// Redis wraps the Redis client
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedis 创建连接，注册OpenTelemetry钩子并Ping
func NewRedis(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	})

	r, err := NewRedisWithClient(client, cfg)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}
	return r, nil
}

// NewRedisWithClient 包装已有客户端
func NewRedisWithClient(client *redis.Client, cfg *config.RedisConfig) (*Redis, error) {
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}
	if cfg == nil {
		cfg = &config.RedisConfig{}
	}
	return &Redis{Client: client, config: cfg}, nil
}

// SessionTTL 会话过期时间，未配置时为0
func (r *Redis) SessionTTL() time.Duration {
	return time.Duration(r.config.SessionTTLMinutes) * time.Minute
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// AcquireLock 获取锁，返回用于释放的值
func (r *Redis) AcquireLock(ctx context.Context, lockKey string, expiration time.Duration) (string, error) {
	value := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, lockKey, value, expiration).Result()
	if err != nil {
		return "", fmt.Errorf("获取锁 %s 失败: %w", lockKey, err)
	}
	if !ok {
		return "", ErrLockNotAcquired
	}
	return value, nil
}

// 只删除自己持有的锁
var releaseLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`)

// ReleaseLock 释放锁，锁已过期或被他人持有时返回false
func (r *Redis) ReleaseLock(ctx context.Context, lockKey, lockValue string) (bool, error) {
	n, err := releaseLockScript.Run(ctx, r.Client, []string{lockKey}, lockValue).Int()
	if err != nil {
		return false, fmt.Errorf("释放锁 %s 失败: %w", lockKey, err)
	}
	return n == 1, nil
}
