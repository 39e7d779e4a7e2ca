package storage

import (
	"context"
	"fmt"
	"strings"

	"resume-match-go/internal/config"
	"resume-match-go/internal/logger"
)

// Storage 聚合可选的外部存储，未启用的组件为nil
type Storage struct {
	// 对象存储
	MinIO *MinIO

	// 消息队列
	RabbitMQ *RabbitMQ

	// 关系型数据库
	MySQL *MySQL

	// 键值存储
	Redis *Redis
}

// NewStorage 按配置初始化启用的组件
// 单个组件失败只记录警告，服务以降级方式运行
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	log := logger.Component("storage")

	s := &Storage{}
	var err error
	var initErrors []string

	if cfg.MinIO.Enabled {
		if s.MinIO, err = NewMinIO(ctx, &cfg.MinIO); err != nil {
			initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
		}
	}
	if cfg.RabbitMQ.Enabled {
		if s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ); err != nil {
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
		}
	}
	if cfg.MySQL.Enabled {
		if s.MySQL, err = NewMySQL(&cfg.MySQL); err != nil {
			initErrors = append(initErrors, fmt.Sprintf("MySQL: %v", err))
		}
	}
	if cfg.Redis.Enabled {
		if s.Redis, err = NewRedis(&cfg.Redis); err != nil {
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		}
	}

	if len(initErrors) > 0 {
		log.Warn().Str("errors", strings.Join(initErrors, "; ")).Msg("以下存储组件初始化失败")
	}
	log.Info().
		Bool("minio", s.MinIO != nil).
		Bool("rabbitmq", s.RabbitMQ != nil).
		Bool("mysql", s.MySQL != nil).
		Bool("redis", s.Redis != nil).
		Msg("存储组件初始化完成")
	return s, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	log := logger.Component("storage")
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			log.Error().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			log.Error().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("关闭Redis连接失败")
		}
	}
}

// Health 检查已启用组件的连通性，返回 组件名->错误信息(空为正常)
func (s *Storage) Health(ctx context.Context) map[string]string {
	status := map[string]string{}
	if s.MySQL != nil {
		status["mysql"] = errString(s.MySQL.Ping(ctx))
	}
	if s.Redis != nil {
		status["redis"] = errString(s.Redis.Ping(ctx))
	}
	if s.RabbitMQ != nil {
		if s.RabbitMQ.conn.IsClosed() {
			status["rabbitmq"] = "connection closed"
		} else {
			status["rabbitmq"] = ""
		}
	}
	if s.MinIO != nil {
		if s.MinIO.client.IsOffline() {
			status["minio"] = "offline"
		} else {
			status["minio"] = ""
		}
	}
	return status
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
