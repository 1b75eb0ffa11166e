package storage

import (
	"context"
	"fmt"
	"strings"

	"resume-parser-go/internal/config"

	"github.com/rs/zerolog"
)

// Storage 聚合所有外部存储依赖，未配置或初始化失败的组件为nil
type Storage struct {
	MinIO    *MinIO
	RabbitMQ *RabbitMQ
	MySQL    *MySQL
	Redis    *Redis

	logger zerolog.Logger
}

// NewStorage 按配置初始化各存储组件，全部失败时返回错误
func NewStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{logger: logger.With().Str("component", "storage").Logger()}
	var err error
	var initErrors []string

	if cfg.MinIO.Endpoint != "" {
		s.MinIO, err = NewMinIO(&cfg.MinIO, logger)
		if err != nil {
			initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
		}
	}

	if cfg.RabbitMQ.URL != "" {
		s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ, logger)
		if err != nil {
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
		} else if err = s.RabbitMQ.SetupTopology(); err != nil {
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ topology: %v", err))
		}
	}

	if cfg.MySQL.Host != "" {
		s.MySQL, err = NewMySQL(&cfg.MySQL)
		if err != nil {
			initErrors = append(initErrors, fmt.Sprintf("MySQL: %v", err))
		}
	}

	if cfg.Redis.Address != "" {
		s.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		}
	}

	if s.MinIO == nil && s.RabbitMQ == nil && s.MySQL == nil && s.Redis == nil {
		return nil, fmt.Errorf("所有存储组件初始化失败: %s", strings.Join(initErrors, "; "))
	}
	if len(initErrors) > 0 {
		s.logger.Warn().Strs("errors", initErrors).Msg("部分存储组件初始化失败")
	}
	return s, nil
}

// Health 返回各组件的连通状态
func (s *Storage) Health(ctx context.Context) map[string]string {
	status := map[string]string{}
	report := func(name string, configured bool, check func() error) {
		switch {
		case !configured:
			status[name] = "disabled"
		case check() != nil:
			status[name] = "down"
		default:
			status[name] = "up"
		}
	}
	report("mysql", s.MySQL != nil, func() error { return s.MySQL.Ping(ctx) })
	report("redis", s.Redis != nil, func() error { return s.Redis.Ping(ctx) })
	report("rabbitmq", s.RabbitMQ != nil, func() error {
		if s.RabbitMQ.IsClosed() {
			return fmt.Errorf("closed")
		}
		return nil
	})
	report("minio", s.MinIO != nil, func() error { return nil })
	return status
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			s.logger.Error().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			s.logger.Error().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.logger.Error().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
