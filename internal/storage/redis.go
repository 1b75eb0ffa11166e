package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/tracing"
	"resume-parser-go/internal/types"

	"github.com/gofrs/uuid/v5"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound 键不存在
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("resume-parser-go/storage/redis")

// checkAndSetScript 原子地检查MD5映射，不存在则写入
var checkAndSetScript = redis.NewScript(`
local existing = redis.call('GET', KEYS[1])
if existing then
	return existing
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return ''
`)

// releaseLockScript 值匹配才删除
var releaseLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Redis 解析缓存与去重映射
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端并挂载OpenTelemetry钩子
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{Client: client, config: cfg}, nil
}

// Close 关闭连接
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping 检查连接
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// ParseCacheTTL 解析结果缓存时长，配置为0时不缓存
func (r *Redis) ParseCacheTTL() time.Duration {
	if r.config == nil {
		return constants.DefaultParseCacheTTL
	}
	return time.Duration(r.config.ParseCacheTTLHours) * time.Hour
}

// ParsedCandidateKey 解析缓存键，包含解析器版本
func ParsedCandidateKey(xmlMD5 string) string {
	return fmt.Sprintf(constants.KeyParsedCandidate, constants.ParserVersion, xmlMD5)
}

// GetParsedCandidate 按BG XML内容MD5读取缓存的候选人，未命中返回 ErrNotFound
func (r *Redis) GetParsedCandidate(ctx context.Context, xmlMD5 string) (*types.Candidate, error) {
	key := ParsedCandidateKey(xmlMD5)
	ctx, span := r.startSpan(ctx, "Redis.GetParsedCandidate", "GET", key)
	defer span.End()

	if r.Client == nil {
		err := fmt.Errorf("redis client is not initialized")
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return nil, err
	}

	raw, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetAttributes(attribute.Bool("cache.hit", false))
			span.SetStatus(codes.Ok, "cache miss")
			return nil, ErrNotFound
		}
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return nil, err
	}

	var cand types.Candidate
	if err := json.Unmarshal(raw, &cand); err != nil {
		// 旧格式缓存直接视为未命中
		r.Client.Del(ctx, key)
		span.SetAttributes(attribute.Bool("cache.corrupt", true))
		return nil, ErrNotFound
	}
	span.SetAttributes(attribute.Bool("cache.hit", true))
	return &cand, nil
}

// SetParsedCandidate 写入解析缓存
func (r *Redis) SetParsedCandidate(ctx context.Context, xmlMD5 string, cand *types.Candidate) error {
	ttl := r.ParseCacheTTL()
	if ttl <= 0 || cand == nil {
		return nil
	}
	key := ParsedCandidateKey(xmlMD5)
	ctx, span := r.startSpan(ctx, "Redis.SetParsedCandidate", "SET", key)
	defer span.End()

	if r.Client == nil {
		err := fmt.Errorf("redis client is not initialized")
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return err
	}

	payload, err := json.Marshal(cand)
	if err != nil {
		return fmt.Errorf("序列化候选人失败: %w", err)
	}
	span.SetAttributes(
		attribute.Int("db.redis.value_length", len(payload)),
		attribute.Int64("db.redis.expiration_ms", ttl.Milliseconds()),
	)
	if err := r.Client.Set(ctx, key, payload, ttl).Err(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return err
	}
	return nil
}

// CheckAndSetXMLMD5 原子地登记BG XML的MD5。
// 已存在时返回 true 和先前的 submissionUUID。
func (r *Redis) CheckAndSetXMLMD5(ctx context.Context, xmlMD5, submissionUUID string) (bool, string, error) {
	key := fmt.Sprintf(constants.KeyXMLMD5ToSubmissionUUID, xmlMD5)
	ctx, span := r.startSpan(ctx, "Redis.CheckAndSetXMLMD5", "EVALSHA", key)
	defer span.End()

	if r.Client == nil {
		err := fmt.Errorf("redis client is not initialized")
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, "", err
	}

	res, err := checkAndSetScript.Run(ctx, r.Client, []string{key}, submissionUUID, constants.XMLDedupTTL.Milliseconds()).Text()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, "", fmt.Errorf("执行原子检查MD5操作失败: %w", err)
	}
	exists := res != ""
	span.SetAttributes(attribute.Bool("already_exists", exists))
	return exists, res, nil
}

// RemoveXMLMD5 处理失败时回滚MD5登记
func (r *Redis) RemoveXMLMD5(ctx context.Context, xmlMD5 string) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Del(ctx, fmt.Sprintf(constants.KeyXMLMD5ToSubmissionUUID, xmlMD5)).Err()
}

// AcquireParseLock 尝试获取某份XML的解析锁，未获取到时返回空字符串
func (r *Redis) AcquireParseLock(ctx context.Context, xmlMD5 string) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis client is not initialized")
	}
	token, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	ok, err := r.Client.SetNX(ctx, fmt.Sprintf(constants.KeyParseLock, xmlMD5), token.String(), constants.ParseLockTTL).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token.String(), nil
}

// ReleaseParseLock 释放解析锁，只删除自己持有的锁
func (r *Redis) ReleaseParseLock(ctx context.Context, xmlMD5, token string) (bool, error) {
	if r.Client == nil {
		return false, fmt.Errorf("redis client is not initialized")
	}
	n, err := releaseLockScript.Run(ctx, r.Client, []string{fmt.Sprintf(constants.KeyParseLock, xmlMD5)}, token).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Redis) startSpan(ctx context.Context, name, op, key string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		semconv.DBSystemRedis,
		attribute.String("db.operation", op),
		attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
	}
	if r.config != nil {
		attrs = append(attrs,
			attribute.Int("db.redis.database", r.config.DB),
			attribute.String("net.peer.name", r.config.Address),
		)
	}
	return redisTracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}
