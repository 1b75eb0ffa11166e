package processor

import (
	"time"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/optic"
	"resume-parser-go/internal/parser"

	"github.com/rs/zerolog"
)

// Components 处理器依赖的外部组件，可在测试中替换
type Components struct {
	Objects   ObjectStore
	Cache     ParseCache  // 可为nil
	Locker    ParseLocker // 可为nil
	Deduper   Deduper     // 可为nil
	Repo      CandidateRepository
	Publisher EventPublisher // 可为nil，仅上传流程需要

	TextExtractor parser.TextExtractor // 可为nil
	SkillMiner    optic.SkillMiner     // 可为nil
}

// Settings 纯配置项
type Settings struct {
	LegacyCounts        bool
	StrictXML           bool
	ExtractOriginalText bool

	ResumeEventsExchange      string
	BGXMLReadyRoutingKey      string
	CandidateEventsExchange   string
	CandidateParsedRoutingKey string

	// 解析锁被占用时轮询缓存的次数与间隔
	LockWaitAttempts int
	LockWaitInterval time.Duration

	Logger zerolog.Logger
	Now    func() time.Time
}

// SettingOpt 修改 Settings 的选项
type SettingOpt func(*Settings)

// WithLogger 设置日志
func WithLogger(logger zerolog.Logger) SettingOpt {
	return func(s *Settings) { s.Logger = logger }
}

// WithClock 设置时钟，测试用
func WithClock(now func() time.Time) SettingOpt {
	return func(s *Settings) { s.Now = now }
}

// WithLegacyCounts 保留历史计数行为
func WithLegacyCounts(legacy bool) SettingOpt {
	return func(s *Settings) { s.LegacyCounts = legacy }
}

// WithLockWait 设置等待其他worker解析结果的轮询参数
func WithLockWait(attempts int, interval time.Duration) SettingOpt {
	return func(s *Settings) {
		s.LockWaitAttempts = attempts
		s.LockWaitInterval = interval
	}
}

// SettingsFromConfig 从应用配置生成 Settings
func SettingsFromConfig(cfg *config.Config, logger zerolog.Logger) Settings {
	return Settings{
		LegacyCounts:              cfg.Parser.LegacyCounts,
		StrictXML:                 !cfg.Parser.LenientFallback,
		ExtractOriginalText:       cfg.Parser.ExtractOriginalText,
		ResumeEventsExchange:      cfg.RabbitMQ.ResumeEventsExchange,
		BGXMLReadyRoutingKey:      cfg.RabbitMQ.BGXMLReadyRoutingKey,
		CandidateEventsExchange:   cfg.RabbitMQ.CandidateEventsExchange,
		CandidateParsedRoutingKey: cfg.RabbitMQ.CandidateParsedRoutingKey,
		LockWaitAttempts:          10,
		LockWaitInterval:          300 * time.Millisecond,
		Logger:                    logger,
	}
}
