package logger // 全局日志与各组件日志

import (
	"context"
	"io"
	"os"
	"time"

	"resume-parser-go/internal/config"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzerolog "github.com/hertz-contrib/logger/zerolog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// Logger 全局日志实例
	Logger = log.Logger
)

// Init 按配置初始化全局日志，输出到标准输出
func Init(cfg config.LoggerConfig) zerolog.Logger {
	return InitWithWriter(cfg, os.Stdout)
}

// InitWithWriter 按配置初始化全局日志并写入 out
func InitWithWriter(cfg config.LoggerConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.TimeFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	} else {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	output := out
	if cfg.Format == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: cfg.TimeFormat,
		}
	}

	ctxLogger := zerolog.New(output).Level(level).With().Timestamp()
	if cfg.ReportCaller {
		ctxLogger = ctxLogger.Caller()
	}

	Logger = ctxLogger.Logger()
	log.Logger = Logger
	return Logger
}

// Component 返回带 component 字段的子日志
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// SetupHertz 让 hertz 的 hlog 复用全局 zerolog
func SetupHertz() {
	hlog.SetLogger(hertzzerolog.From(Logger))
}

// Ctx 从上下文中取日志，没有则返回全局日志
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &Logger
}

// WithContext 把全局日志放进上下文
func WithContext(ctx context.Context) context.Context {
	return Logger.WithContext(ctx)
}
