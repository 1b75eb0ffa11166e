package processor

import (
	"context"
	"fmt"
	"time"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/optic"
	"resume-parser-go/internal/parser"
	"resume-parser-go/internal/skillminer"

	"github.com/rs/zerolog"
)

// BuildTextExtractor 根据配置构建纯文本提取器。
// tika: Tika优先，PDF再由Eino兜底；eino: 仅本地PDF；none: 返回nil。
func BuildTextExtractor(ctx context.Context, cfg config.TikaConfig, logger zerolog.Logger) (parser.TextExtractor, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second

	var einoOpts []parser.EinoPDFOption
	einoOpts = append(einoOpts, parser.WithEinoLogger(logger.With().Str("extractor", "eino").Logger()))
	if timeout > 0 {
		einoOpts = append(einoOpts, parser.WithEinoTimeout(timeout))
	}

	switch cfg.Type {
	case "none":
		return nil, nil
	case "eino":
		eino, err := parser.NewEinoPDFExtractor(ctx, einoOpts...)
		if err != nil {
			return nil, err
		}
		return eino, nil
	case "tika", "":
		if cfg.ServerURL == "" {
			return nil, fmt.Errorf("tika server_url 未配置")
		}
		tikaOpts := []parser.TikaOption{
			parser.WithTikaLogger(logger.With().Str("extractor", "tika").Logger()),
		}
		if timeout > 0 {
			tikaOpts = append(tikaOpts, parser.WithTimeout(timeout))
		}
		if cfg.OCRLanguage != "" {
			tikaOpts = append(tikaOpts, parser.WithOCRLanguage(cfg.OCRLanguage))
		}
		if cfg.PDFOCRStrategy != "" {
			tikaOpts = append(tikaOpts, parser.WithPDFOCRStrategy(cfg.PDFOCRStrategy))
		}
		if cfg.RequestsPerMinute > 0 {
			tikaOpts = append(tikaOpts, parser.WithRateLimit(cfg.RequestsPerMinute, cfg.MaxRetries))
		}
		tika := parser.NewTikaExtractor(cfg.ServerURL, tikaOpts...)

		eino, err := parser.NewEinoPDFExtractor(ctx, einoOpts...)
		if err != nil {
			logger.Warn().Err(err).Msg("Eino PDF提取器初始化失败，仅使用Tika")
			return tika, nil
		}
		return parser.NewChainExtractor(logger, tika, eino), nil
	default:
		return nil, fmt.Errorf("未知的提取器类型: %s", cfg.Type)
	}
}

// BuildSkillMiner 根据配置构建技能挖掘器，关闭时返回nil
func BuildSkillMiner(cfg config.ParserConfig) (optic.SkillMiner, error) {
	if !cfg.EnableSkillMining {
		return nil, nil
	}
	if cfg.SkillVocabularyFile == "" {
		return skillminer.New(nil), nil
	}
	m, err := skillminer.NewFromFile(cfg.SkillVocabularyFile)
	if err != nil {
		return nil, fmt.Errorf("加载技能词表失败: %w", err)
	}
	return m, nil
}
