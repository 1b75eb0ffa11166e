// Package parser 从原始简历文件中提取纯文本（文档直接抽取，图片走OCR）
package parser

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

var (
	// ErrUnsupportedFormat 提取器不支持该文件格式
	ErrUnsupportedFormat = errors.New("不支持的文件格式")
	// ErrEmptyText 提取结果为空
	ErrEmptyText = errors.New("未提取到文本")
)

// TextExtractor 纯文本提取器
type TextExtractor interface {
	// ExtractText 从文件内容中提取纯文本，filename 用于判断格式
	ExtractText(ctx context.Context, data []byte, filename string) (string, error)
}

// ChainExtractor 按顺序尝试多个提取器，返回第一个非空结果
type ChainExtractor struct {
	extractors []TextExtractor
	logger     zerolog.Logger
}

var _ TextExtractor = (*ChainExtractor)(nil)

// NewChainExtractor 创建回退链，nil 提取器会被忽略
func NewChainExtractor(logger zerolog.Logger, extractors ...TextExtractor) *ChainExtractor {
	c := &ChainExtractor{logger: logger}
	for _, e := range extractors {
		if e != nil {
			c.extractors = append(c.extractors, e)
		}
	}
	return c
}

// ExtractText 实现 TextExtractor
func (c *ChainExtractor) ExtractText(ctx context.Context, data []byte, filename string) (string, error) {
	var errs []error
	for i, e := range c.extractors {
		text, err := e.ExtractText(ctx, data, filename)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		if err == nil {
			err = ErrEmptyText
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.logger.Debug().Err(err).Int("extractor", i).Str("file", filename).Msg("文本提取失败，尝试下一个提取器")
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("没有可用的文本提取器: %w", ErrUnsupportedFormat)
	}
	return "", errors.Join(errs...)
}

// ContentType 根据扩展名判断MIME类型，无法判断时按文件头嗅探
func ContentType(data []byte, filename string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
	}
	return mimetype.Detect(data).String()
}

// IsPDF 判断是否为PDF
func IsPDF(data []byte, filename string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return strings.HasPrefix(string(data[:min(len(data), 5)]), "%PDF-")
}

// IsImage 判断是否为图片，图片只能通过OCR提取
func IsImage(data []byte, filename string) bool {
	return strings.HasPrefix(ContentType(data, filename), "image/")
}
