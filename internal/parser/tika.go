package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resume-parser-go/internal/ratelimit"

	"github.com/rs/zerolog"
)

// TikaExtractor 基于Apache Tika服务的文本提取器。
// 图片和扫描件依赖Tika服务端配置的Tesseract完成OCR。
type TikaExtractor struct {
	// Tika服务器地址，例如 http://localhost:9998
	ServerURL string
	// HTTP客户端，可配置超时等参数
	Client *http.Client

	ocrLanguage string
	ocrStrategy string
	logger      zerolog.Logger
	limiter     *ratelimit.TokenBucket
}

// TikaOption 定义配置选项函数
type TikaOption func(*TikaExtractor)

// WithTimeout 配置HTTP客户端超时时间
func WithTimeout(timeout time.Duration) TikaOption {
	return func(e *TikaExtractor) {
		e.Client.Timeout = timeout
	}
}

// WithOCRLanguage 配置Tesseract语言，例如 "eng" 或 "eng+chi_sim"
func WithOCRLanguage(lang string) TikaOption {
	return func(e *TikaExtractor) {
		e.ocrLanguage = lang
	}
}

// WithPDFOCRStrategy 配置PDF的OCR策略：no_ocr, ocr_only, ocr_and_text, auto
func WithPDFOCRStrategy(strategy string) TikaOption {
	return func(e *TikaExtractor) {
		e.ocrStrategy = strategy
	}
}

// WithTikaLogger 配置日志记录器
func WithTikaLogger(logger zerolog.Logger) TikaOption {
	return func(e *TikaExtractor) {
		e.logger = logger
	}
}

// WithRateLimit 限制每分钟请求数，服务端繁忙或网络错误时最多重试 maxRetries 次
func WithRateLimit(qpm, maxRetries int) TikaOption {
	return func(e *TikaExtractor) {
		if qpm > 0 {
			e.limiter = ratelimit.NewTokenBucket(qpm, 0).WithRetryPolicy(time.Second, maxRetries)
		}
	}
}

var _ TextExtractor = (*TikaExtractor)(nil)

// NewTikaExtractor 创建Tika提取器
func NewTikaExtractor(serverURL string, options ...TikaOption) *TikaExtractor {
	e := &TikaExtractor{
		ServerURL: strings.TrimRight(serverURL, "/"),
		Client:    &http.Client{Timeout: 60 * time.Second},
		logger:    zerolog.Nop(),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// ExtractText 通过 PUT /tika 获取纯文本
func (e *TikaExtractor) ExtractText(ctx context.Context, data []byte, filename string) (string, error) {
	if e.limiter == nil {
		return e.extractOnce(ctx, data, filename)
	}
	var text string
	err := e.limiter.RetryWithBackoff(ctx, func() error {
		var err error
		text, err = e.extractOnce(ctx, data, filename)
		return err
	})
	return text, err
}

func (e *TikaExtractor) extractOnce(ctx context.Context, data []byte, filename string) (string, error) {
	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, e.ServerURL+"/tika", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", ContentType(data, filename))
	req.Header.Set("Accept", "text/plain")
	if filename != "" {
		req.Header.Set("X-Tika-Resource-Name", filename)
	}
	if e.ocrLanguage != "" {
		req.Header.Set("X-Tika-OCRLanguage", e.ocrLanguage)
	}
	if e.ocrStrategy != "" && IsPDF(data, filename) {
		req.Header.Set("X-Tika-PDFOcrStrategy", e.ocrStrategy)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("发送请求到Tika服务器失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnsupportedMediaType || resp.StatusCode == http.StatusUnprocessableEntity {
		return "", fmt.Errorf("tika无法处理 %s: %w", filename, ErrUnsupportedFormat)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return "", fmt.Errorf("tika服务器返回错误状态码: %d: %w", resp.StatusCode, ratelimit.ErrRetryable)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tika服务器返回错误状态码: %d", resp.StatusCode)
	}

	textBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取Tika响应失败: %w", err)
	}
	text := strings.TrimSpace(string(textBytes))

	e.logger.Debug().
		Str("file", filename).
		Int("chars", len(text)).
		Dur("duration", time.Since(startTime)).
		Msg("Tika文本提取完成")
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}
