package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/tracing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var minioTracer = otel.Tracer("resume-parser-go/storage/minio")

// MinIO 存放BG XML与原始简历文件
type MinIO struct {
	client         *minio.Client
	cfg            *config.MinIOConfig
	bgXMLBucket    string
	originalBucket string
	logger         zerolog.Logger
}

// NewMinIO 创建MinIO客户端并确保存储桶存在
func NewMinIO(cfg *config.MinIOConfig, logger zerolog.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client:         client,
		cfg:            cfg,
		bgXMLBucket:    cfg.BGXMLBucket,
		originalBucket: cfg.OriginalsBucket,
		logger:         logger.With().Str("component", "minio").Logger(),
	}

	for _, bucket := range []string{m.bgXMLBucket, m.originalBucket} {
		if err := m.ensureBucketExists(context.Background(), bucket, cfg.Location); err != nil {
			return nil, err
		}
	}

	if cfg.OriginalFileExpireDays > 0 {
		if err := m.setupBucketLifecycle(context.Background(), m.originalBucket, "expire-originals", cfg.OriginalFileExpireDays); err != nil {
			m.logger.Warn().Err(err).Str("bucket", m.originalBucket).Msg("设置生命周期规则失败")
		}
	}

	m.logger.Info().Str("endpoint", cfg.Endpoint).Msg("MinIO客户端初始化成功")
	return m, nil
}

func (m *MinIO) ensureBucketExists(ctx context.Context, bucketName, location string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
	}
	m.logger.Info().Str("bucket", bucketName).Msg("存储桶已创建")
	return nil
}

func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, bucketName, lc)
}

// BGXMLObjectKey BG XML 的对象键
func BGXMLObjectKey(submissionUUID string) string {
	return fmt.Sprintf("bg/%s/result.xml", submissionUUID)
}

// OriginalObjectKey 原始简历的对象键，ext 含前导点
func OriginalObjectKey(submissionUUID, ext string) string {
	return fmt.Sprintf("resume/%s/original%s", submissionUUID, strings.ToLower(ext))
}

// MD5Hex 计算内容MD5
func MD5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// UploadBGXML 上传BG XML，返回对象键和内容MD5
func (m *MinIO) UploadBGXML(ctx context.Context, submissionUUID string, data []byte) (string, string, error) {
	key := BGXMLObjectKey(submissionUUID)
	hash := md5.New()
	reader := io.TeeReader(bytes.NewReader(data), hash)
	if err := m.put(ctx, m.bgXMLBucket, key, reader, int64(len(data)), "application/xml"); err != nil {
		return "", "", err
	}
	return key, hex.EncodeToString(hash.Sum(nil)), nil
}

// GetBGXML 下载BG XML
func (m *MinIO) GetBGXML(ctx context.Context, objectKey string) ([]byte, error) {
	return m.get(ctx, m.bgXMLBucket, objectKey)
}

// UploadOriginal 上传原始简历文件，返回对象键
func (m *MinIO) UploadOriginal(ctx context.Context, submissionUUID, ext string, reader io.Reader, size int64) (string, error) {
	key := OriginalObjectKey(submissionUUID, ext)
	if err := m.put(ctx, m.originalBucket, key, reader, size, contentTypeForExt(ext)); err != nil {
		return "", err
	}
	return key, nil
}

// GetOriginal 下载原始简历文件
func (m *MinIO) GetOriginal(ctx context.Context, objectKey string) ([]byte, error) {
	return m.get(ctx, m.originalBucket, objectKey)
}

// DeleteBGXML 回滚时删除已上传的BG XML
func (m *MinIO) DeleteBGXML(ctx context.Context, objectKey string) error {
	return m.remove(ctx, m.bgXMLBucket, objectKey)
}

// DeleteOriginal 回滚时删除已上传的原始文件
func (m *MinIO) DeleteOriginal(ctx context.Context, objectKey string) error {
	return m.remove(ctx, m.originalBucket, objectKey)
}

func (m *MinIO) remove(ctx context.Context, bucket, key string) error {
	ctx, span := m.startSpan(ctx, "MinIO.RemoveObject", bucket, key)
	defer span.End()
	if err := m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return fmt.Errorf("删除对象 %s/%s 失败: %w", bucket, key, err)
	}
	return nil
}

func (m *MinIO) put(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error {
	ctx, span := m.startSpan(ctx, "MinIO.PutObject", bucket, key)
	defer span.End()

	info, err := m.client.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return fmt.Errorf("上传对象 %s/%s 失败: %w", bucket, key, err)
	}
	span.SetAttributes(attribute.Int64("object.size", info.Size))
	m.logger.Debug().Str("bucket", bucket).Str("key", key).Int64("size", info.Size).Msg("对象上传完成")
	return nil
}

func (m *MinIO) get(ctx context.Context, bucket, key string) ([]byte, error) {
	ctx, span := m.startSpan(ctx, "MinIO.GetObject", bucket, key)
	defer span.End()

	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return nil, fmt.Errorf("读取对象 %s/%s 数据失败: %w", bucket, key, err)
	}
	span.SetAttributes(attribute.Int("object.size", len(data)))
	return data, nil
}

func (m *MinIO) startSpan(ctx context.Context, name, bucket, key string) (context.Context, trace.Span) {
	return minioTracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("object_store.system", "minio"),
			attribute.String("object_store.bucket", bucket),
			attribute.String("object_store.key", key),
		))
}

func contentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	case ".html", ".htm":
		return "text/html"
	case ".xml":
		return "application/xml"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
