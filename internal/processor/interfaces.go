package processor

import (
	"context"
	"io"

	"resume-parser-go/internal/storage/models"
	"resume-parser-go/internal/types"
)

//
// 存储相关接口，生产环境由 internal/storage 实现
//

// ObjectStore BG XML 与原始文件的对象存储
type ObjectStore interface {
	UploadBGXML(ctx context.Context, submissionUUID string, data []byte) (objectKey string, md5Hex string, err error)
	GetBGXML(ctx context.Context, objectKey string) ([]byte, error)
	UploadOriginal(ctx context.Context, submissionUUID, ext string, reader io.Reader, size int64) (string, error)
	GetOriginal(ctx context.Context, objectKey string) ([]byte, error)
	DeleteBGXML(ctx context.Context, objectKey string) error
	DeleteOriginal(ctx context.Context, objectKey string) error
}

// ParseCache 以内容MD5为键的解析结果缓存，未命中时返回错误
type ParseCache interface {
	GetParsedCandidate(ctx context.Context, key string) (*types.Candidate, error)
	SetParsedCandidate(ctx context.Context, key string, cand *types.Candidate) error
}

// ParseLocker 可选，防止多个worker同时解析同一份内容
type ParseLocker interface {
	AcquireParseLock(ctx context.Context, key string) (string, error)
	ReleaseParseLock(ctx context.Context, key, token string) (bool, error)
}

// Deduper 可选，上传时按BG XML的MD5去重
type Deduper interface {
	CheckAndSetXMLMD5(ctx context.Context, xmlMD5, submissionUUID string) (bool, string, error)
	RemoveXMLMD5(ctx context.Context, xmlMD5 string) error
}

// CandidateRepository 提交记录与候选人持久化
type CandidateRepository interface {
	CreateSubmission(ctx context.Context, sub *models.ResumeSubmission) error
	SaveParsedCandidate(ctx context.Context, rec *models.ParsedCandidate, event *models.OutboxMessage) error
	GetParsedCandidate(ctx context.Context, submissionUUID string) (*models.ParsedCandidate, error)
	MarkSubmissionFailed(ctx context.Context, submissionUUID, reason string) error
}

// EventPublisher 发布BG XML就绪消息
type EventPublisher interface {
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error
}
