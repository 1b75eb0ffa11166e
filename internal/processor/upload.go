package processor

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/storage/models"
	"resume-parser-go/internal/tracing"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel/attribute"
)

// UploadRequest 一次BG解析结果的提交
type UploadRequest struct {
	BGXML []byte
	// 原始简历，可为空
	Original         []byte
	OriginalFilename string
	ResumeText       string
	SourceChannel    string
	TalentPoolIDs    []int64
}

// UploadResult 提交结果。Duplicate 为 true 时 SubmissionUUID 为先前的提交
type UploadResult struct {
	SubmissionUUID string `json:"submission_uuid"`
	BGXMLPathOSS   string `json:"bg_xml_path_oss,omitempty"`
	BGXMLMD5       string `json:"bg_xml_md5"`
	Duplicate      bool   `json:"duplicate"`
}

// SubmitUpload 保存BG XML与原始文件，登记提交记录，并发布 bg_xml_ready 消息。
// 相同内容的XML重复提交时返回先前的UUID和 ErrDuplicateSubmission。
func (p *ResumeProcessor) SubmitUpload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	ctx, span := processorTracer.Start(ctx, "ResumeProcessor.SubmitUpload")
	defer span.End()

	if len(bytes.TrimSpace(req.BGXML)) == 0 {
		return nil, NewInvalidMessageError("", "BG XML为空", nil)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUID失败: %w", err)
	}
	submissionUUID := id.String()
	xmlMD5 := storage.MD5Hex(req.BGXML)
	span.SetAttributes(
		attribute.String("submission.uuid", submissionUUID),
		attribute.String("bg_xml.md5", xmlMD5),
	)
	log := p.set.Logger.With().Str("submission_uuid", submissionUUID).Str("bg_xml_md5", xmlMD5).Logger()

	registered := false
	if p.comp.Deduper != nil {
		exists, existing, err := p.comp.Deduper.CheckAndSetXMLMD5(ctx, xmlMD5, submissionUUID)
		if err != nil {
			// 去重不可用时继续处理
			log.Warn().Err(err).Msg("BG XML去重检查失败")
		} else if exists {
			log.Info().Str("existing_uuid", existing).Msg("重复的BG XML")
			return &UploadResult{SubmissionUUID: existing, BGXMLMD5: xmlMD5, Duplicate: true}, ErrDuplicateSubmission
		} else {
			registered = true
		}
	}

	res, err := p.storeAndAnnounce(ctx, submissionUUID, xmlMD5, req)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		if registered {
			if rbErr := p.comp.Deduper.RemoveXMLMD5(context.WithoutCancel(ctx), xmlMD5); rbErr != nil {
				log.Error().Err(rbErr).Msg("回滚BG XML MD5登记失败")
			}
		}
		return nil, err
	}
	log.Info().Str("bg_xml_path", res.BGXMLPathOSS).Msg("BG XML已提交")
	return res, nil
}

// uploadState 记录已完成的步骤，失败时按相反顺序回滚
type uploadState struct {
	xmlKey      string
	originalKey string
	created     bool
}

func (p *ResumeProcessor) storeAndAnnounce(ctx context.Context, submissionUUID, xmlMD5 string, req UploadRequest) (*UploadResult, error) {
	var st uploadState
	res, err := p.storeAndPublish(ctx, submissionUUID, xmlMD5, req, &st)
	if err != nil {
		p.rollbackUpload(context.WithoutCancel(ctx), submissionUUID, &st, err)
		return nil, err
	}
	return res, nil
}

func (p *ResumeProcessor) storeAndPublish(ctx context.Context, submissionUUID, xmlMD5 string, req UploadRequest, st *uploadState) (*UploadResult, error) {
	xmlKey, _, err := p.comp.Objects.UploadBGXML(ctx, submissionUUID, req.BGXML)
	if err != nil {
		return nil, NewStoreError(submissionUUID, err)
	}
	st.xmlKey = xmlKey

	if len(req.Original) > 0 {
		ext := originalExt(req.Original, req.OriginalFilename)
		st.originalKey, err = p.comp.Objects.UploadOriginal(ctx, submissionUUID, ext, bytes.NewReader(req.Original), int64(len(req.Original)))
		if err != nil {
			return nil, NewStoreError(submissionUUID, err)
		}
	}

	channel := req.SourceChannel
	if channel == "" {
		channel = constants.SourceChannelAPI
	}
	now := p.set.Now().UTC()
	sub := &models.ResumeSubmission{
		SubmissionUUID:      submissionUUID,
		SubmissionTimestamp: now,
		SourceChannel:       channel,
		OriginalFilename:    req.OriginalFilename,
		OriginalFilePathOSS: st.originalKey,
		BGXMLPathOSS:        xmlKey,
		BGXMLMD5:            xmlMD5,
		ProcessingStatus:    constants.StatusPendingParse,
	}
	if err := p.comp.Repo.CreateSubmission(ctx, sub); err != nil {
		return nil, NewDatabaseError(submissionUUID, err)
	}
	st.created = true

	if p.comp.Publisher == nil {
		return nil, NewPublishError(submissionUUID, fmt.Errorf("未配置消息发布器"))
	}
	msg := storage.BGXMLReadyMessage{
		SubmissionUUID:      submissionUUID,
		SubmissionTimestamp: now,
		SourceChannel:       channel,
		BGXMLPathOSS:        xmlKey,
		OriginalFilePathOSS: st.originalKey,
		OriginalFilename:    req.OriginalFilename,
		ResumeText:          req.ResumeText,
		TalentPoolIDs:       req.TalentPoolIDs,
	}
	if err := p.comp.Publisher.PublishJSON(ctx, p.set.ResumeEventsExchange, p.set.BGXMLReadyRoutingKey, msg, true); err != nil {
		return nil, NewPublishError(submissionUUID, err)
	}

	return &UploadResult{
		SubmissionUUID: submissionUUID,
		BGXMLPathOSS:   xmlKey,
		BGXMLMD5:       xmlMD5,
	}, nil
}

// rollbackUpload 提交记录标记为失败，删除已上传的对象。回滚错误只记录日志
func (p *ResumeProcessor) rollbackUpload(ctx context.Context, submissionUUID string, st *uploadState, cause error) {
	log := p.set.Logger.With().Str("submission_uuid", submissionUUID).Logger()
	if st.created {
		if err := p.comp.Repo.MarkSubmissionFailed(ctx, submissionUUID, "upload aborted: "+cause.Error()); err != nil {
			log.Error().Err(err).Msg("标记提交失败状态失败")
		}
	}
	if st.originalKey != "" {
		if err := p.comp.Objects.DeleteOriginal(ctx, st.originalKey); err != nil {
			log.Error().Err(err).Str("object", st.originalKey).Msg("删除原始文件失败")
		}
	}
	if st.xmlKey != "" {
		if err := p.comp.Objects.DeleteBGXML(ctx, st.xmlKey); err != nil {
			log.Error().Err(err).Str("object", st.xmlKey).Msg("删除BG XML失败")
		}
	}
}

// originalExt 优先使用文件名扩展名，没有时按文件头判断
func originalExt(data []byte, filename string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	return mimetype.Detect(data).Extension()
}

// uploadDeadline 上传流程的默认超时
const uploadDeadline = 60 * time.Second

// SubmitUploadWithTimeout 在 uploadDeadline 内完成提交
func (p *ResumeProcessor) SubmitUploadWithTimeout(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadDeadline)
	defer cancel()
	return p.SubmitUpload(ctx, req)
}
