// Package processor 实现 BG XML 从上传到候选人入库的处理流程
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"resume-parser-go/internal/bgxml"
	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/optic"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/storage/models"
	"resume-parser-go/internal/tracing"
	"resume-parser-go/internal/types"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var processorTracer = otel.Tracer("resume-parser-go/processor")

var validate = validator.New()

// ParseResult 一次解析的结果
type ParseResult struct {
	Candidate *types.Candidate
	// XMLMD5 BG XML 内容的MD5
	XMLMD5 string
	// CacheKey 解析缓存键，包含 resume_text
	CacheKey string
	CacheHit bool
}

// ResumeProcessor 驱动BG XML到候选人记录的完整流程
type ResumeProcessor struct {
	comp Components
	set  Settings
}

// NewResumeProcessor 创建处理器
func NewResumeProcessor(comp Components, set Settings, opts ...SettingOpt) *ResumeProcessor {
	for _, opt := range opts {
		opt(&set)
	}
	if set.Now == nil {
		set.Now = time.Now
	}
	if set.LockWaitAttempts <= 0 {
		set.LockWaitAttempts = 1
	}
	return &ResumeProcessor{comp: comp, set: set}
}

// ContentKey 解析缓存键：只有XML时为XML的MD5，带纯文本时两者一起计算
func ContentKey(xml []byte, resumeText string) string {
	if resumeText == "" {
		return storage.MD5Hex(xml)
	}
	buf := make([]byte, 0, len(xml)+1+len(resumeText))
	buf = append(buf, xml...)
	buf = append(buf, 0)
	buf = append(buf, resumeText...)
	return storage.MD5Hex(buf)
}

// ParseDocument 同步解析一份BG XML，优先读缓存
func (p *ResumeProcessor) ParseDocument(ctx context.Context, xml []byte, resumeText string) (*ParseResult, error) {
	ctx, span := processorTracer.Start(ctx, "ResumeProcessor.ParseDocument",
		trace.WithAttributes(
			attribute.Int("bg_xml.size", len(xml)),
			attribute.Int("resume_text.size", len(resumeText)),
		))
	defer span.End()

	res := &ParseResult{
		XMLMD5:   storage.MD5Hex(xml),
		CacheKey: ContentKey(xml, resumeText),
	}
	log := p.set.Logger.With().Str("cache_key", res.CacheKey).Logger()

	if cand := p.cached(ctx, res.CacheKey); cand != nil {
		res.Candidate, res.CacheHit = cand, true
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return res, nil
	}

	if p.comp.Locker != nil {
		token, err := p.comp.Locker.AcquireParseLock(ctx, res.CacheKey)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("获取解析锁失败，直接解析")
		case token == "":
			// 其他worker正在解析同一份内容，等待其结果
			if cand := p.waitForCache(ctx, res.CacheKey); cand != nil {
				res.Candidate, res.CacheHit = cand, true
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return res, nil
			}
		default:
			defer func() {
				if _, err := p.comp.Locker.ReleaseParseLock(context.WithoutCancel(ctx), res.CacheKey, token); err != nil {
					log.Warn().Err(err).Msg("释放解析锁失败")
				}
			}()
		}
	}

	cand, err := optic.Parse(xml, resumeText, optic.Options{
		SkillMiner:   p.comp.SkillMiner,
		LegacyCounts: p.set.LegacyCounts,
		StrictXML:    p.set.StrictXML,
		Now:          p.set.Now,
		Logger:       p.set.Logger,
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeParse)
		return nil, err
	}
	res.Candidate = cand
	span.SetAttributes(
		attribute.Bool("cache.hit", false),
		attribute.Int("candidate.experiences", len(cand.WorkExperiences)),
		attribute.Int("candidate.educations", len(cand.Educations)),
		attribute.Int("candidate.skills", len(cand.Skills)),
	)

	if p.comp.Cache != nil {
		if err := p.comp.Cache.SetParsedCandidate(ctx, res.CacheKey, cand); err != nil {
			log.Warn().Err(err).Msg("写入解析缓存失败")
		}
	}
	return res, nil
}

func (p *ResumeProcessor) cached(ctx context.Context, key string) *types.Candidate {
	if p.comp.Cache == nil {
		return nil
	}
	cand, err := p.comp.Cache.GetParsedCandidate(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			p.set.Logger.Warn().Err(err).Str("cache_key", key).Msg("读取解析缓存失败")
		}
		return nil
	}
	return cand
}

func (p *ResumeProcessor) waitForCache(ctx context.Context, key string) *types.Candidate {
	for i := 0; i < p.set.LockWaitAttempts; i++ {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.set.LockWaitInterval):
		}
		if cand := p.cached(ctx, key); cand != nil {
			return cand
		}
	}
	return nil
}

// HandleMessage 作为 q.bg_xml_ready 的消费函数
func (p *ResumeProcessor) HandleMessage(ctx context.Context, body []byte) error {
	var msg storage.BGXMLReadyMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrDropMessage, NewInvalidMessageError("", "JSON解析失败", err))
	}
	err := p.ProcessBGResult(ctx, &msg)
	if err != nil && isPermanent(err) {
		return fmt.Errorf("%w: %w", storage.ErrDropMessage, err)
	}
	return err
}

// isPermanent 重试也不会成功的错误，解析结果只取决于输入内容
func isPermanent(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, ErrInvalidMessage) ||
		errors.Is(err, ErrParseFailed) ||
		errors.Is(err, bgxml.ErrUndecodable) ||
		errors.Is(err, bgxml.ErrEmptyDocument)
}

// ProcessBGResult 处理一条BG解析结果：下载XML（并行提取原始文件文本）、解析、保存并写入outbox事件
func (p *ResumeProcessor) ProcessBGResult(ctx context.Context, msg *storage.BGXMLReadyMessage) error {
	if msg == nil {
		return NewInvalidMessageError("", "消息为空", nil)
	}
	ctx, span := processorTracer.Start(ctx, "ResumeProcessor.ProcessBGResult",
		trace.WithAttributes(attribute.String("submission.uuid", msg.SubmissionUUID)))
	defer span.End()

	log := p.set.Logger.With().Str("submission_uuid", msg.SubmissionUUID).Logger()

	if err := validate.Struct(msg); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		if msg.SubmissionUUID != "" {
			if mErr := p.comp.Repo.MarkSubmissionFailed(ctx, msg.SubmissionUUID, "invalid message: "+err.Error()); mErr != nil {
				log.Error().Err(mErr).Msg("标记解析失败状态失败")
			}
		}
		return NewInvalidMessageError(msg.SubmissionUUID, "字段校验失败", err)
	}

	var xml []byte
	resumeText := msg.ResumeText

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := p.comp.Objects.GetBGXML(gctx, msg.BGXMLPathOSS)
		if err != nil {
			return NewDownloadError(msg.SubmissionUUID, err)
		}
		xml = data
		return nil
	})
	if p.shouldExtract(msg) {
		g.Go(func() error {
			// 提取失败时回退到XML自身的文本
			text, err := p.extractOriginalText(gctx, msg)
			if err != nil {
				log.Warn().Err(err).Str("object", msg.OriginalFilePathOSS).Msg("原始文件文本提取失败")
				return nil
			}
			resumeText = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return err
	}

	res, err := p.ParseDocument(ctx, xml, resumeText)
	if err != nil {
		perr := NewParseError(msg.SubmissionUUID, err)
		if isPermanent(perr) {
			if mErr := p.comp.Repo.MarkSubmissionFailed(ctx, msg.SubmissionUUID, err.Error()); mErr != nil {
				log.Error().Err(mErr).Msg("标记解析失败状态失败")
			}
		}
		return perr
	}

	cand := *res.Candidate
	if len(msg.TalentPoolIDs) > 0 {
		cand.TalentPoolIDs = types.TalentPoolIDs{Add: append([]int64(nil), msg.TalentPoolIDs...)}
	}

	if err := p.save(ctx, msg.SubmissionUUID, res.XMLMD5, &cand); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return err
	}

	log.Info().
		Bool("cache_hit", res.CacheHit).
		Int("experiences", len(cand.WorkExperiences)).
		Int("educations", len(cand.Educations)).
		Int("skills", len(cand.Skills)).
		Str("candidate_email", tracing.MaskPII(primaryEmail(&cand))).
		Msg("候选人解析完成")
	return nil
}

func primaryEmail(cand *types.Candidate) string {
	if len(cand.Emails) == 0 {
		return ""
	}
	return cand.Emails[0].Address
}

func (p *ResumeProcessor) shouldExtract(msg *storage.BGXMLReadyMessage) bool {
	return msg.ResumeText == "" &&
		msg.OriginalFilePathOSS != "" &&
		p.set.ExtractOriginalText &&
		p.comp.TextExtractor != nil
}

func (p *ResumeProcessor) extractOriginalText(ctx context.Context, msg *storage.BGXMLReadyMessage) (string, error) {
	data, err := p.comp.Objects.GetOriginal(ctx, msg.OriginalFilePathOSS)
	if err != nil {
		return "", err
	}
	name := msg.OriginalFilename
	if name == "" {
		name = filepath.Base(msg.OriginalFilePathOSS)
	}
	return p.comp.TextExtractor.ExtractText(ctx, data, name)
}

// save 写入候选人、更新提交状态并追加 candidate.parsed 事件
func (p *ResumeProcessor) save(ctx context.Context, submissionUUID, xmlMD5 string, cand *types.Candidate) error {
	rec, err := storage.NewParsedCandidateRecord(submissionUUID, cand)
	if err != nil {
		return NewDatabaseError(submissionUUID, err)
	}

	trace.SpanFromContext(ctx).SetAttributes(tracing.CandidateAttributes(rec.FirstName, rec.LastName, rec.PrimaryEmail)...)

	event, err := p.newCandidateParsedEvent(rec, xmlMD5)
	if err != nil {
		return NewDatabaseError(submissionUUID, err)
	}
	if err := p.comp.Repo.SaveParsedCandidate(ctx, rec, event); err != nil {
		return NewDatabaseError(submissionUUID, err)
	}
	return nil
}

func (p *ResumeProcessor) newCandidateParsedEvent(rec *models.ParsedCandidate, xmlMD5 string) (*models.OutboxMessage, error) {
	if p.set.CandidateEventsExchange == "" {
		return nil, nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成消息ID失败: %w", err)
	}
	payload, err := json.Marshal(storage.CandidateParsedEvent{
		MessageID:      id.String(),
		SubmissionUUID: rec.SubmissionUUID,
		ParserVersion:  rec.ParserVersion,
		BGXMLMD5:       xmlMD5,
		FirstName:      rec.FirstName,
		LastName:       rec.LastName,
		PrimaryEmail:   rec.PrimaryEmail,
		ParsedAt:       p.set.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("序列化事件失败: %w", err)
	}
	return &models.OutboxMessage{
		MessageID:        id.String(),
		AggregateID:      rec.SubmissionUUID,
		EventType:        constants.EventCandidateParsed,
		Payload:          string(payload),
		TargetExchange:   p.set.CandidateEventsExchange,
		TargetRoutingKey: p.set.CandidateParsedRoutingKey,
		Status:           models.OutboxStatusPending,
	}, nil
}

// GetCandidate 读取已保存的候选人记录
func (p *ResumeProcessor) GetCandidate(ctx context.Context, submissionUUID string) (*types.Candidate, error) {
	rec, err := p.comp.Repo.GetParsedCandidate(ctx, submissionUUID)
	if err != nil {
		return nil, err
	}
	var cand types.Candidate
	if err := json.Unmarshal(rec.CandidateJSON, &cand); err != nil {
		return nil, fmt.Errorf("反序列化候选人失败: %w", err)
	}
	return &cand, nil
}
