package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"resume-parser-go/internal/bgxml"
	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/logger"
	"resume-parser-go/internal/processor"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"
)

// CandidateService 处理器对外提供的能力
type CandidateService interface {
	ParseDocument(ctx context.Context, xml []byte, resumeText string) (*processor.ParseResult, error)
	SubmitUpload(ctx context.Context, req processor.UploadRequest) (*processor.UploadResult, error)
	GetCandidate(ctx context.Context, submissionUUID string) (*types.Candidate, error)
}

// HealthChecker 依赖组件的健康状态
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

// ResumeHandler 简历相关接口
type ResumeHandler struct {
	svc       CandidateService
	health    HealthChecker
	maxUpload int64
}

// NewResumeHandler 创建处理器，maxUploadMB<=0 时使用 32MB
func NewResumeHandler(svc CandidateService, health HealthChecker, maxUploadMB int) *ResumeHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 32
	}
	return &ResumeHandler{svc: svc, health: health, maxUpload: int64(maxUploadMB) << 20}
}

// ParseResponse 同步解析响应
type ParseResponse struct {
	BGXMLMD5  string           `json:"bg_xml_md5"`
	CacheHit  bool             `json:"cache_hit"`
	Candidate *types.Candidate `json:"candidate"`
}

// Parse POST /api/v1/resume/parse
// 请求体为XML，或 multipart 的 bg_xml 文件加可选 resume_text 字段
func (h *ResumeHandler) Parse(c context.Context, ctx *app.RequestContext) {
	xml, resumeText, err := h.readXMLInput(ctx)
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		return
	}

	res, err := h.svc.ParseDocument(c, xml, resumeText)
	if err != nil {
		if errors.Is(err, bgxml.ErrUndecodable) || errors.Is(err, bgxml.ErrEmptyDocument) {
			ctx.JSON(consts.StatusUnprocessableEntity, utils.H{"error": err.Error()})
			return
		}
		logger.Ctx(c).Error().Err(err).Msg("同步解析失败")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "解析失败"})
		return
	}

	ctx.JSON(consts.StatusOK, ParseResponse{
		BGXMLMD5:  res.XMLMD5,
		CacheHit:  res.CacheHit,
		Candidate: res.Candidate,
	})
}

// Upload POST /api/v1/resume/upload
// multipart: bg_xml（必填）、file（原始简历）、resume_text、source_channel、talent_pool_ids（逗号分隔）
func (h *ResumeHandler) Upload(c context.Context, ctx *app.RequestContext) {
	xmlHeader, err := ctx.FormFile("bg_xml")
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "缺少 bg_xml 文件"})
		return
	}
	xml, err := h.readFormFile(xmlHeader)
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		return
	}

	poolIDs, err := parseTalentPoolIDs(ctx.PostForm("talent_pool_ids"))
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		return
	}

	req := processor.UploadRequest{
		BGXML:         xml,
		ResumeText:    ctx.PostForm("resume_text"),
		SourceChannel: ctx.PostForm("source_channel"),
		TalentPoolIDs: poolIDs,
	}
	if req.SourceChannel == "" {
		req.SourceChannel = constants.SourceChannelAPI
	}
	if fileHeader, err := ctx.FormFile("file"); err == nil {
		if req.Original, err = h.readFormFile(fileHeader); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}
		req.OriginalFilename = fileHeader.Filename
	}

	res, err := h.svc.SubmitUpload(c, req)
	switch {
	case errors.Is(err, processor.ErrDuplicateSubmission):
		ctx.JSON(consts.StatusOK, res)
	case errors.Is(err, processor.ErrInvalidMessage):
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
	case err != nil:
		logger.Ctx(c).Error().Err(err).Msg("提交BG XML失败")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "提交失败"})
	default:
		ctx.JSON(consts.StatusAccepted, res)
	}
}

// GetCandidate GET /api/v1/candidates/:submission_uuid
func (h *ResumeHandler) GetCandidate(c context.Context, ctx *app.RequestContext) {
	id := ctx.Param("submission_uuid")
	if _, err := uuid.FromString(id); err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "submission_uuid 格式无效"})
		return
	}

	cand, err := h.svc.GetCandidate(c, id)
	if err != nil {
		if errors.Is(err, storage.ErrCandidateNotFound) {
			ctx.JSON(consts.StatusNotFound, utils.H{"error": "候选人不存在"})
			return
		}
		logger.Ctx(c).Error().Err(err).Str("submission_uuid", id).Msg("查询候选人失败")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "查询失败"})
		return
	}
	ctx.JSON(consts.StatusOK, cand)
}

// Health GET /api/v1/health
func (h *ResumeHandler) Health(c context.Context, ctx *app.RequestContext) {
	if h.health == nil {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
		return
	}
	components := h.health.Health(c)
	status, code := "ok", consts.StatusOK
	for _, s := range components {
		if s == "down" {
			status, code = "degraded", consts.StatusServiceUnavailable
			break
		}
	}
	ctx.JSON(code, utils.H{"status": status, "components": components})
}

func (h *ResumeHandler) readXMLInput(ctx *app.RequestContext) ([]byte, string, error) {
	if strings.HasPrefix(string(ctx.ContentType()), "multipart/form-data") {
		fh, err := ctx.FormFile("bg_xml")
		if err != nil {
			return nil, "", fmt.Errorf("缺少 bg_xml 文件")
		}
		xml, err := h.readFormFile(fh)
		if err != nil {
			return nil, "", err
		}
		return xml, ctx.PostForm("resume_text"), nil
	}

	body := ctx.Request.Body()
	if int64(len(body)) > h.maxUpload {
		return nil, "", fmt.Errorf("请求体超过 %d 字节", h.maxUpload)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, "", fmt.Errorf("请求体为空")
	}
	return body, string(ctx.QueryArgs().Peek("resume_text")), nil
}

func (h *ResumeHandler) readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > h.maxUpload {
		return nil, fmt.Errorf("文件 %s 超过 %d 字节", fh.Filename, h.maxUpload)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, h.maxUpload))
}

func parseTalentPoolIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("talent_pool_ids 无效: %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
