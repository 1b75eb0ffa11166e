package router

import (
	"context"
	"testing"

	"resume-parser-go/internal/api/handler"
	"resume-parser-go/internal/processor"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/stretchr/testify/assert"
)

type notFoundService struct{}

func (notFoundService) ParseDocument(context.Context, []byte, string) (*processor.ParseResult, error) {
	return &processor.ParseResult{Candidate: &types.Candidate{}}, nil
}

func (notFoundService) SubmitUpload(context.Context, processor.UploadRequest) (*processor.UploadResult, error) {
	return &processor.UploadResult{}, nil
}

func (notFoundService) GetCandidate(context.Context, string) (*types.Candidate, error) {
	return nil, storage.ErrCandidateNotFound
}

const candidatePath = "/api/v1/candidates/0190b2a4-6f0e-7c3a-9d2e-1f4b5a6c7d8e"

func newTestServer(apiKeys []string) *server.Hertz {
	h := server.Default(server.WithHostPorts("127.0.0.1:0"))
	RegisterRoutes(h, handler.NewResumeHandler(notFoundService{}, nil, 0), apiKeys)
	return h
}

func TestRegisterRoutes_KeyAuth(t *testing.T) {
	h := newTestServer([]string{"secret-1", "secret-2"})

	w := ut.PerformRequest(h.Engine, "GET", candidatePath, nil)
	assert.Equal(t, consts.StatusUnauthorized, w.Result().StatusCode(), "缺少 API Key")

	w = ut.PerformRequest(h.Engine, "GET", candidatePath, nil, ut.Header{Key: APIKeyHeader, Value: "wrong"})
	assert.Equal(t, consts.StatusUnauthorized, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, "GET", candidatePath, nil, ut.Header{Key: APIKeyHeader, Value: "secret-2"})
	assert.Equal(t, consts.StatusNotFound, w.Result().StatusCode())

	// 健康检查不需要鉴权
	w = ut.PerformRequest(h.Engine, "GET", "/api/v1/health", nil)
	assert.Equal(t, consts.StatusOK, w.Result().StatusCode())
}

func TestRegisterRoutes_NoKeys(t *testing.T) {
	h := newTestServer(nil)
	w := ut.PerformRequest(h.Engine, "GET", candidatePath, nil)
	assert.Equal(t, consts.StatusNotFound, w.Result().StatusCode())
}
