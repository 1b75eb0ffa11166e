package router

import (
	"context"
	"crypto/subtle"
	"errors"

	"resume-parser-go/internal/api/handler"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// APIKeyHeader 客户端传递API Key的请求头
const APIKeyHeader = "X-API-Key"

var errInvalidAPIKey = errors.New("invalid api key")

// RegisterRoutes 注册 API 路由，apiKeys 为空时不鉴权
func RegisterRoutes(h *server.Hertz, resumeHandler *handler.ResumeHandler, apiKeys []string) {
	api := h.Group("/api/v1")
	api.GET("/health", resumeHandler.Health)

	protected := api.Group("")
	if len(apiKeys) > 0 {
		protected.Use(NewKeyAuth(apiKeys))
	}
	protected.POST("/resume/parse", resumeHandler.Parse)
	protected.POST("/resume/upload", resumeHandler.Upload)
	protected.GET("/candidates/:submission_uuid", resumeHandler.GetCandidate)
}

// NewKeyAuth 校验 X-API-Key 请求头
func NewKeyAuth(apiKeys []string) app.HandlerFunc {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}
	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+APIKeyHeader, ""),
		keyauth.WithValidator(func(_ context.Context, _ *app.RequestContext, key string) (bool, error) {
			for _, k := range keys {
				if subtle.ConstantTimeCompare(k, []byte(key)) == 1 {
					return true, nil
				}
			}
			return false, errInvalidAPIKey
		}),
		keyauth.WithErrorHandler(func(_ context.Context, ctx *app.RequestContext, err error) {
			ctx.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": "API Key 无效"})
		}),
	)
}
