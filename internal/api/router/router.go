package router

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"resume-match-go/internal/api/handler"
	"resume-match-go/internal/metrics"
	"resume-match-go/internal/ratelimit"
)

// RegisterRoutes 注册 API 路由
// apiKeys 为空时 /api/v1 不做鉴权，analyzeLimiter 为nil时不限流
func RegisterRoutes(h *server.Hertz, ah *handler.AnalysisHandler, apiKeys []string, analyzeLimiter *ratelimit.TokenBucket) {
	h.Use(MetricsMiddleware())

	h.GET("/health", ah.HandleHealth)
	h.GET("/metrics", metricsHandler())

	api := h.Group("/api/v1")
	if len(apiKeys) > 0 {
		api.Use(APIKeyAuth(apiKeys))
	}

	api.GET("/catalog", ah.HandleCatalog)
	api.POST("/validate", ah.HandleValidate)
	api.POST("/extract", ah.HandleExtract)

	sessions := api.Group("/sessions")
	sessions.POST("", ah.HandleCreateSession)
	sessions.GET("/:id", ah.HandleGetSession)
	sessions.DELETE("/:id", ah.HandleDeleteSession)
	sessions.PUT("/:id/form", ah.HandleUpdateForm)
	sessions.POST("/:id/resume", ah.HandleUploadResume)
	if analyzeLimiter != nil {
		sessions.POST("/:id/analyze", ratelimit.Middleware(analyzeLimiter), ah.HandleAnalyze)
	} else {
		sessions.POST("/:id/analyze", ah.HandleAnalyze)
	}
}

// MetricsMiddleware 按路由模板记录请求数和耗时
func MetricsMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := string(c.Method())
		status := strconv.Itoa(c.Response.StatusCode())
		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
	}
}

// APIKeyAuth 校验 Authorization: Bearer <key>
func APIKeyAuth(keys []string) app.HandlerFunc {
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			allowed[k] = struct{}{}
		}
	}
	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+consts.HeaderAuthorization, "Bearer"),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			if _, ok := allowed[key]; ok {
				return true, nil
			}
			return false, errors.New("invalid API key")
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			c.AbortWithStatusJSON(consts.StatusUnauthorized, handler.ErrorResponse{
				Code:    "Unauthorized",
				Message: err.Error(),
			})
		}),
	)
}

func metricsHandler() app.HandlerFunc {
	h := promhttp.Handler()
	return func(ctx context.Context, c *app.RequestContext) {
		req, err := adaptor.GetCompatRequest(&c.Request)
		if err != nil {
			c.AbortWithStatus(consts.StatusInternalServerError)
			return
		}
		h.ServeHTTP(adaptor.GetCompatResponseWriter(&c.Response), req.WithContext(ctx))
	}
}
