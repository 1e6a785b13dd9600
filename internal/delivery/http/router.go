package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/delivery/http/middleware"
	"github.com/Harsh-BH/sentinel-judge/internal/usecase"
)

// defaultMaxBodyBytes leaves room for the 1MB source limit plus JSON framing.
const defaultMaxBodyBytes = 2 << 20

// RouterDeps bundles everything the HTTP layer needs.
type RouterDeps struct {
	SubmitUC     *usecase.SubmitSubmissionUsecase
	GetUC        *usecase.GetSubmissionUsecase
	CompileUC    *usecase.CompileRunUsecase
	Toolchains   LanguageLister
	HealthChecks map[string]HealthCheck
	Logger       *zap.Logger

	RateLimitPerMin int
	RateBurst       int
	MaxBodyBytes    int64
	StreamInterval  time.Duration
}

// NewRouter creates and configures the Gin router with all routes and middleware.
func NewRouter(deps *RouterDeps) *gin.Engine {
	logger := deps.Logger
	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(logger))

	// Metrics endpoint (no rate limiting)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		healthHandler := NewHealthHandler(deps.HealthChecks, logger)
		v1.GET("/health", healthHandler.Health)

		langHandler := NewLanguageHandler(deps.Toolchains)
		v1.GET("/languages", langHandler.List)

		subHandler := NewSubmissionHandler(deps.SubmitUC, deps.GetUC, logger)
		wsHandler := NewWebSocketHandler(deps.GetUC, deps.StreamInterval, logger)
		v1.GET("/submissions/:id", subHandler.GetByID)
		v1.GET("/submissions/:id/stream", wsHandler.Stream)

		// Endpoints that start processes are rate limited and size capped.
		limited := v1.Group("")
		limited.Use(middleware.RateLimiter(deps.RateLimitPerMin, deps.RateBurst))
		limited.Use(middleware.BodySizeLimit(maxBody))
		{
			limited.POST("/submissions", subHandler.Submit)

			compileHandler := NewCompileHandler(deps.CompileUC, logger)
			limited.POST("/compile", compileHandler.Run)
		}
	}

	return router
}
