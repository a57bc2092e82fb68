package router

import (
	"net/http"

	"github.com/erp/costing/internal/infrastructure/logger"
	"github.com/erp/costing/internal/interfaces/http/dto"
	"github.com/erp/costing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EngineConfig configures the gin engine's middleware stack
type EngineConfig struct {
	Mode           string
	MaxBodySize    int64
	TrustedProxies []string
	CORS           middleware.CORSConfig
	Tracing        middleware.TracingConfig
	// Metrics is added after tracing when set
	Metrics gin.HandlerFunc
}

// NewEngine creates a gin engine with request id, tracing, logging,
// recovery and body limit middleware, in that order
func NewEngine(cfg EngineConfig, log *zap.Logger) (*gin.Engine, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.Tracing),
		middleware.SpanMarker(),
	)
	if cfg.Metrics != nil {
		engine.Use(cfg.Metrics)
	}
	engine.Use(
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORS(cfg.CORS),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	return engine, nil
}
