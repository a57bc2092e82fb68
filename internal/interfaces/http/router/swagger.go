package router

import (
	// registers the generated OpenAPI document with swag
	_ "github.com/erp/costing/docs"
	"github.com/erp/costing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// MountSwagger serves the API documentation under /swagger. The route is
// always registered so a disabled endpoint answers with the API's 404
// envelope instead of NoRoute.
func MountSwagger(engine *gin.Engine, cfg middleware.SwaggerConfig) {
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)
}
