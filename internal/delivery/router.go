package delivery

import (
	"net/http"

	"catalog_service/internal/middleware"
	"catalog_service/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	AdminTokenHash string
	Metrics        *observability.Metrics // nil disables /metrics
	Log            *logrus.Logger
}

// NewRouter mounts the storefront routes publicly and the write routes
// behind admin auth.
func NewRouter(cfg RouterConfig, catalog *CatalogHandler, categories *CategoryHandler, products *ProductHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(cfg.Log))
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	catalog.RegisterRoutes(router)

	admin := router.Group("", middleware.AdminAuth(cfg.AdminTokenHash, cfg.Log))
	categories.RegisterRoutes(admin)
	products.RegisterRoutes(admin)

	router.NoRoute(func(c *gin.Context) {
		ErrorResponse(c, http.StatusNotFound, "Route not found")
	})
	return router
}
