package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/warehouse/internal/metrics"
	"github.com/polkiloo/warehouse/internal/server/http/handlers"
	"github.com/polkiloo/warehouse/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.WarehouseFacade, m *metrics.Metrics, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.Compression())

	shipmentHandler := handlers.NewShipmentHandler(facade)
	syncHandler := handlers.NewSyncHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	engine.GET("/healthz", healthHandler.Check)
	engine.GET("/metrics", gin.WrapH(m.Handler()))

	api := engine.Group("/api")
	api.Use(middleware.AuthRequired(facade))
	api.POST("/shipments", shipmentHandler.Create)
	api.GET("/orders/:id/packages", shipmentHandler.Packages)
	api.POST("/fulfillment-syncs/:id/retry", syncHandler.Retry)

	return engine
}
