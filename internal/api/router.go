package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/itinerum/tripbreaker-backend/internal/config"
	"github.com/itinerum/tripbreaker-backend/internal/handler"
	"github.com/itinerum/tripbreaker-backend/internal/metrics"
	"github.com/itinerum/tripbreaker-backend/internal/middleware"
	"github.com/itinerum/tripbreaker-backend/internal/service"
)

// SetupRouter builds the HTTP API. collector may be nil to disable /metrics.
func SetupRouter(ctx context.Context, cfg *config.Config, services *service.Services, collector *metrics.Collector) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Trip breaker API is running",
		})
	})

	if collector != nil {
		r.GET("/metrics", gin.WrapH(collector.Handler()))
	}

	settings := handler.NewSettingsHandler(services.Surveys)
	subway := handler.NewSubwayHandler(services.Stops)
	trips := handler.NewTripHandler(services.Trips)
	exports := handler.NewExportHandler(services.Exports)

	exportLimiter := middleware.NewRateLimiter(ctx, cfg.ExportRateLimit, time.Minute)
	managers := middleware.RequireRoles(middleware.RoleAdmin, middleware.RoleResearcher)

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTSecret))
	{
		survey := api.Group("/survey")
		{
			survey.GET("/settings", settings.GetSettings)
			survey.PUT("/settings", middleware.RequireRoles(middleware.RoleAdmin), settings.UpdateSettings)
		}

		stops := api.Group("/tripbreaker/subway")
		{
			stops.GET("", subway.GetStops)
			stops.POST("", managers, subway.UploadStops)
			stops.DELETE("", managers, subway.DeleteStops)
		}

		api.GET("/users/:uuid/trips", trips.GetUserTrips)

		export := api.Group("/exports")
		{
			export.POST("/trips", managers, middleware.RateLimit(exportLimiter, middleware.BySurvey), exports.CreateTripsExport)
			export.GET("/:id", exports.GetExport)
			export.GET("/:id/download", exports.DownloadExport)
		}
	}

	return r
}
