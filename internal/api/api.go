// internal/api/api.go
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/stockrisk/internal/api/handlers"
	"github.com/andresuchdata/stockrisk/internal/api/middleware"
	"github.com/andresuchdata/stockrisk/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Services struct {
	RiskService *service.RiskService
	Database    HealthChecker
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthHandler(services))

	apiGroup := router.Group("/api/v1")

	if services != nil && services.RiskService != nil {
		riskHandler := handlers.NewRiskHandler(services.RiskService)
		riskGroup := apiGroup.Group("/risk")
		{
			riskGroup.GET("/heatmap", riskHandler.GetHeatmap)
			riskGroup.GET("/alerts", riskHandler.GetAlerts)
			riskGroup.GET("/summary", riskHandler.GetSummary)
			riskGroup.GET("/insight", riskHandler.GetInsight)
			riskGroup.GET("/dashboard", riskHandler.GetDashboard)
			riskGroup.GET("/export.csv", riskHandler.ExportCSV)
			riskGroup.GET("/tiers", riskHandler.GetTiers)
			riskGroup.GET("/available_dates", riskHandler.GetAvailableDates)
			riskGroup.DELETE("/cache", riskHandler.InvalidateCache)
		}
	}

	return router
}

// healthHandler answers 503 while the warehouse cannot be reached.
func healthHandler(services *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if services == nil || services.Database == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := services.Database.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unavailable",
				"database": "down",
				"details":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	}
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
