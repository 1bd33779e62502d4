package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sinaqlab/sinaq-backend/internal/config"
	"github.com/sinaqlab/sinaq-backend/internal/handler"
	"github.com/sinaqlab/sinaq-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Attempt *handler.AttemptHandler
	Grading *handler.GradingHandler
	Pool    *handler.PoolHandler
}

// SetupRouter configures all Gin route groups.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Session Group (attempt lifecycle) ──────────────────────────
	sessions := router.Group("/api/v1/sessions")
	{
		sessions.POST("/:session_id/selection", handlers.Attempt.CreateSelection)
		sessions.GET("/:session_id/questions", handlers.Attempt.ListQuestions)
		sessions.PUT("/:session_id/answers/:question_id", handlers.Attempt.SubmitAnswer)
		sessions.POST("/:session_id/finalize", handlers.Attempt.Finalize)

		sessions.GET("/:session_id/grading", handlers.Grading.GetGrading)
		sessions.GET("/:session_id/grading/pending", handlers.Grading.ListPending)
		sessions.PUT("/:session_id/grading/:question_id", handlers.Grading.SetGrade)
		sessions.GET("/:session_id/result", handlers.Grading.GetResult)
	}

	// ─── 2. Pool Group (authoring-side inspection) ─────────────────────
	templates := router.Group("/api/v1/templates")
	{
		templates.GET("/:template_id/pool-stats", handlers.Pool.GetPoolStats)
	}
	router.POST("/api/v1/pool-validation", handlers.Pool.ValidatePool)

	return router
}
