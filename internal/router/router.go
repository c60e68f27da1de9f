package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/luminedu/assess-engine/internal/config"
	"github.com/luminedu/assess-engine/internal/handler"
	"github.com/luminedu/assess-engine/internal/middleware"
	"github.com/luminedu/assess-engine/internal/response"
	"github.com/luminedu/assess-engine/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Session *handler.SessionHandler
	Grader  *handler.GraderHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
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

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Serve uploaded evidence files statically with aggressive caching (1 year).
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.ImmutableCache(365 * 24 * time.Hour))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/participant/login", handlers.Auth.ParticipantLogin)
		auth.POST("/grader/login", handlers.Auth.GraderLogin)

		// Authenticated profile routes
		auth.GET("/participant/me", middleware.RequireParticipantJWT(authService), handlers.Auth.GetParticipantProfile)
		auth.POST("/participant/logout", middleware.RequireParticipantJWT(authService), handlers.Auth.ParticipantLogout)
	}

	// ─── 2. Participant Group (JWT) ────────────────────────────────────
	participantAPI := router.Group("/api/v1")
	participantAPI.Use(middleware.RequireParticipantJWT(authService))
	{
		participantAPI.GET("/exams", handlers.Session.ListExams)
		participantAPI.GET("/exams/:examId/paper", handlers.Session.GetPaper)
		participantAPI.POST("/exams/:examId/sessions", handlers.Session.StartSession)

		participantAPI.GET("/sessions/:sessionId", handlers.Session.GetState)
		participantAPI.PUT("/sessions/:sessionId/answers/:questionId", handlers.Session.SelectOption)
		participantAPI.DELETE("/sessions/:sessionId/answers/:questionId", handlers.Session.ClearSelection)
		participantAPI.POST("/sessions/:sessionId/evidence/:questionId", handlers.Session.UploadEvidence)
		participantAPI.DELETE("/sessions/:sessionId/evidence/:questionId/:index", handlers.Session.RemoveEvidence)
		participantAPI.GET("/sessions/:sessionId/confirmation", handlers.Session.GetConfirmation)
		participantAPI.POST("/sessions/:sessionId/submit", handlers.Session.Submit)
		participantAPI.POST("/sessions/:sessionId/abandon", handlers.Session.Abandon)
		participantAPI.GET("/sessions/:sessionId/result", handlers.Session.GetResult)
		participantAPI.GET("/results", handlers.Session.ListMyResults)
	}

	// ─── 3. WebSocket Group (Participant WS Auth) ──────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireParticipantWSAuth(authService))
	{
		ws.GET("/sessions/:sessionId/stream", handlers.WS.SessionStream)
	}

	// ─── 4. Grading Group (Grader JWT) ─────────────────────────────────
	gradingAPI := router.Group("/api/v1/grading")
	gradingAPI.Use(middleware.RequireGraderJWT(authService))
	{
		gradingAPI.GET("/exams/:examId/pending", handlers.Grader.ListPending)
		gradingAPI.GET("/submissions/:sessionId", handlers.Grader.GetSubmission)
		gradingAPI.POST("/submissions/:sessionId", handlers.Grader.GradeSubmission)
	}

	return router
}
