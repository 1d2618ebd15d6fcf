package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hireloop/interview-backend/internal/config"
	"github.com/hireloop/interview-backend/internal/handler"
	"github.com/hireloop/interview-backend/internal/middleware"
	"github.com/hireloop/interview-backend/internal/response"
	"github.com/hireloop/interview-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Interview *handler.InterviewHandler
	Session   *handler.SessionHandler
	WS        *handler.WSHandler
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

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for event reporting (60 requests per minute per IP).
	eventLimiter := middleware.NewRateLimiter(60, time.Minute)

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.GET("/me", middleware.RequireCandidateJWT(authService), handlers.Auth.Me)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.Me)
		auth.POST("/logout", middleware.RequireCandidateJWT(authService), handlers.Auth.Logout)
	}

	// ─── 2. Candidate Group (JWT + Single Device) ──────────────────────
	candidateAPI := router.Group("/api/v1/candidate")
	candidateAPI.Use(
		middleware.RequireCandidateJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		candidateAPI.GET("/interviews/active", handlers.Session.GetActiveInterview)
		candidateAPI.POST("/interviews/:interview_id/start", handlers.Session.StartInterview)
		candidateAPI.GET("/interviews/:interview_id/summary", handlers.Session.GetSummary)
		candidateAPI.GET("/sessions/:session_id/question", handlers.Session.NextQuestion)
		candidateAPI.POST("/sessions/:session_id/answer", handlers.Session.SubmitAnswer)
		candidateAPI.POST("/sessions/:session_id/proctoring-events",
			eventLimiter.Middleware(),
			handlers.Session.ReportProctoringEvent,
		)
	}

	// ─── 3. WebSocket Group (Candidate WS Auth) ────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireCandidateWSAuth(authService))
	{
		ws.GET("/proctoring/control", handlers.WS.ProctoringControl)
		ws.GET("/proctoring/media", handlers.WS.ProctoringMedia)
	}

	// ─── 4. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/interviews", handlers.Interview.ListInterviews)
		adminAPI.POST("/interviews", handlers.Interview.CreateInterview)
		adminAPI.GET("/interviews/:interview_id", handlers.Interview.GetInterview)
		adminAPI.POST("/interviews/:interview_id/cancel", handlers.Interview.CancelInterview)
		adminAPI.POST("/interviews/:interview_id/reschedule", handlers.Interview.RescheduleInterview)
		adminAPI.GET("/interviews/:interview_id/summary", handlers.Interview.GetSummary)

		adminAPI.GET("/templates", handlers.Interview.ListTemplates)
		adminAPI.POST("/templates", handlers.Interview.CreateTemplate)

		adminAPI.GET("/candidates", handlers.Interview.ListCandidates)
		adminAPI.POST("/candidates", handlers.Interview.CreateCandidate)
		adminAPI.POST("/candidates/:candidate_id/reset-session", handlers.Interview.ResetCandidateSession)
	}

	return router
}
