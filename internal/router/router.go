package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-proctor/internal/config"
	"github.com/stemsi/exstem-proctor/internal/handler"
	"github.com/stemsi/exstem-proctor/internal/middleware"
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam    *handler.ExamHandler
	WS      *handler.WSHandler
	Monitor *handler.MonitorHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// registerLimiter may be nil to disable rate limiting on registration.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	registerLimiter *middleware.RateLimiter,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", middleware.MonitorTokenHeader}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Brotli skips WebSocket upgrades and SSE on its own.
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	// ─── 1. Public Group ───────────────────────────────────────────────
	public := router.Group("/api/v1")
	{
		register := []gin.HandlerFunc{handlers.Exam.Register}
		if registerLimiter != nil {
			register = append([]gin.HandlerFunc{registerLimiter.Middleware()}, register...)
		}
		public.POST("/candidates", register...)
		public.GET("/exam/instructions", handlers.Exam.Instructions)
	}

	// ─── 2. Candidate Group (JWT + current registration) ───────────────
	exam := router.Group("/api/v1/exam")
	exam.Use(
		middleware.RequireCandidateJWT(authService),
		middleware.CheckActiveSession(authService),
		middleware.NoStore(),
	)
	{
		exam.POST("/start", handlers.Exam.Start)
		exam.GET("/state", handlers.Exam.State)
		exam.GET("/question", handlers.Exam.CurrentQuestion)
		exam.POST("/answers", handlers.Exam.SelectAnswer)
		exam.POST("/advance", handlers.Exam.Advance)
		exam.POST("/violations", handlers.Exam.RecordViolation)
		exam.POST("/finish", handlers.Exam.Finish)
		exam.GET("/result", handlers.Exam.Result)
	}

	// ─── 3. WebSocket Group (Candidate WS Auth) ────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireCandidateWSAuth(authService),
		middleware.CheckActiveSession(authService),
	)
	{
		ws.GET("/exam/stream", handlers.WS.ExamWebSocketStream)
	}

	// ─── 4. Monitor Group (shared proctor token) ───────────────────────
	monitor := router.Group("/api/v1/monitor")
	monitor.Use(middleware.RequireMonitorToken(cfg.MonitorToken), middleware.NoStore())
	{
		monitor.GET("/stream", handlers.Monitor.MonitorStreamSSE)
		monitor.GET("/sessions/:session_id/violations", handlers.Monitor.ListViolations)
	}

	return router
}
