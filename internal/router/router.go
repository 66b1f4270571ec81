package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hadirku/hadirku-backend/internal/config"
	"github.com/hadirku/hadirku-backend/internal/handler"
	"github.com/hadirku/hadirku-backend/internal/middleware"
	"github.com/hadirku/hadirku-backend/internal/response"
	"github.com/hadirku/hadirku-backend/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Session    *handler.SessionHandler
	CheckIn    *handler.CheckInHandler
	Attendance *handler.AttendanceHandler
	Class      *handler.ClassHandler
	Student    *handler.StudentHandler
	Monitor    *handler.MonitorHandler
	System     *handler.SystemHandler
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

	// Probes and metrics stay outside /api/v1 and outside auth.
	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Scan bursts at lesson start are legitimate, so the check-in limiter
	// is generous per IP and exists only to blunt brute-forcing codes.
	checkinLimiter := middleware.NewRateLimiter(60, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/teacher/login", handlers.Auth.TeacherLogin)

		// Authenticated profile routes
		auth.POST("/student/logout", middleware.RequireStudentJWT(authService), handlers.Auth.StudentLogout)
		auth.GET("/student/me", middleware.RequireStudentJWT(authService), handlers.Auth.GetStudentProfile)
		auth.GET("/teacher/me", middleware.RequireTeacherJWT(authService), handlers.Auth.GetTeacherProfile)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckStudentLogin(authService),
	)
	{
		studentAPI.GET("/session", handlers.CheckIn.GetActiveSession)
		studentAPI.POST("/checkin", checkinLimiter.Middleware(), handlers.CheckIn.CheckIn)
	}

	// ─── 3. Teacher Group (JWT) ────────────────────────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireTeacherJWT(authService))
	{
		// Sessions
		teacherAPI.POST("/sessions", handlers.Session.OpenSession)
		teacherAPI.GET("/sessions/today", handlers.Session.ListTodaySessions)
		teacherAPI.GET("/sessions/:id/code", handlers.Session.GetSessionCode)
		teacherAPI.GET("/sessions/:id/qr", handlers.Session.GetSessionQR)
		teacherAPI.POST("/sessions/:id/close", handlers.Session.CloseSession)
		teacherAPI.GET("/sessions/:id/attendance", handlers.Session.GetSessionAttendance)

		// Ledger
		teacherAPI.POST("/attendance", handlers.Attendance.Mark)
		teacherAPI.GET("/classes/:classId/attendance", handlers.Attendance.Ledger)

		// Class roster
		teacherAPI.GET("/classes", handlers.Class.List)
		teacherAPI.POST("/classes", handlers.Class.Create)
		teacherAPI.GET("/classes/:classId", handlers.Class.Get)
		teacherAPI.PUT("/classes/:classId", handlers.Class.Update)
		teacherAPI.DELETE("/classes/:classId", handlers.Class.Delete)
		teacherAPI.GET("/classes/:classId/students", handlers.Student.ListByClass)

		// Student accounts
		teacherAPI.POST("/students", handlers.Student.Create)
		teacherAPI.PUT("/students/:studentId", handlers.Student.Update)
		teacherAPI.DELETE("/students/:studentId", handlers.Student.Delete)
		teacherAPI.POST("/students/:studentId/reset-password", handlers.Student.ResetPassword)
		teacherAPI.POST("/students/:studentId/reset-login", handlers.Student.ResetLogin)
	}

	// ─── 4. WebSocket Group (Teacher WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireTeacherWSAuth(authService))
	{
		ws.GET("/teacher/sessions/:id/monitor", handlers.Monitor.SessionMonitorStream)
	}

	return router
}
