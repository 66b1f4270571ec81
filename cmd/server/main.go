package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hadirku/hadirku-backend/internal/code"
	"github.com/hadirku/hadirku-backend/internal/config"
	"github.com/hadirku/hadirku-backend/internal/database"
	"github.com/hadirku/hadirku-backend/internal/handler"
	"github.com/hadirku/hadirku-backend/internal/logger"
	"github.com/hadirku/hadirku-backend/internal/repository"
	"github.com/hadirku/hadirku-backend/internal/router"
	"github.com/hadirku/hadirku-backend/internal/service"
	"github.com/hadirku/hadirku-backend/internal/validator"
	"github.com/hadirku/hadirku-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Hadirku Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	classRepo := repository.NewClassRepository(pool)
	teacherRepo := repository.NewTeacherRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	codeGen := code.NewGenerator(cfg.CodeLength)

	authService := service.NewAuthService(cfg, rdb)
	classService := service.NewClassService(classRepo)
	teacherService := service.NewTeacherService(teacherRepo)
	studentService := service.NewStudentService(studentRepo)
	sessionService := service.NewSessionService(sessionRepo, codeGen, rdb, cfg, log)
	checkinService := service.NewCheckInService(sessionRepo, attendanceRepo, rdb, cfg, log)
	attendanceService := service.NewAttendanceService(attendanceRepo, cfg, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService, teacherService, studentService),
		Session:    handler.NewSessionHandler(sessionService, attendanceService),
		CheckIn:    handler.NewCheckInHandler(checkinService, sessionService, studentService),
		Attendance: handler.NewAttendanceHandler(attendanceService),
		Class:      handler.NewClassHandler(classService),
		Student:    handler.NewStudentHandler(studentService, authService),
		Monitor:    handler.NewMonitorHandler(rdb, sessionService, attendanceService, log, cfg.AllowedOrigins),
		System:     handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	sweepWorker := worker.NewSweepWorker(sessionRepo, rdb, log)
	finalizeWorker := worker.NewFinalizeWorker(attendanceRepo, rdb, log)

	go sweepWorker.Start(workerCtx)
	go finalizeWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the finalize queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
