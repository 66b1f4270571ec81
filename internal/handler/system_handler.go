package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SystemHandler serves liveness and readiness probes.
type SystemHandler struct {
	db        *pgxpool.Pool
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(db *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		db:        db,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

// Health godoc
// GET /health
// Pings both stores with a short deadline. A degraded store turns the
// probe 503 so the load balancer stops routing check-ins here.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{"postgres": "up", "redis": "up"}

	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Postgres health check failed")
		checks["postgres"] = "down"
		status = http.StatusServiceUnavailable
	}
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		h.log.Warn().Err(err).Msg("Redis health check failed")
		checks["redis"] = "down"
		status = http.StatusServiceUnavailable
	}

	statusText := "ok"
	if status != http.StatusOK {
		statusText = "degraded"
	}
	c.JSON(status, gin.H{
		"status": statusText,
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
		"checks": checks,
	})
}
