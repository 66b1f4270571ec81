package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hadirku/hadirku-backend/internal/config"
	"github.com/hadirku/hadirku-backend/internal/middleware"
	"github.com/hadirku/hadirku-backend/internal/service"
	"github.com/hadirku/hadirku-backend/internal/ws"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams live check-ins to the session's teacher.
type MonitorHandler struct {
	rdb               *redis.Client
	sessionService    *service.SessionService
	attendanceService *service.AttendanceService
	log               zerolog.Logger
	upgrader          websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(rdb *redis.Client, sessionService *service.SessionService, attendanceService *service.AttendanceService, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		rdb:               rdb,
		sessionService:    sessionService,
		attendanceService: attendanceService,
		log:               log.With().Str("component", "monitor_handler").Logger(),
		upgrader:          buildUpgrader(allowedOrigins),
	}
}

// SessionMonitorStream godoc
// WS /ws/v1/teacher/sessions/:id/monitor
// Sends the current ledger as a snapshot, then relays accepted check-ins
// published on the session's Redis channel until the client disconnects.
func (h *MonitorHandler) SessionMonitorStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	sess, err := h.sessionService.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		failEngineError(c, err)
		return
	}
	if !sessionOwnedBy(sess, claims) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your session"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("teacher_id", claims.UserID).
		Str("session_id", sessionID.String()).
		Logger()
	wsLog.Info().Msg("Monitor connected")

	// Snapshot first so the view starts complete. Live events only append.
	records, err := h.attendanceService.Ledger(c.Request.Context(), sess.ClassID, sess.AttendanceDate)
	if err != nil {
		ws.WriteError(conn, "failed to load attendance snapshot")
		return
	}
	if err := ws.WriteTyped(conn, ws.SnapshotResponse{Event: ws.EventSnapshot, Records: records}); err != nil {
		return
	}

	sub := h.rdb.Subscribe(c.Request.Context(), config.CacheKey.SessionMonitorChannel(sessionID.String()))
	defer sub.Close()

	// Reader goroutine only detects client close; the monitor is one-way.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				wsLog.Debug().Msg("Subscription closed")
				return
			}
			var ev service.MonitorEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				wsLog.Warn().Err(err).Msg("Malformed monitor event")
				continue
			}
			out := ws.CheckInResponse{
				Event:       ws.EventCheckIn,
				StudentID:   ev.StudentID,
				StudentName: ev.StudentName,
				Status:      string(ev.Status),
				CheckedInAt: ev.CheckedInAt.Format(time.RFC3339),
			}
			if err := ws.WriteTyped(conn, out); err != nil {
				wsLog.Debug().Msg("Client gone")
				return
			}
		case <-ping.C:
			if err := ws.WriteTyped(conn, ws.PingResponse{Event: ws.EventPing}); err != nil {
				return
			}
		case <-done:
			wsLog.Info().Msg("Monitor disconnected")
			return
		}
	}
}
