package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hadirku/hadirku-backend/internal/code"
	"github.com/hadirku/hadirku-backend/internal/middleware"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/hadirku/hadirku-backend/internal/response"
	"github.com/hadirku/hadirku-backend/internal/service"
	"github.com/hadirku/hadirku-backend/internal/validator"
)

// SessionHandler handles teacher-facing session lifecycle endpoints.
type SessionHandler struct {
	sessionService    *service.SessionService
	attendanceService *service.AttendanceService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService, attendanceService *service.AttendanceService) *SessionHandler {
	return &SessionHandler{
		sessionService:    sessionService,
		attendanceService: attendanceService,
	}
}

// OpenSessionRequest is the payload for opening a session.
type OpenSessionRequest struct {
	ClassID int `json:"class_id" binding:"required,min=1"`
}

// OpenSession godoc
// POST /api/v1/teacher/sessions
// Opens the single active session for (class, today).
func (h *SessionHandler) OpenSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req OpenSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.sessionService.Open(c.Request.Context(), req.ClassID, claims.UserID)
	if err != nil {
		failEngineError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": sess})
}

// GetSessionCode godoc
// GET /api/v1/teacher/sessions/:id/code
// Returns the current code, rotating first if the stored one has aged out.
// The teacher UI polls this; the poll itself is what drives rotation.
func (h *SessionHandler) GetSessionCode(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	info, err := h.sessionService.CurrentCode(c.Request.Context(), sessionID)
	if err != nil {
		failEngineError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"code": info})
}

// GetSessionQR godoc
// GET /api/v1/teacher/sessions/:id/qr
// Renders the current code as a QR PNG. Never cached: the code rotates.
func (h *SessionHandler) GetSessionQR(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	info, err := h.sessionService.CurrentCode(c.Request.Context(), sessionID)
	if err != nil {
		failEngineError(c, err)
		return
	}

	png, err := code.QRPNG(info.SessionID.String(), info.Code, 512)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// CloseSession godoc
// POST /api/v1/teacher/sessions/:id/close
// Owner-only. Idempotent: closing a terminal session is a no-op success.
func (h *SessionHandler) CloseSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	sess, err := h.sessionService.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		failEngineError(c, err)
		return
	}
	if !sessionOwnedBy(sess, middleware.GetClaims(c)) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	sess, err = h.sessionService.Close(c.Request.Context(), sessionID)
	if err != nil {
		failEngineError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": sess})
}

// ListTodaySessions godoc
// GET /api/v1/teacher/sessions/today
func (h *SessionHandler) ListTodaySessions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessions, err := h.sessionService.ListToday(c.Request.Context(), claims.UserID)
	if err != nil {
		failEngineError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

// GetSessionAttendance godoc
// GET /api/v1/teacher/sessions/:id/attendance
// Returns the ledger for the session's class and date.
func (h *SessionHandler) GetSessionAttendance(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	sess, err := h.sessionService.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		failEngineError(c, err)
		return
	}

	records, err := h.attendanceService.Ledger(c.Request.Context(), sess.ClassID, sess.AttendanceDate)
	if err != nil {
		failEngineError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session":   sess,
		"records":   records,
		"accepting": sess.AcceptingAt(time.Now()),
	})
}

// sessionOwnedBy reports whether the session belongs to the teacher in the
// claims. Sessions are visible read-only to others resolving check-ins, but
// only the owner mutates them.
func sessionOwnedBy(sess *model.AttendanceSession, claims *service.Claims) bool {
	return claims != nil && sess.TeacherID == claims.UserID
}
