package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hadirku/hadirku-backend/internal/middleware"
	"github.com/hadirku/hadirku-backend/internal/response"
	"github.com/hadirku/hadirku-backend/internal/service"
	"github.com/hadirku/hadirku-backend/internal/validator"
)

// CheckInHandler handles the student-facing scan/type check-in endpoints.
type CheckInHandler struct {
	checkinService *service.CheckInService
	sessionService *service.SessionService
	studentService *service.StudentService
}

// NewCheckInHandler creates a new CheckInHandler.
func NewCheckInHandler(checkinService *service.CheckInService, sessionService *service.SessionService, studentService *service.StudentService) *CheckInHandler {
	return &CheckInHandler{
		checkinService: checkinService,
		sessionService: sessionService,
		studentService: studentService,
	}
}

// CheckInRequest is the scan payload. SessionID is present when the client
// scanned the QR (the payload carries it); typed entry sends only the code
// and the session resolves from the student's class.
type CheckInRequest struct {
	SessionID string `json:"session_id" binding:"omitempty,uuid"`
	Code      string `json:"code" binding:"required,min=4,max=12"`
}

// CheckIn godoc
// POST /api/v1/student/checkin
func (h *CheckInHandler) CheckIn(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req CheckInRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	var sessionID *uuid.UUID
	if req.SessionID != "" {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		sessionID = &id
	}

	// Student name rides along for the teacher's live monitor only.
	studentName := ""
	if student, err := h.studentService.GetByID(c.Request.Context(), claims.UserID); err == nil {
		studentName = student.Name
	}

	rec, err := h.checkinService.CheckIn(c.Request.Context(), sessionID, req.Code, claims.UserID, claims.ClassID, studentName)
	if err != nil {
		failEngineError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"record": rec})
}

// GetActiveSession godoc
// GET /api/v1/student/session
// Returns the active session for the student's class today, without the
// code. The student needs it only to know whether check-in is open.
func (h *CheckInHandler) GetActiveSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sess, err := h.sessionService.ActiveForClass(c.Request.Context(), claims.ClassID)
	if err != nil {
		failEngineError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session":   sess,
		"accepting": h.sessionService.IsAcceptingCheckIns(sess),
	})
}
