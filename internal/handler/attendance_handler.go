package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hadirku/hadirku-backend/internal/middleware"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/hadirku/hadirku-backend/internal/response"
	"github.com/hadirku/hadirku-backend/internal/service"
	"github.com/hadirku/hadirku-backend/internal/validator"
)

// AttendanceHandler serves the teacher-facing ledger and manual marks.
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

// MarkRequest is a manual attendance entry by staff.
type MarkRequest struct {
	StudentID int     `json:"student_id" binding:"required"`
	ClassID   int     `json:"class_id" binding:"required"`
	Date      string  `json:"date" binding:"required,datetime=2006-01-02"`
	Status    string  `json:"status" binding:"required,oneof=present absent late excused"`
	Note      *string `json:"note" binding:"omitempty,max=255"`
}

// Mark godoc
// POST /api/v1/teacher/attendance
func (h *AttendanceHandler) Mark(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req MarkRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
		return
	}

	rec, err := h.attendanceService.Mark(
		c.Request.Context(),
		req.StudentID,
		req.ClassID,
		date,
		model.AttendanceStatus(req.Status),
		claims.UserID,
		req.Note,
	)
	if err != nil {
		failEngineError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"record": rec})
}

// Ledger godoc
// GET /api/v1/teacher/classes/:classId/attendance?date=YYYY-MM-DD
func (h *AttendanceHandler) Ledger(c *gin.Context) {
	classID, ok := parseIntParam(c, "classId")
	if !ok {
		return
	}

	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
			return
		}
		date = parsed
	}

	records, err := h.attendanceService.Ledger(c.Request.Context(), classID, date)
	if err != nil {
		failEngineError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"records": records})
}
