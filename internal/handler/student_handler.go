package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/hadirku/hadirku-backend/internal/response"
	"github.com/hadirku/hadirku-backend/internal/service"
	"github.com/hadirku/hadirku-backend/internal/validator"
	"github.com/jackc/pgx/v5"
)

// StudentHandler serves student roster management for teachers.
type StudentHandler struct {
	studentService *service.StudentService
	authService    *service.AuthService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService, authService *service.AuthService) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		authService:    authService,
	}
}

// CreateStudentRequest registers a new student in a class.
type CreateStudentRequest struct {
	NISN     string `json:"nisn" binding:"required,numeric,min=8,max=12"`
	Name     string `json:"name" binding:"required,max=100"`
	ClassID  int    `json:"class_id" binding:"required"`
	Password string `json:"password" binding:"required,min=8,max=64"`
}

// UpdateStudentRequest changes a student's identity or enrollment.
type UpdateStudentRequest struct {
	NISN    string `json:"nisn" binding:"required,numeric,min=8,max=12"`
	Name    string `json:"name" binding:"required,max=100"`
	ClassID int    `json:"class_id" binding:"required"`
}

// ResetPasswordRequest sets a new password for a student.
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8,max=64"`
}

// ListByClass godoc
// GET /api/v1/teacher/classes/:classId/students
func (h *StudentHandler) ListByClass(c *gin.Context) {
	classID, ok := parseIntParam(c, "classId")
	if !ok {
		return
	}

	students, err := h.studentService.ListByClass(c.Request.Context(), classID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"students": students})
}

// Create godoc
// POST /api/v1/teacher/students
func (h *StudentHandler) Create(c *gin.Context) {
	var req CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	student := &model.Student{
		NISN:         req.NISN,
		Name:         req.Name,
		ClassID:      req.ClassID,
		PasswordHash: hash,
	}
	if err := h.studentService.Create(c.Request.Context(), student); err != nil {
		failPgError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"student": student})
}

// Update godoc
// PUT /api/v1/teacher/students/:studentId
func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := parseIntParam(c, "studentId")
	if !ok {
		return
	}

	var req UpdateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student := &model.Student{
		ID:      id,
		NISN:    req.NISN,
		Name:    req.Name,
		ClassID: req.ClassID,
	}
	if err := h.studentService.Update(c.Request.Context(), student); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		failPgError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// ResetPassword godoc
// POST /api/v1/teacher/students/:studentId/reset-password
// Also drops the student's registered login so the old token stops working.
func (h *StudentHandler) ResetPassword(c *gin.Context) {
	id, ok := parseIntParam(c, "studentId")
	if !ok {
		return
	}

	var req ResetPasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if err := h.studentService.UpdatePassword(c.Request.Context(), id, hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	_ = h.authService.InvalidateStudentLogin(c.Request.Context(), id)

	response.Success(c, http.StatusOK, nil)
}

// ResetLogin godoc
// POST /api/v1/teacher/students/:studentId/reset-login
// Clears the single-device login lock so the student can sign in again
// from a new device.
func (h *StudentHandler) ResetLogin(c *gin.Context) {
	id, ok := parseIntParam(c, "studentId")
	if !ok {
		return
	}

	if err := h.authService.InvalidateStudentLogin(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, nil)
}

// Delete godoc
// DELETE /api/v1/teacher/students/:studentId
func (h *StudentHandler) Delete(c *gin.Context) {
	id, ok := parseIntParam(c, "studentId")
	if !ok {
		return
	}

	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		failPgError(c, err)
		return
	}
	response.Success(c, http.StatusOK, nil)
}
