package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hadirku/hadirku-backend/internal/middleware"
	"github.com/hadirku/hadirku-backend/internal/response"
	"github.com/hadirku/hadirku-backend/internal/service"
	"github.com/hadirku/hadirku-backend/internal/validator"
	"github.com/jackc/pgx/v5"
)

// AuthHandler handles login, logout and profile endpoints.
type AuthHandler struct {
	authService    *service.AuthService
	teacherService *service.TeacherService
	studentService *service.StudentService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, teacherService *service.TeacherService, studentService *service.StudentService) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		teacherService: teacherService,
		studentService: studentService,
	}
}

// TeacherLoginRequest is the teacher login payload.
type TeacherLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// TeacherLogin godoc
// POST /api/v1/auth/teacher/login
func (h *AuthHandler) TeacherLogin(c *gin.Context) {
	var req TeacherLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	teacher, err := h.teacherService.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if err := h.authService.CheckPassword(teacher.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateTeacherToken(teacher.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"token": token, "teacher": teacher})
}

// StudentLoginRequest is the student login payload.
type StudentLoginRequest struct {
	NISN     string `json:"nisn" binding:"required,min=4,max=20"`
	Password string `json:"password" binding:"required,min=6"`
}

// StudentLogin godoc
// POST /api/v1/auth/student/login
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req StudentLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.GetByNISN(c.Request.Context(), req.NISN)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if err := h.authService.CheckPassword(student.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateStudentToken(c.Request.Context(), student.ID, student.ClassID)
	if err != nil {
		if errors.Is(err, service.ErrSessionAlreadyActive) {
			response.Fail(c, http.StatusConflict, response.ErrLoginActive)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"token": token, "student": student})
}

// StudentLogout godoc
// POST /api/v1/auth/student/logout
func (h *AuthHandler) StudentLogout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.InvalidateStudentLogin(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "logged out"})
}

// GetStudentProfile godoc
// GET /api/v1/auth/student/me
func (h *AuthHandler) GetStudentProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// GetTeacherProfile godoc
// GET /api/v1/auth/teacher/me
func (h *AuthHandler) GetTeacherProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	teacher, err := h.teacherService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"teacher": teacher})
}
