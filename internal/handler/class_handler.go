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
	"github.com/jackc/pgx/v5/pgconn"
)

// ClassHandler serves class roster management.
type ClassHandler struct {
	classService *service.ClassService
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(classService *service.ClassService) *ClassHandler {
	return &ClassHandler{classService: classService}
}

// ClassRequest is the create/update payload for a class.
type ClassRequest struct {
	GradeLevel  string `json:"grade_level" binding:"required,oneof=X XI XII"`
	MajorCode   string `json:"major_code" binding:"required,max=16"`
	GroupNumber int    `json:"group_number" binding:"required,min=1"`
}

// List godoc
// GET /api/v1/teacher/classes
func (h *ClassHandler) List(c *gin.Context) {
	classes, err := h.classService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}

// Get godoc
// GET /api/v1/teacher/classes/:classId
func (h *ClassHandler) Get(c *gin.Context) {
	id, ok := parseIntParam(c, "classId")
	if !ok {
		return
	}

	class, err := h.classService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"class": class})
}

// Create godoc
// POST /api/v1/teacher/classes
func (h *ClassHandler) Create(c *gin.Context) {
	var req ClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	class := &model.Class{
		GradeLevel:  req.GradeLevel,
		MajorCode:   req.MajorCode,
		GroupNumber: req.GroupNumber,
	}
	if err := h.classService.Create(c.Request.Context(), class); err != nil {
		failPgError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"class": class})
}

// Update godoc
// PUT /api/v1/teacher/classes/:classId
func (h *ClassHandler) Update(c *gin.Context) {
	id, ok := parseIntParam(c, "classId")
	if !ok {
		return
	}

	var req ClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	class := &model.Class{
		ID:          id,
		GradeLevel:  req.GradeLevel,
		MajorCode:   req.MajorCode,
		GroupNumber: req.GroupNumber,
	}
	if err := h.classService.Update(c.Request.Context(), class); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		failPgError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"class": class})
}

// Delete godoc
// DELETE /api/v1/teacher/classes/:classId
func (h *ClassHandler) Delete(c *gin.Context) {
	id, ok := parseIntParam(c, "classId")
	if !ok {
		return
	}

	if err := h.classService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		failPgError(c, err)
		return
	}
	response.Success(c, http.StatusOK, nil)
}

// failPgError maps Postgres constraint violations for roster writes:
// 23505 (duplicate) becomes 409, 23503 (referenced elsewhere) becomes 409
// with a dependency hint.
func failPgError(c *gin.Context, err error) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		case "23503":
			response.Fail(c, http.StatusConflict, response.ErrDependencyExists)
			return
		}
	}
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
