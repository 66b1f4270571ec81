package service

import (
	"context"

	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/hadirku/hadirku-backend/internal/repository"
)

// TeacherService handles teacher account business logic.
type TeacherService struct {
	teacherRepo *repository.TeacherRepository
}

// NewTeacherService creates a new TeacherService.
func NewTeacherService(teacherRepo *repository.TeacherRepository) *TeacherService {
	return &TeacherService{teacherRepo: teacherRepo}
}

func (s *TeacherService) GetByID(ctx context.Context, id int) (*model.Teacher, error) {
	return s.teacherRepo.GetByID(ctx, id)
}

func (s *TeacherService) GetByEmail(ctx context.Context, email string) (*model.Teacher, error) {
	return s.teacherRepo.GetByEmail(ctx, email)
}

func (s *TeacherService) Create(ctx context.Context, t *model.Teacher) error {
	return s.teacherRepo.Create(ctx, t)
}

func (s *TeacherService) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	return s.teacherRepo.UpdatePassword(ctx, id, passwordHash)
}
