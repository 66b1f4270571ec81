package service

import (
	"context"

	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/hadirku/hadirku-backend/internal/repository"
)

// StudentService handles student roster business logic.
type StudentService struct {
	studentRepo *repository.StudentRepository
}

// NewStudentService creates a new StudentService.
func NewStudentService(studentRepo *repository.StudentRepository) *StudentService {
	return &StudentService{studentRepo: studentRepo}
}

func (s *StudentService) GetByID(ctx context.Context, id int) (*model.Student, error) {
	return s.studentRepo.GetByID(ctx, id)
}

func (s *StudentService) GetByNISN(ctx context.Context, nisn string) (*model.Student, error) {
	return s.studentRepo.GetByNISN(ctx, nisn)
}

func (s *StudentService) ListByClass(ctx context.Context, classID int) ([]model.Student, error) {
	return s.studentRepo.ListByClass(ctx, classID)
}

func (s *StudentService) Create(ctx context.Context, st *model.Student) error {
	return s.studentRepo.Create(ctx, st)
}

func (s *StudentService) Update(ctx context.Context, st *model.Student) error {
	return s.studentRepo.Update(ctx, st)
}

func (s *StudentService) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	return s.studentRepo.UpdatePassword(ctx, id, passwordHash)
}

func (s *StudentService) Delete(ctx context.Context, id int) error {
	return s.studentRepo.Delete(ctx, id)
}
