package service

import (
	"context"

	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/hadirku/hadirku-backend/internal/repository"
)

// ClassService handles class roster business logic.
type ClassService struct {
	classRepo *repository.ClassRepository
}

// NewClassService creates a new ClassService.
func NewClassService(classRepo *repository.ClassRepository) *ClassService {
	return &ClassService{classRepo: classRepo}
}

func (s *ClassService) GetByID(ctx context.Context, id int) (*model.Class, error) {
	return s.classRepo.GetByID(ctx, id)
}

func (s *ClassService) List(ctx context.Context) ([]model.Class, error) {
	return s.classRepo.List(ctx)
}

func (s *ClassService) Create(ctx context.Context, c *model.Class) error {
	return s.classRepo.Create(ctx, c)
}

func (s *ClassService) Update(ctx context.Context, c *model.Class) error {
	return s.classRepo.Update(ctx, c)
}

func (s *ClassService) Delete(ctx context.Context, id int) error {
	return s.classRepo.Delete(ctx, id)
}
