package service

import (
	"context"

	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

// CategoryService lists a user's categories together with how busy each one is.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// List returns the user's categories by name, each with its number of active tasks.
func (s *CategoryService) List(ctx context.Context, user *model.User) ([]repository.CategoryCount, error) {
	return s.repo.ListWithTaskCounts(ctx, user.ID)
}
