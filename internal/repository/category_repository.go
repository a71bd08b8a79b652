package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daily-tracker/internal/model"
)

// CategoryCount is a category with the number of its active tasks.
type CategoryCount struct {
	model.Category
	TaskCount int `json:"task_count"`
}

// CategoryRepository manages per-user task categories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetOrCreate resolves name case-insensitively within the user's categories, creating it
// on first use. A concurrent create of the same name resolves to the winner's row.
func (r *CategoryRepository) GetOrCreate(ctx context.Context, userID uint, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	category, err := r.findByName(ctx, userID, name)
	switch {
	case err == nil:
		return category, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("find category: %w", err)
	}

	created := model.Category{UserID: userID, Name: name}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&created).Error; err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	if created.ID != 0 {
		return &created, nil
	}
	category, err = r.findByName(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return category, nil
}

func (r *CategoryRepository) findByName(ctx context.Context, userID uint, name string) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(name) = LOWER(?)", userID, name).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByID returns the category only when userID owns it.
func (r *CategoryRepository) FindByID(ctx context.Context, userID, id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID uint) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// ListWithTaskCounts lists the user's categories with how many active tasks each holds.
func (r *CategoryRepository) ListWithTaskCounts(ctx context.Context, userID uint) ([]CategoryCount, error) {
	var rows []CategoryCount
	err := r.db.WithContext(ctx).Table("categories").
		Select("categories.*, COUNT(tasks.id) AS task_count").
		Joins("LEFT JOIN tasks ON tasks.category_id = categories.id AND tasks.active = ?", true).
		Where("categories.user_id = ?", userID).
		Group("categories.id").
		Order("categories.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return rows, nil
}
