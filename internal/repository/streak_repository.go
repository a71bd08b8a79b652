package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daily-tracker/internal/model"
)

// StreakRepository persists the derived streak state of tasks.
type StreakRepository struct {
	db *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{db: db}
}

// Upsert overwrites the streak row of a task.
func (r *StreakRepository) Upsert(ctx context.Context, streak *model.TaskStreak) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "task_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "current_streak", "longest_streak",
			"last_completion_date", "streak_start_date", "updated_at",
		}),
	}).Create(streak).Error
	if err != nil {
		return fmt.Errorf("upsert streak: %w", err)
	}
	return nil
}

func (r *StreakRepository) FindByTask(ctx context.Context, taskID uint) (*model.TaskStreak, error) {
	var streak model.TaskStreak
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).First(&streak).Error; err != nil {
		return nil, err
	}
	return &streak, nil
}

func (r *StreakRepository) ListByUser(ctx context.Context, userID uint) ([]model.TaskStreak, error) {
	var streaks []model.TaskStreak
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&streaks).Error; err != nil {
		return nil, err
	}
	return streaks, nil
}

func (r *StreakRepository) DeleteByTask(ctx context.Context, taskID uint) error {
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Delete(&model.TaskStreak{}).Error; err != nil {
		return fmt.Errorf("delete streak: %w", err)
	}
	return nil
}
