package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daily-tracker/internal/date"
	"daily-tracker/internal/model"
)

// StatisticsRepository stores daily statistics snapshots.
type StatisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// Upsert overwrites the snapshot for (user, date).
func (r *StatisticsRepository) Upsert(ctx context.Context, stats *model.DailyStatistics) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "stat_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_tasks", "completed_tasks", "completion_rate",
			"active_streaks", "longest_streak", "updated_at",
		}),
	}).Create(stats).Error
	if err != nil {
		return fmt.Errorf("upsert daily statistics: %w", err)
	}
	return nil
}

func (r *StatisticsRepository) Find(ctx context.Context, userID uint, day date.Date) (*model.DailyStatistics, error) {
	var stats model.DailyStatistics
	if err := r.db.WithContext(ctx).Where("user_id = ? AND stat_date = ?", userID, day).
		First(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
