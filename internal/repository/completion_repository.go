package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"daily-tracker/internal/date"
	"daily-tracker/internal/model"
)

// HistoryFilter narrows History. Zero values do not filter.
type HistoryFilter struct {
	TaskID    uint
	StartDate date.Date
	EndDate   date.Date
	Limit     int
}

// HistoryEntry is a completion joined with its task title.
type HistoryEntry struct {
	model.Completion
	TaskTitle string `json:"task_title"`
}

// CompletionRepository stores one completion per task and calendar date.
type CompletionRepository struct {
	db *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

func (r *CompletionRepository) Find(ctx context.Context, taskID uint, day date.Date) (*model.Completion, error) {
	var completion model.Completion
	if err := r.db.WithContext(ctx).Where("task_id = ? AND completion_date = ?", taskID, day).
		First(&completion).Error; err != nil {
		return nil, err
	}
	return &completion, nil
}

func (r *CompletionRepository) Create(ctx context.Context, completion *model.Completion) error {
	if err := r.db.WithContext(ctx).Create(completion).Error; err != nil {
		return fmt.Errorf("create completion: %w", err)
	}
	return nil
}

func (r *CompletionRepository) Save(ctx context.Context, completion *model.Completion) error {
	if err := r.db.WithContext(ctx).Save(completion).Error; err != nil {
		return fmt.Errorf("save completion: %w", err)
	}
	return nil
}

// Delete hard-deletes the record for (taskID, day) and reports whether one existed.
func (r *CompletionRepository) Delete(ctx context.Context, taskID uint, day date.Date) (bool, error) {
	res := r.db.WithContext(ctx).Where("task_id = ? AND completion_date = ?", taskID, day).
		Delete(&model.Completion{})
	if res.Error != nil {
		return false, fmt.Errorf("delete completion: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *CompletionRepository) DeleteByTask(ctx context.Context, taskID uint) error {
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Delete(&model.Completion{}).Error; err != nil {
		return fmt.Errorf("delete completions: %w", err)
	}
	return nil
}

// ListDates returns every completion date of a task, most recent first.
func (r *CompletionRepository) ListDates(ctx context.Context, taskID uint) ([]date.Date, error) {
	var dates []date.Date
	if err := r.db.WithContext(ctx).Model(&model.Completion{}).Where("task_id = ?", taskID).
		Order("completion_date DESC").Pluck("completion_date", &dates).Error; err != nil {
		return nil, fmt.Errorf("list completion dates: %w", err)
	}
	return dates, nil
}

func (r *CompletionRepository) Exists(ctx context.Context, taskID uint, day date.Date) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Completion{}).
		Where("task_id = ? AND completion_date = ?", taskID, day).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count completions: %w", err)
	}
	return count > 0, nil
}

// CompletedTaskIDs returns the ids of the user's tasks with a completion on day.
func (r *CompletionRepository) CompletedTaskIDs(ctx context.Context, userID uint, day date.Date) (map[uint]bool, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&model.Completion{}).
		Where("user_id = ? AND completion_date = ?", userID, day).
		Pluck("task_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *CompletionRepository) History(ctx context.Context, userID uint, filter HistoryFilter) ([]HistoryEntry, error) {
	query := r.db.WithContext(ctx).Table("completions").
		Select("completions.*, tasks.title AS task_title").
		Joins("JOIN tasks ON tasks.id = completions.task_id").
		Where("completions.user_id = ?", userID)
	if filter.TaskID != 0 {
		query = query.Where("completions.task_id = ?", filter.TaskID)
	}
	if !filter.StartDate.IsZero() {
		query = query.Where("completions.completion_date >= ?", filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query = query.Where("completions.completion_date <= ?", filter.EndDate)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var entries []HistoryEntry
	if err := query.Order("completions.completion_date DESC, completions.completed_at DESC").
		Scan(&entries).Error; err != nil {
		return nil, fmt.Errorf("completion history: %w", err)
	}
	return entries, nil
}
