package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"daily-tracker/internal/date"
	"daily-tracker/internal/lock"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

// CompletionResult is the state of a task right after a ledger mutation.
type CompletionResult struct {
	Completion *model.Completion `json:"completion,omitempty"`
	Streak     *model.TaskStreak `json:"streak"`
}

// CompletionService is the completion ledger. Every mutation and the streak
// rebuild it triggers run under the task's lock and inside one transaction.
type CompletionService struct {
	db             *gorm.DB
	taskRepo       *repository.TaskRepository
	completionRepo *repository.CompletionRepository
	locker         lock.Locker
	logger         *zap.SugaredLogger
	now            func() time.Time
}

func NewCompletionService(db *gorm.DB, locker lock.Locker, logger *zap.SugaredLogger) *CompletionService {
	return &CompletionService{
		db:             db,
		taskRepo:       repository.NewTaskRepository(db),
		completionRepo: repository.NewCompletionRepository(db),
		locker:         locker,
		logger:         logger,
		now:            time.Now,
	}
}

// Complete records the task as done on day. Completing the same day again
// refreshes the timestamp and replaces the notes only when new notes are given.
func (s *CompletionService) Complete(ctx context.Context, userID, taskID uint, day date.Date, notes string) (*CompletionResult, error) {
	task, err := findTask(ctx, s.taskRepo, userID, taskID)
	if err != nil {
		return nil, err
	}

	result := &CompletionResult{}
	err = withTaskLock(ctx, s.locker, task.ID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			completions := repository.NewCompletionRepository(tx)

			existing, err := completions.Find(ctx, task.ID, day)
			switch {
			case err == nil:
				existing.CompletedAt = s.now()
				if notes != "" {
					existing.Notes = notes
				}
				if err := completions.Save(ctx, existing); err != nil {
					return err
				}
				result.Completion = existing
			case errors.Is(err, gorm.ErrRecordNotFound):
				created := &model.Completion{
					TaskID:      task.ID,
					UserID:      task.UserID,
					Date:        day,
					CompletedAt: s.now(),
					Notes:       notes,
				}
				if err := completions.Create(ctx, created); err != nil {
					return err
				}
				result.Completion = created
			default:
				return fmt.Errorf("find completion: %w", err)
			}

			result.Streak, err = rebuildStreak(ctx, tx, *task)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("task completed", "task_id", task.ID, "user_id", task.UserID, "date", day.String(), "streak", result.Streak.CurrentStreak)
	return result, nil
}

// Uncomplete removes the record for day. It returns ErrCompletionNotFound when there is none.
func (s *CompletionService) Uncomplete(ctx context.Context, userID, taskID uint, day date.Date) (*CompletionResult, error) {
	task, err := findTask(ctx, s.taskRepo, userID, taskID)
	if err != nil {
		return nil, err
	}

	result := &CompletionResult{}
	err = withTaskLock(ctx, s.locker, task.ID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			removed, err := repository.NewCompletionRepository(tx).Delete(ctx, task.ID, day)
			if err != nil {
				return err
			}
			if !removed {
				return ErrCompletionNotFound
			}
			result.Streak, err = rebuildStreak(ctx, tx, *task)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("task uncompleted", "task_id", task.ID, "user_id", task.UserID, "date", day.String(), "streak", result.Streak.CurrentStreak)
	return result, nil
}

// ListDates returns every completion date of the task, most recent first.
func (s *CompletionService) ListDates(ctx context.Context, userID, taskID uint) ([]date.Date, error) {
	task, err := findTask(ctx, s.taskRepo, userID, taskID)
	if err != nil {
		return nil, err
	}
	return s.completionRepo.ListDates(ctx, task.ID)
}

func (s *CompletionService) IsCompleted(ctx context.Context, userID, taskID uint, day date.Date) (bool, error) {
	task, err := findTask(ctx, s.taskRepo, userID, taskID)
	if err != nil {
		return false, err
	}
	return s.completionRepo.Exists(ctx, task.ID, day)
}
