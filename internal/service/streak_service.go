package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"daily-tracker/internal/lock"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
	"daily-tracker/internal/streak"
)

// StreakService rebuilds per-task streak state from the completion ledger.
type StreakService struct {
	db         *gorm.DB
	taskRepo   *repository.TaskRepository
	streakRepo *repository.StreakRepository
	locker     lock.Locker
	logger     *zap.SugaredLogger
}

func NewStreakService(db *gorm.DB, locker lock.Locker, logger *zap.SugaredLogger) *StreakService {
	return &StreakService{
		db:         db,
		taskRepo:   repository.NewTaskRepository(db),
		streakRepo: repository.NewStreakRepository(db),
		locker:     locker,
		logger:     logger,
	}
}

// Recompute rebuilds the streak of one task from scratch. Used for repair and backfill;
// the ledger calls the same rebuild after every mutation.
func (s *StreakService) Recompute(ctx context.Context, userID, taskID uint) (*model.TaskStreak, error) {
	task, err := findTask(ctx, s.taskRepo, userID, taskID)
	if err != nil {
		return nil, err
	}

	var out *model.TaskStreak
	err = withTaskLock(ctx, s.locker, task.ID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			rebuilt, err := rebuildStreak(ctx, tx, *task)
			if err != nil {
				return err
			}
			out = rebuilt
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("streak recomputed", "task_id", task.ID, "current", out.CurrentStreak, "longest", out.LongestStreak)
	return out, nil
}

// RecomputeAll rebuilds every task of the user and returns how many were processed.
func (s *StreakService) RecomputeAll(ctx context.Context, userID uint) (int, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, userID, repository.TaskFilter{})
	if err != nil {
		return 0, fmt.Errorf("list tasks: %w", err)
	}
	for _, task := range tasks {
		if _, err := s.Recompute(ctx, userID, task.ID); err != nil {
			return 0, err
		}
	}
	return len(tasks), nil
}

// Get returns the stored streak of a task, or a zero streak when none was stored yet.
func (s *StreakService) Get(ctx context.Context, userID, taskID uint) (*model.TaskStreak, error) {
	task, err := findTask(ctx, s.taskRepo, userID, taskID)
	if err != nil {
		return nil, err
	}
	row, err := s.streakRepo.FindByTask(ctx, task.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.TaskStreak{TaskID: task.ID, UserID: task.UserID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find streak: %w", err)
	}
	return row, nil
}

// rebuildStreak must run inside the transaction that changed the task's completions.
func rebuildStreak(ctx context.Context, tx *gorm.DB, task model.Task) (*model.TaskStreak, error) {
	dates, err := repository.NewCompletionRepository(tx).ListDates(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	state := streak.Calculate(dates)
	row := &model.TaskStreak{
		TaskID:             task.ID,
		UserID:             task.UserID,
		CurrentStreak:      state.CurrentStreak,
		LongestStreak:      state.LongestStreak,
		LastCompletionDate: state.LastCompletionDate,
		StreakStartDate:    state.StreakStartDate,
	}
	if err := repository.NewStreakRepository(tx).Upsert(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func withTaskLock(ctx context.Context, locker lock.Locker, taskID uint, fn func() error) error {
	unlock, err := locker.Lock(ctx, lock.TaskKey(taskID))
	if err != nil {
		return fmt.Errorf("lock task %d: %w", taskID, err)
	}
	defer unlock()
	return fn()
}

func findTask(ctx context.Context, repo *repository.TaskRepository, userID, taskID uint) (*model.Task, error) {
	task, err := repo.FindByID(ctx, userID, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}
	return task, nil
}
