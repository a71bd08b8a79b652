package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"daily-tracker/internal/config"
	"daily-tracker/internal/date"
	"daily-tracker/internal/lock"
	"daily-tracker/internal/model"
	"daily-tracker/internal/occurrence"
	"daily-tracker/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Category     string           `json:"category"`
	CategoryID   *uint            `json:"category_id"`
	Recurrence   model.Recurrence `json:"recurrence"`
	DueDate      *date.Date       `json:"due_date"`
	Timezone     string           `json:"timezone"`
	ReminderTime string           `json:"reminder_time"`
}

// TaskPatch is a partial update. Nil fields are left alone; a zero DueDate clears it.
type TaskPatch struct {
	Title        *string           `json:"title"`
	Description  *string           `json:"description"`
	CategoryID   *uint             `json:"category_id"`
	Recurrence   *model.Recurrence `json:"recurrence"`
	DueDate      *date.Date        `json:"due_date"`
	Active       *bool             `json:"active"`
	Timezone     *string           `json:"timezone"`
	ReminderTime *string           `json:"reminder_time"`
}

// TaskView is a task with its streak and, for per-date lists, its completion on that date.
type TaskView struct {
	model.Task
	CategoryName       string     `json:"category_name,omitempty"`
	CurrentStreak      int        `json:"current_streak"`
	LongestStreak      int        `json:"longest_streak"`
	LastCompletionDate *date.Date `json:"last_completion_date,omitempty"`
	Completed          *bool      `json:"completed,omitempty"`
}

// TaskService wraps task-related business logic.
type TaskService struct {
	db             *gorm.DB
	taskRepo       *repository.TaskRepository
	categoryRepo   *repository.CategoryRepository
	completionRepo *repository.CompletionRepository
	streakRepo     *repository.StreakRepository
	locker         lock.Locker
	logger         *zap.SugaredLogger
}

func NewTaskService(db *gorm.DB, locker lock.Locker, logger *zap.SugaredLogger) *TaskService {
	return &TaskService{
		db:             db,
		taskRepo:       repository.NewTaskRepository(db),
		categoryRepo:   repository.NewCategoryRepository(db),
		completionRepo: repository.NewCompletionRepository(db),
		streakRepo:     repository.NewStreakRepository(db),
		locker:         locker,
		logger:         logger,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, ErrTitleRequired
	}
	if input.Recurrence == "" {
		input.Recurrence = model.RecurrenceDaily
	}

	categoryID := input.CategoryID
	switch {
	case categoryID != nil:
		if err := s.checkCategory(ctx, user.ID, *categoryID); err != nil {
			return nil, err
		}
	case input.Category != "":
		category, err := s.categoryRepo.GetOrCreate(ctx, user.ID, input.Category)
		if err != nil {
			return nil, err
		}
		if category != nil {
			categoryID = &category.ID
		}
	}

	timezone := input.Timezone
	if timezone == "" {
		timezone = user.Timezone
	}

	task := model.Task{
		UserID:       user.ID,
		CategoryID:   categoryID,
		Title:        input.Title,
		Description:  strings.TrimSpace(input.Description),
		Recurrence:   input.Recurrence,
		DueDate:      normalizeDueDate(input.DueDate),
		Active:       true,
		Timezone:     timezone,
		ReminderTime: input.ReminderTime,
	}
	if err := validateTask(task); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewTaskRepository(tx).Create(ctx, &task); err != nil {
			return err
		}
		return repository.NewStreakRepository(tx).Upsert(ctx, &model.TaskStreak{TaskID: task.ID, UserID: task.UserID})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("task created", "task_id", task.ID, "user_id", user.ID, "recurrence", task.Recurrence)
	return &task, nil
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID uint) (*TaskView, error) {
	task, err := findTask(ctx, s.taskRepo, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, user.ID, []model.Task{*task})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *TaskService) ListTasks(ctx context.Context, user *model.User, filter repository.TaskFilter) ([]TaskView, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, user.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return s.views(ctx, user.ID, tasks)
}

// ListForDate returns the tasks due on day, each marked with whether it was completed on day.
func (s *TaskService) ListForDate(ctx context.Context, user *model.User, day date.Date) ([]TaskView, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, user.ID, repository.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	due := occurrence.FilterDue(tasks, day)

	completed, err := s.completionRepo.CompletedTaskIDs(ctx, user.ID, day)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, user.ID, due)
	if err != nil {
		return nil, err
	}
	for i := range views {
		done := completed[views[i].ID]
		views[i].Completed = &done
	}
	return views, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, user *model.User, taskID uint, patch TaskPatch) (*model.Task, error) {
	task, err := findTask(ctx, s.taskRepo, user.ID, taskID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.CategoryID != nil {
		if *patch.CategoryID == 0 {
			task.CategoryID = nil
		} else {
			if err := s.checkCategory(ctx, user.ID, *patch.CategoryID); err != nil {
				return nil, err
			}
			task.CategoryID = patch.CategoryID
		}
	}
	if patch.Recurrence != nil {
		task.Recurrence = *patch.Recurrence
	}
	if patch.DueDate != nil {
		task.DueDate = normalizeDueDate(patch.DueDate)
	}
	if patch.Active != nil {
		task.Active = *patch.Active
	}
	if patch.Timezone != nil {
		task.Timezone = *patch.Timezone
	}
	if patch.ReminderTime != nil {
		task.ReminderTime = *patch.ReminderTime
	}

	if task.Title == "" {
		return nil, ErrTitleRequired
	}
	if err := validateTask(*task); err != nil {
		return nil, err
	}
	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Infow("task updated", "task_id", task.ID, "user_id", user.ID)
	return task, nil
}

// DeleteTask removes a task together with its completions and streak.
func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID uint) error {
	task, err := findTask(ctx, s.taskRepo, user.ID, taskID)
	if err != nil {
		return err
	}

	err = withTaskLock(ctx, s.locker, task.ID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := repository.NewCompletionRepository(tx).DeleteByTask(ctx, task.ID); err != nil {
				return err
			}
			if err := repository.NewStreakRepository(tx).DeleteByTask(ctx, task.ID); err != nil {
				return err
			}
			removed, err := repository.NewTaskRepository(tx).Delete(ctx, user.ID, task.ID)
			if err != nil {
				return err
			}
			if !removed {
				return ErrTaskNotFound
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.logger.Infow("task deleted", "task_id", task.ID, "user_id", user.ID)
	return nil
}

func (s *TaskService) views(ctx context.Context, userID uint, tasks []model.Task) ([]TaskView, error) {
	streaks, err := s.streakRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list streaks: %w", err)
	}
	byTask := make(map[uint]model.TaskStreak, len(streaks))
	for _, st := range streaks {
		byTask[st.TaskID] = st
	}

	categories, err := s.categoryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	catNames := make(map[uint]string, len(categories))
	for _, cat := range categories {
		catNames[cat.ID] = cat.Name
	}

	views := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		view := TaskView{Task: task}
		if task.CategoryID != nil {
			view.CategoryName = catNames[*task.CategoryID]
		}
		if st, ok := byTask[task.ID]; ok {
			view.CurrentStreak = st.CurrentStreak
			view.LongestStreak = st.LongestStreak
			view.LastCompletionDate = st.LastCompletionDate
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *TaskService) checkCategory(ctx context.Context, userID, categoryID uint) error {
	_, err := s.categoryRepo.FindByID(ctx, userID, categoryID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCategoryNotFound
	}
	if err != nil {
		return fmt.Errorf("find category: %w", err)
	}
	return nil
}

func normalizeDueDate(d *date.Date) *date.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	out := *d
	return &out
}

func validateTask(task model.Task) error {
	if !task.Recurrence.Valid() {
		return ErrInvalidRecurrence
	}
	if task.Recurrence == model.RecurrenceDateSpecific && task.DueDate == nil {
		return ErrDueDateRequired
	}
	if task.Timezone != "" {
		if _, err := time.LoadLocation(task.Timezone); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidTimezone, task.Timezone)
		}
	}
	if task.ReminderTime != "" {
		if _, _, err := config.ParseClock(task.ReminderTime); err != nil {
			return fmt.Errorf("reminder time: %w", err)
		}
	}
	return nil
}
