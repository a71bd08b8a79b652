package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"daily-tracker/internal/date"
	"daily-tracker/internal/model"
	"daily-tracker/internal/occurrence"
	"daily-tracker/internal/repository"
)

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	taskSvc        *TaskService
	statsSvc       *StatisticsService
	userSvc        *UserService
	taskRepo       *repository.TaskRepository
	completionRepo *repository.CompletionRepository
}

func NewReminderService(taskSvc *TaskService, statsSvc *StatisticsService, userSvc *UserService, taskRepo *repository.TaskRepository, completionRepo *repository.CompletionRepository) *ReminderService {
	return &ReminderService{
		taskSvc:        taskSvc,
		statsSvc:       statsSvc,
		userSvc:        userSvc,
		taskRepo:       taskRepo,
		completionRepo: completionRepo,
	}
}

// DailySummary lists the tasks due on day with their completion marks and streaks.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, day date.Date) (string, error) {
	tasks, err := s.taskSvc.ListForDate(ctx, &user, day)
	if err != nil {
		return "", err
	}
	stats, err := s.statsSvc.Daily(ctx, user.ID, day)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Ежедневный отчёт</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", day.Time().Format("02.01.2006")))

	builder.WriteString("🔥 <b>Задачи на сегодня</b>\n")
	if len(tasks) == 0 {
		builder.WriteString("— на этот день задач нет\n")
	} else {
		for _, task := range tasks {
			builder.WriteString(formatTask(task))
		}
	}

	builder.WriteString(fmt.Sprintf("\n📊 Выполнено %d из %d (%.2f%%)\n", stats.CompletedTasks, stats.TotalTasks, stats.CompletionRate))
	builder.WriteString(fmt.Sprintf("⚡ Активных серий: %d · рекорд: %d дн.\n", stats.ActiveStreaks, stats.LongestStreak))

	return strings.TrimSpace(builder.String()), nil
}

// MissedTasks returns active daily tasks that existed on day but were not completed that day.
// Unlike the due-ness check itself, this sweep skips days before the task was created.
func (s *ReminderService) MissedTasks(ctx context.Context, user model.User, day date.Date) ([]model.Task, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, user.ID, repository.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	completed, err := s.completionRepo.CompletedTaskIDs(ctx, user.ID, day)
	if err != nil {
		return nil, err
	}

	loc := s.userSvc.Location(user)
	var missed []model.Task
	for _, task := range tasks {
		if task.Recurrence != model.RecurrenceDaily || !occurrence.IsDue(task, day) {
			continue
		}
		if date.FromTime(task.CreatedAt.In(loc)).After(day) {
			continue
		}
		if !completed[task.ID] {
			missed = append(missed, task)
		}
	}
	return missed, nil
}

// MissedSummary renders MissedTasks; it is empty when nothing was missed.
func (s *ReminderService) MissedSummary(ctx context.Context, user model.User, day date.Date) (string, error) {
	missed, err := s.MissedTasks(ctx, user, day)
	if err != nil || len(missed) == 0 {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("⚠️ <b>Пропущено %s</b>\n", day.Time().Format("02.01.2006")))
	for _, task := range missed {
		builder.WriteString(fmt.Sprintf("• #%d %s\n", task.ID, html.EscapeString(strings.TrimSpace(task.Title))))
	}
	builder.WriteString("\nНичего страшного! Выполни задачу сегодня, чтобы начать новую серию.")
	return builder.String(), nil
}

func formatTask(task TaskView) string {
	var sb strings.Builder

	icon := "⬜"
	if task.Completed != nil && *task.Completed {
		icon = "✅"
	}
	sb.WriteString(fmt.Sprintf("%s #%d %s", icon, task.ID, html.EscapeString(strings.TrimSpace(task.Title))))

	if trimmed := strings.TrimSpace(task.CategoryName); trimmed != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(trimmed)))
	}
	if task.CurrentStreak > 0 {
		sb.WriteString(fmt.Sprintf(" · 🔥 %d", task.CurrentStreak))
	}
	if task.Recurrence == model.RecurrenceDateSpecific {
		sb.WriteString(" · разовая")
	}

	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(task.Description))))
	}

	sb.WriteByte('\n')
	return sb.String()
}
