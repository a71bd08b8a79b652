package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"daily-tracker/internal/date"
	"daily-tracker/internal/model"
	"daily-tracker/internal/occurrence"
	"daily-tracker/internal/repository"
)

const (
	// maxRangeDays bounds weekly/range queries.
	maxRangeDays       = 366
	defaultHistorySize = 30
)

// WeeklyTotals sums a range of daily snapshots.
type WeeklyTotals struct {
	TotalTasks            int     `json:"total_tasks"`
	TotalCompleted        int     `json:"total_completed"`
	AverageCompletionRate float64 `json:"average_completion_rate"`
}

// WeeklyStatistics is the per-day breakdown of a date range plus its totals.
type WeeklyStatistics struct {
	StartDate date.Date               `json:"start_date"`
	EndDate   date.Date               `json:"end_date"`
	PerDay    []model.DailyStatistics `json:"daily_stats"`
	Totals    WeeklyTotals            `json:"totals"`
}

// StatisticsService derives completion statistics live from tasks, completions and streaks.
type StatisticsService struct {
	taskRepo       *repository.TaskRepository
	completionRepo *repository.CompletionRepository
	streakRepo     *repository.StreakRepository
	statsRepo      *repository.StatisticsRepository
	logger         *zap.SugaredLogger
}

func NewStatisticsService(db *gorm.DB, logger *zap.SugaredLogger) *StatisticsService {
	return &StatisticsService{
		taskRepo:       repository.NewTaskRepository(db),
		completionRepo: repository.NewCompletionRepository(db),
		streakRepo:     repository.NewStreakRepository(db),
		statsRepo:      repository.NewStatisticsRepository(db),
		logger:         logger,
	}
}

// Daily computes the snapshot for userID on day and stores it, overwriting any earlier one.
// Only tasks due on day count towards the totals, so a completion left behind on a
// day the task is no longer due does not count.
func (s *StatisticsService) Daily(ctx context.Context, userID uint, day date.Date) (*model.DailyStatistics, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, userID, repository.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	completed, err := s.completionRepo.CompletedTaskIDs(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	streaks, err := s.streakRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list streaks: %w", err)
	}

	stats := &model.DailyStatistics{UserID: userID, StatDate: day}

	owned := make(map[uint]bool, len(tasks))
	for _, task := range tasks {
		owned[task.ID] = true
		if !occurrence.IsDue(task, day) {
			continue
		}
		stats.TotalTasks++
		if completed[task.ID] {
			stats.CompletedTasks++
		}
	}
	if stats.TotalTasks > 0 {
		stats.CompletionRate = round2(float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100)
	}

	for _, st := range streaks {
		if !owned[st.TaskID] {
			continue
		}
		if st.CurrentStreak > 0 {
			stats.ActiveStreaks++
		}
		stats.LongestStreak = max(stats.LongestStreak, st.LongestStreak)
	}

	if err := s.statsRepo.Upsert(ctx, stats); err != nil {
		return nil, err
	}

	s.logger.Debugw("daily statistics", "user_id", userID, "date", day.String(),
		"total", stats.TotalTasks, "completed", stats.CompletedTasks, "rate", stats.CompletionRate)
	return stats, nil
}

// Weekly computes Daily for every date from start to end inclusive. The average rate is the
// mean of the per-day rates, not the rate of the summed counts.
func (s *StatisticsService) Weekly(ctx context.Context, userID uint, start, end date.Date) (*WeeklyStatistics, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, fmt.Errorf("%w: %s..%s", ErrInvalidRange, start, end)
	}
	if end.Sub(start) >= maxRangeDays {
		return nil, fmt.Errorf("%w: more than %d days", ErrInvalidRange, maxRangeDays)
	}

	out := &WeeklyStatistics{StartDate: start, EndDate: end}
	var rateSum float64
	for _, day := range date.Range(start, end) {
		stats, err := s.Daily(ctx, userID, day)
		if err != nil {
			return nil, err
		}
		out.PerDay = append(out.PerDay, *stats)
		out.Totals.TotalTasks += stats.TotalTasks
		out.Totals.TotalCompleted += stats.CompletedTasks
		rateSum += stats.CompletionRate
	}
	out.Totals.AverageCompletionRate = round2(rateSum / float64(len(out.PerDay)))
	return out, nil
}

// DefaultWeek is the seven days ending on today.
func DefaultWeek(today date.Date) (date.Date, date.Date) {
	return today.AddDays(-6), today
}

// History lists completions newest first; the limit defaults to 30.
func (s *StatisticsService) History(ctx context.Context, userID uint, filter repository.HistoryFilter) ([]repository.HistoryEntry, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultHistorySize
	}
	if !filter.StartDate.IsZero() && !filter.EndDate.IsZero() && filter.EndDate.Before(filter.StartDate) {
		return nil, fmt.Errorf("%w: %s..%s", ErrInvalidRange, filter.StartDate, filter.EndDate)
	}
	return s.completionRepo.History(ctx, userID, filter)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
