package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-tracker/internal/date"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

func TestDaily_CountsOnlyActiveDueTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t)

	a := env.daily(t, user, "a")
	b := env.daily(t, user, "b")
	env.daily(t, user, "c")
	inactive := env.daily(t, user, "d")
	active := false
	_, err := env.tasks.UpdateTask(ctx, user, inactive.ID, TaskPatch{Active: &active})
	require.NoError(t, err)

	env.complete(t, user, a, "2024-01-10")
	env.complete(t, user, b, "2024-01-10")

	stats, err := env.stats.Daily(ctx, user.ID, date.MustParse("2024-01-10"))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalTasks)
	assert.Equal(t, 2, stats.CompletedTasks)
	assert.Equal(t, 66.67, stats.CompletionRate)
	assert.Equal(t, 2, stats.ActiveStreaks)
	assert.Equal(t, 1, stats.LongestStreak)
}

func TestDaily_IgnoresCompletionOnNonDueDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t)

	task := env.once(t, user, "dentist", "2024-03-11")
	env.complete(t, user, task, "2024-03-11")
	_, err := env.tasks.UpdateTask(ctx, user, task.ID, TaskPatch{DueDate: ptrDate("2024-03-10")})
	require.NoError(t, err)

	stats, err := env.stats.Daily(ctx, user.ID, date.MustParse("2024-03-11"))
	require.NoError(t, err)
	assert.Zero(t, stats.TotalTasks)
	assert.Zero(t, stats.CompletedTasks)
	assert.Zero(t, stats.CompletionRate)

	stats, err = env.stats.Daily(ctx, user.ID, date.MustParse("2024-03-10"))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalTasks)
	assert.Zero(t, stats.CompletedTasks)
}

func TestDaily_NoTasks(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t)

	stats, err := env.stats.Daily(context.Background(), user.ID, date.MustParse("2024-01-01"))
	require.NoError(t, err)
	assert.Zero(t, stats.TotalTasks)
	assert.Zero(t, stats.CompletionRate)
	assert.Zero(t, stats.ActiveStreaks)
	assert.Zero(t, stats.LongestStreak)
}

func TestDaily_SnapshotIsOverwritten(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t)
	task := env.daily(t, user, "run")
	day := date.MustParse("2024-02-01")

	_, err := env.stats.Daily(ctx, user.ID, day)
	require.NoError(t, err)
	env.complete(t, user, task, "2024-02-01")
	_, err = env.stats.Daily(ctx, user.ID, day)
	require.NoError(t, err)

	var rows []model.DailyStatistics
	require.NoError(t, env.db.Where("user_id = ?", user.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].CompletedTasks)
	assert.Equal(t, 100.0, rows[0].CompletionRate)
}

func TestDaily_StreakAggregatesStayWithinUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	me := env.user(t)
	other := env.user(t)

	mine := env.daily(t, me, "mine")
	theirs := env.daily(t, other, "theirs")
	env.complete(t, me, mine, "2024-01-01")
	env.complete(t, other, theirs, "2024-01-01", "2024-01-02", "2024-01-03")

	stats, err := env.stats.Daily(ctx, me.ID, date.MustParse("2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalTasks)
	assert.Equal(t, 1, stats.ActiveStreaks)
	assert.Equal(t, 1, stats.LongestStreak)
}

func TestWeekly_AveragesPerDayRates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t)
	a := env.daily(t, user, "a")
	b := env.daily(t, user, "b")
	env.complete(t, user, a, "2024-01-01", "2024-01-02")
	env.complete(t, user, b, "2024-01-02")

	week, err := env.stats.Weekly(ctx, user.ID, date.MustParse("2024-01-01"), date.MustParse("2024-01-03"))
	require.NoError(t, err)
	require.Len(t, week.PerDay, 3)
	assert.Equal(t, 50.0, week.PerDay[0].CompletionRate)
	assert.Equal(t, 100.0, week.PerDay[1].CompletionRate)
	assert.Equal(t, 0.0, week.PerDay[2].CompletionRate)
	assert.Equal(t, 6, week.Totals.TotalTasks)
	assert.Equal(t, 3, week.Totals.TotalCompleted)
	assert.Equal(t, 50.0, week.Totals.AverageCompletionRate)
}

func TestWeekly_RejectsBadRanges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t)

	_, err := env.stats.Weekly(ctx, user.ID, date.MustParse("2024-01-05"), date.MustParse("2024-01-01"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = env.stats.Weekly(ctx, user.ID, date.MustParse("2024-01-01"), date.MustParse("2025-01-01"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	week, err := env.stats.Weekly(ctx, user.ID, date.MustParse("2024-01-01"), date.MustParse("2024-01-01"))
	require.NoError(t, err)
	assert.Len(t, week.PerDay, 1)
}

func TestDefaultWeek(t *testing.T) {
	start, end := DefaultWeek(date.MustParse("2024-03-03"))
	assert.Equal(t, date.MustParse("2024-02-26"), start)
	assert.Equal(t, date.MustParse("2024-03-03"), end)
}

func TestHistory_NewestFirstWithDefaultLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t)
	task := env.daily(t, user, "walk")

	start := date.MustParse("2024-01-01")
	for i := 0; i < 35; i++ {
		env.complete(t, user, task, start.AddDays(i).String())
	}

	entries, err := env.stats.History(ctx, user.ID, repository.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 30)
	assert.Equal(t, start.AddDays(34), entries[0].Date)
	assert.Equal(t, "walk", entries[0].TaskTitle)

	_, err = env.stats.History(ctx, user.ID, repository.HistoryFilter{
		StartDate: date.MustParse("2024-02-01"),
		EndDate:   date.MustParse("2024-01-01"),
	})
	assert.ErrorIs(t, err, ErrInvalidRange)
}
