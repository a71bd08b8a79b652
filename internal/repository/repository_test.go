package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"daily-tracker/internal/date"
	"daily-tracker/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewTestDB(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedTask(t *testing.T, db *gorm.DB, userID uint, title string) model.Task {
	t.Helper()
	task := model.Task{UserID: userID, Title: title, Recurrence: model.RecurrenceDaily, Active: true}
	require.NoError(t, NewTaskRepository(db).Create(context.Background(), &task))
	return task
}

func TestCompletionRepository_UniquePerTaskAndDate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewCompletionRepository(db)
	task := seedTask(t, db, 1, "read")

	day := date.MustParse("2024-01-01")
	require.NoError(t, repo.Create(ctx, &model.Completion{TaskID: task.ID, UserID: 1, Date: day, CompletedAt: time.Now()}))
	err := repo.Create(ctx, &model.Completion{TaskID: task.ID, UserID: 1, Date: day, CompletedAt: time.Now()})
	assert.Error(t, err)

	found, err := repo.Find(ctx, task.ID, day)
	require.NoError(t, err)
	assert.Equal(t, day, found.Date)
}

func TestCompletionRepository_ListDatesAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewCompletionRepository(db)
	task := seedTask(t, db, 1, "run")

	for _, d := range []string{"2024-01-02", "2024-01-05", "2024-01-01"} {
		require.NoError(t, repo.Create(ctx, &model.Completion{TaskID: task.ID, UserID: 1, Date: date.MustParse(d), CompletedAt: time.Now()}))
	}

	dates, err := repo.ListDates(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []date.Date{
		date.MustParse("2024-01-05"), date.MustParse("2024-01-02"), date.MustParse("2024-01-01"),
	}, dates)

	removed, err := repo.Delete(ctx, task.ID, date.MustParse("2024-01-02"))
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, task.ID, date.MustParse("2024-01-02"))
	require.NoError(t, err)
	assert.False(t, removed)

	ok, err := repo.Exists(ctx, task.ID, date.MustParse("2024-01-05"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCompletionRepository_CompletedTaskIDsScopedToUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewCompletionRepository(db)
	mine := seedTask(t, db, 1, "mine")
	theirs := seedTask(t, db, 2, "theirs")
	day := date.MustParse("2024-03-11")

	require.NoError(t, repo.Create(ctx, &model.Completion{TaskID: mine.ID, UserID: 1, Date: day}))
	require.NoError(t, repo.Create(ctx, &model.Completion{TaskID: theirs.ID, UserID: 2, Date: day}))

	ids, err := repo.CompletedTaskIDs(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{mine.ID: true}, ids)
}

func TestCompletionRepository_History(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewCompletionRepository(db)
	read := seedTask(t, db, 1, "read")
	walk := seedTask(t, db, 1, "walk")

	for _, c := range []model.Completion{
		{TaskID: read.ID, UserID: 1, Date: date.MustParse("2024-01-01"), Notes: "ch. 1"},
		{TaskID: read.ID, UserID: 1, Date: date.MustParse("2024-01-03")},
		{TaskID: walk.ID, UserID: 1, Date: date.MustParse("2024-01-02")},
	} {
		require.NoError(t, repo.Create(ctx, &c))
	}

	all, err := repo.History(ctx, 1, HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "read", all[0].TaskTitle)
	assert.Equal(t, date.MustParse("2024-01-03"), all[0].Date)
	assert.Equal(t, "walk", all[1].TaskTitle)

	filtered, err := repo.History(ctx, 1, HistoryFilter{TaskID: read.ID, EndDate: date.MustParse("2024-01-02"), Limit: 10})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "ch. 1", filtered[0].Notes)

	limited, err := repo.History(ctx, 1, HistoryFilter{StartDate: date.MustParse("2024-01-02"), Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, date.MustParse("2024-01-03"), limited[0].Date)
}

func TestStreakRepository_UpsertOverwrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewStreakRepository(db)

	last := date.MustParse("2024-01-03")
	require.NoError(t, repo.Upsert(ctx, &model.TaskStreak{TaskID: 5, UserID: 1, CurrentStreak: 3, LongestStreak: 3, LastCompletionDate: &last, StreakStartDate: &last}))
	require.NoError(t, repo.Upsert(ctx, &model.TaskStreak{TaskID: 5, UserID: 1}))

	got, err := repo.FindByTask(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, got.CurrentStreak)
	assert.Zero(t, got.LongestStreak)
	assert.Nil(t, got.LastCompletionDate)
	assert.Nil(t, got.StreakStartDate)

	streaks, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, streaks, 1)
}

func TestStatisticsRepository_UpsertOverwrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewStatisticsRepository(db)
	day := date.MustParse("2024-03-11")

	require.NoError(t, repo.Upsert(ctx, &model.DailyStatistics{UserID: 1, StatDate: day, TotalTasks: 3, CompletedTasks: 3, CompletionRate: 100}))
	require.NoError(t, repo.Upsert(ctx, &model.DailyStatistics{UserID: 1, StatDate: day, TotalTasks: 3, CompletedTasks: 2, CompletionRate: 66.67}))

	got, err := repo.Find(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CompletedTasks)
	assert.InDelta(t, 66.67, got.CompletionRate, 0.001)

	var count int64
	require.NoError(t, db.Model(&model.DailyStatistics{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestTaskRepository_ListByUserFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewTaskRepository(db)
	due := date.MustParse("2024-03-10")

	require.NoError(t, repo.Create(ctx, &model.Task{UserID: 1, Title: "daily", Recurrence: model.RecurrenceDaily, Active: true}))
	require.NoError(t, repo.Create(ctx, &model.Task{UserID: 1, Title: "once", Recurrence: model.RecurrenceDateSpecific, DueDate: &due, Active: true}))
	require.NoError(t, repo.Create(ctx, &model.Task{UserID: 1, Title: "paused", Recurrence: model.RecurrenceDaily, Active: false}))
	require.NoError(t, repo.Create(ctx, &model.Task{UserID: 2, Title: "other", Recurrence: model.RecurrenceDaily, Active: true}))

	all, err := repo.ListByUser(ctx, 1, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	byTitle := map[string]model.Task{}
	for _, task := range all {
		byTitle[task.Title] = task
	}

	active := true
	daily := model.RecurrenceDaily
	filtered, err := repo.ListByUser(ctx, 1, TaskFilter{Active: &active, Recurrence: &daily})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "daily", filtered[0].Title)

	once, err := repo.FindByID(ctx, 1, byTitle["once"].ID)
	require.NoError(t, err)
	require.NotNil(t, once.DueDate)
	assert.Equal(t, due, *once.DueDate)

	_, err = repo.FindByID(ctx, 2, byTitle["daily"].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	removed, err := repo.Delete(ctx, 1, byTitle["daily"].ID)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestCategoryRepository_GetOrCreateIgnoresCase(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewCategoryRepository(db)

	first, err := repo.GetOrCreate(ctx, 1, " Работа ")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "Работа", first.Name)

	again, err := repo.GetOrCreate(ctx, 1, "Работа")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	lower, err := repo.GetOrCreate(ctx, 1, "sport")
	require.NoError(t, err)
	upper, err := repo.GetOrCreate(ctx, 1, "SPORT")
	require.NoError(t, err)
	assert.Equal(t, lower.ID, upper.ID)

	other, err := repo.GetOrCreate(ctx, 2, "sport")
	require.NoError(t, err)
	assert.NotEqual(t, lower.ID, other.ID)

	none, err := repo.GetOrCreate(ctx, 1, "  ")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = repo.FindByID(ctx, 2, lower.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCategoryRepository_ListWithTaskCounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewCategoryRepository(db)
	tasks := NewTaskRepository(db)

	health, err := repo.GetOrCreate(ctx, 1, "health")
	require.NoError(t, err)
	_, err = repo.GetOrCreate(ctx, 1, "empty")
	require.NoError(t, err)

	for i, active := range []bool{true, true, false} {
		task := model.Task{UserID: 1, CategoryID: &health.ID, Title: fmt.Sprintf("t%d", i), Recurrence: model.RecurrenceDaily, Active: active}
		require.NoError(t, tasks.Create(ctx, &task))
	}

	rows, err := repo.ListWithTaskCounts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "empty", rows[0].Name)
	assert.Equal(t, 0, rows[0].TaskCount)
	assert.Equal(t, "health", rows[1].Name)
	assert.Equal(t, 2, rows[1].TaskCount)
}

func TestUserRepository_SyncTelegramRefreshesProfile(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	created, err := repo.SyncTelegram(ctx, TelegramProfile{ID: 42, FirstName: "Ann", Username: "ann"})
	require.NoError(t, err)
	require.NotNil(t, created.TelegramID)
	assert.Equal(t, int64(42), *created.TelegramID)

	updated, err := repo.SyncTelegram(ctx, TelegramProfile{ID: 42, FirstName: "Anna", LastName: "K"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	stored, err := repo.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Anna", stored.FirstName)
	assert.Equal(t, "K", stored.LastName)
	assert.Empty(t, stored.Username)
}
