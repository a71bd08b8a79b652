package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"daily-tracker/internal/date"
	"daily-tracker/internal/lock"
	"daily-tracker/internal/logging"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

type testEnv struct {
	db          *gorm.DB
	users       *UserService
	tasks       *TaskService
	completions *CompletionService
	streaks     *StreakService
	stats       *StatisticsService
	reminders   *ReminderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.NewTestDB(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	logger := logging.Nop()
	locker := lock.NewLocal()
	env := &testEnv{
		db:          db,
		users:       NewUserService(repository.NewUserRepository(db), time.UTC),
		tasks:       NewTaskService(db, locker, logger),
		completions: NewCompletionService(db, locker, logger),
		streaks:     NewStreakService(db, locker, logger),
		stats:       NewStatisticsService(db, logger),
	}
	env.reminders = NewReminderService(env.tasks, env.stats, env.users,
		repository.NewTaskRepository(db), repository.NewCompletionRepository(db))
	return env
}

func (e *testEnv) user(t *testing.T) *model.User {
	t.Helper()
	user := &model.User{FirstName: "Test", Timezone: "UTC"}
	require.NoError(t, repository.NewUserRepository(e.db).Create(context.Background(), user))
	return user
}

func (e *testEnv) daily(t *testing.T, user *model.User, title string) *model.Task {
	t.Helper()
	task, err := e.tasks.CreateTask(context.Background(), user, TaskInput{Title: title, Recurrence: model.RecurrenceDaily})
	require.NoError(t, err)
	return task
}

func (e *testEnv) once(t *testing.T, user *model.User, title, due string) *model.Task {
	t.Helper()
	d := date.MustParse(due)
	task, err := e.tasks.CreateTask(context.Background(), user, TaskInput{Title: title, Recurrence: model.RecurrenceDateSpecific, DueDate: &d})
	require.NoError(t, err)
	return task
}

func (e *testEnv) complete(t *testing.T, user *model.User, task *model.Task, days ...string) {
	t.Helper()
	for _, d := range days {
		_, err := e.completions.Complete(context.Background(), user.ID, task.ID, date.MustParse(d), "")
		require.NoError(t, err)
	}
}

func ptrDate(s string) *date.Date {
	d := date.MustParse(s)
	return &d
}
