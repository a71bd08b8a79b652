package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-tracker/internal/date"
	"daily-tracker/internal/model"
)

func TestComplete_IsIdempotentPerDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t)
	task := env.daily(t, user, "meditate")
	day := date.MustParse("2024-01-01")

	first, err := env.completions.Complete(ctx, user.ID, task.ID, day, "10 minutes")
	require.NoError(t, err)
	second, err := env.completions.Complete(ctx, user.ID, task.ID, day, "")
	require.NoError(t, err)

	var count int64
	require.NoError(t, env.db.Model(&model.Completion{}).Where("task_id = ?", task.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, first.Completion.ID, second.Completion.ID)
	assert.Equal(t, "10 minutes", second.Completion.Notes, "empty notes keep the existing ones")
	assert.Equal(t, 1, second.Streak.CurrentStreak)

	third, err := env.completions.Complete(ctx, user.ID, task.ID, day, "20 minutes")
	require.NoError(t, err)
	assert.Equal(t, "20 minutes", third.Completion.Notes)
}

func TestCompleteThenUncomplete_RestoresDates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t)
	task := env.daily(t, user, "stretch")
	env.complete(t, user, task, "2024-01-01", "2024-01-03")

	before, err := env.completions.ListDates(ctx, user.ID, task.ID)
	require.NoError(t, err)

	day := date.MustParse("2024-01-02")
	_, err = env.completions.Complete(ctx, user.ID, task.ID, day, "")
	require.NoError(t, err)
	done, err := env.completions.IsCompleted(ctx, user.ID, task.ID, day)
	require.NoError(t, err)
	assert.True(t, done)

	_, err = env.completions.Uncomplete(ctx, user.ID, task.ID, day)
	require.NoError(t, err)

	after, err := env.completions.ListDates(ctx, user.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUncomplete_MissingRecordIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t)
	task := env.daily(t, user, "journal")

	_, err := env.completions.Uncomplete(context.Background(), user.ID, task.ID, date.MustParse("2024-01-01"))
	assert.ErrorIs(t, err, ErrCompletionNotFound)
}

func TestLedger_RejectsForeignTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t)
	other := env.user(t)
	task := env.daily(t, owner, "private")

	_, err := env.completions.Complete(ctx, other.ID, task.ID, date.MustParse("2024-01-01"), "")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = env.completions.Uncomplete(ctx, other.ID, task.ID, date.MustParse("2024-01-01"))
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestLedger_RecomputesStreakOnEveryMutation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t)
	task := env.daily(t, user, "water plants")

	// Written out of order; the rebuild must not care.
	env.complete(t, user, task, "2024-01-03", "2024-01-01")
	res, err := env.completions.Complete(ctx, user.ID, task.ID, date.MustParse("2024-01-02"), "")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Streak.CurrentStreak)
	assert.Equal(t, 3, res.Streak.LongestStreak)
	assert.Equal(t, ptrDate("2024-01-01"), res.Streak.StreakStartDate)
	assert.Equal(t, ptrDate("2024-01-03"), res.Streak.LastCompletionDate)

	// Removing a middle date splits the run.
	res, err = env.completions.Uncomplete(ctx, user.ID, task.ID, date.MustParse("2024-01-02"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak.CurrentStreak)
	assert.Equal(t, 1, res.Streak.LongestStreak)

	stored, err := env.streaks.Get(ctx, user.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Streak.CurrentStreak, stored.CurrentStreak)
	assert.Equal(t, res.Streak.LongestStreak, stored.LongestStreak)
}

func TestLedger_RemovingEverythingResetsStreak(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t)
	task := env.daily(t, user, "floss")
	env.complete(t, user, task, "2024-01-01", "2024-01-02")

	_, err := env.completions.Uncomplete(ctx, user.ID, task.ID, date.MustParse("2024-01-01"))
	require.NoError(t, err)
	res, err := env.completions.Uncomplete(ctx, user.ID, task.ID, date.MustParse("2024-01-02"))
	require.NoError(t, err)

	assert.Zero(t, res.Streak.CurrentStreak)
	assert.Zero(t, res.Streak.LongestStreak)
	assert.Nil(t, res.Streak.LastCompletionDate)
	assert.Nil(t, res.Streak.StreakStartDate)
}

func TestLedger_ConcurrentMutationsOnOneTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t)
	task := env.daily(t, user, "pushups")

	start := date.MustParse("2024-05-01")
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(day date.Date) {
			defer wg.Done()
			_, err := env.completions.Complete(ctx, user.ID, task.ID, day, "")
			assert.NoError(t, err)
		}(start.AddDays(i))
	}
	wg.Wait()

	st, err := env.streaks.Get(ctx, user.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, st.CurrentStreak)
	assert.Equal(t, 10, st.LongestStreak)
	assert.Equal(t, ptrDate("2024-05-01"), st.StreakStartDate)
}

func TestStreakService_RecomputeRepairsStoredState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t)
	task := env.daily(t, user, "read")
	env.complete(t, user, task, "2024-01-01", "2024-01-02", "2024-01-05")

	// Corrupt the derived row behind the ledger's back.
	require.NoError(t, env.db.Model(&model.TaskStreak{}).Where("task_id = ?", task.ID).
		Updates(map[string]interface{}{"current_streak": 42, "longest_streak": 42}).Error)

	n, err := env.streaks.RecomputeAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	st, err := env.streaks.Get(ctx, user.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, 2, st.LongestStreak)
	assert.Equal(t, ptrDate("2024-01-05"), st.LastCompletionDate)

	_, err = env.streaks.Recompute(ctx, user.ID, task.ID+100)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
