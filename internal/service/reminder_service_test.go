package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-tracker/internal/date"
	"daily-tracker/internal/model"
)

func TestMissedTasks_SkipsDaysBeforeCreation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t)

	old := env.daily(t, user, "old habit")
	fresh := env.daily(t, user, "new habit")
	done := env.daily(t, user, "kept")
	env.once(t, user, "one-off", "2024-06-10")

	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, task := range []*model.Task{old, done} {
		require.NoError(t, env.db.Model(task).UpdateColumn("created_at", created).Error)
	}
	require.NoError(t, env.db.Model(fresh).UpdateColumn("created_at", created.AddDate(0, 0, 10)).Error)
	env.complete(t, user, done, "2024-06-10")

	missed, err := env.reminders.MissedTasks(ctx, *user, date.MustParse("2024-06-10"))
	require.NoError(t, err)
	require.Len(t, missed, 1)
	assert.Equal(t, old.ID, missed[0].ID)

	text, err := env.reminders.MissedSummary(ctx, *user, date.MustParse("2024-06-10"))
	require.NoError(t, err)
	assert.Contains(t, text, "old habit")
	assert.Contains(t, text, "10.06.2024")

	text, err = env.reminders.MissedSummary(ctx, *user, date.MustParse("2024-05-01"))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestDailySummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t)

	done := env.daily(t, user, "read <b>book</b>")
	env.daily(t, user, "stretch")
	env.complete(t, user, done, "2024-06-09", "2024-06-10")

	text, err := env.reminders.DailySummary(ctx, *user, date.MustParse("2024-06-10"))
	require.NoError(t, err)
	assert.Contains(t, text, "10.06.2024")
	assert.Contains(t, text, "✅")
	assert.Contains(t, text, "read &lt;b&gt;book&lt;/b&gt;")
	assert.Contains(t, text, "🔥 2")
	assert.Contains(t, text, "⬜")
	assert.Contains(t, text, "Выполнено 1 из 2 (50.00%)")
}

func TestDailySummary_NoTasks(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t)

	text, err := env.reminders.DailySummary(context.Background(), *user, date.MustParse("2024-06-10"))
	require.NoError(t, err)
	assert.Contains(t, text, "на этот день задач нет")
}
