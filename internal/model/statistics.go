package model

import (
	"time"

	"daily-tracker/internal/date"
)

// DailyStatistics is the last computed snapshot for a user and date.
// It is overwritten on every query and never read back as a source of truth.
type DailyStatistics struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_user_stat_date" json:"user_id"`
	StatDate       date.Date `gorm:"not null;uniqueIndex:idx_user_stat_date" json:"stat_date"`
	TotalTasks     int       `json:"total_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
	CompletionRate float64   `json:"completion_rate"`
	ActiveStreaks  int       `json:"active_streaks"`
	LongestStreak  int       `json:"longest_streak"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (DailyStatistics) TableName() string {
	return "daily_statistics"
}
