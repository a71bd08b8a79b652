package model

import (
	"time"

	"daily-tracker/internal/date"
)

// Recurrence says on which calendar days a task applies.
type Recurrence string

const (
	RecurrenceDaily        Recurrence = "daily"
	RecurrenceDateSpecific Recurrence = "date_specific"
)

func (r Recurrence) Valid() bool {
	return r == RecurrenceDaily || r == RecurrenceDateSpecific
}

// Task is a user-defined item that can be completed once per calendar day.
type Task struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"index;not null" json:"user_id"`
	CategoryID   *uint      `gorm:"index" json:"category_id,omitempty"`
	Title        string     `gorm:"type:varchar(255);not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	Recurrence   Recurrence `gorm:"type:varchar(20);not null" json:"recurrence"`
	DueDate      *date.Date `json:"due_date,omitempty"`
	Active       bool       `gorm:"not null" json:"active"`
	Timezone     string     `gorm:"type:varchar(64)" json:"timezone"`
	ReminderTime string     `gorm:"type:varchar(5)" json:"reminder_time,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Completion records that a task was done on one calendar date.
// (TaskID, Date) is unique.
type Completion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TaskID      uint      `gorm:"not null;uniqueIndex:idx_task_completion_date" json:"task_id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Date        date.Date `gorm:"column:completion_date;not null;uniqueIndex:idx_task_completion_date;index" json:"completion_date"`
	CompletedAt time.Time `json:"completed_at"`
	Notes       string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TaskStreak is the derived streak state of a task, rebuilt from its completions.
type TaskStreak struct {
	TaskID             uint       `gorm:"primaryKey;autoIncrement:false" json:"task_id"`
	UserID             uint       `gorm:"index;not null" json:"user_id"`
	CurrentStreak      int        `gorm:"not null" json:"current_streak"`
	LongestStreak      int        `gorm:"not null" json:"longest_streak"`
	LastCompletionDate *date.Date `json:"last_completion_date"`
	StreakStartDate    *date.Date `json:"streak_start_date"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
