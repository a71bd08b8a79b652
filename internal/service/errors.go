package service

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrCompletionNotFound = errors.New("completion not found")
	ErrTitleRequired      = errors.New("title is required")
	ErrDueDateRequired    = errors.New("due date is required for date-specific tasks")
	ErrInvalidRecurrence  = errors.New("recurrence must be daily or date_specific")
	ErrInvalidTimezone    = errors.New("unknown timezone")
	ErrInvalidRange       = errors.New("invalid date range")
)
