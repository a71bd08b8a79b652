package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"daily-tracker/internal/date"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

// UserService resolves users and the calendar date they are living in.
type UserService struct {
	repo     *repository.UserRepository
	fallback *time.Location
}

func NewUserService(repo *repository.UserRepository, fallback *time.Location) *UserService {
	if fallback == nil {
		fallback = time.UTC
	}
	return &UserService{repo: repo, fallback: fallback}
}

func (s *UserService) Get(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *UserService) EnsureTelegramUser(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.User, error) {
	return s.repo.SyncTelegram(ctx, repository.TelegramProfile{
		ID:        telegramID,
		FirstName: firstName,
		LastName:  lastName,
		Username:  username,
	})
}

func (s *UserService) SetTimezone(ctx context.Context, user *model.User, timezone string) error {
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimezone, timezone)
	}
	if err := s.repo.SetTimezone(ctx, user.ID, timezone); err != nil {
		return err
	}
	user.Timezone = timezone
	return nil
}

func (s *UserService) ListAll(ctx context.Context) ([]model.User, error) {
	return s.repo.ListAll(ctx)
}

// Location is the user's timezone, or the configured default.
func (s *UserService) Location(user model.User) *time.Location {
	return user.Location(s.fallback)
}

// Today is the current calendar date for the user.
func (s *UserService) Today(user model.User) date.Date {
	return date.Today(s.Location(user))
}
