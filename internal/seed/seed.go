// Package seed loads demo or backfill data from a YAML file.
//
// Completions are written through the completion ledger so streaks are derived
// exactly as they are for live traffic.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"daily-tracker/internal/date"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
	"daily-tracker/internal/service"
)

type Fixture struct {
	Users []UserFixture `yaml:"users"`
}

type UserFixture struct {
	TelegramID *int64        `yaml:"telegram_id"`
	FirstName  string        `yaml:"first_name"`
	Username   string        `yaml:"username"`
	Timezone   string        `yaml:"timezone"`
	Tasks      []TaskFixture `yaml:"tasks"`
}

type TaskFixture struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Recurrence  string   `yaml:"recurrence"`
	DueDate     string   `yaml:"due_date"`
	Active      *bool    `yaml:"active"`
	Completions []string `yaml:"completions"`
}

// Summary counts what Apply created.
type Summary struct {
	Users       int
	Tasks       int
	Completions int
}

// Parse decodes a fixture, rejecting unknown fields.
func Parse(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fx Fixture
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &fx, nil
}

func LoadFile(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

type Loader struct {
	userRepo    *repository.UserRepository
	users       *service.UserService
	tasks       *service.TaskService
	completions *service.CompletionService
	logger      *zap.SugaredLogger
}

func NewLoader(userRepo *repository.UserRepository, users *service.UserService, tasks *service.TaskService, completions *service.CompletionService, logger *zap.SugaredLogger) *Loader {
	return &Loader{
		userRepo:    userRepo,
		users:       users,
		tasks:       tasks,
		completions: completions,
		logger:      logger,
	}
}

// Apply creates every user, task and completion in fx. It is not idempotent for users
// without a telegram_id: each run creates them again.
func (l *Loader) Apply(ctx context.Context, fx *Fixture) (Summary, error) {
	var sum Summary
	for i, uf := range fx.Users {
		user, err := l.user(ctx, uf)
		if err != nil {
			return sum, fmt.Errorf("user %d: %w", i, err)
		}
		sum.Users++

		for j, tf := range uf.Tasks {
			done, err := l.task(ctx, user, tf)
			if err != nil {
				return sum, fmt.Errorf("user %d task %d (%q): %w", i, j, tf.Title, err)
			}
			sum.Tasks++
			sum.Completions += done
		}
	}

	l.logger.Infow("fixture applied", "users", sum.Users, "tasks", sum.Tasks, "completions", sum.Completions)
	return sum, nil
}

func (l *Loader) user(ctx context.Context, uf UserFixture) (*model.User, error) {
	var user *model.User
	if uf.TelegramID != nil {
		u, err := l.users.EnsureTelegramUser(ctx, *uf.TelegramID, uf.FirstName, "", uf.Username)
		if err != nil {
			return nil, err
		}
		user = u
	} else {
		user = &model.User{FirstName: uf.FirstName, Username: uf.Username}
		if err := l.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
	}

	if uf.Timezone != "" {
		if err := l.users.SetTimezone(ctx, user, uf.Timezone); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (l *Loader) task(ctx context.Context, user *model.User, tf TaskFixture) (int, error) {
	input := service.TaskInput{
		Title:       tf.Title,
		Description: tf.Description,
		Category:    tf.Category,
		Recurrence:  model.Recurrence(tf.Recurrence),
	}
	if tf.DueDate != "" {
		due, err := date.Parse(tf.DueDate)
		if err != nil {
			return 0, err
		}
		input.DueDate = &due
	}

	days := make([]date.Date, 0, len(tf.Completions))
	for _, raw := range tf.Completions {
		day, err := date.Parse(raw)
		if err != nil {
			return 0, err
		}
		days = append(days, day)
	}

	task, err := l.tasks.CreateTask(ctx, user, input)
	if err != nil {
		return 0, err
	}
	for _, day := range days {
		if _, err := l.completions.Complete(ctx, user.ID, task.ID, day, ""); err != nil {
			return 0, err
		}
	}
	if tf.Active != nil && !*tf.Active {
		if _, err := l.tasks.UpdateTask(ctx, user, task.ID, service.TaskPatch{Active: tf.Active}); err != nil {
			return 0, err
		}
	}
	return len(days), nil
}
