package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-tracker/internal/date"
	"daily-tracker/internal/model"
)

const (
	cbDonePrefix   = "done:"
	cbUndoPrefix   = "undo:"
	cbDeletePrefix = "delete:"
)

// callbackData encodes a task id and, for per-day buttons, the day the button was rendered for.
func callbackData(prefix string, taskID uint, day date.Date) string {
	if day.IsZero() {
		return fmt.Sprintf("%s%d", prefix, taskID)
	}
	return fmt.Sprintf("%s%d:%s", prefix, taskID, day)
}

func parseCallback(data, prefix string) (uint, date.Date, error) {
	raw := strings.TrimPrefix(data, prefix)
	idPart, dayPart, _ := strings.Cut(raw, ":")
	value, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil {
		return 0, date.Date{}, err
	}
	var day date.Date
	if dayPart != "" {
		if day, err = date.Parse(dayPart); err != nil {
			return 0, date.Date{}, err
		}
	}
	return uint(value), day, nil
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warnw("callback ack", "error", err)
	}

	var prefix string
	for _, p := range []string{cbDonePrefix, cbUndoPrefix, cbDeletePrefix} {
		if strings.HasPrefix(cb.Data, p) {
			prefix = p
			break
		}
	}
	if prefix == "" {
		return nil
	}

	taskID, day, err := parseCallback(cb.Data, prefix)
	if err != nil {
		return nil
	}
	b.logger.Infow("callback", "telegram_id", cb.From.ID, "action", strings.TrimSuffix(prefix, ":"), "task_id", taskID)

	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		return err
	}
	if day.IsZero() {
		day = b.svc.Users.Today(*user)
	}

	chatID := cb.Message.Chat.ID
	switch prefix {
	case cbDonePrefix:
		return b.completeAndRefresh(ctx, chatID, user, taskID, day)
	case cbUndoPrefix:
		return b.askUncompleteConfirmation(ctx, chatID, cb.From.ID, user, taskID, day)
	default:
		return b.askDeleteConfirmation(ctx, chatID, cb.From.ID, user, taskID)
	}
}

func (b *Bot) askUncompleteConfirmation(ctx context.Context, chatID, fromID int64, user *model.User, taskID uint, day date.Date) error {
	task, err := b.svc.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}

	text := fmt.Sprintf("Снять отметку с задачи «%s» (#%d) за %s? Серия будет пересчитана.", escape(normalizeTitle(task.Title)), task.ID, formatDay(day))
	b.setConfirmation(fromID, confirmationRequest{taskID: task.ID, day: day, action: actionUncomplete})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID, fromID int64, user *model.User, taskID uint) error {
	task, err := b.svc.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}

	text := fmt.Sprintf("Удалить задачу «%s» (#%d) вместе со всей историей выполнений?", escape(normalizeTitle(task.Title)), task.ID)
	b.setConfirmation(fromID, confirmationRequest{taskID: task.ID, action: actionDelete})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) completeAndRefresh(ctx context.Context, chatID int64, user *model.User, taskID uint, day date.Date) error {
	res, err := b.svc.Completions.Complete(ctx, user.ID, taskID, day, "")
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if err := b.sendText(chatID, completedText(taskID, day, res.Streak)); err != nil {
		return err
	}
	return b.sendDayList(ctx, chatID, user, day)
}

func (b *Bot) uncompleteAndRefresh(ctx context.Context, chatID int64, user *model.User, taskID uint, day date.Date) error {
	res, err := b.svc.Completions.Uncomplete(ctx, user.ID, taskID, day)
	if err != nil {
		return b.sendTextWithRemove(chatID, userMessage(err))
	}
	if err := b.sendTextWithRemove(chatID, uncompletedText(taskID, day, res.Streak)); err != nil {
		return err
	}
	return b.sendDayList(ctx, chatID, user, day)
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, user *model.User, taskID uint) error {
	task, err := b.svc.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendTextWithRemove(chatID, userMessage(err))
	}
	if err := b.svc.Tasks.DeleteTask(ctx, user, taskID); err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Не удалось удалить задачу: %s", userMessage(err)))
	}
	return b.sendTextWithRemove(chatID, fmt.Sprintf("🗑 Задача «%s» удалена.", escape(normalizeTitle(task.Title))))
}
