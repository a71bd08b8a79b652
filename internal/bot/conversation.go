package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-tracker/internal/model"
	"daily-tracker/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageCategory
	stageDaily
	stageDueDate
)

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.logger.Infow("start new task conversation", "telegram_id", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 Создаём новую задачу.\n<b>Шаг 1:</b> как её назвать?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Название не может быть пустым. Как назвать задачу?", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Добавь короткое описание (или нажми «Пропустить»).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Выбери категорию или отправь свою (можно «Пропустить»).", categoryKeyboard())
	case stageCategory:
		if !isSkipInput(text) {
			state.input.Category = text
		}
		state.stage = stageDaily
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Повторять задачу каждый день?", yesNoKeyboard())
	case stageDaily:
		yes, ok := parseYesNo(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Нажми «Да» или «Нет».", yesNoKeyboard())
		}
		if yes {
			state.input.Recurrence = model.RecurrenceDaily
			return b.finishConversation(ctx, msg, state.input)
		}
		state.input.Recurrence = model.RecurrenceDateSpecific
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "📆 На какой день? Формат <code>2025-11-30</code>, можно «сегодня» или «завтра».", dueDateKeyboard())
	case stageDueDate:
		user, err := b.ensureUser(ctx, msg.From)
		if err != nil {
			return err
		}
		day, err := parseDay(text, b.svc.Users.Today(*user))
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Не могу распознать дату. Используй формат <code>2025-11-30</code>.", dueDateKeyboard())
		}
		state.input.DueDate = &day
		return b.finishConversation(ctx, msg, state.input)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /newtask.")
	}
}

func (b *Bot) finishConversation(ctx context.Context, msg *tgbotapi.Message, input service.TaskInput) error {
	err := b.finishTaskCreation(ctx, msg.From, input, msg.Chat.ID)
	b.clearConversation(msg.From.ID)
	return err
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.svc.Tasks.CreateTask(ctx, user, input)
	if err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Не удалось сохранить задачу: %s", userMessage(err)))
	}

	var summary strings.Builder
	summary.WriteString("✅ <b>Задача сохранена</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Название:</b> %s\n", escape(normalizeTitle(task.Title))))
	if task.Description != "" {
		summary.WriteString(fmt.Sprintf("• <b>Описание:</b> %s\n", escape(task.Description)))
	}
	if input.Category != "" {
		summary.WriteString(fmt.Sprintf("• <b>Категория:</b> %s\n", categoryLabel(input.Category)))
	}
	if task.Recurrence == model.RecurrenceDaily {
		summary.WriteString("• <b>Повтор:</b> каждый день\n")
	} else if task.DueDate != nil {
		summary.WriteString(fmt.Sprintf("• <b>Дата:</b> %s\n", formatDay(*task.DueDate)))
	}

	return b.sendTextWithRemove(chatID, strings.TrimSpace(summary.String()))
}
