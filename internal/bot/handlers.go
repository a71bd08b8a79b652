package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-tracker/internal/date"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
	"daily-tracker/internal/service"
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}

	text := fmt.Sprintf(
		"👋 Привет, %s!\n<b>Я помогу выполнять задачи каждый день и не прерывать серии.</b>\n\nКоманды:\n"+
			"• /today — задачи на сегодня\n"+
			"• /newtask — добавить новую задачу\n"+
			"• /complete &lt;id&gt; — отметить задачу выполненной\n"+
			"• /stats — статистика за день\n"+
			"• /week — статистика за неделю\n"+
			"• /help — подсказки\n"+
			"• /cancel — отменить текущий ввод",
		escape(name),
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Подсказки</b>\n" +
		"• /today [дата] — задачи на день, отмечай их кнопками\n" +
		"• /tasks — все активные задачи с сериями\n" +
		"• /newtask — добавить задачу пошагово\n" +
		"• /complete &lt;id&gt; [дата] — отметить выполнение (например, /complete 3 вчера)\n" +
		"• /uncomplete &lt;id&gt; [дата] — снять отметку\n" +
		"• /stats [дата] — статистика за день\n" +
		"• /week — статистика за последние 7 дней\n" +
		"• /delete &lt;id&gt; — удалить задачу вместе с историей\n" +
		"• /categories — список категорий\n" +
		"• /timezone &lt;зона&gt; — часовой пояс, например Europe/Moscow\n" +
		"• /report — прислать ежедневный отчёт сейчас\n" +
		"• /cancel — отменить текущий ввод\n\n" +
		"Дата: <code>2025-11-30</code>, «сегодня», «вчера» или «завтра»."
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	day := b.svc.Users.Today(*user)
	if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
		if day, err = parseDay(args, day); err != nil {
			return b.sendText(msg.Chat.ID, "Не могу распознать дату. Используй формат <code>2025-11-30</code>.")
		}
	}
	return b.sendDayList(ctx, msg.Chat.ID, user, day)
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

func (b *Bot) handleComplete(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	taskID, day, err := parseTaskArgs(msg.CommandArguments(), b.svc.Users.Today(*user))
	if err != nil {
		return b.sendText(msg.Chat.ID, "Укажи ID задачи и, при желании, дату: /complete 12 или /complete 12 2025-11-30")
	}

	res, err := b.svc.Completions.Complete(ctx, user.ID, taskID, day, "")
	if err != nil {
		return b.sendText(msg.Chat.ID, userMessage(err))
	}
	return b.sendText(msg.Chat.ID, completedText(taskID, day, res.Streak))
}

func (b *Bot) handleUncomplete(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	taskID, day, err := parseTaskArgs(msg.CommandArguments(), b.svc.Users.Today(*user))
	if err != nil {
		return b.sendText(msg.Chat.ID, "Укажи ID задачи и, при желании, дату: /uncomplete 12 2025-11-30")
	}

	res, err := b.svc.Completions.Uncomplete(ctx, user.ID, taskID, day)
	if err != nil {
		return b.sendText(msg.Chat.ID, userMessage(err))
	}
	return b.sendText(msg.Chat.ID, uncompletedText(taskID, day, res.Streak))
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	day := b.svc.Users.Today(*user)
	if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
		if day, err = parseDay(args, day); err != nil {
			return b.sendText(msg.Chat.ID, "Не могу распознать дату. Используй формат <code>2025-11-30</code>.")
		}
	}

	stats, err := b.svc.Statistics.Daily(ctx, user.ID, day)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось посчитать статистику: %s", userMessage(err)))
	}
	return b.sendText(msg.Chat.ID, formatDailyStats(*stats))
}

func (b *Bot) handleWeek(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	start, end := service.DefaultWeek(b.svc.Users.Today(*user))
	week, err := b.svc.Statistics.Weekly(ctx, user.ID, start, end)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось посчитать статистику: %s", userMessage(err)))
	}
	return b.sendText(msg.Chat.ID, formatWeeklyStats(*week))
}

// handleDelete удаляет задачу вместе с историей выполнений.
func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	taskID, _, err := parseTaskArgs(msg.CommandArguments(), date.Date{})
	if err != nil {
		return b.sendText(msg.Chat.ID, "Укажи ID задачи: /delete 12")
	}
	return b.askDeleteConfirmation(ctx, msg.Chat.ID, msg.From.ID, user, taskID)
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	categories, err := b.svc.Categories.List(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить категории: %s", userMessage(err)))
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "Категории пока пусты. Добавь их при создании задачи.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Категории</b>\n")
	for _, cat := range categories {
		builder.WriteString(fmt.Sprintf("• %s · задач: %d\n", categoryLabel(cat.Name), cat.TaskCount))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleTimezone(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		current := b.svc.Users.Location(*user).String()
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Текущий часовой пояс: <code>%s</code>. Укажи новый, например: /timezone Europe/Moscow", escape(current)))
	}
	if err := b.svc.Users.SetTimezone(ctx, user, args); err != nil {
		return b.sendText(msg.Chat.ID, userMessage(err))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Часовой пояс обновлён: <code>%s</code>. Сегодня у тебя %s.", escape(args), formatDay(b.svc.Users.Today(*user))))
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.svc.Reminders.DailySummary(ctx, *user, b.svc.Users.Today(*user))
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось сформировать отчёт: %s", userMessage(err)))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelToday):
		return true, b.handleToday(ctx, msg)
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.handleListTasks(ctx, msg)
	case strings.ToLower(menuLabelStats):
		return true, b.handleWeek(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		user, err := b.ensureUser(ctx, msg.From)
		if err != nil {
			return err
		}
		if req.action == actionDelete {
			return b.deleteTask(ctx, msg.Chat.ID, user, req.taskID)
		}
		return b.uncompleteAndRefresh(ctx, msg.Chat.ID, user, req.taskID, req.day)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		prompt := "Подтверди или отмени удаление задачи."
		if req.action == actionUncomplete {
			prompt = "Подтверди или отмени снятие отметки."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
}

// sendDayList shows the tasks due on day grouped by category, with a button per task.
func (b *Bot) sendDayList(ctx context.Context, chatID int64, user *model.User, day date.Date) error {
	tasks, err := b.svc.Tasks.ListForDate(ctx, user, day)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось получить задачи: %s", userMessage(err)))
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, fmt.Sprintf("На %s задач нет. Добавь новую через /newtask.", formatDay(day)))
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>Задачи на %s</b>\n", formatDay(day)))
	builder.WriteString("Нажми на кнопку, чтобы отметить выполнение или снять отметку.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, group := range groupByCategory(tasks) {
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", group.Name))
		for _, task := range group.Tasks {
			builder.WriteString(formatDayTask(task))
			if task.Completed != nil && *task.Completed {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("↩️ #%d · %s", task.ID, shortTitle(task.Title, 22)), callbackData(cbUndoPrefix, task.ID, day)),
				))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 22)), callbackData(cbDonePrefix, task.ID, day)),
			))
		}
		builder.WriteByte('\n')
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

// sendTaskList shows every active task with its streak and a delete button.
func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	active := true
	tasks, err := b.svc.Tasks.ListTasks(ctx, user, repository.TaskFilter{Active: &active})
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось получить задачи: %s", userMessage(err)))
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "У тебя нет активных задач. Добавь новую через /newtask.")
	}

	var builder strings.Builder
	builder.WriteString("🗂 <b>Активные задачи</b>\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, group := range groupByCategory(tasks) {
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", group.Name))
		for _, task := range group.Tasks {
			builder.WriteString(formatTaskWithStreak(task))
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🗑 #%d · %s", task.ID, shortTitle(task.Title, 22)), callbackData(cbDeletePrefix, task.ID, date.Date{})),
			))
		}
		builder.WriteByte('\n')
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

type categoryGroup struct {
	Name  string
	Tasks []service.TaskView
}

// groupByCategory keeps the input order inside a group and sorts groups by lowercased name,
// with uncategorised tasks last.
func groupByCategory(tasks []service.TaskView) []*categoryGroup {
	groups := make(map[string]*categoryGroup)
	var order []string
	for _, task := range tasks {
		key, display := normalizedCategory(task.CategoryName)
		group, ok := groups[key]
		if !ok {
			group = &categoryGroup{Name: display}
			groups[key] = group
			order = append(order, key)
		}
		group.Tasks = append(group.Tasks, task)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i] == noCategoryKey {
			return false
		}
		if order[j] == noCategoryKey {
			return true
		}
		return order[i] < order[j]
	})

	out := make([]*categoryGroup, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key])
	}
	return out
}
