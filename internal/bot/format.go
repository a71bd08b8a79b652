package bot

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode"

	"daily-tracker/internal/date"
	"daily-tracker/internal/model"
	"daily-tracker/internal/service"
)

func escape(s string) string {
	return html.EscapeString(s)
}

func formatDay(d date.Date) string {
	return d.Time().Format("02.01.2006")
}

// userMessage turns a service error into a reply for the chat.
func userMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		return "Задача не найдена."
	case errors.Is(err, service.ErrCategoryNotFound):
		return "Категория не найдена."
	case errors.Is(err, service.ErrCompletionNotFound):
		return "За этот день отметки нет."
	case errors.Is(err, service.ErrTitleRequired):
		return "Название задачи не может быть пустым."
	case errors.Is(err, service.ErrDueDateRequired):
		return "Для разовой задачи нужна дата."
	case errors.Is(err, service.ErrInvalidTimezone):
		return "Неизвестный часовой пояс. Пример: <code>Europe/Moscow</code>."
	case errors.Is(err, service.ErrInvalidRange):
		return "Неверный диапазон дат."
	case errors.Is(err, service.ErrInvalidRecurrence):
		return "Неизвестный тип повтора."
	default:
		return fmt.Sprintf("Ошибка: %s", escape(err.Error()))
	}
}

// parseDay accepts YYYY-MM-DD or a relative word resolved against today.
func parseDay(text string, today date.Date) (date.Date, error) {
	switch strings.TrimSpace(strings.ToLower(text)) {
	case "сегодня", "today":
		return today, nil
	case "вчера", "yesterday":
		return today.Prev(), nil
	case "завтра", "tomorrow":
		return today.Next(), nil
	}
	return date.Parse(strings.TrimSpace(text))
}

// parseTaskArgs reads "<id> [day]"; the day defaults to today.
func parseTaskArgs(args string, today date.Date) (uint, date.Date, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, date.Date{}, fmt.Errorf("expected <id> [date], got %q", args)
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(fields[0], "#"), 10, 64)
	if err != nil || id == 0 {
		return 0, date.Date{}, fmt.Errorf("invalid task id %q", fields[0])
	}
	day := today
	if len(fields) == 2 {
		if day, err = parseDay(fields[1], today); err != nil {
			return 0, date.Date{}, err
		}
	}
	return uint(id), day, nil
}

func parseYesNo(text string) (yes bool, ok bool) {
	switch strings.TrimSpace(strings.ToLower(text)) {
	case "да", "yes", "y", "+":
		return true, true
	case "нет", "no", "n", "-":
		return false, true
	default:
		return false, false
	}
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "пропустить" || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "подтвердить" || value == "да"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "отмена" || value == "нет"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "отменить ввод"
}

func completedText(taskID uint, day date.Date, st *model.TaskStreak) string {
	text := fmt.Sprintf("✅ Задача #%d отмечена за %s.", taskID, formatDay(day))
	if st != nil && st.CurrentStreak > 0 {
		text += fmt.Sprintf("\n🔥 Серия: %d дн. · рекорд: %d дн.", st.CurrentStreak, st.LongestStreak)
	}
	return text
}

func uncompletedText(taskID uint, day date.Date, st *model.TaskStreak) string {
	text := fmt.Sprintf("↩️ Отметка задачи #%d за %s снята.", taskID, formatDay(day))
	if st != nil {
		text += fmt.Sprintf("\n🔥 Серия: %d дн. · рекорд: %d дн.", st.CurrentStreak, st.LongestStreak)
	}
	return text
}

func formatDayTask(task service.TaskView) string {
	var b strings.Builder
	icon := "⬜"
	if task.Completed != nil && *task.Completed {
		icon = "✅"
	}
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s", icon, task.ID, escape(normalizeTitle(task.Title))))
	if task.CurrentStreak > 0 {
		b.WriteString(fmt.Sprintf(" · 🔥 %d", task.CurrentStreak))
	}
	b.WriteByte('\n')
	if task.Description != "" {
		b.WriteString(fmt.Sprintf("   📝 %s\n", escape(task.Description)))
	}
	return b.String()
}

func formatTaskWithStreak(task service.TaskView) string {
	var b strings.Builder
	icon := "♻️"
	if task.Recurrence == model.RecurrenceDateSpecific {
		icon = "📌"
	}
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s\n", icon, task.ID, escape(normalizeTitle(task.Title))))
	if task.Recurrence == model.RecurrenceDateSpecific && task.DueDate != nil {
		b.WriteString(fmt.Sprintf("   📆 %s\n", formatDay(*task.DueDate)))
	}
	b.WriteString(fmt.Sprintf("   🔥 Серия: %d · рекорд: %d", task.CurrentStreak, task.LongestStreak))
	if task.LastCompletionDate != nil {
		b.WriteString(fmt.Sprintf(" · последнее: %s", formatDay(*task.LastCompletionDate)))
	}
	b.WriteByte('\n')
	return b.String()
}

func formatDailyStats(stats model.DailyStatistics) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Статистика за %s</b>\n", formatDay(stats.StatDate)))
	b.WriteString(fmt.Sprintf("• Выполнено: %d из %d\n", stats.CompletedTasks, stats.TotalTasks))
	b.WriteString(fmt.Sprintf("• Процент: %.2f%%\n", stats.CompletionRate))
	b.WriteString(fmt.Sprintf("• Активных серий: %d\n", stats.ActiveStreaks))
	b.WriteString(fmt.Sprintf("• Лучшая серия: %d дн.", stats.LongestStreak))
	return b.String()
}

func formatWeeklyStats(week service.WeeklyStatistics) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>Неделя %s – %s</b>\n\n", formatDay(week.StartDate), formatDay(week.EndDate)))
	for _, day := range week.PerDay {
		b.WriteString(fmt.Sprintf("%s %s: %d/%d (%.0f%%)\n", progressIcon(day.CompletionRate), formatDay(day.StatDate), day.CompletedTasks, day.TotalTasks, day.CompletionRate))
	}
	b.WriteString(fmt.Sprintf("\nВсего: %d из %d · в среднем %.2f%%", week.Totals.TotalCompleted, week.Totals.TotalTasks, week.Totals.AverageCompletionRate))
	return b.String()
}

func progressIcon(rate float64) string {
	switch {
	case rate >= 100:
		return "🟢"
	case rate >= 50:
		return "🟡"
	case rate > 0:
		return "🟠"
	default:
		return "⚪"
	}
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func normalizedCategory(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return noCategoryKey, categoryLabel(noCategory)
	}
	return strings.ToLower(trimmed), categoryLabel(trimmed)
}

func categoryLabel(name string) string {
	base := strings.TrimSpace(name)
	var icon string
	switch strings.ToLower(base) {
	case "здоровье":
		icon = "🩺"
	case "спорт":
		icon = "🏃"
	case "учеба":
		icon = "🎓"
	case "работа":
		icon = "💼"
	case "личное":
		icon = "🧩"
	case strings.ToLower(noCategory):
		icon = "📁"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s", icon, escape(normalizeTitle(base)))
}
