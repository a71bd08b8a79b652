package bot

import (
	"context"
)

// SendDailyReports sends today's summary to every Telegram user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.svc.Users.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if user.TelegramID == nil {
			continue
		}
		text, err := b.svc.Reminders.DailySummary(ctx, user, b.svc.Users.Today(user))
		if err != nil {
			b.logger.Errorw("build summary", "user_id", user.ID, "error", err)
			continue
		}
		if err := b.sendText(*user.TelegramID, text); err != nil {
			b.logger.Errorw("send summary", "user_id", user.ID, "error", err)
		}
	}
	return nil
}

// SendMissedNotices tells every Telegram user which daily tasks they missed yesterday.
func (b *Bot) SendMissedNotices(ctx context.Context) error {
	users, err := b.svc.Users.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if user.TelegramID == nil {
			continue
		}
		text, err := b.svc.Reminders.MissedSummary(ctx, user, b.svc.Users.Today(user).Prev())
		if err != nil {
			b.logger.Errorw("build missed summary", "user_id", user.ID, "error", err)
			continue
		}
		if text == "" {
			continue
		}
		if err := b.sendText(*user.TelegramID, text); err != nil {
			b.logger.Errorw("send missed summary", "user_id", user.ID, "error", err)
		}
	}
	return nil
}
