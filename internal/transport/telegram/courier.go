package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"movie-trivia-bot/internal/domain"
)

// Courier delivers job-originated notifications. User ids are Telegram chat
// ids in decimal form.
type Courier struct {
	bot MessageSender
}

func NewCourier(bot MessageSender) *Courier {
	return &Courier{bot: bot}
}

func (c *Courier) Notify(ctx context.Context, userID, text string) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("notify %s: bad chat id: %w", userID, err)
	}
	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("notify %s: %w", userID, err)
	}
	return nil
}

func (c *Courier) SendDailyQuestion(ctx context.Context, userID, token string, question domain.Question) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("daily question %s: bad chat id: %w", userID, err)
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, option := range question.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(option, dailyAnswerPayload(token, i)),
		))
	}
	msg := tgbotapi.NewMessage(chatID, "🎬 Daily Movie Quiz!\n\n"+question.Prompt)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("daily question %s: %w", userID, err)
	}
	return nil
}
