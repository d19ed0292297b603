package services

import (
	"context"
	"fmt"

	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramNotifier posts alert notifications to a single chat
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier authenticates the bot token against the Telegram API.
func NewTelegramNotifier(botToken string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %v", err)
	}

	logger.Info("🤖 Telegram bot authorized", zap.String("username", bot.Self.UserName), zap.Int64("chat_id", chatID))
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) NotifyAlert(_ context.Context, n *models.Notification) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatAlertText(n))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// FormatAlertText renders a notification as a short chat message.
func FormatAlertText(n *models.Notification) string {
	icon := "🔔"
	switch n.Type {
	case models.NotificationBinFull:
		icon = "⚠️"
	case models.NotificationLowBattery:
		icon = "🔋"
	}
	return fmt.Sprintf("%s %s\n%s", icon, n.Title, n.Message)
}
