// Package telegram wraps the bot API used as the transport for push
// notifications. Accounts opt in by linking a Telegram chat ID.
package telegram

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot struct {
	api *tgbotapi.BotAPI
}

func NewBot(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Telegram bot authorized as @%s", api.Self.UserName)
	return &Bot{api: api}, nil
}

// SendPush delivers one notification to the linked chat. Errors bubble up
// so the queue consumer can requeue the task.
func (b *Bot) SendPush(chatID int64, title, message string) error {
	text := fmt.Sprintf("%s\n\n%s", title, message)
	msg := tgbotapi.NewMessage(chatID, text)

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send to %d: %w", chatID, err)
	}
	return nil
}
