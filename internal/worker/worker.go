// Package worker holds the handlers behind the notification queues. All of
// them run under at-least-once delivery, so every handler is written to be
// safely re-runnable: a duplicate email or log line is acceptable, a lost
// one is not.
package worker

import (
	"errors"
	"log"
	"strings"

	"chatboard/backend/internal/models"
	"chatboard/backend/internal/queue"

	"gorm.io/gorm"
)

// UserLookup is the slice of the durable store the workers need.
type UserLookup interface {
	GetUserByUsername(username string) (*models.User, error)
}

// PushSender delivers a push notification to a linked chat.
type PushSender interface {
	SendPush(chatID int64, title, message string) error
}

// Flagged message content triggers a system_logs entry. Kept deliberately
// small; a real filter would live behind its own service.
var bannedWords = []string{"spam", "viagra", "lottery", "winner!!!"}

type Service struct {
	users     UserLookup
	publisher queue.Publisher
	push      PushSender // nil when no bot is configured
}

func NewService(users UserLookup, publisher queue.Publisher, push PushSender) *Service {
	return &Service{users: users, publisher: publisher, push: push}
}

// HandleEmail simulates delivery; this is the integration point for a real
// mail provider. A task without a recipient is dropped, not requeued — it
// can never succeed.
func (s *Service) HandleEmail(task models.NotificationTask) error {
	if task.Recipient == "" {
		log.Printf("worker: email task without recipient dropped (subject %q)", task.Subject)
		return nil
	}

	log.Printf("worker: sending email to %s: %s", task.Recipient, task.Subject)
	return nil
}

// HandleActivity writes the activity event to the operational log.
func (s *Service) HandleActivity(task models.NotificationTask) error {
	log.Printf("worker: activity %s user=%s details=%v at=%s",
		task.Activity, task.Username, task.Details, task.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	return nil
}

// HandleMessageProcessing runs the content filter over a posted message and
// reports hits to the system_logs queue. The report is best-effort: a down
// broker must not fail the handler, or the task would requeue forever.
func (s *Service) HandleMessageProcessing(task models.NotificationTask) error {
	if !containsBannedWord(task.Message) {
		return nil
	}

	log.Printf("worker: message from %s flagged by content filter", task.Username)
	s.publisher.Publish(queue.QueueSystemLogs, models.NotificationTask{
		Type:     models.TaskSystemLog,
		Username: task.Username,
		Activity: "message_flagged",
		Message:  task.Message,
	})
	return nil
}

// HandlePush resolves the user's Telegram link and sends through the bot.
// Missing user or missing link counts as handled — there is nothing to
// deliver and never will be. Transport failures return an error so the
// delivery is requeued.
func (s *Service) HandlePush(task models.NotificationTask) error {
	user, err := s.users.GetUserByUsername(task.Username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("worker: push for unknown user %s dropped", task.Username)
		return nil
	}
	if err != nil {
		return err
	}

	if user.TelegramChatID == 0 || s.push == nil {
		return nil
	}

	return s.push.SendPush(user.TelegramChatID, task.Title, task.Message)
}

func containsBannedWord(message string) bool {
	lower := strings.ToLower(message)
	for _, word := range bannedWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
