package models

import "time"

// SessionRecord is the JSON document stored under session:<id> in the
// ephemeral store. The field names are shared with the other deployments
// of this application and must not change.
type SessionRecord struct {
	Username  string    `json:"username"`
	UserID    string    `json:"user_id"`
	LoginTime time.Time `json:"login_time"`
	SessionID string    `json:"session_id"`
}

// Notification task types.
const (
	TaskEmail             = "email"
	TaskPush              = "push"
	TaskMessageProcessing = "message_processing"
	TaskUserActivity      = "user_activity"
	TaskSystemLog         = "system_log"
)

// NotificationTask is the payload published to the broker. A single shape
// covers all queue types; unused fields are omitted on the wire.
type NotificationTask struct {
	Type      string            `json:"type"`
	Recipient string            `json:"recipient,omitempty"`
	Username  string            `json:"username,omitempty"`
	Subject   string            `json:"subject,omitempty"`
	Title     string            `json:"title,omitempty"`
	Activity  string            `json:"activity,omitempty"`
	Message   string            `json:"message,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// FeedEvent is what travels over the live feed websocket and the
// cross-instance pub/sub channel.
type FeedEvent struct {
	Type     string `json:"type"` // "message", "typing", "system"
	Username string `json:"username,omitempty"`
	Room     string `json:"room,omitempty"`
	Content  string `json:"content,omitempty"`
}
