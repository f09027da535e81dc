package models

import "gorm.io/gorm"

// ChatMessage is a message posted to the shared board, persisted in
// PostgreSQL. The embedded gorm.Model provides ID, CreatedAt, UpdatedAt
// and DeletedAt, which serve as the message ID and timestamps.
type ChatMessage struct {
	gorm.Model

	// Username is the account that posted the message.
	Username string `gorm:"type:text;not null;index" json:"username"`
	// Content is the message body.
	Content string `gorm:"type:text;not null" json:"content"`
}
