package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq" // needed for pq.StringArray
	"gorm.io/gorm"
)

// User represents a registered account. The password is stored only as a
// bcrypt hash; Classification "A" marks administrators.
type User struct {
	ID             string         `gorm:"primaryKey" json:"id"`
	Username       string         `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash   string         `gorm:"not null" json:"-"`
	Classification string         `gorm:"type:char(1)" json:"classification"`
	Age            int            `json:"age,omitempty"`
	Email          string         `json:"email"`
	Roles          pq.StringArray `gorm:"type:text[]" json:"roles,omitempty"`
	// TelegramChatID links the account to a Telegram chat for push
	// notifications. Zero means not linked.
	TelegramChatID int64 `json:"-"`
}

// IsAdmin reports whether the user may manage other accounts.
func (u *User) IsAdmin() bool {
	return u.Classification == "A"
}

// BeforeCreate is a GORM hook that runs before a record is inserted.
// It assigns a fresh UUID when the ID has not been set by the caller.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
