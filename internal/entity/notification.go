package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types. "reminder" rows are produced by the due-reminder sweep,
// the moderation types by admin actions.
const (
	NotificationGeneral       = "general"
	NotificationWarning       = "warning"
	NotificationSuspension    = "suspension"
	NotificationBan           = "ban"
	NotificationAccountUpdate = "account-update"
	NotificationFriend        = "friend"
	NotificationVote          = "vote"
	NotificationTicket        = "ticket"
	NotificationReminder      = "reminder"
)

type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`  // recipient
	ActorID     *uuid.UUID `gorm:"type:uuid" json:"actor_id,omitempty"`     // who triggered it, if anyone
	Title       string     `gorm:"size:255;not null" json:"title"`
	Message     string     `gorm:"type:text;not null" json:"message"`
	Type        string     `gorm:"size:30;not null;default:general" json:"type"`
	IsRead      bool       `gorm:"not null;default:false" json:"is_read"`
	Dismissed   bool       `gorm:"not null;default:false;index" json:"dismissed"`
	DismissedAt *time.Time `json:"dismissed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
