package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"uninet.id/campuslink/pkg/ledger"
)

const (
	TicketUnchosen   ledger.Status = "unchosen"
	TicketProcessing ledger.Status = "processing"
	TicketCompleted  ledger.Status = "completed"
)

const (
	TicketTypeCustom = "custom"
	TicketTypeReport = "report"
)

type Ticket struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Username    string    `gorm:"size:50;not null" json:"username"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Category    string    `gorm:"size:50;not null;default:general" json:"category"`
	TicketType  string    `gorm:"size:20;not null;default:custom;index" json:"ticket_type"`
	Priority    string    `gorm:"size:20;not null;default:medium" json:"priority"`
	ledger.StatusField

	// Report tickets only: the message being reported and where it lives.
	ReportedMessageID *uuid.UUID `gorm:"type:uuid" json:"reported_message_id,omitempty"`
	ReportedChannelID *uuid.UUID `gorm:"type:uuid" json:"reported_channel_id,omitempty"`
	ReportedUsername  *string    `gorm:"size:50" json:"reported_username,omitempty"`

	ScreenshotURLs []string `gorm:"serializer:json" json:"screenshot_urls,omitempty"`

	// Assignment is last-writer-wins: a second admin taking the ticket simply
	// overwrites the first.
	AssignedToID  *uuid.UUID `gorm:"type:uuid" json:"assigned_to_id,omitempty"`
	AssignedAdmin *string    `gorm:"size:50" json:"assigned_admin,omitempty"`

	Resolution    *string    `gorm:"type:text" json:"resolution,omitempty"`
	AdminResponse *string    `gorm:"type:text" json:"admin_response,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TicketUnchosen
	}
	return nil
}
