package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Deadline    time.Time  `gorm:"not null;index" json:"deadline"`
	Priority    string     `gorm:"size:20;not null;default:medium" json:"priority"`
	Category    string     `gorm:"size:50;not null;default:assignment" json:"category"`
	Tags        []string   `gorm:"serializer:json" json:"tags"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Reminder is a materialized fire-time for one task/offset pair. Exactly one
// row exists per (task, offset label); deadline edits replace the whole set.
type Reminder struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_reminder_task_offset;index" json:"task_id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	OffsetLabel string     `gorm:"size:20;not null;uniqueIndex:idx_reminder_task_offset" json:"offset_label"`
	TaskTitle   string     `gorm:"size:255" json:"task_title"`
	FireAt      time.Time  `gorm:"not null;index" json:"fire_at"`
	Fired       bool       `gorm:"not null;default:false;index" json:"fired"`
	FiredAt     *time.Time `json:"fired_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (r *Reminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
