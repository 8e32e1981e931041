package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	VoteUp   = "up"
	VoteDown = "down"
)

const (
	VotableChannel    = "channel"
	VotableRepository = "repository"
)

// Vote is one row per (user, resource): an actor is in at most one of the two
// camps for a resource, enforced by the unique index plus the direction column.
type Vote struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_vote_actor_resource" json:"user_id"`
	ResourceKind string    `gorm:"size:20;not null;uniqueIndex:idx_vote_actor_resource" json:"resource_kind"`
	ResourceID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_vote_actor_resource;index" json:"resource_id"`
	Direction    string    `gorm:"size:10;not null" json:"direction"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
