package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"uninet.id/campuslink/pkg/ledger"
)

const (
	FriendshipPending  ledger.Status = "pending"
	FriendshipAccepted ledger.Status = "accepted"
)

// Friendship is one row per unordered pair of users. Direction matters while
// pending: only the recipient may accept. Decline/cancel/unfriend all delete
// the row, there is no tombstone status.
type Friendship struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friendship_pair;index" json:"requester_id"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friendship_pair;index" json:"recipient_id"`
	ledger.StatusField
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Requester *User `gorm:"foreignKey:RequesterID;constraint:OnDelete:CASCADE" json:"requester,omitempty"`
	Recipient *User `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE" json:"recipient,omitempty"`
}

func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// OtherSide resolves the participant that is not the given actor.
func (f *Friendship) OtherSide(actor uuid.UUID) uuid.UUID {
	if f.RequesterID == actor {
		return f.RecipientID
	}
	return f.RequesterID
}

// Involves reports whether the actor is one of the two participants.
func (f *Friendship) Involves(actor uuid.UUID) bool {
	return f.RequesterID == actor || f.RecipientID == actor
}
