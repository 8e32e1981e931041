package dto

import (
	"time"

	"github.com/google/uuid"
	"uninet.id/campuslink/pkg/dto"
)

type SendRequestInput struct {
	RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
}

type FriendResponse struct {
	FriendshipID uuid.UUID       `json:"friendship_id"`
	Friend       dto.UserSummary `json:"friend"`
	Since        time.Time       `json:"since"`
}

type RequestResponse struct {
	ID        uuid.UUID       `json:"id"`
	User      dto.UserSummary `json:"user"` // requester for pending, recipient for sent
	CreatedAt time.Time       `json:"created_at"`
}

// FriendStatus values surfaced by the social-hub user search.
const (
	StatusNone      = "none"
	StatusRequested = "requested" // caller sent the request
	StatusPending   = "pending"   // caller received the request
	StatusFriends   = "friends"
)
