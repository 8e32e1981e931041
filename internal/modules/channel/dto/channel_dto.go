package dto

import (
	"time"

	"github.com/google/uuid"
	"uninet.id/campuslink/internal/entity"
	"uninet.id/campuslink/pkg/dto"
)

type CreateChannelInput struct {
	Name        string   `json:"name" binding:"required,min=3,max=100"`
	Subject     string   `json:"subject" binding:"omitempty,max=100"`
	Description string   `json:"description"`
	Tags        []string `json:"tags" binding:"omitempty,max=10,dive,max=30"`
}

type PostMessageInput struct {
	Content string `json:"content" binding:"required,max=2000"`
}

type ChannelResponse struct {
	entity.Channel
	Votes dto.VoteCounts `json:"votes"`
}

// RoomResponse is the join view: channel info, recent history and who is in
// the room right now.
type RoomResponse struct {
	Channel  entity.Channel   `json:"channel"`
	Messages []entity.Message `json:"messages"`
	Online   []string         `json:"online"`
}

type MessageEvent struct {
	Type      string    `json:"type"`
	ChannelID uuid.UUID `json:"channel_id"`
	Message   *entity.Message `json:"message,omitempty"`
	Username  string    `json:"username,omitempty"`
	Online    []string  `json:"online,omitempty"`
	At        time.Time `json:"at"`
}
