package dto

import (
	"github.com/google/uuid"
	"uninet.id/campuslink/pkg/dto"
)

type RegisterInput struct {
	Username   string  `json:"username" binding:"required,min=3,max=50"`
	Email      string  `json:"email" binding:"required,email"`
	Password   string  `json:"password" binding:"required,min=8"`
	Name       string  `json:"name" binding:"required,max=100"`
	StudentID  *string `json:"student_id" binding:"omitempty,max=50"`
	Department *string `json:"department" binding:"omitempty,max=100"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string          `json:"token"`
	User  dto.UserSummary `json:"user"`
	Role  string          `json:"role"`
}

type UpdateProfileInput struct {
	Name       *string `json:"name" binding:"omitempty,max=100"`
	Department *string `json:"department" binding:"omitempty,max=100"`
	AvatarURL  *string `json:"avatar_url" binding:"omitempty,url"`
}

// SearchResult is a directory hit annotated with the caller's relationship to
// the user, so the UI can render the right button.
type SearchResult struct {
	User             dto.UserSummary `json:"user"`
	FriendshipStatus string          `json:"friendship_status"`
	RequestID        *uuid.UUID      `json:"request_id,omitempty"`
}
