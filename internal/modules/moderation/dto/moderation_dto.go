package dto

import (
	"time"

	"github.com/google/uuid"
	"uninet.id/campuslink/pkg/dto"
)

type SuspendInput struct {
	Reason string `json:"reason" binding:"required"`
	// nil means the suspension is permanent until an admin reactivates.
	DurationHours *int `json:"duration_hours" binding:"omitempty,min=1"`
}

type BanInput struct {
	Reason string `json:"reason" binding:"required"`
}

type NotifyInput struct {
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
	Type    string `json:"type" binding:"required,oneof=general warning suspension ban account-update"`
}

// AccountStatusResponse is the human-readable moderation status attached to
// admin user listings and to the 403 login payload.
type AccountStatusResponse struct {
	Status      string     `json:"status"`
	Description string     `json:"description"`
	Reason      string     `json:"reason,omitempty"`
	Since       *time.Time `json:"since,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Permanent   bool       `json:"permanent,omitempty"`
}

type ManagedUserResponse struct {
	User          dto.UserSummary       `json:"user"`
	Email         string                `json:"email"`
	Role          string                `json:"role"`
	AccountStatus AccountStatusResponse `json:"account_status"`
	CreatedAt     time.Time             `json:"created_at"`
}

type ListUsersQuery struct {
	Query  string `form:"q"`
	Status string `form:"status" binding:"omitempty,oneof=active suspended banned"`
	Page   int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit  int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
}

type ListUsersResponse struct {
	Users []ManagedUserResponse `json:"users"`
	Meta  dto.PaginationMeta    `json:"meta"`
}

type UserIDParam struct {
	ID uuid.UUID `uri:"id" binding:"required"`
}
