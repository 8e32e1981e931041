package dto

import "github.com/google/uuid"

type UserSummary struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Username   string    `json:"username"`
	StudentID  *string   `json:"student_id,omitempty"`
	Department *string   `json:"department,omitempty"`
	AvatarURL  *string   `json:"avatar_url,omitempty"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

type VoteCounts struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
	Score     int64 `json:"score"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
