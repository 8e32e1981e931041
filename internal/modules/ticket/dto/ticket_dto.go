package dto

import "github.com/google/uuid"

type CreateTicketInput struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category" binding:"omitempty,max=50"`
	Priority    string `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
}

type ReportMessageInput struct {
	MessageID   uuid.UUID `json:"message_id" binding:"required"`
	Reason      string    `json:"reason" binding:"required"`
	Description string    `json:"description"`
	// Optional evidence uploaded by the reporter.
	ScreenshotURLs []string `json:"screenshot_urls" binding:"omitempty,max=5,dive,url"`
}

type SetStatusInput struct {
	// Validated against the known statuses in the service so that an unknown
	// value maps to invalid-status, not invalid-transition.
	Status        string  `json:"status" binding:"required"`
	Resolution    *string `json:"resolution"`
	AdminResponse *string `json:"admin_response"`
}

type ListTicketsQuery struct {
	Status     string `form:"status" binding:"omitempty,oneof=unchosen processing completed"`
	TicketType string `form:"type" binding:"omitempty,oneof=custom report"`
	Search     string `form:"q"`
	SortBy     string `form:"sort_by,default=newest" binding:"omitempty,oneof=newest oldest priority"`
	Page       int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit      int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
}
