package dto

import (
	"time"

	"uninet.id/campuslink/internal/entity"
	"uninet.id/campuslink/pkg/dto"
)

// UploadItemInput comes in as multipart form fields next to the file part.
type UploadItemInput struct {
	Title      string `form:"title" binding:"required,max=255"`
	CourseCode string `form:"course_code" binding:"required,max=20"`
	Semester   string `form:"semester" binding:"required,max=20"`
	Department string `form:"department" binding:"required,max=100"`
}

type ListItemsQuery struct {
	CourseCode string `form:"course_code"`
	Semester   string `form:"semester"`
	Department string `form:"department"`
	Search     string `form:"q"`
	SortBy     string `form:"sort_by,default=newest" binding:"omitempty,oneof=newest oldest top"`
	Page       int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit      int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
}

type ItemResponse struct {
	entity.RepositoryItem
	Votes     dto.VoteCounts `json:"votes"`
	Downloads int64          `json:"downloads"`
}

type DownloadRecord struct {
	ItemID       string    `json:"item_id"`
	Title        string    `json:"title"`
	CourseCode   string    `json:"course_code"`
	DownloadedAt time.Time `json:"downloaded_at"`
}
