package dto

import "time"

type CreateTaskInput struct {
	Title       string    `json:"title" binding:"required,max=255"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline" binding:"required"`
	Priority    string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	Category    string    `json:"category" binding:"omitempty,max=50"`
	Tags        []string  `json:"tags" binding:"omitempty,max=10,dive,max=30"`
}

type UpdateTaskInput struct {
	Title       *string    `json:"title" binding:"omitempty,max=255"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	Category    *string    `json:"category" binding:"omitempty,max=50"`
	Tags        *[]string  `json:"tags" binding:"omitempty,max=10,dive,max=30"`
}

type ListTasksQuery struct {
	Category  string `form:"category"`
	Completed *bool  `form:"completed"`
	SortBy    string `form:"sort_by,default=deadline" binding:"omitempty,oneof=deadline created priority"`
}
