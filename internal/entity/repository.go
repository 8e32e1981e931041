package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RepositoryItem is an uploaded course file (notes, past papers, slides).
type RepositoryItem struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string    `gorm:"size:255;not null" json:"title"`
	CourseCode       string    `gorm:"size:20;not null;index" json:"course_code"`
	Semester         string    `gorm:"size:20;not null" json:"semester"`
	Department       string    `gorm:"size:100;not null;index" json:"department"`
	FileURL          string    `gorm:"type:text;not null" json:"file_url"`
	OriginalFileName string    `gorm:"size:255;not null" json:"original_file_name"`
	UploadedByID     uuid.UUID `gorm:"type:uuid;not null;index" json:"uploaded_by_id"`

	Upvotes   int64 `gorm:"not null;default:0" json:"upvotes"`
	Downvotes int64 `gorm:"not null;default:0" json:"downvotes"`
	VoteScore int64 `gorm:"not null;default:0" json:"vote_score"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	UploadedBy *User `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`
}

func (r *RepositoryItem) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type DownloadHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index" json:"item_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (d *DownloadHistory) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
