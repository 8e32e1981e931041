package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"uninet.id/campuslink/pkg/ledger"
)

type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

const (
	AccountActive    ledger.Status = "active"
	AccountSuspended ledger.Status = "suspended"
	AccountBanned    ledger.Status = "banned"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	StudentID    *string   `gorm:"size:50;index" json:"student_id,omitempty"`
	Department   *string   `gorm:"size:100" json:"department,omitempty"`
	AvatarURL    *string   `gorm:"type:text" json:"avatar_url,omitempty"`
	RoleID       *uint     `json:"role_id"`
	Role         Role      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"role"`

	// Moderation columns. Never written directly: the moderation repository
	// maps them to and from the AccountState variant so that e.g. a banned row
	// can never keep suspension fields behind.
	AccountStatus            ledger.Status `gorm:"size:20;not null;default:active;index" json:"account_status"`
	AccountStatusChangedAt   *time.Time    `json:"account_status_changed_at,omitempty"`
	SuspendedAt              *time.Time    `json:"suspended_at,omitempty"`
	SuspensionReason         *string       `gorm:"type:text" json:"suspension_reason,omitempty"`
	SuspensionDurationHours  *int          `json:"suspension_duration_hours,omitempty"`
	SuspensionExpiresAt      *time.Time    `gorm:"index" json:"suspension_expires_at,omitempty"`
	BannedAt                 *time.Time    `json:"banned_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.AccountStatus == "" {
		u.AccountStatus = AccountActive
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role.Name == RoleAdmin
}
