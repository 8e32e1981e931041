package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"uninet.id/campuslink/internal/entity"
)

type ModerationRepository interface {
	// SaveState persists the moderation columns of the row, including the ones
	// cleared to NULL by the state change.
	SaveState(ctx context.Context, user *entity.User) error
	// ReactivateIfExpired flips a single user back to active, but only when the
	// row is still suspended with a passed expiry. The condition runs inside the
	// UPDATE so concurrent logins and the sweep cannot double-apply it.
	ReactivateIfExpired(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error)
	// SweepExpired is the batch form over all users.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
	ListUsers(ctx context.Context, query, status string, page, limit int) ([]entity.User, int64, error)
}

type moderationRepository struct {
	db *gorm.DB
}

func NewModerationRepository(db *gorm.DB) ModerationRepository {
	return &moderationRepository{db: db}
}

var moderationColumns = []string{
	"account_status",
	"account_status_changed_at",
	"suspended_at",
	"suspension_reason",
	"suspension_duration_hours",
	"suspension_expires_at",
	"banned_at",
}

func (r *moderationRepository) SaveState(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).
		Model(user).
		Select(moderationColumns).
		Updates(user).Error
}

func reactivationValues(now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"account_status":            entity.AccountActive,
		"account_status_changed_at": now,
		"suspended_at":              nil,
		"suspension_reason":         nil,
		"suspension_duration_hours": nil,
		"suspension_expires_at":     nil,
		"banned_at":                 nil,
	}
}

func (r *moderationRepository) ReactivateIfExpired(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ? AND account_status = ? AND suspension_expires_at IS NOT NULL AND suspension_expires_at <= ?",
			userID, entity.AccountSuspended, now).
		Updates(reactivationValues(now))
	return result.RowsAffected > 0, result.Error
}

func (r *moderationRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("account_status = ? AND suspension_expires_at IS NOT NULL AND suspension_expires_at <= ?",
			entity.AccountSuspended, now).
		Updates(reactivationValues(now))
	return result.RowsAffected, result.Error
}

func (r *moderationRepository) ListUsers(ctx context.Context, query, status string, page, limit int) ([]entity.User, int64, error) {
	db := r.db.WithContext(ctx).Model(&entity.User{})

	if query != "" {
		pattern := "%" + query + "%"
		db = db.Where("name ILIKE ? OR username ILIKE ? OR email ILIKE ? OR student_id ILIKE ?",
			pattern, pattern, pattern, pattern)
	}
	if status != "" {
		db = db.Where("account_status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []entity.User
	err := db.Preload("Role").
		Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	return users, total, err
}
