package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"uninet.id/campuslink/internal/entity"
)

type FriendshipRepository interface {
	Create(ctx context.Context, friendship *entity.Friendship) error
	// FindByPair looks the pair up in both directions; returns nil, nil when
	// no record links the two users.
	FindByPair(ctx context.Context, a, b uuid.UUID) (*entity.Friendship, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Friendship, error)
	Update(ctx context.Context, friendship *entity.Friendship) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListAccepted(ctx context.Context, actor uuid.UUID) ([]entity.Friendship, error)
	ListPendingFor(ctx context.Context, recipient uuid.UUID) ([]entity.Friendship, error)
	ListSentBy(ctx context.Context, requester uuid.UUID) ([]entity.Friendship, error)
}

type friendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &friendshipRepository{db: db}
}

func (r *friendshipRepository) Create(ctx context.Context, friendship *entity.Friendship) error {
	return r.db.WithContext(ctx).Create(friendship).Error
}

func (r *friendshipRepository) FindByPair(ctx context.Context, a, b uuid.UUID) (*entity.Friendship, error) {
	// Find with slice avoids "record not found" log noise from First()
	var rows []entity.Friendship
	err := r.db.WithContext(ctx).
		Where("(requester_id = ? AND recipient_id = ?) OR (requester_id = ? AND recipient_id = ?)", a, b, b, a).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *friendshipRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Friendship, error) {
	var rows []entity.Friendship
	err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *friendshipRepository) Update(ctx context.Context, friendship *entity.Friendship) error {
	return r.db.WithContext(ctx).Save(friendship).Error
}

func (r *friendshipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Friendship{}, "id = ?", id).Error
}

func (r *friendshipRepository) ListAccepted(ctx context.Context, actor uuid.UUID) ([]entity.Friendship, error) {
	var rows []entity.Friendship
	err := r.db.WithContext(ctx).
		Where("(requester_id = ? OR recipient_id = ?) AND status = ?", actor, actor, entity.FriendshipAccepted).
		Preload("Requester").
		Preload("Recipient").
		Find(&rows).Error
	return rows, err
}

func (r *friendshipRepository) ListPendingFor(ctx context.Context, recipient uuid.UUID) ([]entity.Friendship, error) {
	var rows []entity.Friendship
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND status = ?", recipient, entity.FriendshipPending).
		Order("created_at desc").
		Preload("Requester").
		Find(&rows).Error
	return rows, err
}

func (r *friendshipRepository) ListSentBy(ctx context.Context, requester uuid.UUID) ([]entity.Friendship, error) {
	var rows []entity.Friendship
	err := r.db.WithContext(ctx).
		Where("requester_id = ? AND status = ?", requester, entity.FriendshipPending).
		Order("created_at desc").
		Preload("Recipient").
		Find(&rows).Error
	return rows, err
}
