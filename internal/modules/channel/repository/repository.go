package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"uninet.id/campuslink/internal/entity"
)

type ChannelRepository interface {
	Create(ctx context.Context, channel *entity.Channel) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Channel, error)
	FindByName(ctx context.Context, name string) (*entity.Channel, error)
	List(ctx context.Context, search string) ([]entity.Channel, error)
	Update(ctx context.Context, channel *entity.Channel) error
	// Delete removes the channel together with its messages and votes in one
	// transaction.
	Delete(ctx context.Context, id uuid.UUID) error

	CreateMessage(ctx context.Context, message *entity.Message) error
	FindMessageByID(ctx context.Context, id uuid.UUID) (*entity.Message, error)
	// RecentMessages returns the newest limit messages in chronological order.
	RecentMessages(ctx context.Context, channelID uuid.UUID, limit int) ([]entity.Message, error)
}

type channelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &channelRepository{db: db}
}

func (r *channelRepository) Create(ctx context.Context, channel *entity.Channel) error {
	return r.db.WithContext(ctx).Create(channel).Error
}

func (r *channelRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Channel, error) {
	var rows []entity.Channel
	err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *channelRepository) FindByName(ctx context.Context, name string) (*entity.Channel, error) {
	var rows []entity.Channel
	err := r.db.WithContext(ctx).Where("name = ?", name).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *channelRepository) List(ctx context.Context, search string) ([]entity.Channel, error) {
	db := r.db.WithContext(ctx).Model(&entity.Channel{})
	if search != "" {
		pattern := "%" + search + "%"
		db = db.Where("name ILIKE ? OR subject ILIKE ? OR description ILIKE ?", pattern, pattern, pattern)
	}
	var channels []entity.Channel
	err := db.Order("created_at desc").Find(&channels).Error
	return channels, err
}

func (r *channelRepository) Update(ctx context.Context, channel *entity.Channel) error {
	return r.db.WithContext(ctx).Save(channel).Error
}

func (r *channelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.Message{}, "channel_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entity.Vote{}, "resource_kind = ? AND resource_id = ?",
			entity.VotableChannel, id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Channel{}, "id = ?", id).Error
	})
}

func (r *channelRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *channelRepository) FindMessageByID(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	var rows []entity.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *channelRepository) RecentMessages(ctx context.Context, channelID uuid.UUID, limit int) ([]entity.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	var messages []entity.Message
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("created_at desc").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// Reverse into chronological order for the room view.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
