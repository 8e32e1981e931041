package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"uninet.id/campuslink/internal/entity"
	repoDto "uninet.id/campuslink/internal/modules/repository/dto"
)

type ItemRepository interface {
	Create(ctx context.Context, item *entity.RepositoryItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.RepositoryItem, error)
	List(ctx context.Context, q repoDto.ListItemsQuery) ([]entity.RepositoryItem, int64, error)
	// Delete removes the item with its votes and download history in one
	// transaction.
	Delete(ctx context.Context, id uuid.UUID) error

	RecordDownload(ctx context.Context, itemID, userID uuid.UUID) error
	CountDownloads(ctx context.Context, itemID uuid.UUID) (int64, error)
	DownloadHistory(ctx context.Context, userID uuid.UUID, limit int) ([]entity.DownloadHistory, error)
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *entity.RepositoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.RepositoryItem, error) {
	var rows []entity.RepositoryItem
	err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *itemRepository) List(ctx context.Context, q repoDto.ListItemsQuery) ([]entity.RepositoryItem, int64, error) {
	db := r.db.WithContext(ctx).Model(&entity.RepositoryItem{})

	if q.CourseCode != "" {
		db = db.Where("course_code = ?", q.CourseCode)
	}
	if q.Semester != "" {
		db = db.Where("semester = ?", q.Semester)
	}
	if q.Department != "" {
		db = db.Where("department = ?", q.Department)
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		db = db.Where("title ILIKE ? OR course_code ILIKE ? OR original_file_name ILIKE ?",
			pattern, pattern, pattern)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch q.SortBy {
	case "oldest":
		db = db.Order("created_at asc")
	case "top":
		db = db.Order("vote_score desc").Order("created_at desc")
	default:
		db = db.Order("created_at desc")
	}

	var items []entity.RepositoryItem
	err := db.Preload("UploadedBy").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&items).Error
	return items, total, err
}

func (r *itemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.Vote{}, "resource_kind = ? AND resource_id = ?",
			entity.VotableRepository, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entity.DownloadHistory{}, "item_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.RepositoryItem{}, "id = ?", id).Error
	})
}

func (r *itemRepository) RecordDownload(ctx context.Context, itemID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Create(&entity.DownloadHistory{ItemID: itemID, UserID: userID}).Error
}

func (r *itemRepository) CountDownloads(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.DownloadHistory{}).
		Where("item_id = ?", itemID).
		Count(&count).Error
	return count, err
}

func (r *itemRepository) DownloadHistory(ctx context.Context, userID uuid.UUID, limit int) ([]entity.DownloadHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	var history []entity.DownloadHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&history).Error
	return history, err
}
