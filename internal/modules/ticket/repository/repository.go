package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"uninet.id/campuslink/internal/entity"
	ticketDto "uninet.id/campuslink/internal/modules/ticket/dto"
)

type TicketRepository interface {
	Create(ctx context.Context, ticket *entity.Ticket) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Ticket, error)
	Update(ctx context.Context, ticket *entity.Ticket) error
	List(ctx context.Context, q ticketDto.ListTicketsQuery) ([]entity.Ticket, int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Ticket, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type ticketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *entity.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *ticketRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Ticket, error) {
	var rows []entity.Ticket
	err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *entity.Ticket) error {
	return r.db.WithContext(ctx).Save(ticket).Error
}

func (r *ticketRepository) List(ctx context.Context, q ticketDto.ListTicketsQuery) ([]entity.Ticket, int64, error) {
	db := r.db.WithContext(ctx).Model(&entity.Ticket{})

	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.TicketType != "" {
		db = db.Where("ticket_type = ?", q.TicketType)
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		db = db.Where("title ILIKE ? OR description ILIKE ? OR username ILIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch q.SortBy {
	case "oldest":
		db = db.Order("created_at asc")
	case "priority":
		db = db.Order("CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END").
			Order("created_at desc")
	default:
		db = db.Order("created_at desc")
	}

	var tickets []entity.Ticket
	err := db.Offset((q.Page - 1) * q.Limit).Limit(q.Limit).Find(&tickets).Error
	return tickets, total, err
}

func (r *ticketRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Ticket, error) {
	var tickets []entity.Ticket
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&tickets).Error
	return tickets, err
}

func (r *ticketRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.Ticket{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
