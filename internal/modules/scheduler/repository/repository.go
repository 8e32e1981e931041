package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"uninet.id/campuslink/internal/entity"
	schedulerDto "uninet.id/campuslink/internal/modules/scheduler/dto"
)

type SchedulerRepository interface {
	CreateTask(ctx context.Context, task *entity.Task) error
	FindTaskByID(ctx context.Context, id uuid.UUID) (*entity.Task, error)
	UpdateTask(ctx context.Context, task *entity.Task) error
	// DeleteTask removes the task and its reminders in one transaction.
	DeleteTask(ctx context.Context, id uuid.UUID) error
	ListTasks(ctx context.Context, userID uuid.UUID, q schedulerDto.ListTasksQuery) ([]entity.Task, error)

	CreateReminders(ctx context.Context, reminders []entity.Reminder) error
	ClearReminders(ctx context.Context, taskID uuid.UUID) error
	ListReminders(ctx context.Context, taskID uuid.UUID) ([]entity.Reminder, error)
	// MarkDue flips every unfired reminder whose fire time has passed and
	// returns the flipped rows, all in a single statement, so concurrent sweeps
	// never double-fire a reminder.
	MarkDue(ctx context.Context, now time.Time) ([]entity.Reminder, error)
}

type schedulerRepository struct {
	db *gorm.DB
}

func NewSchedulerRepository(db *gorm.DB) SchedulerRepository {
	return &schedulerRepository{db: db}
}

func (r *schedulerRepository) CreateTask(ctx context.Context, task *entity.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *schedulerRepository) FindTaskByID(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	var rows []entity.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *schedulerRepository) UpdateTask(ctx context.Context, task *entity.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *schedulerRepository) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.Reminder{}, "task_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Task{}, "id = ?", id).Error
	})
}

func (r *schedulerRepository) ListTasks(ctx context.Context, userID uuid.UUID, q schedulerDto.ListTasksQuery) ([]entity.Task, error) {
	db := r.db.WithContext(ctx).Where("user_id = ?", userID)

	if q.Category != "" {
		db = db.Where("category = ?", q.Category)
	}
	if q.Completed != nil {
		db = db.Where("completed = ?", *q.Completed)
	}

	switch q.SortBy {
	case "created":
		db = db.Order("created_at desc")
	case "priority":
		db = db.Order("CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END").
			Order("deadline asc")
	default:
		db = db.Order("deadline asc")
	}

	var tasks []entity.Task
	err := db.Find(&tasks).Error
	return tasks, err
}

func (r *schedulerRepository) CreateReminders(ctx context.Context, reminders []entity.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&reminders).Error
}

func (r *schedulerRepository) ClearReminders(ctx context.Context, taskID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Reminder{}, "task_id = ?", taskID).Error
}

func (r *schedulerRepository) ListReminders(ctx context.Context, taskID uuid.UUID) ([]entity.Reminder, error) {
	var reminders []entity.Reminder
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("fire_at asc").
		Find(&reminders).Error
	return reminders, err
}

func (r *schedulerRepository) MarkDue(ctx context.Context, now time.Time) ([]entity.Reminder, error) {
	var fired []entity.Reminder
	err := r.db.WithContext(ctx).
		Model(&fired).
		Clauses(clause.Returning{}).
		Where("fired = ? AND fire_at <= ?", false, now).
		Updates(map[string]interface{}{"fired": true, "fired_at": now}).Error
	return fired, err
}
