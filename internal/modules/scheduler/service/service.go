package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"uninet.id/campuslink/internal/entity"
	notifService "uninet.id/campuslink/internal/modules/notification/service"
	schedulerDto "uninet.id/campuslink/internal/modules/scheduler/dto"
	schedulerRepo "uninet.id/campuslink/internal/modules/scheduler/repository"
	"uninet.id/campuslink/pkg/apperror"
)

// ReminderOffset pairs a label with how long before the deadline it fires.
type ReminderOffset struct {
	Label  string
	Before time.Duration
}

// DefaultOffsets are materialized for every task with a deadline.
var DefaultOffsets = []ReminderOffset{
	{Label: "3days", Before: 72 * time.Hour},
	{Label: "1day", Before: 24 * time.Hour},
	{Label: "1hour", Before: time.Hour},
}

type SchedulerService interface {
	CreateTask(ctx context.Context, userID uuid.UUID, input schedulerDto.CreateTaskInput) (*entity.Task, error)
	UpdateTask(ctx context.Context, userID, taskID uuid.UUID, input schedulerDto.UpdateTaskInput) (*entity.Task, error)
	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error
	MarkComplete(ctx context.Context, userID, taskID uuid.UUID) (*entity.Task, error)
	ListTasks(ctx context.Context, userID uuid.UUID, q schedulerDto.ListTasksQuery) ([]entity.Task, error)
	ListReminders(ctx context.Context, userID, taskID uuid.UUID) ([]entity.Reminder, error)

	// Materialize creates the reminder set for a task. It refuses to run when
	// any reminders already exist for the task; use Rematerialize to replace
	// them. Offsets whose fire time is already past are created pre-fired so
	// the sweep never delivers stale reminders.
	Materialize(ctx context.Context, task *entity.Task) error
	Rematerialize(ctx context.Context, task *entity.Task) error
	// DueSweep fires every reminder whose time has come and sends the
	// notifications. Returns how many fired.
	DueSweep(ctx context.Context) (int, error)
}

type schedulerService struct {
	repo                schedulerRepo.SchedulerRepository
	notificationService notifService.NotificationService
}

func NewSchedulerService(repo schedulerRepo.SchedulerRepository, notificationService notifService.NotificationService) SchedulerService {
	return &schedulerService{
		repo:                repo,
		notificationService: notificationService,
	}
}

func (s *schedulerService) CreateTask(ctx context.Context, userID uuid.UUID, input schedulerDto.CreateTaskInput) (*entity.Task, error) {
	task := &entity.Task{
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Deadline:    input.Deadline,
		Priority:    defaultStr(input.Priority, "medium"),
		Category:    defaultStr(input.Category, "assignment"),
		Tags:        input.Tags,
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	if err := s.Materialize(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *schedulerService) UpdateTask(ctx context.Context, userID, taskID uuid.UUID, input schedulerDto.UpdateTaskInput) (*entity.Task, error) {
	task, err := s.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	deadlineChanged := false
	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Deadline != nil && !input.Deadline.Equal(task.Deadline) {
		task.Deadline = *input.Deadline
		deadlineChanged = true
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Category != nil {
		task.Category = *input.Category
	}
	if input.Tags != nil {
		task.Tags = *input.Tags
	}

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return nil, err
	}

	// A new deadline invalidates every materialized fire time.
	if deadlineChanged && !task.Completed {
		if err := s.Rematerialize(ctx, task); err != nil {
			return nil, err
		}
	} else if input.Title != nil {
		// Keep the denormalized title on unfired reminders in sync.
		if err := s.Rematerialize(ctx, task); err != nil {
			return nil, err
		}
	}

	return task, nil
}

func (s *schedulerService) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	if _, err := s.ownedTask(ctx, userID, taskID); err != nil {
		return err
	}
	return s.repo.DeleteTask(ctx, taskID)
}

func (s *schedulerService) MarkComplete(ctx context.Context, userID, taskID uuid.UUID) (*entity.Task, error) {
	task, err := s.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if !task.Completed {
		now := time.Now()
		task.Completed = true
		task.CompletedAt = &now
		if err := s.repo.UpdateTask(ctx, task); err != nil {
			return nil, err
		}
		// A finished task needs no more nagging.
		if err := s.repo.ClearReminders(ctx, taskID); err != nil {
			return nil, err
		}
	}
	return task, nil
}

func (s *schedulerService) ListTasks(ctx context.Context, userID uuid.UUID, q schedulerDto.ListTasksQuery) ([]entity.Task, error) {
	return s.repo.ListTasks(ctx, userID, q)
}

func (s *schedulerService) ListReminders(ctx context.Context, userID, taskID uuid.UUID) ([]entity.Reminder, error) {
	if _, err := s.ownedTask(ctx, userID, taskID); err != nil {
		return nil, err
	}
	return s.repo.ListReminders(ctx, taskID)
}

func (s *schedulerService) Materialize(ctx context.Context, task *entity.Task) error {
	existing, err := s.repo.ListReminders(ctx, task.ID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: reminders already materialized for task %s", apperror.ErrAlreadyExists, task.ID)
	}

	now := time.Now()
	reminders := make([]entity.Reminder, 0, len(DefaultOffsets))
	for _, offset := range DefaultOffsets {
		fireAt := task.Deadline.Add(-offset.Before)
		r := entity.Reminder{
			TaskID:      task.ID,
			UserID:      task.UserID,
			OffsetLabel: offset.Label,
			TaskTitle:   task.Title,
			FireAt:      fireAt,
		}
		// Catch-up: a fire time already behind us is recorded as fired so the
		// user is not spammed with reminders for the near past.
		if !fireAt.After(now) {
			r.Fired = true
			firedAt := now
			r.FiredAt = &firedAt
		}
		reminders = append(reminders, r)
	}
	return s.repo.CreateReminders(ctx, reminders)
}

func (s *schedulerService) Rematerialize(ctx context.Context, task *entity.Task) error {
	if err := s.repo.ClearReminders(ctx, task.ID); err != nil {
		return err
	}
	return s.Materialize(ctx, task)
}

func (s *schedulerService) DueSweep(ctx context.Context) (int, error) {
	fired, err := s.repo.MarkDue(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	for _, reminder := range fired {
		if s.notificationService == nil {
			continue
		}
		n := &entity.Notification{
			UserID:  reminder.UserID,
			Title:   fmt.Sprintf("Deadline approaching: %s", reminder.TaskTitle),
			Message: fmt.Sprintf("%q is due in %s", reminder.TaskTitle, offsetPhrase(reminder.OffsetLabel)),
			Type:    entity.NotificationReminder,
		}
		if err := s.notificationService.Send(ctx, n); err != nil {
			log.Printf("Failed to send reminder notification for task %s: %v", reminder.TaskID, err)
		}
	}
	return len(fired), nil
}

func (s *schedulerService) ownedTask(ctx context.Context, userID, taskID uuid.UUID) (*entity.Task, error) {
	task, err := s.repo.FindTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil || task.UserID != userID {
		return nil, apperror.New(http.StatusNotFound, "task not found", apperror.ErrNotFound)
	}
	return task, nil
}

func offsetPhrase(label string) string {
	switch label {
	case "3days":
		return "3 days"
	case "1day":
		return "1 day"
	case "1hour":
		return "1 hour"
	default:
		return label
	}
}

func defaultStr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
