package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"uninet.id/campuslink/internal/entity"
	schedulerDto "uninet.id/campuslink/internal/modules/scheduler/dto"
	"uninet.id/campuslink/pkg/apperror"
)

type fakeSchedulerRepo struct {
	tasks     map[uuid.UUID]*entity.Task
	reminders map[uuid.UUID][]entity.Reminder
}

func newFakeSchedulerRepo() *fakeSchedulerRepo {
	return &fakeSchedulerRepo{
		tasks:     map[uuid.UUID]*entity.Task{},
		reminders: map[uuid.UUID][]entity.Reminder{},
	}
}

func (f *fakeSchedulerRepo) CreateTask(ctx context.Context, task *entity.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeSchedulerRepo) FindTaskByID(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	return f.tasks[id], nil
}

func (f *fakeSchedulerRepo) UpdateTask(ctx context.Context, task *entity.Task) error {
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeSchedulerRepo) DeleteTask(ctx context.Context, id uuid.UUID) error {
	delete(f.tasks, id)
	delete(f.reminders, id)
	return nil
}

func (f *fakeSchedulerRepo) ListTasks(ctx context.Context, userID uuid.UUID, q schedulerDto.ListTasksQuery) ([]entity.Task, error) {
	var out []entity.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeSchedulerRepo) CreateReminders(ctx context.Context, reminders []entity.Reminder) error {
	for i := range reminders {
		if reminders[i].ID == uuid.Nil {
			reminders[i].ID = uuid.New()
		}
		f.reminders[reminders[i].TaskID] = append(f.reminders[reminders[i].TaskID], reminders[i])
	}
	return nil
}

func (f *fakeSchedulerRepo) ClearReminders(ctx context.Context, taskID uuid.UUID) error {
	delete(f.reminders, taskID)
	return nil
}

func (f *fakeSchedulerRepo) ListReminders(ctx context.Context, taskID uuid.UUID) ([]entity.Reminder, error) {
	return f.reminders[taskID], nil
}

func (f *fakeSchedulerRepo) MarkDue(ctx context.Context, now time.Time) ([]entity.Reminder, error) {
	var fired []entity.Reminder
	for taskID, rs := range f.reminders {
		for i := range rs {
			if !rs[i].Fired && !rs[i].FireAt.After(now) {
				rs[i].Fired = true
				at := now
				rs[i].FiredAt = &at
				fired = append(fired, rs[i])
			}
		}
		f.reminders[taskID] = rs
	}
	return fired, nil
}

type fakeNotifier struct {
	sent []*entity.Notification
}

func (f *fakeNotifier) Send(ctx context.Context, n *entity.Notification) error {
	f.sent = append(f.sent, n)
	return nil
}
func (f *fakeNotifier) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	return nil, nil
}
func (f *fakeNotifier) MarkAsRead(ctx context.Context, id uuid.UUID) error        { return nil }
func (f *fakeNotifier) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error { return nil }
func (f *fakeNotifier) Dismiss(ctx context.Context, id uuid.UUID) error           { return nil }
func (f *fakeNotifier) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func TestCreateTask_MaterializesThreeReminders(t *testing.T) {
	repo := newFakeSchedulerRepo()
	svc := NewSchedulerService(repo, nil)
	userID := uuid.New()
	deadline := time.Now().Add(7 * 24 * time.Hour)

	task, err := svc.CreateTask(context.Background(), userID, schedulerDto.CreateTaskInput{
		Title:    "Submit thesis draft",
		Deadline: deadline,
	})
	require.NoError(t, err)

	reminders := repo.reminders[task.ID]
	require.Len(t, reminders, 3)

	byLabel := map[string]entity.Reminder{}
	for _, r := range reminders {
		byLabel[r.OffsetLabel] = r
		assert.False(t, r.Fired)
		assert.Equal(t, userID, r.UserID)
		assert.Equal(t, "Submit thesis draft", r.TaskTitle)
	}
	assert.WithinDuration(t, deadline.Add(-72*time.Hour), byLabel["3days"].FireAt, time.Second)
	assert.WithinDuration(t, deadline.Add(-24*time.Hour), byLabel["1day"].FireAt, time.Second)
	assert.WithinDuration(t, deadline.Add(-time.Hour), byLabel["1hour"].FireAt, time.Second)
}

func TestMaterialize_CatchUpMarksPastOffsetsFired(t *testing.T) {
	repo := newFakeSchedulerRepo()
	svc := NewSchedulerService(repo, nil)

	// Deadline in 2 hours: the 3-day and 1-day marks are already behind us.
	task, err := svc.CreateTask(context.Background(), uuid.New(), schedulerDto.CreateTaskInput{
		Title:    "Last-minute quiz",
		Deadline: time.Now().Add(2 * time.Hour),
	})
	require.NoError(t, err)

	firedLabels := map[string]bool{}
	for _, r := range repo.reminders[task.ID] {
		firedLabels[r.OffsetLabel] = r.Fired
	}
	assert.True(t, firedLabels["3days"])
	assert.True(t, firedLabels["1day"])
	assert.False(t, firedLabels["1hour"])
}

func TestMaterialize_RefusesWhenRemindersExist(t *testing.T) {
	repo := newFakeSchedulerRepo()
	svc := NewSchedulerService(repo, nil)

	task, err := svc.CreateTask(context.Background(), uuid.New(), schedulerDto.CreateTaskInput{
		Title:    "t",
		Deadline: time.Now().Add(time.Hour * 200),
	})
	require.NoError(t, err)

	err = svc.Materialize(context.Background(), task)
	assert.ErrorIs(t, err, apperror.ErrAlreadyExists)
}

func TestUpdateTask_DeadlineChangeRematerializes(t *testing.T) {
	repo := newFakeSchedulerRepo()
	svc := NewSchedulerService(repo, nil)
	userID := uuid.New()

	task, err := svc.CreateTask(context.Background(), userID, schedulerDto.CreateTaskInput{
		Title:    "t",
		Deadline: time.Now().Add(100 * time.Hour),
	})
	require.NoError(t, err)
	oldIDs := map[uuid.UUID]bool{}
	for _, r := range repo.reminders[task.ID] {
		oldIDs[r.ID] = true
	}

	newDeadline := time.Now().Add(200 * time.Hour)
	_, err = svc.UpdateTask(context.Background(), userID, task.ID, schedulerDto.UpdateTaskInput{
		Deadline: &newDeadline,
	})
	require.NoError(t, err)

	reminders := repo.reminders[task.ID]
	require.Len(t, reminders, 3)
	for _, r := range reminders {
		assert.False(t, oldIDs[r.ID], "old reminder rows must be replaced")
		assert.WithinDuration(t, newDeadline, r.FireAt.Add(offsetFor(t, r.OffsetLabel)), time.Second)
	}
}

func offsetFor(t *testing.T, label string) time.Duration {
	t.Helper()
	for _, o := range DefaultOffsets {
		if o.Label == label {
			return o.Before
		}
	}
	t.Fatalf("unknown offset label %q", label)
	return 0
}

func TestMarkComplete_ClearsReminders(t *testing.T) {
	repo := newFakeSchedulerRepo()
	svc := NewSchedulerService(repo, nil)
	userID := uuid.New()

	task, err := svc.CreateTask(context.Background(), userID, schedulerDto.CreateTaskInput{
		Title:    "t",
		Deadline: time.Now().Add(100 * time.Hour),
	})
	require.NoError(t, err)

	done, err := svc.MarkComplete(context.Background(), userID, task.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.NotNil(t, done.CompletedAt)
	assert.Empty(t, repo.reminders[task.ID])
}

func TestDueSweep(t *testing.T) {
	repo := newFakeSchedulerRepo()
	notifier := &fakeNotifier{}
	svc := NewSchedulerService(repo, notifier)
	userID := uuid.New()
	taskID := uuid.New()

	require.NoError(t, repo.CreateReminders(context.Background(), []entity.Reminder{
		{TaskID: taskID, UserID: userID, OffsetLabel: "1day", TaskTitle: "Exam prep", FireAt: time.Now().Add(-time.Minute)},
		{TaskID: taskID, UserID: userID, OffsetLabel: "1hour", TaskTitle: "Exam prep", FireAt: time.Now().Add(time.Hour)},
	}))

	fired, err := svc.DueSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, entity.NotificationReminder, notifier.sent[0].Type)
	assert.Contains(t, notifier.sent[0].Message, "1 day")

	// A second sweep finds nothing: firing is one-shot.
	fired, err = svc.DueSweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, fired)
	assert.Len(t, notifier.sent, 1)
}

func TestTaskOwnership(t *testing.T) {
	repo := newFakeSchedulerRepo()
	svc := NewSchedulerService(repo, nil)

	task, err := svc.CreateTask(context.Background(), uuid.New(), schedulerDto.CreateTaskInput{
		Title:    "t",
		Deadline: time.Now().Add(100 * time.Hour),
	})
	require.NoError(t, err)

	err = svc.DeleteTask(context.Background(), uuid.New(), task.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
