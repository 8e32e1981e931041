package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"uninet.id/campuslink/internal/entity"
	ticketDto "uninet.id/campuslink/internal/modules/ticket/dto"
	"uninet.id/campuslink/pkg/apperror"
)

type fakeTicketRepo struct {
	tickets map[uuid.UUID]*entity.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[uuid.UUID]*entity.Ticket{}}
}

func (f *fakeTicketRepo) Create(ctx context.Context, t *entity.Ticket) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	f.tickets[t.ID] = t
	return nil
}

func (f *fakeTicketRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Ticket, error) {
	return f.tickets[id], nil
}

func (f *fakeTicketRepo) Update(ctx context.Context, t *entity.Ticket) error {
	f.tickets[t.ID] = t
	return nil
}

func (f *fakeTicketRepo) List(ctx context.Context, q ticketDto.ListTicketsQuery) ([]entity.Ticket, int64, error) {
	return nil, 0, nil
}

func (f *fakeTicketRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Ticket, error) {
	return nil, nil
}

func (f *fakeTicketRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return nil, nil
}

type fakeChannelRepo struct {
	messages map[uuid.UUID]*entity.Message
}

func (f *fakeChannelRepo) Create(ctx context.Context, c *entity.Channel) error { return nil }
func (f *fakeChannelRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Channel, error) {
	return nil, nil
}
func (f *fakeChannelRepo) FindByName(ctx context.Context, name string) (*entity.Channel, error) {
	return nil, nil
}
func (f *fakeChannelRepo) List(ctx context.Context, search string) ([]entity.Channel, error) {
	return nil, nil
}
func (f *fakeChannelRepo) Update(ctx context.Context, c *entity.Channel) error { return nil }
func (f *fakeChannelRepo) Delete(ctx context.Context, id uuid.UUID) error      { return nil }
func (f *fakeChannelRepo) CreateMessage(ctx context.Context, m *entity.Message) error {
	return nil
}
func (f *fakeChannelRepo) FindMessageByID(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	return f.messages[id], nil
}
func (f *fakeChannelRepo) RecentMessages(ctx context.Context, channelID uuid.UUID, limit int) ([]entity.Message, error) {
	return nil, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func (f *fakeUserRepo) Create(ctx context.Context, u *entity.User) error { return nil }
func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	u, ok := f.users[uid]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return u, nil
}
func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	return nil, nil
}
func (f *fakeUserRepo) Update(ctx context.Context, u *entity.User) error { return nil }
func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error   { return nil }
func (f *fakeUserRepo) Search(ctx context.Context, query string, exclude uuid.UUID, limit int) ([]entity.User, error) {
	return nil, nil
}

type fixture struct {
	repo     *fakeTicketRepo
	channels *fakeChannelRepo
	users    *fakeUserRepo
	userID   uuid.UUID
	adminID  uuid.UUID
}

func newFixture() *fixture {
	userID := uuid.New()
	adminID := uuid.New()
	return &fixture{
		repo:     newFakeTicketRepo(),
		channels: &fakeChannelRepo{messages: map[uuid.UUID]*entity.Message{}},
		users: &fakeUserRepo{users: map[uuid.UUID]*entity.User{
			userID:  {ID: userID, Username: "student"},
			adminID: {ID: adminID, Username: "admin", Role: entity.Role{Name: entity.RoleAdmin}},
		}},
		userID:  userID,
		adminID: adminID,
	}
}

func (f *fixture) service(strict bool) TicketService {
	return NewTicketService(f.repo, f.channels, f.users, nil, strict)
}

func TestCreate_Defaults(t *testing.T) {
	f := newFixture()
	svc := f.service(false)

	ticket, err := svc.Create(context.Background(), f.userID, ticketDto.CreateTicketInput{
		Title:       "Cannot reset password",
		Description: "The reset link never arrives",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.TicketUnchosen, ticket.Status)
	assert.Equal(t, entity.TicketTypeCustom, ticket.TicketType)
	assert.Equal(t, "general", ticket.Category)
	assert.Equal(t, "medium", ticket.Priority)
	assert.Equal(t, "student", ticket.Username)
}

func TestReportMessage(t *testing.T) {
	f := newFixture()
	svc := f.service(false)

	otherID := uuid.New()
	channelID := uuid.New()
	msg := &entity.Message{ID: uuid.New(), ChannelID: channelID, UserID: otherID, Username: "offender", Content: "spam"}
	f.channels.messages[msg.ID] = msg

	t.Run("creates report ticket", func(t *testing.T) {
		ticket, err := svc.ReportMessage(context.Background(), f.userID, ticketDto.ReportMessageInput{
			MessageID: msg.ID,
			Reason:    "spam",
		})

		require.NoError(t, err)
		assert.Equal(t, entity.TicketTypeReport, ticket.TicketType)
		require.NotNil(t, ticket.ReportedMessageID)
		assert.Equal(t, msg.ID, *ticket.ReportedMessageID)
		require.NotNil(t, ticket.ReportedChannelID)
		assert.Equal(t, channelID, *ticket.ReportedChannelID)
		require.NotNil(t, ticket.ReportedUsername)
		assert.Equal(t, "offender", *ticket.ReportedUsername)
	})

	t.Run("missing message", func(t *testing.T) {
		_, err := svc.ReportMessage(context.Background(), f.userID, ticketDto.ReportMessageInput{
			MessageID: uuid.New(),
			Reason:    "spam",
		})
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("own message", func(t *testing.T) {
		own := &entity.Message{ID: uuid.New(), ChannelID: channelID, UserID: f.userID, Username: "student", Content: "hi"}
		f.channels.messages[own.ID] = own

		_, err := svc.ReportMessage(context.Background(), f.userID, ticketDto.ReportMessageInput{
			MessageID: own.ID,
			Reason:    "spam",
		})
		assert.ErrorIs(t, err, apperror.ErrSelfReference)
	})
}

func TestAssign_OverwritesAndSetsProcessing(t *testing.T) {
	f := newFixture()
	svc := f.service(false)

	ticket, err := svc.Create(context.Background(), f.userID, ticketDto.CreateTicketInput{
		Title: "t", Description: "d",
	})
	require.NoError(t, err)

	got, err := svc.Assign(context.Background(), f.adminID, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TicketProcessing, got.Status)
	require.NotNil(t, got.AssignedToID)
	assert.Equal(t, f.adminID, *got.AssignedToID)

	// A second admin takes the ticket over.
	secondAdmin := uuid.New()
	f.users.users[secondAdmin] = &entity.User{ID: secondAdmin, Username: "admin2"}

	got, err = svc.Assign(context.Background(), secondAdmin, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, secondAdmin, *got.AssignedToID)
	assert.Equal(t, "admin2", *got.AssignedAdmin)
	assert.Equal(t, entity.TicketProcessing, got.Status)
}

func TestSetStatus(t *testing.T) {
	response := "fixed the reset link"

	t.Run("unknown status is invalid-status not invalid-transition", func(t *testing.T) {
		f := newFixture()
		svc := f.service(false)
		ticket, _ := svc.Create(context.Background(), f.userID, ticketDto.CreateTicketInput{Title: "t", Description: "d"})

		_, err := svc.SetStatus(context.Background(), f.adminID, ticket.ID, ticketDto.SetStatusInput{Status: "archived"})
		assert.ErrorIs(t, err, apperror.ErrInvalidStatus)
		assert.NotErrorIs(t, err, apperror.ErrInvalidTransition)
	})

	t.Run("completing records resolution", func(t *testing.T) {
		f := newFixture()
		svc := f.service(false)
		ticket, _ := svc.Create(context.Background(), f.userID, ticketDto.CreateTicketInput{Title: "t", Description: "d"})

		got, err := svc.SetStatus(context.Background(), f.adminID, ticket.ID, ticketDto.SetStatusInput{
			Status:        "completed",
			AdminResponse: &response,
		})

		require.NoError(t, err)
		assert.Equal(t, entity.TicketCompleted, got.Status)
		require.NotNil(t, got.ResolvedAt)
		assert.Equal(t, response, *got.AdminResponse)
	})

	t.Run("permissive reopen clears resolved at", func(t *testing.T) {
		f := newFixture()
		svc := f.service(false)
		ticket, _ := svc.Create(context.Background(), f.userID, ticketDto.CreateTicketInput{Title: "t", Description: "d"})

		_, err := svc.SetStatus(context.Background(), f.adminID, ticket.ID, ticketDto.SetStatusInput{Status: "completed"})
		require.NoError(t, err)

		got, err := svc.SetStatus(context.Background(), f.adminID, ticket.ID, ticketDto.SetStatusInput{Status: "processing"})
		require.NoError(t, err)
		assert.Equal(t, entity.TicketProcessing, got.Status)
		assert.Nil(t, got.ResolvedAt)
	})

	t.Run("strict flow makes completed terminal", func(t *testing.T) {
		f := newFixture()
		svc := f.service(true)
		ticket, _ := svc.Create(context.Background(), f.userID, ticketDto.CreateTicketInput{Title: "t", Description: "d"})

		_, err := svc.SetStatus(context.Background(), f.adminID, ticket.ID, ticketDto.SetStatusInput{Status: "processing"})
		require.NoError(t, err)
		_, err = svc.SetStatus(context.Background(), f.adminID, ticket.ID, ticketDto.SetStatusInput{Status: "completed"})
		require.NoError(t, err)

		_, err = svc.SetStatus(context.Background(), f.adminID, ticket.ID, ticketDto.SetStatusInput{Status: "processing"})
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	})

	t.Run("strict flow rejects skipping to completed", func(t *testing.T) {
		f := newFixture()
		svc := f.service(true)
		ticket, _ := svc.Create(context.Background(), f.userID, ticketDto.CreateTicketInput{Title: "t", Description: "d"})

		_, err := svc.SetStatus(context.Background(), f.adminID, ticket.ID, ticketDto.SetStatusInput{Status: "completed"})
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	})

	t.Run("idempotent same-status is a no-op success", func(t *testing.T) {
		f := newFixture()
		svc := f.service(true)
		ticket, _ := svc.Create(context.Background(), f.userID, ticketDto.CreateTicketInput{Title: "t", Description: "d"})

		got, err := svc.SetStatus(context.Background(), f.adminID, ticket.ID, ticketDto.SetStatusInput{Status: "unchosen"})
		require.NoError(t, err)
		assert.Equal(t, entity.TicketUnchosen, got.Status)
	})
}

func TestGetByID_OwnerOnly(t *testing.T) {
	f := newFixture()
	svc := f.service(false)
	ticket, _ := svc.Create(context.Background(), f.userID, ticketDto.CreateTicketInput{Title: "t", Description: "d"})

	_, err := svc.GetByID(context.Background(), uuid.New(), false, ticket.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	got, err := svc.GetByID(context.Background(), uuid.New(), true, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)

	// StatusChangedAt is stamped on creation.
	assert.WithinDuration(t, time.Now(), got.StatusChangedAt, time.Minute)
}
