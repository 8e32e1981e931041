package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"uninet.id/campuslink/internal/entity"
	channelRepo "uninet.id/campuslink/internal/modules/channel/repository"
	notifService "uninet.id/campuslink/internal/modules/notification/service"
	ticketDto "uninet.id/campuslink/internal/modules/ticket/dto"
	ticketRepo "uninet.id/campuslink/internal/modules/ticket/repository"
	userRepo "uninet.id/campuslink/internal/modules/user/repository"
	"uninet.id/campuslink/pkg/apperror"
	"uninet.id/campuslink/pkg/dto"
	"uninet.id/campuslink/pkg/ledger"
)

// PermissiveGraph lets admins move a ticket between any two statuses,
// including reopening a completed one. This is the default workflow.
var PermissiveGraph = ledger.Graph{
	entity.TicketUnchosen:   {entity.TicketProcessing, entity.TicketCompleted},
	entity.TicketProcessing: {entity.TicketUnchosen, entity.TicketCompleted},
	entity.TicketCompleted:  {entity.TicketUnchosen, entity.TicketProcessing},
}

// StrictGraph makes completed terminal; processing may only be dropped back
// to unchosen or finished.
var StrictGraph = ledger.Graph{
	entity.TicketUnchosen:   {entity.TicketProcessing},
	entity.TicketProcessing: {entity.TicketUnchosen, entity.TicketCompleted},
	entity.TicketCompleted:  {},
}

type TicketService interface {
	Create(ctx context.Context, userID uuid.UUID, input ticketDto.CreateTicketInput) (*entity.Ticket, error)
	ReportMessage(ctx context.Context, reporterID uuid.UUID, input ticketDto.ReportMessageInput) (*entity.Ticket, error)
	GetByID(ctx context.Context, actorID uuid.UUID, isAdmin bool, ticketID uuid.UUID) (*entity.Ticket, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]entity.Ticket, error)
	List(ctx context.Context, q ticketDto.ListTicketsQuery) ([]entity.Ticket, *dto.PaginationMeta, error)
	// Assign is last-writer-wins and moves the ticket to processing.
	Assign(ctx context.Context, adminID uuid.UUID, ticketID uuid.UUID) (*entity.Ticket, error)
	SetStatus(ctx context.Context, adminID uuid.UUID, ticketID uuid.UUID, input ticketDto.SetStatusInput) (*entity.Ticket, error)
	Stats(ctx context.Context) (map[string]int64, error)
}

type ticketService struct {
	repo                ticketRepo.TicketRepository
	channelRepo         channelRepo.ChannelRepository
	userRepo            userRepo.UserRepository
	notificationService notifService.NotificationService
	graph               ledger.Graph
}

func NewTicketService(
	repo ticketRepo.TicketRepository,
	channelRepo channelRepo.ChannelRepository,
	userRepo userRepo.UserRepository,
	notificationService notifService.NotificationService,
	strictFlow bool,
) TicketService {
	graph := PermissiveGraph
	if strictFlow {
		graph = StrictGraph
	}
	return &ticketService{
		repo:                repo,
		channelRepo:         channelRepo,
		userRepo:            userRepo,
		notificationService: notificationService,
		graph:               graph,
	}
}

func (s *ticketService) Create(ctx context.Context, userID uuid.UUID, input ticketDto.CreateTicketInput) (*entity.Ticket, error) {
	user, err := s.userRepo.FindByID(ctx, userID.String())
	if err != nil {
		return nil, apperror.New(http.StatusNotFound, "user not found", apperror.ErrNotFound)
	}

	ticket := &entity.Ticket{
		UserID:      userID,
		Username:    user.Username,
		Title:       input.Title,
		Description: input.Description,
		Category:    defaultStr(input.Category, "general"),
		Priority:    defaultStr(input.Priority, "medium"),
		TicketType:  entity.TicketTypeCustom,
	}
	ticket.Set(entity.TicketUnchosen, time.Now())

	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *ticketService) ReportMessage(ctx context.Context, reporterID uuid.UUID, input ticketDto.ReportMessageInput) (*entity.Ticket, error) {
	reporter, err := s.userRepo.FindByID(ctx, reporterID.String())
	if err != nil {
		return nil, apperror.New(http.StatusNotFound, "user not found", apperror.ErrNotFound)
	}

	message, err := s.channelRepo.FindMessageByID(ctx, input.MessageID)
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, apperror.New(http.StatusNotFound, "reported message not found", apperror.ErrNotFound)
	}
	if message.UserID == reporterID {
		return nil, fmt.Errorf("%w: cannot report your own message", apperror.ErrSelfReference)
	}

	description := input.Description
	if description == "" {
		description = input.Reason
	}

	ticket := &entity.Ticket{
		UserID:            reporterID,
		Username:          reporter.Username,
		Title:             fmt.Sprintf("Report: message from %s", message.Username),
		Description:       description,
		Category:          input.Reason,
		Priority:          "high",
		TicketType:        entity.TicketTypeReport,
		ReportedMessageID: &message.ID,
		ReportedChannelID: &message.ChannelID,
		ReportedUsername:  &message.Username,
		ScreenshotURLs:    input.ScreenshotURLs,
	}
	ticket.Set(entity.TicketUnchosen, time.Now())

	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *ticketService) GetByID(ctx context.Context, actorID uuid.UUID, isAdmin bool, ticketID uuid.UUID) (*entity.Ticket, error) {
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, apperror.New(http.StatusNotFound, "ticket not found", apperror.ErrNotFound)
	}
	if !isAdmin && ticket.UserID != actorID {
		return nil, apperror.New(http.StatusForbidden, "you can only view your own tickets", apperror.ErrForbidden)
	}
	return ticket, nil
}

func (s *ticketService) ListMine(ctx context.Context, userID uuid.UUID) ([]entity.Ticket, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *ticketService) List(ctx context.Context, q ticketDto.ListTicketsQuery) ([]entity.Ticket, *dto.PaginationMeta, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 20
	}
	tickets, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	meta := &dto.PaginationMeta{
		CurrentPage: q.Page,
		TotalPages:  int(math.Ceil(float64(total) / float64(q.Limit))),
		TotalItems:  total,
		Limit:       q.Limit,
	}
	return tickets, meta, nil
}

func (s *ticketService) Assign(ctx context.Context, adminID uuid.UUID, ticketID uuid.UUID) (*entity.Ticket, error) {
	admin, err := s.userRepo.FindByID(ctx, adminID.String())
	if err != nil {
		return nil, apperror.New(http.StatusNotFound, "admin not found", apperror.ErrNotFound)
	}

	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, apperror.New(http.StatusNotFound, "ticket not found", apperror.ErrNotFound)
	}

	next, err := s.graph.Step(ticket.Status, entity.TicketProcessing)
	if err != nil {
		return nil, err
	}

	ticket.AssignedToID = &admin.ID
	ticket.AssignedAdmin = &admin.Username
	if next != ticket.Status {
		ticket.Set(next, time.Now())
	}

	if err := s.repo.Update(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *ticketService) SetStatus(ctx context.Context, adminID uuid.UUID, ticketID uuid.UUID, input ticketDto.SetStatusInput) (*entity.Ticket, error) {
	requested := ledger.Status(input.Status)
	switch requested {
	case entity.TicketUnchosen, entity.TicketProcessing, entity.TicketCompleted:
	default:
		return nil, fmt.Errorf("%w: %q", apperror.ErrInvalidStatus, input.Status)
	}

	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, apperror.New(http.StatusNotFound, "ticket not found", apperror.ErrNotFound)
	}

	next, err := s.graph.Step(ticket.Status, requested)
	if err != nil {
		return nil, err
	}
	if next != ticket.Status {
		ticket.Set(next, time.Now())
	}

	if input.Resolution != nil {
		ticket.Resolution = input.Resolution
	}
	if input.AdminResponse != nil {
		ticket.AdminResponse = input.AdminResponse
	}

	notifyUser := false
	if next == entity.TicketCompleted {
		now := time.Now()
		ticket.ResolvedAt = &now
		notifyUser = ticket.AdminResponse != nil && *ticket.AdminResponse != ""
	} else {
		// Reopening clears the resolution timestamp.
		ticket.ResolvedAt = nil
	}

	if err := s.repo.Update(ctx, ticket); err != nil {
		return nil, err
	}

	if notifyUser {
		s.notifyAsync(&entity.Notification{
			UserID:  ticket.UserID,
			ActorID: &adminID,
			Title:   fmt.Sprintf("Your ticket %q has been resolved", ticket.Title),
			Message: *ticket.AdminResponse,
			Type:    entity.NotificationTicket,
		})
	}

	return ticket, nil
}

func (s *ticketService) Stats(ctx context.Context) (map[string]int64, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *ticketService) notifyAsync(n *entity.Notification) {
	if s.notificationService == nil {
		return
	}
	go func() {
		if err := s.notificationService.Send(context.Background(), n); err != nil {
			log.Printf("Failed to send ticket notification: %v", err)
		}
	}()
}

func defaultStr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
