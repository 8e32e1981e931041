package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"uninet.id/campuslink/internal/entity"
	friendshipDto "uninet.id/campuslink/internal/modules/friendship/dto"
	friendshipRepo "uninet.id/campuslink/internal/modules/friendship/repository"
	notifService "uninet.id/campuslink/internal/modules/notification/service"
	userRepo "uninet.id/campuslink/internal/modules/user/repository"
	"uninet.id/campuslink/pkg/apperror"
	"uninet.id/campuslink/pkg/dto"
	"uninet.id/campuslink/pkg/ledger"
)

type FriendshipService interface {
	SendRequest(ctx context.Context, requester, recipient uuid.UUID) (*entity.Friendship, error)
	AcceptRequest(ctx context.Context, recipient, requestID uuid.UUID) (*entity.Friendship, error)
	// Remove deletes the record between the two users regardless of status:
	// decline, cancel and unfriend are all the same operation.
	Remove(ctx context.Context, actor, other uuid.UUID) error
	ListFriends(ctx context.Context, actor uuid.UUID) ([]friendshipDto.FriendResponse, error)
	ListPending(ctx context.Context, actor uuid.UUID) ([]friendshipDto.RequestResponse, error)
	ListSent(ctx context.Context, actor uuid.UUID) ([]friendshipDto.RequestResponse, error)
	// StatusBetween annotates a search result with the relationship between
	// the caller and another user.
	StatusBetween(ctx context.Context, actor, other uuid.UUID) (status string, requestID *uuid.UUID, err error)
}

type friendshipService struct {
	repo                friendshipRepo.FriendshipRepository
	userRepo            userRepo.UserRepository
	notificationService notifService.NotificationService
}

func NewFriendshipService(repo friendshipRepo.FriendshipRepository, userRepo userRepo.UserRepository, notificationService notifService.NotificationService) FriendshipService {
	return &friendshipService{
		repo:                repo,
		userRepo:            userRepo,
		notificationService: notificationService,
	}
}

func (s *friendshipService) SendRequest(ctx context.Context, requester, recipient uuid.UUID) (*entity.Friendship, error) {
	if requester == recipient {
		return nil, fmt.Errorf("%w: cannot send a friend request to yourself", apperror.ErrSelfReference)
	}

	if _, err := s.userRepo.FindByID(ctx, recipient.String()); err != nil {
		return nil, apperror.New(http.StatusNotFound, "user not found", apperror.ErrNotFound)
	}

	existing, err := s.repo.FindByPair(ctx, requester, recipient)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// "already friends" and "request pending" are distinct messages but
		// the same rejection kind.
		if existing.Status == entity.FriendshipAccepted {
			return nil, apperror.New(http.StatusConflict, "you are already friends", apperror.ErrAlreadyExists)
		}
		return nil, apperror.New(http.StatusConflict, "friend request already exists", apperror.ErrAlreadyExists)
	}

	friendship := &entity.Friendship{
		RequesterID: requester,
		RecipientID: recipient,
	}
	friendship.Set(entity.FriendshipPending, time.Now())

	if err := s.repo.Create(ctx, friendship); err != nil {
		return nil, err
	}

	s.notifyAsync(&entity.Notification{
		UserID:  recipient,
		ActorID: &requester,
		Title:   "New friend request",
		Message: "You have received a new friend request",
		Type:    entity.NotificationFriend,
	})

	return friendship, nil
}

func (s *friendshipService) AcceptRequest(ctx context.Context, recipient, requestID uuid.UUID) (*entity.Friendship, error) {
	friendship, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	// Only the recipient of a pending request may accept it; the requester
	// can only cancel. Anything else looks like the request doesn't exist.
	if friendship == nil || friendship.RecipientID != recipient || friendship.Status != entity.FriendshipPending {
		return nil, apperror.New(http.StatusNotFound, "friend request not found or you cannot accept this request", apperror.ErrNotFound)
	}

	next, err := ledger.Transition(friendship.Status, entity.FriendshipAccepted, entity.FriendshipPending)
	if err != nil {
		return nil, err
	}
	friendship.Set(next, time.Now())

	if err := s.repo.Update(ctx, friendship); err != nil {
		return nil, err
	}

	s.notifyAsync(&entity.Notification{
		UserID:  friendship.RequesterID,
		ActorID: &recipient,
		Title:   "Friend request accepted",
		Message: "Your friend request has been accepted",
		Type:    entity.NotificationFriend,
	})

	return friendship, nil
}

func (s *friendshipService) Remove(ctx context.Context, actor, other uuid.UUID) error {
	friendship, err := s.repo.FindByPair(ctx, actor, other)
	if err != nil {
		return err
	}
	if friendship == nil || !friendship.Involves(actor) {
		return apperror.New(http.StatusNotFound, "friendship not found", apperror.ErrNotFound)
	}
	return s.repo.Delete(ctx, friendship.ID)
}

func (s *friendshipService) ListFriends(ctx context.Context, actor uuid.UUID) ([]friendshipDto.FriendResponse, error) {
	rows, err := s.repo.ListAccepted(ctx, actor)
	if err != nil {
		return nil, err
	}

	friends := make([]friendshipDto.FriendResponse, 0, len(rows))
	for _, row := range rows {
		var other *entity.User
		if row.RequesterID == actor {
			other = row.Recipient
		} else {
			other = row.Requester
		}
		if other == nil {
			continue
		}
		friends = append(friends, friendshipDto.FriendResponse{
			FriendshipID: row.ID,
			Friend:       toUserSummary(other),
			Since:        row.StatusChangedAt,
		})
	}
	return friends, nil
}

func (s *friendshipService) ListPending(ctx context.Context, actor uuid.UUID) ([]friendshipDto.RequestResponse, error) {
	rows, err := s.repo.ListPendingFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	requests := make([]friendshipDto.RequestResponse, 0, len(rows))
	for _, row := range rows {
		if row.Requester == nil {
			continue
		}
		requests = append(requests, friendshipDto.RequestResponse{
			ID:        row.ID,
			User:      toUserSummary(row.Requester),
			CreatedAt: row.CreatedAt,
		})
	}
	return requests, nil
}

func (s *friendshipService) ListSent(ctx context.Context, actor uuid.UUID) ([]friendshipDto.RequestResponse, error) {
	rows, err := s.repo.ListSentBy(ctx, actor)
	if err != nil {
		return nil, err
	}

	requests := make([]friendshipDto.RequestResponse, 0, len(rows))
	for _, row := range rows {
		if row.Recipient == nil {
			continue
		}
		requests = append(requests, friendshipDto.RequestResponse{
			ID:        row.ID,
			User:      toUserSummary(row.Recipient),
			CreatedAt: row.CreatedAt,
		})
	}
	return requests, nil
}

func (s *friendshipService) StatusBetween(ctx context.Context, actor, other uuid.UUID) (string, *uuid.UUID, error) {
	friendship, err := s.repo.FindByPair(ctx, actor, other)
	if err != nil {
		return "", nil, err
	}
	if friendship == nil {
		return friendshipDto.StatusNone, nil, nil
	}
	id := friendship.ID
	if friendship.Status == entity.FriendshipAccepted {
		return friendshipDto.StatusFriends, &id, nil
	}
	if friendship.RequesterID == actor {
		return friendshipDto.StatusRequested, &id, nil
	}
	return friendshipDto.StatusPending, &id, nil
}

func (s *friendshipService) notifyAsync(n *entity.Notification) {
	if s.notificationService == nil {
		return
	}
	go func() {
		if err := s.notificationService.Send(context.Background(), n); err != nil {
			log.Printf("Failed to send friendship notification: %v", err)
		}
	}()
}

func toUserSummary(u *entity.User) dto.UserSummary {
	return dto.UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Username:   u.Username,
		StudentID:  u.StudentID,
		Department: u.Department,
		AvatarURL:  u.AvatarURL,
	}
}
