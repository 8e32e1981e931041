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
	moderationDto "uninet.id/campuslink/internal/modules/moderation/dto"
	moderationRepo "uninet.id/campuslink/internal/modules/moderation/repository"
	notifService "uninet.id/campuslink/internal/modules/notification/service"
	userRepo "uninet.id/campuslink/internal/modules/user/repository"
	"uninet.id/campuslink/pkg/apperror"
	"uninet.id/campuslink/pkg/dto"
	"uninet.id/campuslink/pkg/ledger"
)

type ModerationService interface {
	Suspend(ctx context.Context, adminID, userID uuid.UUID, reason string, durationHours *int) (*entity.User, error)
	Ban(ctx context.Context, adminID, userID uuid.UUID, reason string) (*entity.User, error)
	Reactivate(ctx context.Context, adminID, userID uuid.UUID) (*entity.User, error)
	// CheckExpiryOnAccess is the lazy half of suspension expiry: called on
	// login, it reactivates the account in place when the expiry has passed
	// and reports whether it did.
	CheckExpiryOnAccess(ctx context.Context, user *entity.User) (bool, error)
	// SweepExpired is the batch half, run on the cron interval.
	SweepExpired(ctx context.Context) (int64, error)
	NotifyUser(ctx context.Context, adminID, userID uuid.UUID, input moderationDto.NotifyInput) error
	ListUsers(ctx context.Context, q moderationDto.ListUsersQuery) (*moderationDto.ListUsersResponse, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*moderationDto.ManagedUserResponse, error)
	Describe(state entity.AccountState) moderationDto.AccountStatusResponse
}

type moderationService struct {
	repo                moderationRepo.ModerationRepository
	userRepo            userRepo.UserRepository
	notificationService notifService.NotificationService
}

func NewModerationService(repo moderationRepo.ModerationRepository, userRepo userRepo.UserRepository, notificationService notifService.NotificationService) ModerationService {
	return &moderationService{
		repo:                repo,
		userRepo:            userRepo,
		notificationService: notificationService,
	}
}

// loadTarget fetches the user and enforces the shared guards: admins cannot
// moderate themselves or other admins.
func (s *moderationService) loadTarget(ctx context.Context, adminID, userID uuid.UUID) (*entity.User, error) {
	if adminID == userID {
		return nil, fmt.Errorf("%w: cannot moderate your own account", apperror.ErrSelfReference)
	}
	user, err := s.userRepo.FindByID(ctx, userID.String())
	if err != nil {
		return nil, apperror.New(http.StatusNotFound, "user not found", apperror.ErrNotFound)
	}
	if user.IsAdmin() {
		return nil, apperror.New(http.StatusForbidden, "cannot moderate an admin account", apperror.ErrForbidden)
	}
	return user, nil
}

func (s *moderationService) Suspend(ctx context.Context, adminID, userID uuid.UUID, reason string, durationHours *int) (*entity.User, error) {
	user, err := s.loadTarget(ctx, adminID, userID)
	if err != nil {
		return nil, err
	}

	// Re-suspending an already suspended user overwrites the reason and
	// duration; a banned user has to be reactivated first.
	if _, err := ledger.Transition(user.AccountStatus, entity.AccountSuspended,
		entity.AccountActive, entity.AccountSuspended); err != nil {
		return nil, err
	}

	now := time.Now()
	state := entity.SuspendedState(reason, durationHours, now)
	entity.ApplyAccountState(user, state)

	if err := s.repo.SaveState(ctx, user); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Your account has been suspended. Reason: %s", reason)
	if state.Suspension.ExpiresAt != nil {
		message = fmt.Sprintf("%s. The suspension lifts at %s.", message, state.Suspension.ExpiresAt.Format(time.RFC1123))
	}
	s.notifyAsync(&entity.Notification{
		UserID:  userID,
		ActorID: &adminID,
		Title:   "Account suspended",
		Message: message,
		Type:    entity.NotificationSuspension,
	})

	return user, nil
}

func (s *moderationService) Ban(ctx context.Context, adminID, userID uuid.UUID, reason string) (*entity.User, error) {
	user, err := s.loadTarget(ctx, adminID, userID)
	if err != nil {
		return nil, err
	}

	if _, err := ledger.Transition(user.AccountStatus, entity.AccountBanned,
		entity.AccountActive, entity.AccountSuspended); err != nil {
		return nil, err
	}

	now := time.Now()
	entity.ApplyAccountState(user, entity.BannedState(reason, now))

	if err := s.repo.SaveState(ctx, user); err != nil {
		return nil, err
	}

	s.notifyAsync(&entity.Notification{
		UserID:  userID,
		ActorID: &adminID,
		Title:   "Account banned",
		Message: fmt.Sprintf("Your account has been banned. Reason: %s", reason),
		Type:    entity.NotificationBan,
	})

	return user, nil
}

func (s *moderationService) Reactivate(ctx context.Context, adminID, userID uuid.UUID) (*entity.User, error) {
	user, err := s.loadTarget(ctx, adminID, userID)
	if err != nil {
		return nil, err
	}

	if _, err := ledger.Transition(user.AccountStatus, entity.AccountActive,
		entity.AccountSuspended, entity.AccountBanned); err != nil {
		return nil, err
	}

	entity.ApplyAccountState(user, entity.ActiveState(time.Now()))

	if err := s.repo.SaveState(ctx, user); err != nil {
		return nil, err
	}

	s.notifyAsync(&entity.Notification{
		UserID:  userID,
		ActorID: &adminID,
		Title:   "Account reactivated",
		Message: "Your account has been reactivated. Welcome back.",
		Type:    entity.NotificationAccountUpdate,
	})

	return user, nil
}

func (s *moderationService) CheckExpiryOnAccess(ctx context.Context, user *entity.User) (bool, error) {
	now := time.Now()
	if !entity.AccountStateOf(user).Expired(now) {
		return false, nil
	}
	reactivated, err := s.repo.ReactivateIfExpired(ctx, user.ID, now)
	if err != nil {
		return false, err
	}
	if reactivated {
		entity.ApplyAccountState(user, entity.ActiveState(now))
	}
	// The sweep may have beaten us to it; either way the account is active.
	return reactivated, nil
}

func (s *moderationService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.SweepExpired(ctx, time.Now())
}

func (s *moderationService) NotifyUser(ctx context.Context, adminID, userID uuid.UUID, input moderationDto.NotifyInput) error {
	if _, err := s.userRepo.FindByID(ctx, userID.String()); err != nil {
		return apperror.New(http.StatusNotFound, "user not found", apperror.ErrNotFound)
	}
	return s.notificationService.Send(ctx, &entity.Notification{
		UserID:  userID,
		ActorID: &adminID,
		Title:   input.Title,
		Message: input.Message,
		Type:    input.Type,
	})
}

func (s *moderationService) ListUsers(ctx context.Context, q moderationDto.ListUsersQuery) (*moderationDto.ListUsersResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 20
	}

	users, total, err := s.repo.ListUsers(ctx, q.Query, q.Status, q.Page, q.Limit)
	if err != nil {
		return nil, err
	}

	managed := make([]moderationDto.ManagedUserResponse, 0, len(users))
	for i := range users {
		managed = append(managed, s.toManaged(&users[i]))
	}

	return &moderationDto.ListUsersResponse{
		Users: managed,
		Meta: dto.PaginationMeta{
			CurrentPage: q.Page,
			TotalPages:  int(math.Ceil(float64(total) / float64(q.Limit))),
			TotalItems:  total,
			Limit:       q.Limit,
		},
	}, nil
}

func (s *moderationService) GetUser(ctx context.Context, userID uuid.UUID) (*moderationDto.ManagedUserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID.String())
	if err != nil {
		return nil, apperror.New(http.StatusNotFound, "user not found", apperror.ErrNotFound)
	}
	managed := s.toManaged(user)
	return &managed, nil
}

func (s *moderationService) Describe(state entity.AccountState) moderationDto.AccountStatusResponse {
	resp := moderationDto.AccountStatusResponse{Status: string(state.Status)}
	switch state.Status {
	case entity.AccountActive:
		resp.Description = "Account is active"
	case entity.AccountSuspended:
		resp.Reason = state.Suspension.Reason
		since := state.Suspension.Since
		resp.Since = &since
		if state.Suspension.ExpiresAt != nil {
			resp.ExpiresAt = state.Suspension.ExpiresAt
			resp.Description = fmt.Sprintf("Account is suspended until %s", state.Suspension.ExpiresAt.Format(time.RFC1123))
		} else {
			resp.Permanent = true
			resp.Description = "Account is suspended until an administrator reactivates it"
		}
	case entity.AccountBanned:
		resp.Reason = state.Ban.Reason
		since := state.Ban.Since
		resp.Since = &since
		resp.Permanent = true
		resp.Description = "Account is permanently banned"
	}
	return resp
}

func (s *moderationService) toManaged(user *entity.User) moderationDto.ManagedUserResponse {
	return moderationDto.ManagedUserResponse{
		User: dto.UserSummary{
			ID:         user.ID,
			Name:       user.Name,
			Username:   user.Username,
			StudentID:  user.StudentID,
			Department: user.Department,
			AvatarURL:  user.AvatarURL,
		},
		Email:         user.Email,
		Role:          user.Role.Name,
		AccountStatus: s.Describe(entity.AccountStateOf(user)),
		CreatedAt:     user.CreatedAt,
	}
}

func (s *moderationService) notifyAsync(n *entity.Notification) {
	if s.notificationService == nil {
		return
	}
	go func() {
		if err := s.notificationService.Send(context.Background(), n); err != nil {
			log.Printf("Failed to send moderation notification: %v", err)
		}
	}()
}
