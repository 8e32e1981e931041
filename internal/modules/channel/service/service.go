package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"uninet.id/campuslink/internal/entity"
	channelDto "uninet.id/campuslink/internal/modules/channel/dto"
	channelRepo "uninet.id/campuslink/internal/modules/channel/repository"
	userRepo "uninet.id/campuslink/internal/modules/user/repository"
	"uninet.id/campuslink/pkg/apperror"
)

const roomHistoryLimit = 100

type ChannelService interface {
	Create(ctx context.Context, ownerID uuid.UUID, input channelDto.CreateChannelInput) (*entity.Channel, error)
	List(ctx context.Context, search string) ([]entity.Channel, error)
	// Room returns the join view: the channel plus its recent history in
	// chronological order.
	Room(ctx context.Context, channelID uuid.UUID) (*entity.Channel, []entity.Message, error)
	PostMessage(ctx context.Context, userID, channelID uuid.UUID, input channelDto.PostMessageInput) (*entity.Message, error)
	// Delete is owner-or-admin and removes messages and votes with the channel.
	Delete(ctx context.Context, actorID uuid.UUID, isAdmin bool, channelID uuid.UUID) error
}

type channelService struct {
	repo      channelRepo.ChannelRepository
	userRepo  userRepo.UserRepository
	sanitizer *bluemonday.Policy
}

func NewChannelService(repo channelRepo.ChannelRepository, userRepo userRepo.UserRepository) ChannelService {
	return &channelService{
		repo:      repo,
		userRepo:  userRepo,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *channelService) Create(ctx context.Context, ownerID uuid.UUID, input channelDto.CreateChannelInput) (*entity.Channel, error) {
	owner, err := s.userRepo.FindByID(ctx, ownerID.String())
	if err != nil {
		return nil, apperror.New(http.StatusNotFound, "user not found", apperror.ErrNotFound)
	}

	name := strings.TrimSpace(input.Name)
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.New(http.StatusConflict, "a channel with this name already exists", apperror.ErrAlreadyExists)
	}

	channel := &entity.Channel{
		Name:        name,
		Subject:     s.sanitizer.Sanitize(input.Subject),
		Description: s.sanitizer.Sanitize(input.Description),
		Tags:        input.Tags,
		OwnerID:     ownerID,
		OwnerName:   owner.Username,
	}
	if err := s.repo.Create(ctx, channel); err != nil {
		return nil, err
	}
	return channel, nil
}

func (s *channelService) List(ctx context.Context, search string) ([]entity.Channel, error) {
	return s.repo.List(ctx, search)
}

func (s *channelService) Room(ctx context.Context, channelID uuid.UUID) (*entity.Channel, []entity.Message, error) {
	channel, err := s.repo.FindByID(ctx, channelID)
	if err != nil {
		return nil, nil, err
	}
	if channel == nil {
		return nil, nil, apperror.New(http.StatusNotFound, "channel not found", apperror.ErrNotFound)
	}

	messages, err := s.repo.RecentMessages(ctx, channelID, roomHistoryLimit)
	if err != nil {
		return nil, nil, err
	}
	return channel, messages, nil
}

func (s *channelService) PostMessage(ctx context.Context, userID, channelID uuid.UUID, input channelDto.PostMessageInput) (*entity.Message, error) {
	user, err := s.userRepo.FindByID(ctx, userID.String())
	if err != nil {
		return nil, apperror.New(http.StatusNotFound, "user not found", apperror.ErrNotFound)
	}

	channel, err := s.repo.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, apperror.New(http.StatusNotFound, "channel not found", apperror.ErrNotFound)
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(input.Content))
	if content == "" {
		return nil, apperror.New(http.StatusBadRequest, "message content is empty", apperror.ErrInvalidInput)
	}

	message := &entity.Message{
		ChannelID: channelID,
		UserID:    userID,
		Username:  user.Username,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

func (s *channelService) Delete(ctx context.Context, actorID uuid.UUID, isAdmin bool, channelID uuid.UUID) error {
	channel, err := s.repo.FindByID(ctx, channelID)
	if err != nil {
		return err
	}
	if channel == nil {
		return apperror.New(http.StatusNotFound, "channel not found", apperror.ErrNotFound)
	}
	if !isAdmin && channel.OwnerID != actorID {
		return apperror.New(http.StatusForbidden, "only the channel owner can delete it", apperror.ErrForbidden)
	}
	return s.repo.Delete(ctx, channelID)
}
