package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"uninet.id/campuslink/internal/entity"
	notifService "uninet.id/campuslink/internal/modules/notification/service"
	voteRepo "uninet.id/campuslink/internal/modules/vote/repository"
	"uninet.id/campuslink/pkg/apperror"
	"uninet.id/campuslink/pkg/dto"
)

const countsCacheTTL = 10 * time.Minute

type VoteService interface {
	// Cast records an up or down vote. Voting the same direction twice is
	// rejected; voting the opposite direction switches the existing vote.
	Cast(ctx context.Context, userID uuid.UUID, kind string, resourceID uuid.UUID, direction string) (*dto.VoteCounts, error)
	// Retract removes the caller's vote. Only available when unvoting is
	// enabled in config.
	Retract(ctx context.Context, userID uuid.UUID, kind string, resourceID uuid.UUID) (*dto.VoteCounts, error)
	Counts(ctx context.Context, kind string, resourceID uuid.UUID) (*dto.VoteCounts, error)
	// MyVote returns the caller's current direction, or "" when they have not
	// voted.
	MyVote(ctx context.Context, userID uuid.UUID, kind string, resourceID uuid.UUID) (string, error)
}

type voteService struct {
	repo                voteRepo.VoteRepository
	redisClient         *redis.Client
	notificationService notifService.NotificationService
	enableUnvote        bool
}

func NewVoteService(repo voteRepo.VoteRepository, redisClient *redis.Client, notificationService notifService.NotificationService, enableUnvote bool) VoteService {
	return &voteService{
		repo:                repo,
		redisClient:         redisClient,
		notificationService: notificationService,
		enableUnvote:        enableUnvote,
	}
}

func countsKey(kind string, resourceID uuid.UUID) string {
	return fmt.Sprintf("vote_counts:%s:%s", kind, resourceID)
}

func (s *voteService) Cast(ctx context.Context, userID uuid.UUID, kind string, resourceID uuid.UUID, direction string) (*dto.VoteCounts, error) {
	if direction != entity.VoteUp && direction != entity.VoteDown {
		return nil, fmt.Errorf("%w: direction must be up or down", apperror.ErrInvalidInput)
	}

	existing, err := s.repo.Find(ctx, userID, kind, resourceID)
	if err != nil {
		return nil, err
	}

	switch {
	case existing == nil:
		vote := &entity.Vote{
			UserID:       userID,
			ResourceKind: kind,
			ResourceID:   resourceID,
			Direction:    direction,
		}
		if err := s.repo.Insert(ctx, vote); err != nil {
			return nil, err
		}
		s.bumpCache(ctx, kind, resourceID, direction, 1)
		s.notifyOwner(userID, kind, resourceID, direction)

	case existing.Direction == direction:
		return nil, apperror.New(http.StatusConflict,
			fmt.Sprintf("you have already voted %s", direction), apperror.ErrAlreadyVoted)

	default:
		old := existing.Direction
		if err := s.repo.Switch(ctx, existing, direction); err != nil {
			return nil, err
		}
		s.bumpCache(ctx, kind, resourceID, old, -1)
		s.bumpCache(ctx, kind, resourceID, direction, 1)
	}

	return s.Counts(ctx, kind, resourceID)
}

func (s *voteService) Retract(ctx context.Context, userID uuid.UUID, kind string, resourceID uuid.UUID) (*dto.VoteCounts, error) {
	if !s.enableUnvote {
		return nil, apperror.New(http.StatusForbidden, "vote retraction is disabled", apperror.ErrForbidden)
	}

	existing, err := s.repo.Find(ctx, userID, kind, resourceID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperror.New(http.StatusNotFound, "you have not voted on this resource", apperror.ErrNotFound)
	}

	if err := s.repo.Remove(ctx, existing); err != nil {
		return nil, err
	}
	s.bumpCache(ctx, kind, resourceID, existing.Direction, -1)

	return s.Counts(ctx, kind, resourceID)
}

func (s *voteService) Counts(ctx context.Context, kind string, resourceID uuid.UUID) (*dto.VoteCounts, error) {
	if counts, ok := s.cachedCounts(ctx, kind, resourceID); ok {
		return counts, nil
	}

	up, down, err := s.repo.Counts(ctx, kind, resourceID)
	if err != nil {
		return nil, err
	}
	s.primeCache(ctx, kind, resourceID, up, down)

	return &dto.VoteCounts{Upvotes: up, Downvotes: down, Score: up - down}, nil
}

func (s *voteService) MyVote(ctx context.Context, userID uuid.UUID, kind string, resourceID uuid.UUID) (string, error) {
	vote, err := s.repo.Find(ctx, userID, kind, resourceID)
	if err != nil {
		return "", err
	}
	if vote == nil {
		return "", nil
	}
	return vote.Direction, nil
}

// notifyOwner tells the resource owner about a new vote. Best-effort: runs in
// the background and never fails the vote. Self-votes are skipped.
func (s *voteService) notifyOwner(voterID uuid.UUID, kind string, resourceID uuid.UUID, direction string) {
	if s.notificationService == nil {
		return
	}
	go func() {
		ctx := context.Background()
		ownerID, title, err := s.repo.Owner(ctx, kind, resourceID)
		if err != nil || ownerID == uuid.Nil || ownerID == voterID {
			return
		}

		noun := "channel"
		if kind == entity.VotableRepository {
			noun = "upload"
		}
		actor := voterID
		notification := &entity.Notification{
			UserID:  ownerID,
			ActorID: &actor,
			Title:   "New vote",
			Message: fmt.Sprintf("Your %s %q received a new %svote", noun, title, direction),
			Type:    entity.NotificationVote,
		}
		if err := s.notificationService.Send(ctx, notification); err != nil {
			log.Printf("Failed to send vote notification: %v", err)
		}
	}()
}

// Cache helpers. All best-effort: a redis failure never fails the vote, the
// counts just fall back to the DB on the next read.

func (s *voteService) bumpCache(ctx context.Context, kind string, resourceID uuid.UUID, direction string, delta int64) {
	if s.redisClient == nil {
		return
	}
	key := countsKey(kind, resourceID)
	pipe := s.redisClient.Pipeline()
	pipe.HIncrBy(ctx, key, direction, delta)
	pipe.Expire(ctx, key, countsCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Failed to update vote counts cache: %v", err)
		s.redisClient.Del(ctx, key)
	}
}

func (s *voteService) primeCache(ctx context.Context, kind string, resourceID uuid.UUID, up, down int64) {
	if s.redisClient == nil {
		return
	}
	key := countsKey(kind, resourceID)
	pipe := s.redisClient.Pipeline()
	pipe.HSet(ctx, key, entity.VoteUp, up, entity.VoteDown, down)
	pipe.Expire(ctx, key, countsCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Failed to prime vote counts cache: %v", err)
	}
}

func (s *voteService) cachedCounts(ctx context.Context, kind string, resourceID uuid.UUID) (*dto.VoteCounts, bool) {
	if s.redisClient == nil {
		return nil, false
	}
	fields, err := s.redisClient.HGetAll(ctx, countsKey(kind, resourceID)).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}
	up, _ := strconv.ParseInt(fields[entity.VoteUp], 10, 64)
	down, _ := strconv.ParseInt(fields[entity.VoteDown], 10, 64)
	if up < 0 {
		up = 0
	}
	if down < 0 {
		down = 0
	}
	return &dto.VoteCounts{Upvotes: up, Downvotes: down, Score: up - down}, true
}
