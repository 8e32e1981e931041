package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"uninet.id/campuslink/internal/entity"
	friendshipDto "uninet.id/campuslink/internal/modules/friendship/dto"
	"uninet.id/campuslink/pkg/apperror"
)

type fakeFriendshipRepo struct {
	createFn         func(ctx context.Context, f *entity.Friendship) error
	findByPairFn     func(ctx context.Context, a, b uuid.UUID) (*entity.Friendship, error)
	findByIDFn       func(ctx context.Context, id uuid.UUID) (*entity.Friendship, error)
	updateFn         func(ctx context.Context, f *entity.Friendship) error
	deleteFn         func(ctx context.Context, id uuid.UUID) error
	listAcceptedFn   func(ctx context.Context, actor uuid.UUID) ([]entity.Friendship, error)
	listPendingForFn func(ctx context.Context, recipient uuid.UUID) ([]entity.Friendship, error)
	listSentByFn     func(ctx context.Context, requester uuid.UUID) ([]entity.Friendship, error)
}

func (f *fakeFriendshipRepo) Create(ctx context.Context, fr *entity.Friendship) error {
	return f.createFn(ctx, fr)
}

func (f *fakeFriendshipRepo) FindByPair(ctx context.Context, a, b uuid.UUID) (*entity.Friendship, error) {
	if f.findByPairFn == nil {
		return nil, nil
	}
	return f.findByPairFn(ctx, a, b)
}

func (f *fakeFriendshipRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Friendship, error) {
	return f.findByIDFn(ctx, id)
}

func (f *fakeFriendshipRepo) Update(ctx context.Context, fr *entity.Friendship) error {
	return f.updateFn(ctx, fr)
}

func (f *fakeFriendshipRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return f.deleteFn(ctx, id)
}

func (f *fakeFriendshipRepo) ListAccepted(ctx context.Context, actor uuid.UUID) ([]entity.Friendship, error) {
	return f.listAcceptedFn(ctx, actor)
}

func (f *fakeFriendshipRepo) ListPendingFor(ctx context.Context, recipient uuid.UUID) ([]entity.Friendship, error) {
	return f.listPendingForFn(ctx, recipient)
}

func (f *fakeFriendshipRepo) ListSentBy(ctx context.Context, requester uuid.UUID) ([]entity.Friendship, error) {
	return f.listSentByFn(ctx, requester)
}

type fakeUserRepo struct {
	findByIDFn func(ctx context.Context, id string) (*entity.User, error)
}

func (f *fakeUserRepo) Create(ctx context.Context, u *entity.User) error { return nil }
func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return f.findByIDFn(ctx, id)
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

func existingUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*entity.User, error) {
			uid, _ := uuid.Parse(id)
			return &entity.User{ID: uid, Username: "someone", Name: "Someone"}, nil
		},
	}
}

func TestSendRequest_Creates(t *testing.T) {
	requester := uuid.New()
	recipient := uuid.New()

	var created *entity.Friendship
	repo := &fakeFriendshipRepo{
		findByPairFn: func(ctx context.Context, a, b uuid.UUID) (*entity.Friendship, error) {
			return nil, nil
		},
		createFn: func(ctx context.Context, f *entity.Friendship) error {
			created = f
			return nil
		},
	}

	svc := NewFriendshipService(repo, existingUserRepo(), nil)
	got, err := svc.SendRequest(context.Background(), requester, recipient)

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, entity.FriendshipPending, got.Status)
	assert.Equal(t, requester, got.RequesterID)
	assert.Equal(t, recipient, got.RecipientID)
}

func TestSendRequest_SelfReference(t *testing.T) {
	id := uuid.New()
	svc := NewFriendshipService(&fakeFriendshipRepo{}, existingUserRepo(), nil)

	_, err := svc.SendRequest(context.Background(), id, id)

	assert.ErrorIs(t, err, apperror.ErrSelfReference)
}

func TestSendRequest_DuplicateRejectedBothDirections(t *testing.T) {
	requester := uuid.New()
	recipient := uuid.New()

	pending := &entity.Friendship{
		ID:          uuid.New(),
		RequesterID: requester,
		RecipientID: recipient,
	}
	pending.Set(entity.FriendshipPending, time.Now())

	repo := &fakeFriendshipRepo{
		findByPairFn: func(ctx context.Context, a, b uuid.UUID) (*entity.Friendship, error) {
			return pending, nil
		},
	}
	svc := NewFriendshipService(repo, existingUserRepo(), nil)

	// Same direction.
	_, err := svc.SendRequest(context.Background(), requester, recipient)
	assert.ErrorIs(t, err, apperror.ErrAlreadyExists)

	// Reverse direction hits the same record.
	_, err = svc.SendRequest(context.Background(), recipient, requester)
	assert.ErrorIs(t, err, apperror.ErrAlreadyExists)
}

func TestSendRequest_AlreadyFriendsMessage(t *testing.T) {
	requester := uuid.New()
	recipient := uuid.New()

	accepted := &entity.Friendship{
		ID:          uuid.New(),
		RequesterID: recipient,
		RecipientID: requester,
	}
	accepted.Set(entity.FriendshipAccepted, time.Now())

	repo := &fakeFriendshipRepo{
		findByPairFn: func(ctx context.Context, a, b uuid.UUID) (*entity.Friendship, error) {
			return accepted, nil
		},
	}
	svc := NewFriendshipService(repo, existingUserRepo(), nil)

	_, err := svc.SendRequest(context.Background(), requester, recipient)

	require.ErrorIs(t, err, apperror.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "already friends")
}

func TestAcceptRequest_RecipientOnly(t *testing.T) {
	requester := uuid.New()
	recipient := uuid.New()
	requestID := uuid.New()

	pending := &entity.Friendship{
		ID:          requestID,
		RequesterID: requester,
		RecipientID: recipient,
	}
	pending.Set(entity.FriendshipPending, time.Now())

	repo := &fakeFriendshipRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Friendship, error) {
			return pending, nil
		},
		updateFn: func(ctx context.Context, f *entity.Friendship) error {
			return nil
		},
	}
	svc := NewFriendshipService(repo, existingUserRepo(), nil)

	// The requester cannot accept their own request.
	_, err := svc.AcceptRequest(context.Background(), requester, requestID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	got, err := svc.AcceptRequest(context.Background(), recipient, requestID)
	require.NoError(t, err)
	assert.Equal(t, entity.FriendshipAccepted, got.Status)
}

func TestAcceptRequest_AlreadyAccepted(t *testing.T) {
	recipient := uuid.New()
	requestID := uuid.New()

	accepted := &entity.Friendship{
		ID:          requestID,
		RequesterID: uuid.New(),
		RecipientID: recipient,
	}
	accepted.Set(entity.FriendshipAccepted, time.Now())

	repo := &fakeFriendshipRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*entity.Friendship, error) {
			return accepted, nil
		},
	}
	svc := NewFriendshipService(repo, existingUserRepo(), nil)

	_, err := svc.AcceptRequest(context.Background(), recipient, requestID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRemove_ParticipantDeletes(t *testing.T) {
	actor := uuid.New()
	other := uuid.New()
	friendshipID := uuid.New()

	accepted := &entity.Friendship{
		ID:          friendshipID,
		RequesterID: other,
		RecipientID: actor,
	}
	accepted.Set(entity.FriendshipAccepted, time.Now())

	var deleted uuid.UUID
	repo := &fakeFriendshipRepo{
		findByPairFn: func(ctx context.Context, a, b uuid.UUID) (*entity.Friendship, error) {
			return accepted, nil
		},
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			deleted = id
			return nil
		},
	}
	svc := NewFriendshipService(repo, existingUserRepo(), nil)

	require.NoError(t, svc.Remove(context.Background(), actor, other))
	assert.Equal(t, friendshipID, deleted)
}

func TestRemove_NoRecord(t *testing.T) {
	repo := &fakeFriendshipRepo{
		findByPairFn: func(ctx context.Context, a, b uuid.UUID) (*entity.Friendship, error) {
			return nil, nil
		},
	}
	svc := NewFriendshipService(repo, existingUserRepo(), nil)

	err := svc.Remove(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListFriends_ResolvesOtherSide(t *testing.T) {
	actor := uuid.New()
	friendA := &entity.User{ID: uuid.New(), Username: "alice", Name: "Alice"}
	friendB := &entity.User{ID: uuid.New(), Username: "bob", Name: "Bob"}
	actorUser := &entity.User{ID: actor, Username: "me", Name: "Me"}

	asRequester := entity.Friendship{ID: uuid.New(), RequesterID: actor, RecipientID: friendA.ID, Requester: actorUser, Recipient: friendA}
	asRequester.Set(entity.FriendshipAccepted, time.Now())
	asRecipient := entity.Friendship{ID: uuid.New(), RequesterID: friendB.ID, RecipientID: actor, Requester: friendB, Recipient: actorUser}
	asRecipient.Set(entity.FriendshipAccepted, time.Now())

	repo := &fakeFriendshipRepo{
		listAcceptedFn: func(ctx context.Context, a uuid.UUID) ([]entity.Friendship, error) {
			return []entity.Friendship{asRequester, asRecipient}, nil
		},
	}
	svc := NewFriendshipService(repo, existingUserRepo(), nil)

	friends, err := svc.ListFriends(context.Background(), actor)

	require.NoError(t, err)
	require.Len(t, friends, 2)
	assert.Equal(t, "alice", friends[0].Friend.Username)
	assert.Equal(t, "bob", friends[1].Friend.Username)
}

func TestStatusBetween(t *testing.T) {
	actor := uuid.New()
	other := uuid.New()

	t.Run("none", func(t *testing.T) {
		svc := NewFriendshipService(&fakeFriendshipRepo{}, existingUserRepo(), nil)
		status, id, err := svc.StatusBetween(context.Background(), actor, other)
		require.NoError(t, err)
		assert.Equal(t, friendshipDto.StatusNone, status)
		assert.Nil(t, id)
	})

	t.Run("requested and pending are direction-dependent", func(t *testing.T) {
		pending := &entity.Friendship{ID: uuid.New(), RequesterID: actor, RecipientID: other}
		pending.Set(entity.FriendshipPending, time.Now())
		repo := &fakeFriendshipRepo{
			findByPairFn: func(ctx context.Context, a, b uuid.UUID) (*entity.Friendship, error) {
				return pending, nil
			},
		}
		svc := NewFriendshipService(repo, existingUserRepo(), nil)

		status, id, err := svc.StatusBetween(context.Background(), actor, other)
		require.NoError(t, err)
		assert.Equal(t, friendshipDto.StatusRequested, status)
		require.NotNil(t, id)
		assert.Equal(t, pending.ID, *id)

		status, _, err = svc.StatusBetween(context.Background(), other, actor)
		require.NoError(t, err)
		assert.Equal(t, friendshipDto.StatusPending, status)
	})

	t.Run("friends", func(t *testing.T) {
		accepted := &entity.Friendship{ID: uuid.New(), RequesterID: other, RecipientID: actor}
		accepted.Set(entity.FriendshipAccepted, time.Now())
		repo := &fakeFriendshipRepo{
			findByPairFn: func(ctx context.Context, a, b uuid.UUID) (*entity.Friendship, error) {
				return accepted, nil
			},
		}
		svc := NewFriendshipService(repo, existingUserRepo(), nil)

		status, _, err := svc.StatusBetween(context.Background(), actor, other)
		require.NoError(t, err)
		assert.Equal(t, friendshipDto.StatusFriends, status)
	})
}
