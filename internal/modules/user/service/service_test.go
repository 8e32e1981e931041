package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"uninet.id/campuslink/internal/entity"
	moderationService "uninet.id/campuslink/internal/modules/moderation/service"
	userDto "uninet.id/campuslink/internal/modules/user/dto"
	"uninet.id/campuslink/pkg/apperror"
)

type fakeUserRepo struct {
	byEmail map[string]*entity.User
	byID    map[uuid.UUID]*entity.User
	created []*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: map[string]*entity.User{},
		byID:    map[uuid.UUID]*entity.User{},
	}
}

func (f *fakeUserRepo) add(u *entity.User) {
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
}

func (f *fakeUserRepo) Create(ctx context.Context, u *entity.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.add(u)
	f.created = append(f.created, u)
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	u, ok := f.byID[uid]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeUserRepo) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	return &entity.Role{ID: 2, Name: name}, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *entity.User) error { return nil }
func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error   { return nil }
func (f *fakeUserRepo) Search(ctx context.Context, query string, exclude uuid.UUID, limit int) ([]entity.User, error) {
	var out []entity.User
	for _, u := range f.byID {
		if u.ID != exclude {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeModerationRepo struct {
	reactivated bool
}

func (f *fakeModerationRepo) SaveState(ctx context.Context, user *entity.User) error { return nil }
func (f *fakeModerationRepo) ReactivateIfExpired(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	f.reactivated = true
	return true, nil
}
func (f *fakeModerationRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
func (f *fakeModerationRepo) ListUsers(ctx context.Context, query, status string, page, limit int) ([]entity.User, int64, error) {
	return nil, 0, nil
}

func intPtr(v int) *int { return &v }

func seedUser(repo *fakeUserRepo, password string) *entity.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &entity.User{
		ID:            uuid.New(),
		Username:      "student",
		Email:         "student@campus.test",
		PasswordHash:  string(hash),
		Name:          "Student",
		Role:          entity.Role{Name: entity.RoleStudent},
		AccountStatus: entity.AccountActive,
	}
	repo.add(u)
	return u
}

func newService(users *fakeUserRepo, modRepo *fakeModerationRepo) UserService {
	moderation := moderationService.NewModerationService(modRepo, users, nil)
	return NewUserService(users, nil, moderation, nil, "test-secret", 60)
}

func TestLogin(t *testing.T) {
	t.Run("success issues token", func(t *testing.T) {
		users := newFakeUserRepo()
		seedUser(users, "hunter2hunter2")
		svc := newService(users, &fakeModerationRepo{})

		auth, err := svc.Login(context.Background(), userDto.LoginInput{
			Email:    "student@campus.test",
			Password: "hunter2hunter2",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, auth.Token)
		assert.Equal(t, "student", auth.User.Username)
		assert.Equal(t, entity.RoleStudent, auth.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := newFakeUserRepo()
		seedUser(users, "hunter2hunter2")
		svc := newService(users, &fakeModerationRepo{})

		_, err := svc.Login(context.Background(), userDto.LoginInput{
			Email:    "student@campus.test",
			Password: "wrong",
		})
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("suspended account is rejected with status", func(t *testing.T) {
		users := newFakeUserRepo()
		u := seedUser(users, "hunter2hunter2")
		entity.ApplyAccountState(u, entity.SuspendedState("spam", nil, time.Now()))
		svc := newService(users, &fakeModerationRepo{})

		_, err := svc.Login(context.Background(), userDto.LoginInput{
			Email:    "student@campus.test",
			Password: "hunter2hunter2",
		})

		var restricted *AccountRestrictedError
		require.ErrorAs(t, err, &restricted)
		assert.Equal(t, "suspended", restricted.Status.Status)
		assert.Equal(t, "spam", restricted.Status.Reason)
		assert.True(t, errors.Is(err, apperror.ErrForbidden))
	})

	t.Run("banned account is rejected", func(t *testing.T) {
		users := newFakeUserRepo()
		u := seedUser(users, "hunter2hunter2")
		entity.ApplyAccountState(u, entity.BannedState("harassment", time.Now()))
		svc := newService(users, &fakeModerationRepo{})

		_, err := svc.Login(context.Background(), userDto.LoginInput{
			Email:    "student@campus.test",
			Password: "hunter2hunter2",
		})

		var restricted *AccountRestrictedError
		require.ErrorAs(t, err, &restricted)
		assert.Equal(t, "banned", restricted.Status.Status)
	})

	t.Run("expired suspension is lifted on login", func(t *testing.T) {
		users := newFakeUserRepo()
		u := seedUser(users, "hunter2hunter2")
		// Suspended 25 hours ago for 24 hours.
		entity.ApplyAccountState(u, entity.SuspendedState("spam", intPtr(24), time.Now().Add(-25*time.Hour)))
		modRepo := &fakeModerationRepo{}
		svc := newService(users, modRepo)

		auth, err := svc.Login(context.Background(), userDto.LoginInput{
			Email:    "student@campus.test",
			Password: "hunter2hunter2",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, auth.Token)
		assert.True(t, modRepo.reactivated)
		assert.Equal(t, entity.AccountActive, u.AccountStatus)
	})
}

func TestRegister(t *testing.T) {
	t.Run("creates student with hashed password", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newService(users, &fakeModerationRepo{})

		auth, err := svc.Register(context.Background(), userDto.RegisterInput{
			Username: "newbie",
			Email:    "newbie@campus.test",
			Password: "correct-horse",
			Name:     "New Student",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, auth.Token)
		require.Len(t, users.created, 1)
		created := users.created[0]
		assert.NotEqual(t, "correct-horse", created.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("correct-horse")))
	})

	t.Run("duplicate email", func(t *testing.T) {
		users := newFakeUserRepo()
		seedUser(users, "x")
		svc := newService(users, &fakeModerationRepo{})

		_, err := svc.Register(context.Background(), userDto.RegisterInput{
			Username: "other",
			Email:    "student@campus.test",
			Password: "password123",
			Name:     "Other",
		})
		assert.ErrorIs(t, err, apperror.ErrAlreadyExists)
	})
}

func TestSearchUsers_FallsBackToDatabase(t *testing.T) {
	users := newFakeUserRepo()
	caller := seedUser(users, "x")
	other := &entity.User{ID: uuid.New(), Username: "other", Email: "o@campus.test", Name: "Other"}
	users.add(other)
	svc := newService(users, &fakeModerationRepo{})

	results, err := svc.SearchUsers(context.Background(), caller.ID, "oth")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "other", results[0].User.Username)
	assert.Equal(t, "none", results[0].FriendshipStatus)
}
