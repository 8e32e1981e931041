package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"uninet.id/campuslink/internal/entity"
	channelDto "uninet.id/campuslink/internal/modules/channel/dto"
	"uninet.id/campuslink/pkg/apperror"
)

type fakeChannelRepo struct {
	channels map[uuid.UUID]*entity.Channel
	messages map[uuid.UUID]*entity.Message
	deleted  []uuid.UUID
}

func newFakeChannelRepo() *fakeChannelRepo {
	return &fakeChannelRepo{
		channels: map[uuid.UUID]*entity.Channel{},
		messages: map[uuid.UUID]*entity.Message{},
	}
}

func (f *fakeChannelRepo) Create(ctx context.Context, c *entity.Channel) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.channels[c.ID] = c
	return nil
}

func (f *fakeChannelRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Channel, error) {
	return f.channels[id], nil
}

func (f *fakeChannelRepo) FindByName(ctx context.Context, name string) (*entity.Channel, error) {
	for _, c := range f.channels {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeChannelRepo) List(ctx context.Context, search string) ([]entity.Channel, error) {
	return nil, nil
}

func (f *fakeChannelRepo) Update(ctx context.Context, c *entity.Channel) error { return nil }

func (f *fakeChannelRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.channels, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeChannelRepo) CreateMessage(ctx context.Context, m *entity.Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	f.messages[m.ID] = m
	return nil
}

func (f *fakeChannelRepo) FindMessageByID(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	return f.messages[id], nil
}

func (f *fakeChannelRepo) RecentMessages(ctx context.Context, channelID uuid.UUID, limit int) ([]entity.Message, error) {
	var out []entity.Message
	for _, m := range f.messages {
		if m.ChannelID == channelID {
			out = append(out, *m)
		}
	}
	return out, nil
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

func TestCreateChannel(t *testing.T) {
	ownerID := uuid.New()
	users := &fakeUserRepo{users: map[uuid.UUID]*entity.User{
		ownerID: {ID: ownerID, Username: "owner"},
	}}
	repo := newFakeChannelRepo()
	svc := NewChannelService(repo, users)

	channel, err := svc.Create(context.Background(), ownerID, channelDto.CreateChannelInput{
		Name:    "algorithms",
		Subject: "CS201",
	})
	require.NoError(t, err)
	assert.Equal(t, "owner", channel.OwnerName)

	_, err = svc.Create(context.Background(), ownerID, channelDto.CreateChannelInput{Name: "algorithms"})
	assert.ErrorIs(t, err, apperror.ErrAlreadyExists)
}

func TestPostMessage_SanitizesContent(t *testing.T) {
	userID := uuid.New()
	users := &fakeUserRepo{users: map[uuid.UUID]*entity.User{
		userID: {ID: userID, Username: "student"},
	}}
	repo := newFakeChannelRepo()
	svc := NewChannelService(repo, users)

	channel, err := svc.Create(context.Background(), userID, channelDto.CreateChannelInput{Name: "general"})
	require.NoError(t, err)

	msg, err := svc.PostMessage(context.Background(), userID, channel.ID, channelDto.PostMessageInput{
		Content: `hello <script>alert("x")</script>world`,
	})
	require.NoError(t, err)
	assert.NotContains(t, msg.Content, "<script>")
	assert.Contains(t, msg.Content, "hello")

	// Markup-only content collapses to empty and is rejected.
	_, err = svc.PostMessage(context.Background(), userID, channel.ID, channelDto.PostMessageInput{
		Content: `<img src="x">`,
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestDeleteChannel_OwnerOrAdmin(t *testing.T) {
	ownerID := uuid.New()
	users := &fakeUserRepo{users: map[uuid.UUID]*entity.User{
		ownerID: {ID: ownerID, Username: "owner"},
	}}
	repo := newFakeChannelRepo()
	svc := NewChannelService(repo, users)

	channel, err := svc.Create(context.Background(), ownerID, channelDto.CreateChannelInput{Name: "temp"})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), uuid.New(), false, channel.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), uuid.New(), true, channel.ID))
	assert.Len(t, repo.deleted, 1)
}
