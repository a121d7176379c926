package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giveaway-bot/internal/model"
	"giveaway-bot/internal/repository"
)

// memRoster is an in-memory AdminStore and ChannelStore.
type memRoster struct {
	mu       sync.Mutex
	admins   map[int64]*model.Admin
	channels map[int64]*model.Channel
}

func newMemRoster() *memRoster {
	return &memRoster{
		admins:   make(map[int64]*model.Admin),
		channels: make(map[int64]*model.Channel),
	}
}

func (m *memRoster) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.admins[userID]
	return ok, nil
}

func (m *memRoster) Add(ctx context.Context, userID int64, username, firstName *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.admins[userID]; ok {
		return repository.ErrAlreadyExists
	}
	m.admins[userID] = &model.Admin{UserID: userID, Username: username, FirstName: firstName}
	return nil
}

func (m *memRoster) Remove(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[userID]
	if !ok || a.IsMainAdmin {
		return repository.ErrAdminNotFound
	}
	delete(m.admins, userID)
	return nil
}

func (m *memRoster) List(ctx context.Context) ([]*model.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Admin
	for _, a := range m.admins {
		out = append(out, a)
	}
	return out, nil
}

func (m *memRoster) UpdateProfile(ctx context.Context, userID int64, username, firstName *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.admins[userID]; ok {
		a.Username = username
		a.FirstName = firstName
	}
	return nil
}

func (m *memRoster) AddChannel(ctx context.Context, channelID int64, name string, username *string, addedBy int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.channels[channelID]; ok {
		return repository.ErrAlreadyExists
	}
	m.channels[channelID] = &model.Channel{
		ChannelID: channelID, ChannelName: name, ChannelUsername: username, AddedBy: addedBy,
	}
	return nil
}

func (m *memRoster) GetByChannelID(ctx context.Context, channelID int64) (*model.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[channelID]
	if !ok {
		return nil, repository.ErrChannelNotFound
	}
	return ch, nil
}

func (m *memRoster) ListChannels(ctx context.Context) ([]*model.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Channel
	for _, ch := range m.channels {
		out = append(out, ch)
	}
	return out, nil
}

func (m *memRoster) RemoveChannel(ctx context.Context, channelID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.channels[channelID]; !ok {
		return repository.ErrChannelNotFound
	}
	delete(m.channels, channelID)
	return nil
}

// channelStoreAdapter maps memRoster onto the ChannelStore method set.
type channelStoreAdapter struct{ *memRoster }

func (a channelStoreAdapter) Add(ctx context.Context, channelID int64, name string, username *string, addedBy int64) error {
	return a.AddChannel(ctx, channelID, name, username, addedBy)
}

func (a channelStoreAdapter) List(ctx context.Context) ([]*model.Channel, error) {
	return a.ListChannels(ctx)
}

func (a channelStoreAdapter) Remove(ctx context.Context, channelID int64) error {
	return a.RemoveChannel(ctx, channelID)
}

// fakeResolver resolves a fixed set of channel usernames.
type fakeResolver struct {
	known map[string]int64
	err   error
}

func (f *fakeResolver) ResolveChannel(ctx context.Context, username string) (int64, string, error) {
	if f.err != nil {
		return 0, "", f.err
	}
	id, ok := f.known[username]
	if !ok {
		return 0, "", ErrChannelUnavailable
	}
	return id, "Канал " + username, nil
}

func newRosterFixture() (*RosterService, *memRoster, *fakeResolver) {
	store := newMemRoster()
	resolver := &fakeResolver{known: map[string]int64{"news": -100100}}
	svc := NewRosterService(store, channelStoreAdapter{store}, resolver)
	return svc, store, resolver
}

func TestCleanChannelUsername(t *testing.T) {
	cases := map[string]string{
		"@news":              "news",
		"news":               "news",
		"https://t.me/news":  "news",
		"http://t.me/news":   "news",
		"t.me/news":          "news",
		"  @news  ":          "news",
		"https://t.me/@news": "news",
		"":                   "",
		"   ":                "",
	}
	for input, want := range cases {
		assert.Equal(t, want, CleanChannelUsername(input), "input %q", input)
	}
}

func TestAddChannelByLink(t *testing.T) {
	svc, store, _ := newRosterFixture()
	ctx := context.Background()

	title, err := svc.AddChannelByLink(ctx, "https://t.me/news", 42)
	require.NoError(t, err)
	assert.Equal(t, "Канал news", title)

	ch, err := store.GetByChannelID(ctx, -100100)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ch.AddedBy)
	require.NotNil(t, ch.ChannelUsername)
	assert.Equal(t, "news", *ch.ChannelUsername)
}

func TestAddChannelByLink_Duplicate(t *testing.T) {
	svc, _, _ := newRosterFixture()
	ctx := context.Background()

	_, err := svc.AddChannelByLink(ctx, "@news", 42)
	require.NoError(t, err)

	_, err = svc.AddChannelByLink(ctx, "@news", 42)
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestAddChannelByLink_Unresolvable(t *testing.T) {
	svc, _, _ := newRosterFixture()
	ctx := context.Background()

	_, err := svc.AddChannelByLink(ctx, "@unknown", 42)
	assert.ErrorIs(t, err, ErrChannelUnavailable)

	_, err = svc.AddChannelByLink(ctx, "   ", 42)
	assert.ErrorIs(t, err, ErrChannelUnavailable)
}

func TestAddChannelByLink_ResolverRejections(t *testing.T) {
	svc, _, resolver := newRosterFixture()
	ctx := context.Background()

	resolver.err = ErrNotChannel
	_, err := svc.AddChannelByLink(ctx, "@news", 42)
	assert.ErrorIs(t, err, ErrNotChannel)

	resolver.err = ErrBotNotChannelAdmin
	_, err = svc.AddChannelByLink(ctx, "@news", 42)
	assert.ErrorIs(t, err, ErrBotNotChannelAdmin)
}

func TestAdminRoster(t *testing.T) {
	svc, store, _ := newRosterFixture()
	ctx := context.Background()

	require.NoError(t, svc.AddAdmin(ctx, 100))
	assert.ErrorIs(t, svc.AddAdmin(ctx, 100), repository.ErrAlreadyExists)

	ok, err := svc.IsAdmin(ctx, 100)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.RemoveAdmin(ctx, 100))
	ok, err = svc.IsAdmin(ctx, 100)
	require.NoError(t, err)
	assert.False(t, ok)

	// The main admin survives removal attempts
	store.admins[1] = &model.Admin{UserID: 1, IsMainAdmin: true}
	assert.ErrorIs(t, svc.RemoveAdmin(ctx, 1), repository.ErrAdminNotFound)
	ok, _ = svc.IsAdmin(ctx, 1)
	assert.True(t, ok)
}
