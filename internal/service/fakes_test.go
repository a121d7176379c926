package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"giveaway-bot/internal/model"
	"giveaway-bot/internal/repository"
)

// memStore is an in-memory GiveawayStore, ParticipantStore and WinnerStore
// with the same status-guard semantics as the PostgreSQL repositories.
type memStore struct {
	mu           sync.Mutex
	nextID       int64
	giveaways    map[int64]*model.Giveaway
	participants map[int64][]*model.Participant
	winners      map[int64][]*model.Winner
	updateErr    error
}

func newMemStore() *memStore {
	return &memStore{
		nextID:       1,
		giveaways:    make(map[int64]*model.Giveaway),
		participants: make(map[int64][]*model.Participant),
		winners:      make(map[int64][]*model.Winner),
	}
}

func (m *memStore) Create(ctx context.Context, spec *model.GiveawaySpec) (*model.Giveaway, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := &model.Giveaway{
		ID:           m.nextID,
		Title:        spec.Title,
		Description:  spec.Description,
		MediaType:    spec.MediaType,
		MediaFileID:  spec.MediaFileID,
		ChannelID:    spec.ChannelID,
		StartTime:    time.Now(),
		EndTime:      spec.EndTime,
		Status:       model.StatusActive,
		WinnerPlaces: spec.WinnerPlaces,
		CreatedBy:    spec.CreatedBy,
		CreatedAt:    time.Now(),
	}
	m.nextID++
	m.giveaways[g.ID] = g
	return copyGiveaway(g), nil
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*model.Giveaway, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.giveaways[id]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}
	return copyGiveaway(g), nil
}

func (m *memStore) ListActive(ctx context.Context) ([]*model.Giveaway, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Giveaway
	for _, g := range m.giveaways {
		if g.Status == model.StatusActive {
			out = append(out, copyGiveaway(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) listFinished() []*model.Giveaway {
	var out []*model.Giveaway
	for _, g := range m.giveaways {
		if g.Status == model.StatusFinished {
			out = append(out, copyGiveaway(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.After(out[j].EndTime) })
	return out
}

func (m *memStore) ListFinishedPage(ctx context.Context, page, pageSize int) ([]*model.Giveaway, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	finished := m.listFinished()
	start := (page - 1) * pageSize
	if start >= len(finished) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(finished) {
		end = len(finished)
	}
	return finished[start:end], nil
}

func (m *memStore) CountFinished(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listFinished()), nil
}

func (m *memStore) UpdateFields(ctx context.Context, id int64, changes *model.FieldChanges) (*model.Giveaway, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	g, ok := m.giveaways[id]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}
	if g.Status != model.StatusActive {
		return nil, repository.ErrStatusConflict
	}
	if changes.Title != nil {
		g.Title = *changes.Title
	}
	if changes.Description != nil {
		g.Description = *changes.Description
	}
	if changes.MediaType != nil {
		g.MediaType = changes.MediaType
		g.MediaFileID = changes.MediaFileID
	}
	if changes.EndTime != nil {
		g.EndTime = *changes.EndTime
	}
	g.UpdatedAt = time.Now()
	return copyGiveaway(g), nil
}

func (m *memStore) SetMessageID(ctx context.Context, id, messageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.giveaways[id]
	if !ok {
		return repository.ErrGiveawayNotFound
	}
	g.MessageID = &messageID
	return nil
}

func (m *memStore) Finish(ctx context.Context, id int64, winners []*model.Winner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.giveaways[id]
	if !ok {
		return repository.ErrGiveawayNotFound
	}
	if g.Status != model.StatusActive {
		return repository.ErrStatusConflict
	}
	g.Status = model.StatusFinished
	m.winners[id] = winners
	return nil
}

func (m *memStore) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.giveaways[id]; !ok {
		return false, nil
	}
	delete(m.giveaways, id)
	delete(m.participants, id)
	delete(m.winners, id)
	return true, nil
}

func (m *memStore) Add(ctx context.Context, giveawayID, userID int64, username, firstName *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.participants[giveawayID] {
		if p.UserID == userID {
			return repository.ErrAlreadyExists
		}
	}
	m.participants[giveawayID] = append(m.participants[giveawayID], &model.Participant{
		GiveawayID: giveawayID,
		UserID:     userID,
		Username:   username,
		FirstName:  firstName,
		JoinedAt:   time.Now(),
	})
	return nil
}

func (m *memStore) Count(ctx context.Context, giveawayID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.participants[giveawayID]), nil
}

func (m *memStore) List(ctx context.Context, giveawayID int64) ([]*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Participant(nil), m.participants[giveawayID]...), nil
}

func (m *memStore) ListByGiveaway(ctx context.Context, giveawayID int64) ([]*model.Winner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Winner(nil), m.winners[giveawayID]...), nil
}

func copyGiveaway(g *model.Giveaway) *model.Giveaway {
	c := *g
	return &c
}

// memMessenger records channel operations and can fail publication.
type memMessenger struct {
	mu            sync.Mutex
	nextMessageID int64
	publishErr    error
	announceErr   error
	published     []int64
	deleted       []int64
	announced     []string
	announceReply []int64
}

func newMemMessenger() *memMessenger {
	return &memMessenger{nextMessageID: 100}
}

func (m *memMessenger) PublishGiveaway(ctx context.Context, g *model.Giveaway, participants int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return 0, m.publishErr
	}
	id := m.nextMessageID
	m.nextMessageID++
	m.published = append(m.published, id)
	return id, nil
}

func (m *memMessenger) DeleteMessage(ctx context.Context, channelID, messageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *memMessenger) Announce(ctx context.Context, channelID, replyTo int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.announceErr != nil {
		return m.announceErr
	}
	m.announced = append(m.announced, text)
	m.announceReply = append(m.announceReply, replyTo)
	return nil
}

// memSchedule records registered and cancelled finish events.
type memSchedule struct {
	mu         sync.Mutex
	registered map[int64]time.Time
	cancelled  []int64
}

func newMemSchedule() *memSchedule {
	return &memSchedule{registered: make(map[int64]time.Time)}
}

func (m *memSchedule) Register(giveawayID int64, fireAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered[giveawayID] = fireAt
}

func (m *memSchedule) Cancel(giveawayID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.registered, giveawayID)
	m.cancelled = append(m.cancelled, giveawayID)
}

func (m *memSchedule) fireAt(giveawayID int64) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.registered[giveawayID]
	return at, ok
}

func (m *memSchedule) wasCancelled(giveawayID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.cancelled {
		if id == giveawayID {
			return true
		}
	}
	return false
}
