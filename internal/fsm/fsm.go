// Package fsm keeps the per-admin state of multi-step panel dialogues.
// State lives in memory only; a restart drops unfinished forms, which is
// acceptable because every form is a short interactive exchange.
package fsm

import (
	"sync"
	"time"

	"giveaway-bot/internal/model"
)

// State identifies the step an admin dialogue is waiting on.
type State string

const (
	StateIdle State = ""

	// Create flow.
	StateCreateTitle       State = "create_title"
	StateCreateDescription State = "create_description"
	StateCreateMedia       State = "create_media"
	StateCreatePlaces      State = "create_places"
	StateCreateChannel     State = "create_channel"
	StateCreateEndTime     State = "create_end_time"
	StateCreateConfirm     State = "create_confirm"

	// Edit flow.
	StateEditChooseField State = "edit_choose_field"
	StateEditTitle       State = "edit_title"
	StateEditDescription State = "edit_description"
	StateEditMedia       State = "edit_media"
	StateEditEndTime     State = "edit_end_time"

	// Roster management.
	StateAddAdminID     State = "add_admin_id"
	StateAddChannelLink State = "add_channel_link"
)

// Form accumulates the answers of a dialogue in progress.
type Form struct {
	State State

	// Create flow fields.
	Title        string
	Description  string
	MediaType    string
	MediaFileID  string
	WinnerPlaces int
	ChannelID    int64
	ChannelName  string
	EndTime      time.Time

	// Edit flow target.
	GiveawayID int64
}

// Spec converts an accumulated create form into a giveaway spec.
func (f *Form) Spec(createdBy int64) model.GiveawaySpec {
	spec := model.GiveawaySpec{
		Title:        f.Title,
		Description:  f.Description,
		WinnerPlaces: f.WinnerPlaces,
		ChannelID:    f.ChannelID,
		EndTime:      f.EndTime,
		CreatedBy:    createdBy,
	}
	if f.MediaType != "" {
		mt, fid := f.MediaType, f.MediaFileID
		spec.MediaType = &mt
		spec.MediaFileID = &fid
	}
	return spec
}

// Store holds the forms of all admins currently mid-dialogue.
type Store struct {
	mu    sync.Mutex
	forms map[int64]*Form
}

func NewStore() *Store {
	return &Store{forms: make(map[int64]*Form)}
}

// Update applies fn to the user's form under the store lock, creating an
// idle form if absent. Telebot runs every update in its own goroutine, so
// all form mutation goes through here.
func (s *Store) Update(userID int64, fn func(*Form)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[userID]
	if !ok {
		f = &Form{}
		s.forms[userID] = f
	}
	fn(f)
}

// Snapshot returns a copy of the user's form for reading.
func (s *Store) Snapshot(userID int64) Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.forms[userID]; ok {
		return *f
	}
	return Form{}
}

// State returns the current dialogue state without allocating a form.
func (s *Store) State(userID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.forms[userID]; ok {
		return f.State
	}
	return StateIdle
}

// SetState moves the user's dialogue to the given step.
func (s *Store) SetState(userID int64, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[userID]
	if !ok {
		f = &Form{}
		s.forms[userID] = f
	}
	f.State = state
}

// Begin drops any previous form and starts a fresh dialogue at state.
func (s *Store) Begin(userID int64, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[userID] = &Form{State: state}
}

// Clear ends the user's dialogue and discards its form.
func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.forms, userID)
}
