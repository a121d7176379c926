package fsm

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_IdleByDefault(t *testing.T) {
	s := NewStore()
	assert.Equal(t, StateIdle, s.State(1))
}

func TestStore_BeginResetsForm(t *testing.T) {
	s := NewStore()

	s.Begin(1, StateCreateTitle)
	s.Update(1, func(f *Form) { f.Title = "старый заголовок" })

	s.Begin(1, StateCreateTitle)
	assert.Empty(t, s.Snapshot(1).Title)
	assert.Equal(t, StateCreateTitle, s.State(1))
}

func TestStore_UpdateAccumulates(t *testing.T) {
	s := NewStore()

	s.Begin(1, StateCreateTitle)
	s.Update(1, func(f *Form) {
		f.Title = "Приз"
		f.State = StateCreateDescription
	})
	s.Update(1, func(f *Form) {
		f.Description = "Описание"
		f.State = StateCreateMedia
	})

	f := s.Snapshot(1)
	assert.Equal(t, "Приз", f.Title)
	assert.Equal(t, "Описание", f.Description)
	assert.Equal(t, StateCreateMedia, f.State)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := NewStore()

	s.Begin(1, StateCreateTitle)
	f := s.Snapshot(1)
	f.Title = "локальное изменение"

	assert.Empty(t, s.Snapshot(1).Title)
}

func TestStore_ClearDropsForm(t *testing.T) {
	s := NewStore()

	s.Begin(1, StateCreateDescription)
	s.Clear(1)
	assert.Equal(t, StateIdle, s.State(1))

	// Clearing an absent form is harmless
	s.Clear(2)
}

func TestStore_IsolatesUsers(t *testing.T) {
	s := NewStore()

	s.Begin(1, StateCreateTitle)
	s.Begin(2, StateAddChannelLink)

	assert.Equal(t, StateCreateTitle, s.State(1))
	assert.Equal(t, StateAddChannelLink, s.State(2))

	s.Clear(1)
	assert.Equal(t, StateIdle, s.State(1))
	assert.Equal(t, StateAddChannelLink, s.State(2))
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Begin(id, StateCreateTitle)
			s.SetState(id, StateCreateDescription)
			_ = s.State(id)
			s.Clear(id)
		}(i)
	}
	wg.Wait()

	for i := int64(0); i < 50; i++ {
		assert.Equal(t, StateIdle, s.State(i))
	}
}

func TestStore_ConcurrentUpdatesSameUser(t *testing.T) {
	s := NewStore()
	s.Begin(1, StateCreateTitle)

	// Rapid messages from one admin are handled in separate goroutines;
	// every mutation must land
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(1, func(f *Form) { f.WinnerPlaces++ })
			_ = s.Snapshot(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, s.Snapshot(1).WinnerPlaces)
}

func TestForm_Spec(t *testing.T) {
	end := time.Date(2025, 12, 25, 15, 0, 0, 0, time.UTC)
	f := &Form{
		Title:        "Приз",
		Description:  "Описание",
		MediaType:    "photo",
		MediaFileID:  "file123",
		WinnerPlaces: 3,
		ChannelID:    -100500,
		EndTime:      end,
	}

	spec := f.Spec(42)
	assert.Equal(t, "Приз", spec.Title)
	assert.Equal(t, int64(42), spec.CreatedBy)
	assert.Equal(t, end, spec.EndTime)
	require.NotNil(t, spec.MediaType)
	assert.Equal(t, "photo", *spec.MediaType)
	require.NotNil(t, spec.MediaFileID)
	assert.Equal(t, "file123", *spec.MediaFileID)
}

func TestForm_SpecWithoutMedia(t *testing.T) {
	f := &Form{Title: "Без медиа", WinnerPlaces: 1}

	spec := f.Spec(7)
	assert.Nil(t, spec.MediaType)
	assert.Nil(t, spec.MediaFileID)
}
