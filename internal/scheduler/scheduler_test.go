package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giveaway-bot/internal/model"
	"giveaway-bot/internal/repository"
	"giveaway-bot/internal/service"
)

// fakeFinisher records finish calls and can fail a configured number of
// times per giveaway. With resolveOnce set it mimics the real lifecycle
// guard: the first successful call wins, every later one reports the
// giveaway as already finished.
type fakeFinisher struct {
	mu          sync.Mutex
	calls       map[int64]int
	failures    map[int64]int
	err         error
	resolveOnce bool
	resolved    map[int64]bool
	done        chan int64
}

func newFakeFinisher() *fakeFinisher {
	return &fakeFinisher{
		calls:    make(map[int64]int),
		failures: make(map[int64]int),
		err:      errors.New("transient failure"),
		resolved: make(map[int64]bool),
		done:     make(chan int64, 16),
	}
}

func (f *fakeFinisher) Finish(ctx context.Context, giveawayID int64) error {
	f.mu.Lock()
	f.calls[giveawayID]++
	remaining := f.failures[giveawayID]
	if remaining > 0 {
		f.failures[giveawayID]--
		f.mu.Unlock()
		return f.err
	}
	if f.resolveOnce {
		if f.resolved[giveawayID] {
			f.mu.Unlock()
			return service.ErrAlreadyFinished
		}
		f.resolved[giveawayID] = true
	}
	f.mu.Unlock()
	f.done <- giveawayID
	return nil
}

func (f *fakeFinisher) callCount(giveawayID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[giveawayID]
}

// fakeStore serves a fixed set of active giveaways.
type fakeStore struct {
	mu       sync.Mutex
	active   []*model.Giveaway
	listErr  error
	purged   int
	purges   int
	purgeErr error
}

func (s *fakeStore) ListActive(ctx context.Context) ([]*model.Giveaway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.active, nil
}

func (s *fakeStore) PurgeFinishedOlderThan(ctx context.Context, age time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purges++
	if s.purgeErr != nil {
		return 0, s.purgeErr
	}
	return s.purged, nil
}

func (s *fakeStore) purgeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purges
}

func waitForFire(t *testing.T, done chan int64, want int64) {
	t.Helper()
	select {
	case id := <-done:
		assert.Equal(t, want, id)
	case <-time.After(2 * time.Second):
		t.Fatalf("giveaway %d did not finish in time", want)
	}
}

func TestScheduler_RegisterFires(t *testing.T) {
	finisher := newFakeFinisher()
	s := New(&fakeStore{}, 0, time.Millisecond)
	s.SetFinisher(finisher)

	s.Register(1, time.Now().Add(10*time.Millisecond))
	waitForFire(t, finisher.done, 1)

	assert.Equal(t, 1, finisher.callCount(1))
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_PastDeadlineFiresImmediately(t *testing.T) {
	finisher := newFakeFinisher()
	s := New(&fakeStore{}, 0, time.Millisecond)
	s.SetFinisher(finisher)

	s.Register(2, time.Now().Add(-time.Hour))
	waitForFire(t, finisher.done, 2)
}

func TestScheduler_RegisterReplacesPendingEvent(t *testing.T) {
	finisher := newFakeFinisher()
	s := New(&fakeStore{}, 0, time.Millisecond)
	s.SetFinisher(finisher)

	s.Register(3, time.Now().Add(time.Hour))
	assert.Equal(t, 1, s.Pending())

	s.Register(3, time.Now().Add(10*time.Millisecond))
	assert.Equal(t, 1, s.Pending())

	waitForFire(t, finisher.done, 3)
	assert.Equal(t, 1, finisher.callCount(3))
}

func TestScheduler_Cancel(t *testing.T) {
	finisher := newFakeFinisher()
	s := New(&fakeStore{}, 0, time.Millisecond)
	s.SetFinisher(finisher)

	s.Register(4, time.Now().Add(20*time.Millisecond))
	s.Cancel(4)
	assert.Equal(t, 0, s.Pending())

	// Cancelling twice is harmless
	s.Cancel(4)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, finisher.callCount(4))
}

func TestScheduler_RetriesTransientFailures(t *testing.T) {
	finisher := newFakeFinisher()
	finisher.failures[5] = 2

	s := New(&fakeStore{}, 3, time.Millisecond)
	s.SetFinisher(finisher)

	s.Register(5, time.Now())
	waitForFire(t, finisher.done, 5)

	assert.Equal(t, 3, finisher.callCount(5))
}

func TestScheduler_StopsOnAlreadyFinished(t *testing.T) {
	finisher := newFakeFinisher()
	finisher.failures[6] = 100
	finisher.err = service.ErrAlreadyFinished

	s := New(&fakeStore{}, 5, time.Millisecond)
	s.SetFinisher(finisher)

	s.Register(6, time.Now())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, finisher.callCount(6))
}

func TestScheduler_StopsOnGiveawayGone(t *testing.T) {
	finisher := newFakeFinisher()
	finisher.failures[7] = 100
	finisher.err = repository.ErrGiveawayNotFound

	s := New(&fakeStore{}, 5, time.Millisecond)
	s.SetFinisher(finisher)

	s.Register(7, time.Now())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, finisher.callCount(7))
}

func TestScheduler_GivesUpAfterRetryBudget(t *testing.T) {
	finisher := newFakeFinisher()
	finisher.failures[8] = 100

	s := New(&fakeStore{}, 2, time.Millisecond)
	s.SetFinisher(finisher)

	s.Register(8, time.Now())

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 3, finisher.callCount(8))
}

func TestScheduler_RecoverOnStartup(t *testing.T) {
	finisher := newFakeFinisher()
	store := &fakeStore{
		active: []*model.Giveaway{
			{ID: 10, EndTime: time.Now().Add(time.Hour), Status: model.StatusActive},
			{ID: 11, EndTime: time.Now().Add(-time.Hour), Status: model.StatusActive},
		},
	}

	s := New(store, 0, time.Millisecond)
	s.SetFinisher(finisher)

	count, err := s.RecoverOnStartup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// The overdue giveaway finishes right away, the future one stays pending
	waitForFire(t, finisher.done, 11)
	assert.Equal(t, 1, s.Pending())
	assert.Equal(t, 0, finisher.callCount(10))
}

func TestScheduler_DoubleRecoveryResolvesOnce(t *testing.T) {
	finisher := newFakeFinisher()
	finisher.resolveOnce = true
	store := &fakeStore{
		active: []*model.Giveaway{
			{ID: 12, EndTime: time.Now().Add(-time.Hour), Status: model.StatusActive},
		},
	}

	s := New(store, 0, time.Millisecond)
	s.SetFinisher(finisher)

	// A second recovery pass over the same overdue giveaway must not
	// resolve it twice
	for i := 0; i < 2; i++ {
		_, err := s.RecoverOnStartup(context.Background())
		require.NoError(t, err)
	}

	waitForFire(t, finisher.done, 12)
	require.Eventually(t, func() bool {
		return finisher.callCount(12) == 2
	}, 2*time.Second, 5*time.Millisecond)

	select {
	case <-finisher.done:
		t.Fatal("overdue giveaway resolved twice")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_StaleFireKeepsReplacementPending(t *testing.T) {
	finisher := newFakeFinisher()
	s := New(&fakeStore{}, 0, time.Millisecond)
	s.SetFinisher(finisher)

	s.Register(13, time.Now().Add(time.Hour))
	require.Equal(t, 1, s.Pending())

	// A fire whose registration was already replaced carries a stale
	// sequence number and must not evict the current entry
	s.fire(13, 0)
	waitForFire(t, finisher.done, 13)
	assert.Equal(t, 1, s.Pending())

	// The surviving handle still cancels
	s.Cancel(13)
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_RecoverOnStartupListFailure(t *testing.T) {
	store := &fakeStore{listErr: errors.New("db down")}
	s := New(store, 0, time.Millisecond)
	s.SetFinisher(newFakeFinisher())

	_, err := s.RecoverOnStartup(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_Shutdown(t *testing.T) {
	finisher := newFakeFinisher()
	s := New(&fakeStore{}, 0, time.Millisecond)
	s.SetFinisher(finisher)

	s.Register(20, time.Now().Add(time.Hour))
	s.Register(21, time.Now().Add(time.Hour))
	require.Equal(t, 2, s.Pending())

	s.Shutdown()
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_RunSweeper(t *testing.T) {
	store := &fakeStore{purged: 3}
	s := New(store, 0, time.Millisecond)
	s.SetFinisher(newFakeFinisher())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunSweeper(ctx, 15*24*time.Hour, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return store.purgeCount() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}
