// Package scheduler maintains the process-wide table of pending giveaway
// finish events. The table holds at most one timer per giveaway, is rebuilt
// from the database on startup, and also drives the retention sweep of old
// finished giveaways.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"giveaway-bot/internal/model"
	"giveaway-bot/internal/repository"
	"giveaway-bot/internal/service"
)

// Finisher performs the idempotent finish transition of a giveaway.
// Implemented by service.GiveawayService.
type Finisher interface {
	Finish(ctx context.Context, giveawayID int64) error
}

// Store is the slice of the entity store the scheduler needs: rebuilding the
// timer table after a restart and purging stale finished giveaways.
type Store interface {
	ListActive(ctx context.Context) ([]*model.Giveaway, error)
	PurgeFinishedOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// pendingEvent pairs a timer with the sequence number of its registration.
// The number lets a firing event recognize that it was replaced while its
// callback was waiting on the table lock.
type pendingEvent struct {
	timer *time.Timer
	seq   uint64
}

// Scheduler owns the pending fire-at events. All methods are safe for
// concurrent use.
type Scheduler struct {
	store    Store
	finisher Finisher

	retryAttempts int
	retryBackoff  time.Duration

	mu     sync.Mutex
	seq    uint64
	timers map[int64]*pendingEvent
}

// New creates a Scheduler. A Finisher must be attached with SetFinisher
// before any event can fire; the split exists because the lifecycle service
// and the scheduler reference each other through interfaces.
func New(store Store, retryAttempts int, retryBackoff time.Duration) *Scheduler {
	if retryAttempts < 0 {
		retryAttempts = 0
	}
	return &Scheduler{
		store:         store,
		retryAttempts: retryAttempts,
		retryBackoff:  retryBackoff,
		timers:        make(map[int64]*pendingEvent),
	}
}

// SetFinisher attaches the finish transition. Must be called once during
// wiring, before Register or RecoverOnStartup.
func (s *Scheduler) SetFinisher(f Finisher) {
	s.finisher = f
}

// Register schedules the finish event of a giveaway. An already pending
// event for the same id is replaced, never duplicated.
func (s *Scheduler) Register(giveawayID int64, fireAt time.Time) {
	delay := time.Until(fireAt)
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	if old, ok := s.timers[giveawayID]; ok {
		old.timer.Stop()
	}
	s.seq++
	ev := &pendingEvent{seq: s.seq}
	seq := ev.seq
	ev.timer = time.AfterFunc(delay, func() {
		s.fire(giveawayID, seq)
	})
	s.timers[giveawayID] = ev
	s.mu.Unlock()

	log.Info().
		Int64("giveaway_id", giveawayID).
		Time("fire_at", fireAt).
		Msg("Giveaway finish scheduled")
}

// Cancel drops the pending event of a giveaway. No-op when none is pending;
// a finish that already started executing cannot be cancelled and resolves
// through the status guard instead.
func (s *Scheduler) Cancel(giveawayID int64) {
	s.mu.Lock()
	ev, ok := s.timers[giveawayID]
	if ok {
		ev.timer.Stop()
		delete(s.timers, giveawayID)
	}
	s.mu.Unlock()

	if ok {
		log.Info().Int64("giveaway_id", giveawayID).Msg("Giveaway finish unscheduled")
	}
}

// Pending returns the number of pending events, for observability.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// RecoverOnStartup rebuilds the timer table from all persisted active
// giveaways. Future end times get a fresh timer; end times that passed while
// the process was down fire immediately through the same idempotent finish
// path, so a missed deadline still resolves exactly once. Returns the number
// of events re-registered.
func (s *Scheduler) RecoverOnStartup(ctx context.Context) (int, error) {
	active, err := s.store.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	for _, g := range active {
		if g.EndTime.After(now) {
			s.Register(g.ID, g.EndTime)
		} else {
			log.Info().
				Int64("giveaway_id", g.ID).
				Time("end_time", g.EndTime).
				Msg("Giveaway end time passed while offline, finishing now")
			id := g.ID
			// Sequence 0 is never issued, so an overdue single-shot fire
			// cannot evict a pending table entry
			go s.fire(id, 0)
		}
	}

	log.Info().Int("count", len(active)).Msg("Active giveaways rescheduled")
	return len(active), nil
}

// Shutdown stops all pending timers. Events are not lost: the next startup
// recovery pass re-derives them from the stored active giveaways.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	for id, ev := range s.timers {
		ev.timer.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()
}

// fire executes a due finish event with bounded retries. Conflict and
// not-found outcomes mean the giveaway was resolved or removed by somebody
// else and end the retries quietly; transient failures are retried, and
// exhaustion is logged without taking the process or other events down.
func (s *Scheduler) fire(giveawayID int64, seq uint64) {
	s.mu.Lock()
	// Drop only this event's own entry. If Register replaced it while the
	// callback was waiting on the lock, the replacement keeps its handle and
	// stays cancellable.
	if ev, ok := s.timers[giveawayID]; ok && ev.seq == seq {
		delete(s.timers, giveawayID)
	}
	s.mu.Unlock()

	ctx := context.Background()

	var err error
	for attempt := 0; attempt <= s.retryAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(s.retryBackoff * time.Duration(attempt))
		}

		err = s.finisher.Finish(ctx, giveawayID)
		if err == nil {
			return
		}
		if errors.Is(err, service.ErrAlreadyFinished) || errors.Is(err, repository.ErrGiveawayNotFound) {
			log.Debug().
				Int64("giveaway_id", giveawayID).
				Msg("Finish event already resolved")
			return
		}

		log.Warn().
			Err(err).
			Int64("giveaway_id", giveawayID).
			Int("attempt", attempt+1).
			Msg("Giveaway finish failed, will retry")
	}

	log.Error().
		Err(err).
		Int64("giveaway_id", giveawayID).
		Msg("Giveaway finish abandoned after retries")
}

// RunSweeper blocks, purging finished giveaways older than the retention
// window at the given interval, until the context is cancelled.
func (s *Scheduler) RunSweeper(ctx context.Context, retention, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().
		Dur("retention", retention).
		Dur("interval", interval).
		Msg("Retention sweeper started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Retention sweeper stopped")
			return
		case <-ticker.C:
			removed, err := s.store.PurgeFinishedOlderThan(ctx, retention)
			if err != nil {
				log.Error().Err(err).Msg("Retention sweep failed")
				continue
			}
			if removed > 0 {
				log.Info().Int("removed", removed).Msg("Old finished giveaways purged")
			}
		}
	}
}
