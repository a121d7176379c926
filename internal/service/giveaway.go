// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"giveaway-bot/internal/draw"
	"giveaway-bot/internal/model"
	"giveaway-bot/internal/repository"
	"giveaway-bot/internal/texts"
)

// Lifecycle and validation errors.
var (
	ErrNotActive           = errors.New("giveaway is not active")
	ErrAlreadyFinished     = errors.New("giveaway already finished")
	ErrTitleTooLong        = errors.New("title too long")
	ErrDescriptionTooLong  = errors.New("description too long")
	ErrInvalidWinnerPlaces = errors.New("winner places out of range")
	ErrEndTimeNotFuture    = errors.New("end time is not in the future")
)

// GiveawayStore is the entity-store surface the lifecycle needs.
// Implemented by repository.GiveawayRepository.
type GiveawayStore interface {
	Create(ctx context.Context, spec *model.GiveawaySpec) (*model.Giveaway, error)
	GetByID(ctx context.Context, id int64) (*model.Giveaway, error)
	ListActive(ctx context.Context) ([]*model.Giveaway, error)
	ListFinishedPage(ctx context.Context, page, pageSize int) ([]*model.Giveaway, error)
	CountFinished(ctx context.Context) (int, error)
	UpdateFields(ctx context.Context, id int64, changes *model.FieldChanges) (*model.Giveaway, error)
	SetMessageID(ctx context.Context, id, messageID int64) error
	Finish(ctx context.Context, id int64, winners []*model.Winner) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// ParticipantStore is the participant surface the lifecycle needs.
// Implemented by repository.ParticipantRepository.
type ParticipantStore interface {
	Add(ctx context.Context, giveawayID, userID int64, username, firstName *string) error
	Count(ctx context.Context, giveawayID int64) (int, error)
	List(ctx context.Context, giveawayID int64) ([]*model.Participant, error)
}

// WinnerStore reads recorded winners. Implemented by repository.WinnerRepository.
type WinnerStore interface {
	ListByGiveaway(ctx context.Context, giveawayID int64) ([]*model.Winner, error)
}

// Messenger is the channel-messaging gateway. Implemented by the telegram
// bot adapter; announcement and deletion failures are best-effort for the
// lifecycle, the stored status stays authoritative.
type Messenger interface {
	PublishGiveaway(ctx context.Context, g *model.Giveaway, participants int) (int64, error)
	DeleteMessage(ctx context.Context, channelID, messageID int64) error
	Announce(ctx context.Context, channelID, replyTo int64, text string) error
}

// Schedule registers and cancels pending finish events.
// Implemented by scheduler.Scheduler.
type Schedule interface {
	Register(giveawayID int64, fireAt time.Time)
	Cancel(giveawayID int64)
}

// GiveawayService owns the giveaway lifecycle: it is the only writer of
// terminal statuses and the only component that draws winners.
type GiveawayService struct {
	giveaways    GiveawayStore
	participants ParticipantStore
	winners      WinnerStore
	messenger    Messenger
	schedule     Schedule
	now          func() time.Time
}

// NewGiveawayService creates a new GiveawayService instance.
func NewGiveawayService(
	giveaways GiveawayStore,
	participants ParticipantStore,
	winners WinnerStore,
	messenger Messenger,
	schedule Schedule,
) *GiveawayService {
	return &GiveawayService{
		giveaways:    giveaways,
		participants: participants,
		winners:      winners,
		messenger:    messenger,
		schedule:     schedule,
		now:          time.Now,
	}
}

func validateSpec(spec *model.GiveawaySpec, now time.Time) error {
	if len([]rune(spec.Title)) > model.MaxTitleLen {
		return ErrTitleTooLong
	}
	if len([]rune(spec.Description)) > model.MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if spec.WinnerPlaces < model.MinWinnerPlaces || spec.WinnerPlaces > model.MaxWinnerPlaces {
		return ErrInvalidWinnerPlaces
	}
	// The end time was validated when collected, but the form data may be
	// stale by the time the admin confirms
	if !spec.EndTime.After(now) {
		return ErrEndTimeNotFuture
	}
	return nil
}

// Create validates the collected spec, persists the giveaway, publishes the
// channel post and schedules the finish event. If publication fails the
// stored row is removed again - an active giveaway without a post must not
// exist.
func (s *GiveawayService) Create(ctx context.Context, spec *model.GiveawaySpec) (*model.Giveaway, error) {
	if err := validateSpec(spec, s.now()); err != nil {
		return nil, err
	}

	g, err := s.giveaways.Create(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to create giveaway: %w", err)
	}

	messageID, err := s.messenger.PublishGiveaway(ctx, g, 0)
	if err != nil {
		if _, delErr := s.giveaways.Delete(ctx, g.ID); delErr != nil {
			log.Error().Err(delErr).Int64("giveaway_id", g.ID).
				Msg("Failed to roll back giveaway after publish failure")
		}
		return nil, fmt.Errorf("failed to publish giveaway post: %w", err)
	}

	if err := s.giveaways.SetMessageID(ctx, g.ID, messageID); err != nil {
		log.Error().Err(err).Int64("giveaway_id", g.ID).Msg("Failed to store message id")
	}
	g.MessageID = &messageID

	s.schedule.Register(g.ID, g.EndTime)

	log.Info().
		Int64("giveaway_id", g.ID).
		Int64("channel_id", g.ChannelID).
		Time("end_time", g.EndTime).
		Msg("Giveaway created and published")
	return g, nil
}

func (s *GiveawayService) validateChanges(changes *model.FieldChanges) error {
	if changes.Title != nil && len([]rune(*changes.Title)) > model.MaxTitleLen {
		return ErrTitleTooLong
	}
	if changes.Description != nil && len([]rune(*changes.Description)) > model.MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if changes.EndTime != nil && !changes.EndTime.After(s.now()) {
		return ErrEndTimeNotFuture
	}
	return nil
}

// Edit applies a change set to an active giveaway. When the end time changes
// the pending finish event is replaced in the same step; the channel post is
// republished so the visible content and counter match the stored state.
// Editing a giveaway that finished meanwhile fails with ErrNotActive.
func (s *GiveawayService) Edit(ctx context.Context, id int64, changes *model.FieldChanges) (*model.Giveaway, error) {
	if changes.IsEmpty() {
		return s.giveaways.GetByID(ctx, id)
	}
	if err := s.validateChanges(changes); err != nil {
		return nil, err
	}

	oldG, err := s.giveaways.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !oldG.IsActive() {
		return nil, ErrNotActive
	}

	// Stop the old timer before persisting a new end time so it cannot fire
	// at the stale deadline between the update and the re-registration below
	if changes.EndTime != nil {
		s.schedule.Cancel(id)
	}

	updated, err := s.giveaways.UpdateFields(ctx, id, changes)
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrNotActive
		}
		// The stored end time is unchanged, put its timer back
		if changes.EndTime != nil {
			s.schedule.Register(id, oldG.EndTime)
		}
		return nil, fmt.Errorf("failed to update giveaway: %w", err)
	}

	if changes.EndTime != nil {
		s.schedule.Register(id, *changes.EndTime)
		log.Info().
			Int64("giveaway_id", id).
			Time("end_time", *changes.EndTime).
			Msg("Giveaway finish rescheduled")
	}

	s.republish(ctx, updated, oldG.MessageID)

	return updated, nil
}

// republish sends a fresh channel post for the giveaway, deletes the old one
// and stores the new message id. Posting is always a new message rather than
// an edit so the participate keyboard survives every change.
func (s *GiveawayService) republish(ctx context.Context, g *model.Giveaway, oldMessageID *int64) {
	count, err := s.participants.Count(ctx, g.ID)
	if err != nil {
		log.Error().Err(err).Int64("giveaway_id", g.ID).Msg("Failed to count participants for repost")
		count = 0
	}

	messageID, err := s.messenger.PublishGiveaway(ctx, g, count)
	if err != nil {
		log.Error().Err(err).Int64("giveaway_id", g.ID).Msg("Failed to republish giveaway post")
		return
	}

	if oldMessageID != nil {
		if err := s.messenger.DeleteMessage(ctx, g.ChannelID, *oldMessageID); err != nil {
			log.Warn().Err(err).Int64("giveaway_id", g.ID).Msg("Failed to delete old giveaway post")
		}
	}
	if err := s.giveaways.SetMessageID(ctx, g.ID, messageID); err != nil {
		log.Error().Err(err).Int64("giveaway_id", g.ID).Msg("Failed to store new message id")
	}
	g.MessageID = &messageID
}

// Finish resolves a due giveaway: draws winners from the current participant
// set, flips the status and records the winners atomically, then announces
// the result in the channel. Safe to invoke concurrently - the storage-level
// status guard lets exactly one caller through, the rest get
// ErrAlreadyFinished.
func (s *GiveawayService) Finish(ctx context.Context, id int64) error {
	g, err := s.giveaways.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !g.IsActive() {
		return ErrAlreadyFinished
	}

	participants, err := s.participants.List(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list participants: %w", err)
	}

	winners := draw.Select(participants, g.WinnerPlaces)

	if err := s.giveaways.Finish(ctx, id, winners); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			// Lost the race against another finish or a deletion
			return ErrAlreadyFinished
		}
		return fmt.Errorf("failed to persist finish: %w", err)
	}

	log.Info().
		Int64("giveaway_id", id).
		Int("participants", len(participants)).
		Int("winners", len(winners)).
		Msg("Giveaway finished")

	// The announcement is best-effort: the stored status is the source of
	// truth, a delivery failure must not undo the transition
	text := texts.NoParticipantsAnnouncement
	if len(winners) > 0 {
		text = texts.WinnerAnnouncement(winners)
	}
	var replyTo int64
	if g.MessageID != nil {
		replyTo = *g.MessageID
	}
	if err := s.messenger.Announce(ctx, g.ChannelID, replyTo, text); err != nil {
		log.Error().Err(err).Int64("giveaway_id", id).Msg("Failed to announce giveaway results")
	}
	return nil
}

// Delete removes a giveaway at any status: the pending finish event is
// cancelled, the channel post deleted best-effort, and the giveaway with its
// participants and winners dropped from the store. Idempotent - deleting a
// missing giveaway reports found=false.
func (s *GiveawayService) Delete(ctx context.Context, id int64) (bool, error) {
	s.schedule.Cancel(id)

	g, err := s.giveaways.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrGiveawayNotFound) {
			return false, nil
		}
		return false, err
	}

	if g.MessageID != nil {
		if err := s.messenger.DeleteMessage(ctx, g.ChannelID, *g.MessageID); err != nil {
			log.Warn().Err(err).Int64("giveaway_id", id).Msg("Failed to delete channel post")
		}
	}

	found, err := s.giveaways.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete giveaway: %w", err)
	}
	if found {
		log.Info().Int64("giveaway_id", id).Str("status", g.Status).Msg("Giveaway deleted")
	}
	return found, nil
}

// Get retrieves a giveaway by id.
func (s *GiveawayService) Get(ctx context.Context, id int64) (*model.Giveaway, error) {
	return s.giveaways.GetByID(ctx, id)
}

// ListActive returns all active giveaways.
func (s *GiveawayService) ListActive(ctx context.Context) ([]*model.Giveaway, error) {
	return s.giveaways.ListActive(ctx)
}

// FinishedPage returns one page of finished giveaways plus the total page
// count for the given page size.
func (s *GiveawayService) FinishedPage(ctx context.Context, page, pageSize int) ([]*model.Giveaway, int, error) {
	total, err := s.giveaways.CountFinished(ctx)
	if err != nil {
		return nil, 0, err
	}
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	giveaways, err := s.giveaways.ListFinishedPage(ctx, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return giveaways, totalPages, nil
}

// CountParticipants returns the current participant count of a giveaway.
func (s *GiveawayService) CountParticipants(ctx context.Context, id int64) (int, error) {
	return s.participants.Count(ctx, id)
}

// Winners returns the recorded winners of a giveaway ordered by place.
func (s *GiveawayService) Winners(ctx context.Context, id int64) ([]*model.Winner, error) {
	return s.winners.ListByGiveaway(ctx, id)
}
