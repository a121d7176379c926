// Package handler provides Telegram bot command and callback handlers.
package handler

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"giveaway-bot/internal/fsm"
	"giveaway-bot/internal/keyboard"
	"giveaway-bot/internal/service"
	"giveaway-bot/internal/texts"
)

// BasicHandler handles /start, the panel entry point and participation.
type BasicHandler struct {
	roster       *service.RosterService
	participants *service.ParticipantService
	forms        *fsm.Store
}

// NewBasicHandler creates a new BasicHandler.
func NewBasicHandler(roster *service.RosterService, participants *service.ParticipantService, forms *fsm.Store) *BasicHandler {
	return &BasicHandler{roster: roster, participants: participants, forms: forms}
}

// HandleStart greets the sender. Admins are pointed at /admin, everyone else
// gets the participation hint.
func (h *BasicHandler) HandleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	isAdmin, err := h.roster.IsAdmin(ctx, sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Admin check failed")
		return c.Send(texts.ErrorOccurred)
	}
	if isAdmin {
		h.roster.RefreshAdminProfile(ctx, sender.ID, optional(sender.Username), optional(sender.FirstName))
		return c.Send(texts.StartAdmin)
	}
	return c.Send(texts.StartUser)
}

// HandleAdmin opens the admin panel.
func (h *BasicHandler) HandleAdmin(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	h.forms.Clear(sender.ID)
	return c.Send(texts.AdminMainMenu, keyboard.MainMenu())
}

// HandleMainMenu returns to the panel root, dropping any form in progress.
func (h *BasicHandler) HandleMainMenu(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	h.forms.Clear(sender.ID)
	return c.Edit(texts.AdminMainMenu, keyboard.MainMenu())
}

// HandleParticipate processes a participate button press under a channel
// post. The user gets a popup with the outcome and the button counter is
// refreshed.
func (h *BasicHandler) HandleParticipate(c tele.Context, giveawayID int64) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	count, err := h.participants.Join(ctx, giveawayID, sender.ID,
		optional(sender.Username), optional(sender.FirstName))
	switch {
	case errors.Is(err, service.ErrAlreadyJoined):
		return c.Respond(&tele.CallbackResponse{Text: texts.AlreadyParticipating, ShowAlert: true})
	case errors.Is(err, service.ErrNotActive):
		return c.Respond(&tele.CallbackResponse{Text: texts.GiveawayEnded, ShowAlert: true})
	case err != nil:
		log.Error().Err(err).
			Int64("giveaway_id", giveawayID).
			Int64("user_id", sender.ID).
			Msg("Join failed")
		return c.Respond(&tele.CallbackResponse{Text: texts.ErrorOccurred, ShowAlert: true})
	}

	if err := c.Respond(&tele.CallbackResponse{Text: texts.ParticipationSuccess, ShowAlert: true}); err != nil {
		return err
	}
	if count > 0 {
		// Best effort: the counter is cosmetic and may race other joins
		if err := c.Edit(keyboard.Participate(giveawayID, count)); err != nil {
			log.Debug().Err(err).Int64("giveaway_id", giveawayID).Msg("Counter refresh failed")
		}
	}
	return nil
}

// optional converts telebot's empty-string fields to nullable columns.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
