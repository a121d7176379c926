package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"giveaway-bot/internal/fsm"
	"giveaway-bot/internal/keyboard"
	"giveaway-bot/internal/repository"
	"giveaway-bot/internal/service"
	"giveaway-bot/internal/texts"
)

// RosterHandler manages the admin and channel rosters from the panel.
type RosterHandler struct {
	roster *service.RosterService
	forms  *fsm.Store
}

// NewRosterHandler creates a new RosterHandler.
func NewRosterHandler(roster *service.RosterService, forms *fsm.Store) *RosterHandler {
	return &RosterHandler{roster: roster, forms: forms}
}

// HandleAdminMenu opens the admin management menu.
func (h *RosterHandler) HandleAdminMenu(c tele.Context) error {
	return c.Edit(texts.AdminManagementMenu, keyboard.AdminMenu())
}

// HandleAddAdminStart asks for the new admin's Telegram id.
func (h *RosterHandler) HandleAddAdminStart(c tele.Context) error {
	h.forms.Begin(c.Sender().ID, fsm.StateAddAdminID)
	return c.Edit(texts.EnterNewAdminID, keyboard.BackToMenu())
}

// HandleAdminIDInput registers the entered user id as an admin.
func (h *RosterHandler) HandleAdminIDInput(c tele.Context) error {
	userID, err := strconv.ParseInt(c.Text(), 10, 64)
	if err != nil || userID <= 0 {
		return c.Send(texts.InvalidUserID)
	}

	h.forms.Clear(c.Sender().ID)
	err = h.roster.AddAdmin(context.Background(), userID)
	switch {
	case errors.Is(err, repository.ErrAlreadyExists):
		return c.Send(texts.AdminAlreadyExists, keyboard.BackToMenu())
	case err != nil:
		log.Error().Err(err).Int64("new_admin_id", userID).Msg("Failed to add admin")
		return c.Send(texts.ErrorOccurred, keyboard.BackToMenu())
	}
	return c.Send(texts.AdminAdded, keyboard.BackToMenu())
}

// HandleRemoveAdminStart lists the removable admins.
func (h *RosterHandler) HandleRemoveAdminStart(c tele.Context) error {
	admins, err := h.roster.ListAdmins(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list admins")
		return c.Edit(texts.ErrorOccurred, keyboard.BackToMenu())
	}
	return c.Edit(texts.ChooseAdminToRemove, keyboard.RemovableAdmins(admins))
}

// HandleRemoveAdmin removes the chosen admin. The main admin never appears in
// the chooser and is refused by storage as well.
func (h *RosterHandler) HandleRemoveAdmin(c tele.Context, userID int64) error {
	err := h.roster.RemoveAdmin(context.Background(), userID)
	switch {
	case errors.Is(err, repository.ErrAdminNotFound):
		return c.Edit(texts.CannotRemoveMain, keyboard.BackToMenu())
	case err != nil:
		log.Error().Err(err).Int64("admin_id", userID).Msg("Failed to remove admin")
		return c.Edit(texts.ErrorOccurred, keyboard.BackToMenu())
	}
	return c.Edit(texts.AdminRemoved, keyboard.BackToMenu())
}

// HandleChannelMenu opens the channel management menu.
func (h *RosterHandler) HandleChannelMenu(c tele.Context) error {
	return c.Edit(texts.ChannelManagementMenu, keyboard.ChannelMenu())
}

// HandleAddChannelStart asks for a channel link or username.
func (h *RosterHandler) HandleAddChannelStart(c tele.Context) error {
	h.forms.Begin(c.Sender().ID, fsm.StateAddChannelLink)
	return c.Edit(texts.EnterChannelLink, keyboard.BackToMenu())
}

// HandleChannelLinkInput resolves and registers the entered channel.
func (h *RosterHandler) HandleChannelLinkInput(c tele.Context) error {
	sender := c.Sender()
	h.forms.Clear(sender.ID)

	title, err := h.roster.AddChannelByLink(context.Background(), c.Text(), sender.ID)
	switch {
	case errors.Is(err, repository.ErrAlreadyExists):
		return c.Send(texts.ChannelAlreadyExists, keyboard.BackToMenu())
	case errors.Is(err, service.ErrNotChannel):
		return c.Send(texts.NotAChannel, keyboard.BackToMenu())
	case errors.Is(err, service.ErrBotNotChannelAdmin):
		return c.Send(texts.BotNotChannelAdmin, keyboard.BackToMenu())
	case errors.Is(err, service.ErrChannelUnavailable):
		return c.Send(texts.ChannelNotFound, keyboard.BackToMenu())
	case err != nil:
		log.Error().Err(err).Msg("Failed to add channel")
		return c.Send(texts.ErrorOccurred, keyboard.BackToMenu())
	}
	return c.Send(texts.ChannelAdded(title), keyboard.BackToMenu())
}

// HandleRemoveChannelStart lists the registered channels for removal.
func (h *RosterHandler) HandleRemoveChannelStart(c tele.Context) error {
	channels, err := h.roster.ListChannels(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list channels")
		return c.Edit(texts.ErrorOccurred, keyboard.BackToMenu())
	}
	return c.Edit(texts.ChooseChannelToRemove, keyboard.RemovableChannels(channels))
}

// HandleRemoveChannel removes the chosen channel registration.
func (h *RosterHandler) HandleRemoveChannel(c tele.Context, channelID int64) error {
	err := h.roster.RemoveChannel(context.Background(), channelID)
	switch {
	case errors.Is(err, repository.ErrChannelNotFound):
		return c.Edit(texts.ChannelNotFound, keyboard.BackToMenu())
	case err != nil:
		log.Error().Err(err).Int64("channel_id", channelID).Msg("Failed to remove channel")
		return c.Edit(texts.ErrorOccurred, keyboard.BackToMenu())
	}
	return c.Edit(texts.ChannelRemoved, keyboard.BackToMenu())
}
