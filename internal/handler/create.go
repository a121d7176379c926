package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"giveaway-bot/internal/fsm"
	"giveaway-bot/internal/keyboard"
	"giveaway-bot/internal/model"
	"giveaway-bot/internal/pkg/timeutil"
	"giveaway-bot/internal/service"
	"giveaway-bot/internal/texts"
)

// CreateHandler drives the multi-step giveaway creation dialogue.
type CreateHandler struct {
	giveaways *service.GiveawayService
	roster    *service.RosterService
	forms     *fsm.Store
	timef     *timeutil.Parser
}

// NewCreateHandler creates a new CreateHandler.
func NewCreateHandler(giveaways *service.GiveawayService, roster *service.RosterService, forms *fsm.Store, timef *timeutil.Parser) *CreateHandler {
	return &CreateHandler{giveaways: giveaways, roster: roster, forms: forms, timef: timef}
}

// HandleStart begins the dialogue at the title step.
func (h *CreateHandler) HandleStart(c tele.Context) error {
	h.forms.Begin(c.Sender().ID, fsm.StateCreateTitle)
	return c.Edit(texts.CreateGiveawayStart, keyboard.BackToMenu())
}

// HandleTitleInput stores the title and asks for the description.
func (h *CreateHandler) HandleTitleInput(c tele.Context) error {
	title := c.Text()
	if len([]rune(title)) > model.MaxTitleLen {
		return c.Send(texts.TitleTooLong)
	}
	h.forms.Update(c.Sender().ID, func(f *fsm.Form) {
		f.Title = title
		f.State = fsm.StateCreateDescription
	})
	return c.Send(texts.EnterDescription, keyboard.BackToMenu())
}

// HandleDescriptionInput stores the description and asks for media.
func (h *CreateHandler) HandleDescriptionInput(c tele.Context) error {
	description := c.Text()
	if len([]rune(description)) > model.MaxDescriptionLen {
		return c.Send(texts.DescriptionTooLong)
	}
	h.forms.Update(c.Sender().ID, func(f *fsm.Form) {
		f.Description = description
		f.State = fsm.StateCreateMedia
	})
	return c.Send(texts.EnterMedia, keyboard.SkipMedia())
}

// HandleMediaInput stores an attached photo, video, animation or document.
func (h *CreateHandler) HandleMediaInput(c tele.Context) error {
	mediaType, fileID, ok := extractMedia(c.Message())
	if !ok {
		return c.Send(texts.UnsupportedMedia)
	}
	h.forms.Update(c.Sender().ID, func(f *fsm.Form) {
		f.MediaType = mediaType
		f.MediaFileID = fileID
		f.State = fsm.StateCreatePlaces
	})
	return c.Send(texts.EnterWinnerPlaces, keyboard.BackToMenu())
}

// HandleSkipMedia skips the media step.
func (h *CreateHandler) HandleSkipMedia(c tele.Context) error {
	h.forms.SetState(c.Sender().ID, fsm.StateCreatePlaces)
	return c.Edit(texts.EnterWinnerPlaces, keyboard.BackToMenu())
}

// HandlePlacesInput stores the winner place count and asks for the channel.
func (h *CreateHandler) HandlePlacesInput(c tele.Context) error {
	places, err := strconv.Atoi(c.Text())
	if err != nil || places < model.MinWinnerPlaces || places > model.MaxWinnerPlaces {
		return c.Send(texts.InvalidWinnerPlaces)
	}

	channels, err := h.roster.ListChannels(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list channels")
		return c.Send(texts.ErrorOccurred)
	}
	if len(channels) == 0 {
		h.forms.Clear(c.Sender().ID)
		return c.Send(texts.NoChannels, keyboard.BackToMenu())
	}

	h.forms.Update(c.Sender().ID, func(f *fsm.Form) {
		f.WinnerPlaces = places
		f.State = fsm.StateCreateChannel
	})
	return c.Send(texts.ChooseChannel, keyboard.Channels(channels))
}

// HandleSelectChannel stores the chosen channel and asks for the end time.
func (h *CreateHandler) HandleSelectChannel(c tele.Context, channelID int64) error {
	ch, err := h.roster.ChannelByID(context.Background(), channelID)
	if err != nil {
		log.Error().Err(err).Int64("channel_id", channelID).Msg("Failed to load channel")
		return c.Edit(texts.ErrorOccurred, keyboard.BackToMenu())
	}
	h.forms.Update(c.Sender().ID, func(f *fsm.Form) {
		f.ChannelID = ch.ChannelID
		f.ChannelName = ch.ChannelName
		f.State = fsm.StateCreateEndTime
	})
	return c.Edit(texts.EnterEndTime, keyboard.BackToMenu())
}

// HandleEndTimeInput stores the end time and shows the confirmation summary.
func (h *CreateHandler) HandleEndTimeInput(c tele.Context) error {
	endTime, err := h.timef.Parse(c.Text())
	if err != nil {
		return c.Send(texts.InvalidDatetime)
	}
	if !h.timef.IsFuture(endTime) {
		return c.Send(texts.DatetimeInPast)
	}

	h.forms.Update(c.Sender().ID, func(f *fsm.Form) {
		f.EndTime = endTime
		f.State = fsm.StateCreateConfirm
	})

	f := h.forms.Snapshot(c.Sender().ID)
	media := "нет"
	if f.MediaType != "" {
		media = "есть"
	}
	summary := texts.ConfirmGiveaway(f.Title, f.Description, f.WinnerPlaces,
		f.ChannelName, h.timef.Format(f.EndTime), media)
	return c.Send(summary, keyboard.ConfirmCreate())
}

// HandleConfirm persists and publishes the collected giveaway.
func (h *CreateHandler) HandleConfirm(c tele.Context) error {
	sender := c.Sender()
	f := h.forms.Snapshot(sender.ID)
	if f.State != fsm.StateCreateConfirm {
		return c.Respond(&tele.CallbackResponse{Text: texts.ErrorOccurred})
	}

	spec := f.Spec(sender.ID)
	_, err := h.giveaways.Create(context.Background(), &spec)
	switch {
	case errors.Is(err, service.ErrEndTimeNotFuture):
		return c.Edit(texts.DatetimeInPast, keyboard.BackToMenu())
	case err != nil:
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Giveaway creation failed")
		h.forms.Clear(sender.ID)
		return c.Edit(texts.PublishFailed, keyboard.BackToMenu())
	}

	h.forms.Clear(sender.ID)
	return c.Edit(texts.GiveawayCreated, keyboard.BackToMenu())
}

// HandleCancel aborts the dialogue.
func (h *CreateHandler) HandleCancel(c tele.Context) error {
	h.forms.Clear(c.Sender().ID)
	return c.Edit(texts.CreationCancelled, keyboard.BackToMenu())
}

// extractMedia pulls a supported attachment out of a message.
func extractMedia(m *tele.Message) (mediaType, fileID string, ok bool) {
	if m == nil {
		return "", "", false
	}
	switch {
	case m.Photo != nil:
		return model.MediaPhoto, m.Photo.FileID, true
	case m.Video != nil:
		return model.MediaVideo, m.Video.FileID, true
	case m.Animation != nil:
		return model.MediaAnimation, m.Animation.FileID, true
	case m.Document != nil:
		return model.MediaDocument, m.Document.FileID, true
	}
	return "", "", false
}
