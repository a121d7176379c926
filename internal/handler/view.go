package handler

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"giveaway-bot/internal/fsm"
	"giveaway-bot/internal/keyboard"
	"giveaway-bot/internal/model"
	"giveaway-bot/internal/pkg/timeutil"
	"giveaway-bot/internal/repository"
	"giveaway-bot/internal/service"
	"giveaway-bot/internal/texts"
)

// ViewHandler serves the giveaway lists, the details view, editing and
// deletion.
type ViewHandler struct {
	giveaways *service.GiveawayService
	forms     *fsm.Store
	timef     *timeutil.Parser
	pageSize  int
}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler(giveaways *service.GiveawayService, forms *fsm.Store, timef *timeutil.Parser, pageSize int) *ViewHandler {
	return &ViewHandler{giveaways: giveaways, forms: forms, timef: timef, pageSize: pageSize}
}

// HandleActive lists the active giveaways with their entry counts.
func (h *ViewHandler) HandleActive(c tele.Context) error {
	ctx := context.Background()
	giveaways, err := h.giveaways.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list active giveaways")
		return c.Edit(texts.ErrorOccurred, keyboard.BackToMenu())
	}
	if len(giveaways) == 0 {
		return c.Edit(texts.NoGiveaways, keyboard.BackToMenu())
	}

	text := texts.ActiveGiveaways
	for _, g := range giveaways {
		count, err := h.giveaways.CountParticipants(ctx, g.ID)
		if err != nil {
			log.Warn().Err(err).Int64("giveaway_id", g.ID).Msg("Participant count failed")
		}
		text += "\n\n" + texts.GiveawayListItem(g.ID, g.Title, h.timef.Format(g.EndTime), count)
	}
	return c.Edit(text, keyboard.GiveawayList(giveaways))
}

// HandleFinished shows the first page of finished giveaways.
func (h *ViewHandler) HandleFinished(c tele.Context) error {
	return h.finishedPage(c, 1)
}

// HandleFinishedPage shows the requested page of finished giveaways.
func (h *ViewHandler) HandleFinishedPage(c tele.Context, page int64) error {
	return h.finishedPage(c, int(page))
}

func (h *ViewHandler) finishedPage(c tele.Context, page int) error {
	giveaways, totalPages, err := h.giveaways.FinishedPage(context.Background(), page, h.pageSize)
	if err != nil {
		log.Error().Err(err).Int("page", page).Msg("Failed to list finished giveaways")
		return c.Edit(texts.ErrorOccurred, keyboard.BackToMenu())
	}
	if len(giveaways) == 0 {
		return c.Edit(texts.NoGiveaways, keyboard.BackToMenu())
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return c.Edit(texts.FinishedGiveaways, keyboard.FinishedList(giveaways, page, totalPages))
}

// HandleDetails shows one giveaway with its participant count and, once
// finished, its winners.
func (h *ViewHandler) HandleDetails(c tele.Context, giveawayID int64) error {
	ctx := context.Background()
	g, err := h.giveaways.Get(ctx, giveawayID)
	if err != nil {
		if errors.Is(err, repository.ErrGiveawayNotFound) {
			return c.Respond(&tele.CallbackResponse{Text: texts.GiveawayNotFound, ShowAlert: true})
		}
		log.Error().Err(err).Int64("giveaway_id", giveawayID).Msg("Failed to load giveaway")
		return c.Edit(texts.ErrorOccurred, keyboard.BackToMenu())
	}

	count, err := h.giveaways.CountParticipants(ctx, giveawayID)
	if err != nil {
		log.Warn().Err(err).Int64("giveaway_id", giveawayID).Msg("Participant count failed")
	}

	text := texts.GiveawayDetails(g.ID, g.Title, g.Description, count,
		statusLabel(g.Status), h.timef.Format(g.CreatedAt), h.timef.Format(g.EndTime))

	if g.Status == model.StatusFinished {
		winners, err := h.giveaways.Winners(ctx, giveawayID)
		if err != nil {
			log.Warn().Err(err).Int64("giveaway_id", giveawayID).Msg("Winner list failed")
		} else if len(winners) > 0 {
			text += "\n\n" + texts.WinnerAnnouncement(winners)
		}
	}

	return c.Edit(text, keyboard.GiveawayDetails(g))
}

func statusLabel(status string) string {
	switch status {
	case model.StatusActive:
		return "🟢 Активен"
	case model.StatusFinished:
		return "🔴 Завершен"
	case model.StatusCancelled:
		return "⚪️ Отменен"
	}
	return status
}

// HandleEditStart opens the field chooser for an active giveaway.
func (h *ViewHandler) HandleEditStart(c tele.Context, giveawayID int64) error {
	g, err := h.giveaways.Get(context.Background(), giveawayID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: texts.GiveawayNotFound, ShowAlert: true})
	}
	if !g.IsActive() {
		return c.Respond(&tele.CallbackResponse{Text: texts.EditUnavailable, ShowAlert: true})
	}

	h.forms.Begin(c.Sender().ID, fsm.StateEditChooseField)
	h.forms.Update(c.Sender().ID, func(f *fsm.Form) { f.GiveawayID = giveawayID })
	return c.Edit(texts.ChooseFieldToEdit, keyboard.EditFields())
}

// HandleEditField prompts for the new value of the chosen field.
func (h *ViewHandler) HandleEditField(c tele.Context, state fsm.State, prompt string) error {
	f := h.forms.Snapshot(c.Sender().ID)
	if f.GiveawayID == 0 {
		return c.Edit(texts.ErrorOccurred, keyboard.BackToMenu())
	}
	h.forms.SetState(c.Sender().ID, state)
	return c.Edit(prompt, keyboard.BackToMenu())
}

// HandleEditTitleInput applies a new title.
func (h *ViewHandler) HandleEditTitleInput(c tele.Context) error {
	title := c.Text()
	if len([]rune(title)) > model.MaxTitleLen {
		return c.Send(texts.TitleTooLong)
	}
	return h.applyEdit(c, &model.FieldChanges{Title: &title})
}

// HandleEditDescriptionInput applies a new description.
func (h *ViewHandler) HandleEditDescriptionInput(c tele.Context) error {
	description := c.Text()
	if len([]rune(description)) > model.MaxDescriptionLen {
		return c.Send(texts.DescriptionTooLong)
	}
	return h.applyEdit(c, &model.FieldChanges{Description: &description})
}

// HandleEditMediaInput applies a new media attachment.
func (h *ViewHandler) HandleEditMediaInput(c tele.Context) error {
	mediaType, fileID, ok := extractMedia(c.Message())
	if !ok {
		return c.Send(texts.UnsupportedMedia)
	}
	return h.applyEdit(c, &model.FieldChanges{MediaType: &mediaType, MediaFileID: &fileID})
}

// HandleEditEndTimeInput applies a new end time, which also reschedules the
// finish.
func (h *ViewHandler) HandleEditEndTimeInput(c tele.Context) error {
	endTime, err := h.timef.Parse(c.Text())
	if err != nil {
		return c.Send(texts.InvalidDatetime)
	}
	if !h.timef.IsFuture(endTime) {
		return c.Send(texts.DatetimeInPast)
	}
	return h.applyEdit(c, &model.FieldChanges{EndTime: &endTime})
}

func (h *ViewHandler) applyEdit(c tele.Context, changes *model.FieldChanges) error {
	sender := c.Sender()
	f := h.forms.Snapshot(sender.ID)
	giveawayID := f.GiveawayID
	h.forms.Clear(sender.ID)

	_, err := h.giveaways.Edit(context.Background(), giveawayID, changes)
	switch {
	case errors.Is(err, repository.ErrGiveawayNotFound):
		return c.Send(texts.GiveawayNotFound, keyboard.BackToMenu())
	case errors.Is(err, service.ErrNotActive):
		return c.Send(texts.EditUnavailable, keyboard.BackToMenu())
	case err != nil:
		log.Error().Err(err).Int64("giveaway_id", giveawayID).Msg("Edit failed")
		return c.Send(texts.ErrorOccurred, keyboard.BackToMenu())
	}
	return c.Send(texts.GiveawayUpdated, keyboard.BackToMenu())
}

// HandleDelete shows the delete confirmation.
func (h *ViewHandler) HandleDelete(c tele.Context, giveawayID int64) error {
	g, err := h.giveaways.Get(context.Background(), giveawayID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: texts.GiveawayNotFound, ShowAlert: true})
	}
	return c.Edit(texts.ConfirmDelete(g.Title), keyboard.ConfirmDelete(giveawayID))
}

// HandleConfirmDelete removes the giveaway, its entries and its channel post.
func (h *ViewHandler) HandleConfirmDelete(c tele.Context, giveawayID int64) error {
	found, err := h.giveaways.Delete(context.Background(), giveawayID)
	if err != nil {
		log.Error().Err(err).Int64("giveaway_id", giveawayID).Msg("Delete failed")
		return c.Edit(texts.ErrorOccurred, keyboard.BackToMenu())
	}
	if !found {
		return c.Edit(texts.GiveawayNotFound, keyboard.BackToMenu())
	}
	return c.Edit(texts.GiveawayDeleted, keyboard.BackToMenu())
}

// HandleCancelDelete aborts deletion.
func (h *ViewHandler) HandleCancelDelete(c tele.Context) error {
	return c.Edit(texts.DeletionCancelled, keyboard.BackToMenu())
}
