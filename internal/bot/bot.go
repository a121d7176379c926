// Package bot provides the Telegram bot initialization, routing and the
// channel messenger.
package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"giveaway-bot/internal/config"
	"giveaway-bot/internal/fsm"
	"giveaway-bot/internal/handler"
	"giveaway-bot/internal/keyboard"
	"giveaway-bot/internal/pkg/timeutil"
	"giveaway-bot/internal/service"
	"giveaway-bot/internal/texts"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot   *tele.Bot
	forms *fsm.Store

	basicHandler  *handler.BasicHandler
	createHandler *handler.CreateHandler
	viewHandler   *handler.ViewHandler
	rosterHandler *handler.RosterHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config       *config.Config
	Giveaways    *service.GiveawayService
	Participants *service.ParticipantService
	Roster       *service.RosterService
	Forms        *fsm.Store
	TimeParser   *timeutil.Parser
}

// NewTelebot creates the raw telebot instance. It is split from New so the
// messenger can be wired into the services before the handlers are.
func NewTelebot(cfg *config.Config) (*tele.Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:     cfg.Bot.Token,
		Poller:    &tele.LongPoller{Timeout: 10 * time.Second},
		ParseMode: tele.ModeHTML,
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return b, nil
}

// New assembles the handlers and registers them on the telebot instance.
func New(teleBot *tele.Bot, deps *Dependencies) *Bot {
	b := &Bot{
		bot:   teleBot,
		forms: deps.Forms,
	}

	b.basicHandler = handler.NewBasicHandler(deps.Roster, deps.Participants, deps.Forms)
	b.createHandler = handler.NewCreateHandler(deps.Giveaways, deps.Roster, deps.Forms, deps.TimeParser)
	b.viewHandler = handler.NewViewHandler(deps.Giveaways, deps.Forms, deps.TimeParser, deps.Config.View.FinishedPageSize)
	b.rosterHandler = handler.NewRosterHandler(deps.Roster, deps.Forms)

	b.registerMiddleware(deps.Roster)
	b.registerHandlers()

	return b
}

func (b *Bot) registerMiddleware(roster *service.RosterService) {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(AccessMiddleware(roster))
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.basicHandler.HandleStart)
	b.bot.Handle("/admin", b.basicHandler.HandleAdmin)

	b.bot.Handle(tele.OnText, b.handleText)
	b.bot.Handle(tele.OnPhoto, b.handleMedia)
	b.bot.Handle(tele.OnVideo, b.handleMedia)
	b.bot.Handle(tele.OnAnimation, b.handleMedia)
	b.bot.Handle(tele.OnDocument, b.handleMedia)

	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleText dispatches free-form input to the dialogue step the sender is
// on.
func (b *Bot) handleText(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	switch b.forms.State(sender.ID) {
	case fsm.StateCreateTitle:
		return b.createHandler.HandleTitleInput(c)
	case fsm.StateCreateDescription:
		return b.createHandler.HandleDescriptionInput(c)
	case fsm.StateCreatePlaces:
		return b.createHandler.HandlePlacesInput(c)
	case fsm.StateCreateEndTime:
		return b.createHandler.HandleEndTimeInput(c)
	case fsm.StateEditTitle:
		return b.viewHandler.HandleEditTitleInput(c)
	case fsm.StateEditDescription:
		return b.viewHandler.HandleEditDescriptionInput(c)
	case fsm.StateEditEndTime:
		return b.viewHandler.HandleEditEndTimeInput(c)
	case fsm.StateAddAdminID:
		return b.rosterHandler.HandleAdminIDInput(c)
	case fsm.StateAddChannelLink:
		return b.rosterHandler.HandleChannelLinkInput(c)
	}
	return c.Send(texts.UnknownCommand)
}

// handleMedia dispatches attachments to the media steps.
func (b *Bot) handleMedia(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	switch b.forms.State(sender.ID) {
	case fsm.StateCreateMedia:
		return b.createHandler.HandleMediaInput(c)
	case fsm.StateEditMedia:
		return b.viewHandler.HandleEditMediaInput(c)
	}
	return nil
}

// handleCallback routes inline button presses by their data prefix.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}
	data := strings.TrimPrefix(callback.Data, "\f")
	log.Debug().Str("data", data).Msg("Callback received")

	switch data {
	case keyboard.CallbackMainMenu:
		return b.basicHandler.HandleMainMenu(c)
	case keyboard.CallbackCreateGiveaway:
		return b.createHandler.HandleStart(c)
	case keyboard.CallbackViewActive:
		return b.viewHandler.HandleActive(c)
	case keyboard.CallbackViewFinished:
		return b.viewHandler.HandleFinished(c)
	case keyboard.CallbackSkipMedia:
		return b.createHandler.HandleSkipMedia(c)
	case keyboard.CallbackConfirmCreate:
		return b.createHandler.HandleConfirm(c)
	case keyboard.CallbackCancelCreate:
		return b.createHandler.HandleCancel(c)
	case keyboard.CallbackCancelDelete:
		return b.viewHandler.HandleCancelDelete(c)
	case keyboard.CallbackEditTitle:
		return b.viewHandler.HandleEditField(c, fsm.StateEditTitle, texts.EnterNewTitle)
	case keyboard.CallbackEditDescription:
		return b.viewHandler.HandleEditField(c, fsm.StateEditDescription, texts.EnterNewDescription)
	case keyboard.CallbackEditMedia:
		return b.viewHandler.HandleEditField(c, fsm.StateEditMedia, texts.EnterNewMedia)
	case keyboard.CallbackEditEndTime:
		return b.viewHandler.HandleEditField(c, fsm.StateEditEndTime, texts.EnterNewEndTime)
	case keyboard.CallbackAdminMenu:
		return b.rosterHandler.HandleAdminMenu(c)
	case keyboard.CallbackAddAdmin:
		return b.rosterHandler.HandleAddAdminStart(c)
	case keyboard.CallbackRemoveAdmin:
		return b.rosterHandler.HandleRemoveAdminStart(c)
	case keyboard.CallbackChannelMenu:
		return b.rosterHandler.HandleChannelMenu(c)
	case keyboard.CallbackAddChannel:
		return b.rosterHandler.HandleAddChannelStart(c)
	case keyboard.CallbackRemoveChannel:
		return b.rosterHandler.HandleRemoveChannelStart(c)
	}

	for _, route := range []struct {
		prefix string
		fn     func(tele.Context, int64) error
	}{
		{keyboard.CallbackParticipate, b.basicHandler.HandleParticipate},
		{keyboard.CallbackDetails, b.viewHandler.HandleDetails},
		{keyboard.CallbackFinishedPage, b.viewHandler.HandleFinishedPage},
		{keyboard.CallbackEditGiveaway, b.viewHandler.HandleEditStart},
		{keyboard.CallbackDeleteGiveaway, b.viewHandler.HandleDelete},
		{keyboard.CallbackConfirmDelete, b.viewHandler.HandleConfirmDelete},
		{keyboard.CallbackSelectChannel, b.createHandler.HandleSelectChannel},
		{keyboard.CallbackRemoveAdminID, b.rosterHandler.HandleRemoveAdmin},
		{keyboard.CallbackRemoveChannelID, b.rosterHandler.HandleRemoveChannel},
	} {
		if strings.HasPrefix(data, route.prefix) {
			id, ok := keyboard.ParseID(data, route.prefix)
			if !ok {
				return c.Respond(&tele.CallbackResponse{Text: texts.ErrorOccurred})
			}
			return route.fn(c, id)
		}
	}

	log.Debug().Str("data", data).Msg("Unroutable callback")
	return c.Respond(&tele.CallbackResponse{})
}

// Start starts long polling. Blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Str("bot", b.bot.Me.Username).Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
