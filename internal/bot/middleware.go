package bot

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"giveaway-bot/internal/keyboard"
	"giveaway-bot/internal/service"
	"giveaway-bot/internal/texts"
)

// AccessMiddleware gates the admin panel. Participation callbacks and /start
// stay open to everyone; everything else requires an admin.
func AccessMiddleware(roster *service.RosterService) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			if isPublicUpdate(c) {
				return next(c)
			}

			ok, err := roster.IsAdmin(context.Background(), sender.ID)
			if err != nil {
				log.Error().Err(err).Int64("user_id", sender.ID).Msg("Admin check failed")
				return c.Send(texts.ErrorOccurred)
			}
			if !ok {
				log.Warn().
					Int64("user_id", sender.ID).
					Str("text", c.Text()).
					Msg("Non-admin attempted panel access")
				return c.Send(texts.AccessDenied)
			}
			return next(c)
		}
	}
}

func isPublicUpdate(c tele.Context) bool {
	if cb := c.Callback(); cb != nil {
		data := strings.TrimPrefix(cb.Data, "\f")
		return strings.HasPrefix(data, keyboard.CallbackParticipate)
	}
	return c.Text() == "/start"
}

// LoggingMiddleware logs every incoming update at debug level.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			logEvent := log.Debug()
			if sender := c.Sender(); sender != nil {
				logEvent = logEvent.
					Int64("user_id", sender.ID).
					Str("username", sender.Username)
			}
			if chat := c.Chat(); chat != nil {
				logEvent = logEvent.
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type))
			}
			logEvent.Str("text", c.Text()).Msg("Received update")
			return next(c)
		}
	}
}

// RecoveryMiddleware recovers from panics in handlers.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Msg("Recovered from panic in handler")
					_ = c.Send(texts.ErrorOccurred)
				}
			}()
			return next(c)
		}
	}
}
