package bot

import (
	"context"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v3"

	"giveaway-bot/internal/keyboard"
	"giveaway-bot/internal/model"
	"giveaway-bot/internal/pkg/timeutil"
	"giveaway-bot/internal/service"
	"giveaway-bot/internal/texts"
)

// Messenger sends giveaway posts and announcements to channels. It is the
// Telegram-facing half of the giveaway service.
type Messenger struct {
	bot   *tele.Bot
	timef *timeutil.Parser
}

func NewMessenger(b *tele.Bot, timef *timeutil.Parser) *Messenger {
	return &Messenger{bot: b, timef: timef}
}

// PublishGiveaway sends the giveaway post with its participate button and
// returns the new message id.
func (m *Messenger) PublishGiveaway(ctx context.Context, g *model.Giveaway, participants int) (int64, error) {
	text := texts.GiveawayPost(g.Title, g.Description, g.WinnerPlaces, m.timef.Format(g.EndTime))
	markup := keyboard.Participate(g.ID, participants)
	recipient := tele.ChatID(g.ChannelID)

	var content interface{} = text
	if g.MediaType != nil && g.MediaFileID != nil {
		file := tele.File{FileID: *g.MediaFileID}
		switch *g.MediaType {
		case model.MediaPhoto:
			content = &tele.Photo{File: file, Caption: text}
		case model.MediaVideo:
			content = &tele.Video{File: file, Caption: text}
		case model.MediaAnimation:
			content = &tele.Animation{File: file, Caption: text}
		case model.MediaDocument:
			content = &tele.Document{File: file, Caption: text}
		}
	}

	msg, err := m.bot.Send(recipient, content, markup)
	if err != nil {
		return 0, fmt.Errorf("failed to publish giveaway post: %w", err)
	}
	return int64(msg.ID), nil
}

// DeleteMessage removes a previously published post from the channel.
func (m *Messenger) DeleteMessage(ctx context.Context, channelID, messageID int64) error {
	sm := tele.StoredMessage{
		MessageID: strconv.FormatInt(messageID, 10),
		ChatID:    channelID,
	}
	if err := m.bot.Delete(sm); err != nil {
		return fmt.Errorf("failed to delete message %d in chat %d: %w", messageID, channelID, err)
	}
	return nil
}

// Announce posts the results text to the channel, replying to the giveaway
// post when replyTo is set.
func (m *Messenger) Announce(ctx context.Context, channelID, replyTo int64, text string) error {
	opts := &tele.SendOptions{}
	if replyTo != 0 {
		opts.ReplyTo = &tele.Message{ID: int(replyTo), Chat: &tele.Chat{ID: channelID}}
	}
	if _, err := m.bot.Send(tele.ChatID(channelID), text, opts); err != nil {
		return fmt.Errorf("failed to send announcement to chat %d: %w", channelID, err)
	}
	return nil
}

// ResolveChannel looks up a channel by username and verifies the bot can post
// there.
func (m *Messenger) ResolveChannel(ctx context.Context, username string) (int64, string, error) {
	chat, err := m.bot.ChatByUsername("@" + username)
	if err != nil {
		return 0, "", service.ErrChannelUnavailable
	}
	if chat.Type != tele.ChatChannel {
		return 0, "", service.ErrNotChannel
	}
	member, err := m.bot.ChatMemberOf(chat, m.bot.Me)
	if err != nil {
		return 0, "", fmt.Errorf("failed to check bot membership in chat %d: %w", chat.ID, err)
	}
	if member.Role != tele.Administrator && member.Role != tele.Creator {
		return 0, "", service.ErrBotNotChannelAdmin
	}
	return chat.ID, chat.Title, nil
}
