package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"giveaway-bot/internal/model"
	"giveaway-bot/internal/repository"
)

// Channel registration errors.
var (
	ErrChannelUnavailable = errors.New("channel not found or not accessible")
	ErrNotChannel         = errors.New("chat is not a channel")
	ErrBotNotChannelAdmin = errors.New("bot is not an administrator of the channel")
)

// AdminStore is the administrator persistence surface.
// Implemented by repository.AdminRepository.
type AdminStore interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	Add(ctx context.Context, userID int64, username, firstName *string) error
	Remove(ctx context.Context, userID int64) error
	List(ctx context.Context) ([]*model.Admin, error)
	UpdateProfile(ctx context.Context, userID int64, username, firstName *string) error
}

// ChannelStore is the channel persistence surface.
// Implemented by repository.ChannelRepository.
type ChannelStore interface {
	Add(ctx context.Context, channelID int64, name string, username *string, addedBy int64) error
	GetByChannelID(ctx context.Context, channelID int64) (*model.Channel, error)
	List(ctx context.Context) ([]*model.Channel, error)
	Remove(ctx context.Context, channelID int64) error
}

// ChatResolver looks a channel up at the chat platform and verifies the bot
// holds admin rights there. Implemented by the telegram bot adapter.
type ChatResolver interface {
	ResolveChannel(ctx context.Context, username string) (chatID int64, title string, err error)
}

// RosterService manages the admin and channel rosters behind the panel.
type RosterService struct {
	admins   AdminStore
	channels ChannelStore
	resolver ChatResolver
}

// NewRosterService creates a new RosterService instance.
func NewRosterService(admins AdminStore, channels ChannelStore, resolver ChatResolver) *RosterService {
	return &RosterService{admins: admins, channels: channels, resolver: resolver}
}

// IsAdmin reports whether the user may use the admin panel.
func (s *RosterService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	return s.admins.IsAdmin(ctx, userID)
}

// RefreshAdminProfile updates the stored name snapshot of an active admin.
func (s *RosterService) RefreshAdminProfile(ctx context.Context, userID int64, username, firstName *string) {
	// Best-effort bookkeeping
	_ = s.admins.UpdateProfile(ctx, userID, username, firstName)
}

// AddAdmin registers a new administrator by Telegram user id.
func (s *RosterService) AddAdmin(ctx context.Context, userID int64) error {
	return s.admins.Add(ctx, userID, nil, nil)
}

// RemoveAdmin deletes an administrator. The main admin cannot be removed.
func (s *RosterService) RemoveAdmin(ctx context.Context, userID int64) error {
	return s.admins.Remove(ctx, userID)
}

// ListAdmins returns all administrators.
func (s *RosterService) ListAdmins(ctx context.Context) ([]*model.Admin, error) {
	return s.admins.List(ctx)
}

// AddChannelByLink resolves a channel from a @username or t.me link, verifies
// the bot's rights there and registers it. Returns the channel title.
func (s *RosterService) AddChannelByLink(ctx context.Context, link string, addedBy int64) (string, error) {
	username := CleanChannelUsername(link)
	if username == "" {
		return "", ErrChannelUnavailable
	}

	chatID, title, err := s.resolver.ResolveChannel(ctx, username)
	if err != nil {
		return "", err
	}

	if err := s.channels.Add(ctx, chatID, title, &username, addedBy); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return title, err
		}
		return "", fmt.Errorf("failed to register channel: %w", err)
	}
	return title, nil
}

// ChannelByID returns a registered channel by its Telegram chat id.
func (s *RosterService) ChannelByID(ctx context.Context, channelID int64) (*model.Channel, error) {
	return s.channels.GetByChannelID(ctx, channelID)
}

// ListChannels returns all registered channels.
func (s *RosterService) ListChannels(ctx context.Context) ([]*model.Channel, error) {
	return s.channels.List(ctx)
}

// RemoveChannel deletes a channel registration.
func (s *RosterService) RemoveChannel(ctx context.Context, channelID int64) error {
	return s.channels.Remove(ctx, channelID)
}

// CleanChannelUsername strips the @ prefix and t.me link forms from a channel
// reference entered by an admin.
func CleanChannelUsername(link string) string {
	s := strings.TrimSpace(link)
	s = strings.TrimPrefix(s, "https://t.me/")
	s = strings.TrimPrefix(s, "http://t.me/")
	s = strings.TrimPrefix(s, "t.me/")
	s = strings.TrimPrefix(s, "@")
	return s
}
