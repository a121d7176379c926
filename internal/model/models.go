// Package model defines the data models for the giveaway bot.
package model

import "time"

// Giveaway statuses. Transitions are monotonic: an active giveaway may become
// finished or cancelled, terminal statuses never change again.
const (
	StatusActive    = "active"
	StatusFinished  = "finished"
	StatusCancelled = "cancelled"
)

// Supported media attachment types for a giveaway post.
const (
	MediaPhoto     = "photo"
	MediaVideo     = "video"
	MediaAnimation = "animation"
	MediaDocument  = "document"
)

// Limits applied when creating or editing a giveaway.
const (
	MaxTitleLen       = 255
	MaxDescriptionLen = 4000
	MinWinnerPlaces   = 1
	MaxWinnerPlaces   = 10
)

// Giveaway represents a timed drawing published to a channel.
type Giveaway struct {
	ID           int64     `db:"id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	MediaType    *string   `db:"media_type"`
	MediaFileID  *string   `db:"media_file_id"`
	ChannelID    int64     `db:"channel_id"`
	MessageID    *int64    `db:"message_id"`
	StartTime    time.Time `db:"start_time"`
	EndTime      time.Time `db:"end_time"`
	Status       string    `db:"status"`
	WinnerPlaces int       `db:"winner_places"`
	CreatedBy    int64     `db:"created_by"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// IsActive reports whether the giveaway still accepts participants.
func (g *Giveaway) IsActive() bool {
	return g.Status == StatusActive
}

// GiveawaySpec carries the validated data collected by the create flow.
type GiveawaySpec struct {
	Title        string
	Description  string
	MediaType    *string
	MediaFileID  *string
	ChannelID    int64
	EndTime      time.Time
	WinnerPlaces int
	CreatedBy    int64
}

// FieldChanges enumerates the mutable giveaway fields for an edit. A nil
// pointer means "leave unchanged".
type FieldChanges struct {
	Title       *string
	Description *string
	MediaType   *string
	MediaFileID *string
	EndTime     *time.Time
}

// IsEmpty reports whether the change set modifies nothing.
func (c *FieldChanges) IsEmpty() bool {
	return c.Title == nil && c.Description == nil &&
		c.MediaType == nil && c.MediaFileID == nil && c.EndTime == nil
}

// Participant represents one (giveaway, user) entry in a drawing. The pair is
// unique; display fields are a snapshot taken at join time.
type Participant struct {
	ID         int64     `db:"id"`
	GiveawayID int64     `db:"giveaway_id"`
	UserID     int64     `db:"user_id"`
	Username   *string   `db:"username"`
	FirstName  *string   `db:"first_name"`
	JoinedAt   time.Time `db:"joined_at"`
}

// Winner represents a participant assigned a place after the draw.
// (giveaway, place) is unique, place counts from 1.
type Winner struct {
	ID         int64     `db:"id"`
	GiveawayID int64     `db:"giveaway_id"`
	UserID     int64     `db:"user_id"`
	Username   *string   `db:"username"`
	FirstName  *string   `db:"first_name"`
	Place      int       `db:"place"`
	WonAt      time.Time `db:"won_at"`
}

// Channel represents a Telegram channel registered for giveaways.
type Channel struct {
	ID              int64     `db:"id"`
	ChannelID       int64     `db:"channel_id"`
	ChannelName     string    `db:"channel_name"`
	ChannelUsername *string   `db:"channel_username"`
	AddedBy         int64     `db:"added_by"`
	CreatedAt       time.Time `db:"created_at"`
}

// Admin represents a bot administrator. The main admin is seeded from
// configuration and cannot be removed.
type Admin struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Username    *string   `db:"username"`
	FirstName   *string   `db:"first_name"`
	IsMainAdmin bool      `db:"is_main_admin"`
	CreatedAt   time.Time `db:"created_at"`
}

// DisplayName renders a user-facing name for announcements: @username when
// known, otherwise the first name, otherwise a generic fallback.
func DisplayName(username, firstName *string) string {
	if username != nil && *username != "" {
		return "@" + *username
	}
	if firstName != nil && *firstName != "" {
		return *firstName
	}
	return "Пользователь"
}
