// Package timeutil handles the DD.MM.YYYY HH:MM end-time format used by the
// admin panel. Input is interpreted in the bot's display timezone and stored
// in UTC.
package timeutil

import (
	"errors"
	"strings"
	"time"
)

// Layout is the end-time input format shown to admins.
const Layout = "02.01.2006 15:04"

// ErrInvalidFormat is returned when an end-time string does not match Layout.
var ErrInvalidFormat = errors.New("invalid datetime format")

// Clock hands out the current time; swapped in tests.
type Clock func() time.Time

// Parser parses and formats end times in a fixed location.
type Parser struct {
	loc *time.Location
	now Clock
}

// NewParser resolves the IANA timezone name and returns a Parser. An unknown
// name falls back to UTC.
func NewParser(timezone string) *Parser {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &Parser{loc: loc, now: time.Now}
}

// WithClock returns a copy of the parser using the given clock.
func (p *Parser) WithClock(now Clock) *Parser {
	return &Parser{loc: p.loc, now: now}
}

// Parse converts an admin-entered end time to UTC.
func (p *Parser) Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, strings.TrimSpace(s), p.loc)
	if err != nil {
		return time.Time{}, ErrInvalidFormat
	}
	return t.UTC(), nil
}

// Format renders a stored UTC timestamp in the display timezone.
func (p *Parser) Format(t time.Time) string {
	return t.In(p.loc).Format(Layout) + " (МСК)"
}

// IsFuture reports whether t is strictly after the current moment.
func (p *Parser) IsFuture(t time.Time) bool {
	return t.After(p.now())
}
