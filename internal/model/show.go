package model

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the ISO calendar-date format used for every date key
// (shows, reservations, waitlist entries and calendar mappings).
const DateLayout = "2006-01-02"

// MonthLayout identifies a calendar month ("2025-11").
const MonthLayout = "2006-01"

// ShowEvent represents one scheduled performance.  The calendar assumes
// at most one show per date, so Date doubles as a lookup key.
//
// Fields:
//  ID        – generated document identifier (uuid).
//  Date      – performance date, YYYY-MM-DD.
//  Name      – display name of the show.
//  Type      – name of the ShowType that supplies prices and defaults.
//  Capacity  – maximum number of seats (must be > 0).
//  IsClosed  – waitlist-only flag; no new bookings are offered.
//  StartTime – optional HH:MM override of the show type default.
//  EndTime   – optional HH:MM override of the show type default.
type ShowEvent struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Capacity  int       `json:"capacity"`
	IsClosed  bool      `json:"isClosed"`
	StartTime string    `json:"startTime,omitempty"`
	EndTime   string    `json:"endTime,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the invariants of a show before it is stored.
func (s *ShowEvent) Validate() error {
	if _, err := ParseDate(s.Date); err != nil {
		return errors.New("date must be formatted as YYYY-MM-DD")
	}
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("show name is required")
	}
	if strings.TrimSpace(s.Type) == "" {
		return errors.New("show type is required")
	}
	if s.Capacity <= 0 {
		return errors.New("capacity must be greater than 0")
	}
	if s.StartTime != "" && !validClock(s.StartTime) {
		return errors.New("start time must be formatted as HH:MM")
	}
	if s.EndTime != "" && !validClock(s.EndTime) {
		return errors.New("end time must be formatted as HH:MM")
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD key.  The result is pinned to midday UTC
// so that converting it to a local zone never moves it to another day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(12 * time.Hour), nil
}

// MonthBounds returns the first and last date key of a YYYY-MM month.
func MonthBounds(month string) (first, last string, err error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(month))
	if err != nil {
		return "", "", err
	}
	end := t.AddDate(0, 1, -1)
	return t.Format(DateLayout), end.Format(DateLayout), nil
}

func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}
