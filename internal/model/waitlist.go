package model

import (
	"errors"
	"strings"
	"time"
)

// WaitlistStatus is the lifecycle state of a waiting-list entry.
type WaitlistStatus string

const (
	WaitlistActive    WaitlistStatus = "active"
	WaitlistNotified  WaitlistStatus = "notified"
	WaitlistConverted WaitlistStatus = "converted"
	WaitlistExpired   WaitlistStatus = "expired"
)

// WaitingListEntry is a request for seats on a full or closed date.
// Entries are converted into reservations by staff or expire.
type WaitingListEntry struct {
	ID            string         `json:"id"`
	Date          string         `json:"date"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone,omitempty"`
	Guests        int            `json:"guests"`
	Status        WaitlistStatus `json:"status"`
	AcceptPartial bool           `json:"acceptPartialBooking"`
	Source        string         `json:"source,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Validate checks the fields supplied by the waitlist form.
func (w *WaitingListEntry) Validate() error {
	if _, err := ParseDate(w.Date); err != nil {
		return errors.New("date must be formatted as YYYY-MM-DD")
	}
	if strings.TrimSpace(w.Name) == "" {
		return errors.New("name is required")
	}
	if w.Guests <= 0 {
		return errors.New("guests must be greater than 0")
	}
	return nil
}

// CanTransitionWaitlist reports whether an entry may move between states.
// Converted and expired are terminal.
func CanTransitionWaitlist(from, to WaitlistStatus) bool {
	switch from {
	case WaitlistActive:
		return to == WaitlistNotified || to == WaitlistConverted || to == WaitlistExpired
	case WaitlistNotified:
		return to == WaitlistConverted || to == WaitlistExpired || to == WaitlistActive
	}
	return false
}

// ParseWaitlistStatus normalises user input into a status.
func ParseWaitlistStatus(s string) (WaitlistStatus, bool) {
	switch st := WaitlistStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case WaitlistActive, WaitlistNotified, WaitlistConverted, WaitlistExpired:
		return st, true
	}
	return "", false
}
