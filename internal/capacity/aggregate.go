package capacity

import "github.com/iliyamo/dinner-theater-booking/internal/model"

// GuestCountByDate sums confirmed guests per date.
func GuestCountByDate(reservations []model.Reservation) map[string]int {
	counts := make(map[string]int)
	for _, r := range reservations {
		if !r.IsConfirmed() {
			continue
		}
		counts[r.Date] += r.Guests
	}
	return counts
}

// Level is the occupancy band of a calendar cell.
type Level string

const (
	LevelNone    Level = "none"    // no show on this date
	LevelOpen    Level = "open"    // up to 80% booked
	LevelFilling Level = "filling" // more than 80% booked
	LevelFull    Level = "full"    // at or over capacity
	LevelClosed  Level = "closed"  // waitlist only
)

// fillingRatio is the booked share above which a date is shown as filling.
const fillingRatio = 0.8

// LevelFor classifies a date from its confirmed guests and capacity.
func LevelFor(booked, capacity int) Level {
	if capacity <= 0 {
		return LevelNone
	}
	if booked >= capacity {
		return LevelFull
	}
	if float64(booked) > float64(capacity)*fillingRatio {
		return LevelFilling
	}
	return LevelOpen
}
