// Package capacity computes seat availability per show date.  All
// functions are pure: they take the collections they need as arguments
// and never touch storage.
package capacity

import "github.com/iliyamo/dinner-theater-booking/internal/model"

// Available returns the show's capacity minus the guests of confirmed
// reservations.  Pending, cancelled and rejected reservations do not
// occupy seats.  The result is negative when the show is overbooked;
// use Display to clamp it.  A nil show has no bookable seats.
func Available(show *model.ShowEvent, reservations []model.Reservation) int {
	if show == nil {
		return 0
	}
	return show.Capacity - ConfirmedGuests(reservations)
}

// ForDate looks up the show for date and computes Available over the
// reservations that share that date.
func ForDate(shows map[string]model.ShowEvent, reservations []model.Reservation, date string) int {
	show, ok := shows[date]
	if !ok {
		return 0
	}
	sameDay := make([]model.Reservation, 0, len(reservations))
	for _, r := range reservations {
		if r.Date == date {
			sameDay = append(sameDay, r)
		}
	}
	return Available(&show, sameDay)
}

// ConfirmedGuests sums the guests of confirmed reservations.
func ConfirmedGuests(reservations []model.Reservation) int {
	total := 0
	for _, r := range reservations {
		if r.IsConfirmed() {
			total += r.Guests
		}
	}
	return total
}

// Display clamps a raw availability to zero ("fully booked").
func Display(available int) int {
	if available < 0 {
		return 0
	}
	return available
}

// Overbooked returns how many guests exceed capacity, or 0.
func Overbooked(available int) int {
	if available < 0 {
		return -available
	}
	return 0
}

// ShowsByDate indexes shows by their date key.  When two shows share a
// date the later one in the slice wins.
func ShowsByDate(shows []model.ShowEvent) map[string]model.ShowEvent {
	m := make(map[string]model.ShowEvent, len(shows))
	for _, s := range shows {
		m[s.Date] = s
	}
	return m
}
