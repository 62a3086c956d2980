// Package queue defines message payloads exchanged over the message broker
// and the consumer that processes them.
package queue

// ReservationConfirmedQueue is the durable queue confirmed reservations
// are published to.
const ReservationConfirmedQueue = "booking.confirmed"

// ReservationConfirmedEvent is published when staff confirm a reservation.
// It carries enough for downstream consumers (confirmation mail, kitchen
// planning, logs) to act without querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID   string         `json:"reservation_id"`
	Date            string         `json:"date"`
	ShowName        string         `json:"show_name"`
	ShowType        string         `json:"show_type"`
	StartTime       string         `json:"start_time,omitempty"`
	GuestName       string         `json:"guest_name"`
	Email           string         `json:"email"`
	Guests          int            `json:"guests"`
	Package         string         `json:"package"`
	Addons          map[string]int `json:"addons,omitempty"`
	TotalPriceCents int64          `json:"total_price_cents"`
	ConfirmedAt     string         `json:"confirmed_at"`
}
