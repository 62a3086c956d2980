// Package service is the admin store layer.  It validates input against
// the live config, prices bookings, accounts capacity and drives the
// repositories; handlers talk to services only.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/dinner-theater-booking/internal/model"
	"github.com/iliyamo/dinner-theater-booking/internal/queue"
	"github.com/iliyamo/dinner-theater-booking/internal/repository"
)

var (
	// ErrInvalidInput wraps every validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoShow is returned when a date has no scheduled show.
	ErrNoShow = errors.New("no show on this date")
	// ErrCapacityExceeded is returned when capacity enforcement is on and
	// a confirmation would overbook the show.
	ErrCapacityExceeded = errors.New("not enough seats available")
	// ErrShowClosed is returned when the public form books a closed show.
	ErrShowClosed = errors.New("show is closed for bookings")
	// ErrSeatsAvailable is returned when joining the waitlist of a show
	// that can still take the booking.
	ErrSeatsAvailable = errors.New("seats are still available, book instead")
	// ErrCutoffPassed is returned for bookings inside the cutoff window.
	ErrCutoffPassed = errors.New("booking cutoff has passed")
	// ErrInvalidTransition is returned for a status change the lifecycle
	// does not allow.
	ErrInvalidTransition = errors.New("status change not allowed")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ConfigSource hands out the live application config.
type ConfigSource interface {
	Current() model.AppConfig
}

// EventPublisher sends reservation events to the broker.
type EventPublisher interface {
	PublishReservationConfirmed(ctx context.Context, ev queue.ReservationConfirmedEvent) error
}

// NopPublisher drops every event; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishReservationConfirmed(context.Context, queue.ReservationConfirmedEvent) error {
	return nil
}

// ShowStore is the persistence ShowService and friends need.
type ShowStore interface {
	Create(ctx context.Context, s *model.ShowEvent) error
	GetByID(ctx context.Context, id string) (*model.ShowEvent, error)
	GetByDate(ctx context.Context, date string) (*model.ShowEvent, error)
	ListByMonth(ctx context.Context, month string) ([]model.ShowEvent, error)
	Search(ctx context.Context, q repository.ShowSearchQuery) ([]model.ShowEvent, int64, error)
	Update(ctx context.Context, s *model.ShowEvent) error
	SetClosed(ctx context.Context, id string, closed bool) error
	Delete(ctx context.Context, id string) error
	DeleteByCriteria(ctx context.Context, c repository.DeleteCriteria) (repository.BulkDeleteResult, error)
}

// ReservationStore is the persistence BookingService needs.
type ReservationStore interface {
	Create(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	ListByDate(ctx context.Context, date string) ([]model.Reservation, error)
	ListByMonth(ctx context.Context, month string) ([]model.Reservation, error)
	Update(ctx context.Context, r *model.Reservation) error
	SetCheckedIn(ctx context.Context, id string, checkedIn bool) error
	SetStatus(ctx context.Context, id string, from, to model.ReservationStatus) error
	Delete(ctx context.Context, id string) error
}

// WaitlistStore is the persistence WaitlistService needs.
type WaitlistStore interface {
	Create(ctx context.Context, w *model.WaitingListEntry) error
	GetByID(ctx context.Context, id string) (*model.WaitingListEntry, error)
	ListByDate(ctx context.Context, date string) ([]model.WaitingListEntry, error)
	ListByRange(ctx context.Context, from, to string) ([]model.WaitingListEntry, error)
	SetStatus(ctx context.Context, id string, from, to model.WaitlistStatus) error
	Delete(ctx context.Context, id string) error
}

// showOn returns the show on date, mapping a missing show to ErrNoShow.
func showOn(ctx context.Context, shows ShowStore, date string) (*model.ShowEvent, error) {
	s, err := shows.GetByDate(ctx, date)
	if errors.Is(err, repository.ErrShowNotFound) {
		return nil, fmt.Errorf("%s: %w", date, ErrNoShow)
	}
	return s, err
}
