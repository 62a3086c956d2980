package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/dinner-theater-booking/internal/capacity"
	"github.com/iliyamo/dinner-theater-booking/internal/model"
)

// WaitlistService handles requests for seats on full or closed dates.
type WaitlistService struct {
	entries  WaitlistStore
	shows    ShowStore
	bookings *BookingService
	cfg      ConfigSource
	log      zerolog.Logger
}

func NewWaitlistService(entries WaitlistStore, shows ShowStore, bookings *BookingService, cfg ConfigSource, log zerolog.Logger) *WaitlistService {
	return &WaitlistService{entries: entries, shows: shows, bookings: bookings, cfg: cfg, log: log}
}

// WaitlistInput is the public waitlist form.
type WaitlistInput struct {
	Date          string `json:"date"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Guests        int    `json:"guests"`
	AcceptPartial bool   `json:"acceptPartialBooking"`
	Source        string `json:"source"`
}

// Join records a waitlist request for a show that is closed or has
// fewer seats left than requested.
func (s *WaitlistService) Join(ctx context.Context, in WaitlistInput) (*model.WaitingListEntry, error) {
	w := &model.WaitingListEntry{
		Date:          strings.TrimSpace(in.Date),
		Name:          strings.TrimSpace(in.Name),
		Email:         strings.TrimSpace(in.Email),
		Phone:         strings.TrimSpace(in.Phone),
		Guests:        in.Guests,
		AcceptPartial: in.AcceptPartial,
		Source:        in.Source,
		Status:        model.WaitlistActive,
	}
	if w.Source == "" {
		w.Source = "web"
	}
	if err := w.Validate(); err != nil {
		return nil, invalid("%s", err.Error())
	}
	if limit := s.cfg.Current().BookingRules.MaxGuests; limit > 0 && w.Guests > limit {
		return nil, invalid("at most %d guests per request", limit)
	}
	show, err := showOn(ctx, s.shows, w.Date)
	if err != nil {
		return nil, err
	}
	if !show.IsClosed {
		booked, err := s.bookings.ListByDate(ctx, show.Date)
		if err != nil {
			return nil, err
		}
		if left := capacity.Available(show, booked); left >= w.Guests {
			return nil, fmt.Errorf("%w: %d seats left", ErrSeatsAvailable, left)
		}
	}
	if err := s.entries.Create(ctx, w); err != nil {
		return nil, err
	}
	s.log.Info().Str("entry_id", w.ID).Str("date", w.Date).Int("guests", w.Guests).Msg("waitlist entry added")
	return w, nil
}

func (s *WaitlistService) Get(ctx context.Context, id string) (*model.WaitingListEntry, error) {
	return s.entries.GetByID(ctx, id)
}

func (s *WaitlistService) ListByDate(ctx context.Context, date string) ([]model.WaitingListEntry, error) {
	if _, err := model.ParseDate(date); err != nil {
		return nil, invalid("date must be formatted as YYYY-MM-DD")
	}
	return s.entries.ListByDate(ctx, date)
}

// SetStatus moves an entry along active, notified, converted, expired.
// Converting goes through Convert so a reservation is created.
func (s *WaitlistService) SetStatus(ctx context.Context, id string, to model.WaitlistStatus) (*model.WaitingListEntry, error) {
	w, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if to == model.WaitlistConverted {
		return nil, fmt.Errorf("%w: use convert to turn an entry into a reservation", ErrInvalidTransition)
	}
	if !model.CanTransitionWaitlist(w.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, w.Status, to)
	}
	if err := s.entries.SetStatus(ctx, id, w.Status, to); err != nil {
		return nil, err
	}
	w.Status = to
	return w, nil
}

// ConvertInput completes a waitlist entry into a booking.  Guests may be
// lowered when the guest accepted a partial booking.
type ConvertInput struct {
	Guests  int                `json:"guests"`
	Package model.DrinkPackage `json:"package"`
	Addons  map[string]int     `json:"addons"`
	Notes   string             `json:"notes"`
}

// Convert creates a pending reservation from an entry and marks the
// entry converted.
func (s *WaitlistService) Convert(ctx context.Context, id string, in ConvertInput) (*model.Reservation, error) {
	w, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CanTransitionWaitlist(w.Status, model.WaitlistConverted) {
		return nil, fmt.Errorf("%w: entry is %s", ErrInvalidTransition, w.Status)
	}
	guests := w.Guests
	if in.Guests > 0 && in.Guests != w.Guests {
		if in.Guests > w.Guests || !w.AcceptPartial {
			return nil, invalid("guest count can only be lowered for entries that accept a partial booking")
		}
		guests = in.Guests
	}

	res, err := s.bookings.Create(ctx, BookingInput{
		Date:    w.Date,
		Name:    w.Name,
		Email:   w.Email,
		Phone:   w.Phone,
		Guests:  guests,
		Package: in.Package,
		Addons:  in.Addons,
		Notes:   in.Notes,
		Status:  model.StatusPending,
	})
	if err != nil {
		return nil, err
	}
	if err := s.entries.SetStatus(ctx, id, w.Status, model.WaitlistConverted); err != nil {
		// the reservation stands; staff can expire the entry by hand
		s.log.Error().Err(err).Str("entry_id", id).Str("reservation_id", res.ID).Msg("mark waitlist entry converted failed")
		return res, nil
	}
	s.log.Info().Str("entry_id", id).Str("reservation_id", res.ID).Msg("waitlist entry converted")
	return res, nil
}

func (s *WaitlistService) Delete(ctx context.Context, id string) error {
	return s.entries.Delete(ctx, id)
}
