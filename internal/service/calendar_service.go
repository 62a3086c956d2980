package service

import (
	"context"

	"github.com/iliyamo/dinner-theater-booking/internal/capacity"
	"github.com/iliyamo/dinner-theater-booking/internal/model"
)

// CalendarService builds the month view shown on the admin calendar and
// the public availability page.
type CalendarService struct {
	shows        ShowStore
	reservations ReservationStore
	waitlist     WaitlistStore
}

func NewCalendarService(shows ShowStore, reservations ReservationStore, waitlist WaitlistStore) *CalendarService {
	return &CalendarService{shows: shows, reservations: reservations, waitlist: waitlist}
}

// Month returns one cell per day of month (YYYY-MM).
func (c *CalendarService) Month(ctx context.Context, month string) ([]capacity.Cell, error) {
	first, last, err := model.MonthBounds(month)
	if err != nil {
		return nil, invalid("month must be formatted as YYYY-MM")
	}
	shows, err := c.shows.ListByMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	reservations, err := c.reservations.ListByMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	waiting, err := c.waitlist.ListByRange(ctx, first, last)
	if err != nil {
		return nil, err
	}
	return capacity.BuildMonth(month, shows, reservations, waiting)
}
