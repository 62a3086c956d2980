package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/dinner-theater-booking/internal/model"
	"github.com/iliyamo/dinner-theater-booking/internal/repository"
)

// ShowService schedules shows on the calendar.
type ShowService struct {
	shows ShowStore
	cfg   ConfigSource
	log   zerolog.Logger
}

func NewShowService(shows ShowStore, cfg ConfigSource, log zerolog.Logger) *ShowService {
	return &ShowService{shows: shows, cfg: cfg, log: log}
}

// ShowInput is the admin form for adding or editing a show.  Zero
// capacity and empty times are filled from the show type.
type ShowInput struct {
	Date      string `json:"date"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Capacity  int    `json:"capacity"`
	IsClosed  bool   `json:"isClosed"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func (s *ShowService) build(in ShowInput, into *model.ShowEvent) error {
	cfg := s.cfg.Current()
	st, ok := cfg.FindShowType(strings.TrimSpace(in.Type))
	if !ok {
		return invalid("unknown show type %q", in.Type)
	}
	into.Name = strings.TrimSpace(in.Name)
	into.Type = st.Name
	into.Capacity = in.Capacity
	if into.Capacity == 0 {
		into.Capacity = st.DefaultCapacity
	}
	into.IsClosed = in.IsClosed
	into.StartTime, into.EndTime = in.StartTime, in.EndTime
	if into.StartTime == "" {
		into.StartTime = st.DefaultStartTime
	}
	if into.EndTime == "" {
		into.EndTime = st.DefaultEndTime
	}
	if err := into.Validate(); err != nil {
		return invalid("%s", err.Error())
	}
	return nil
}

// Create schedules a new show.  A date that already has a show returns
// repository.ErrDuplicate.
func (s *ShowService) Create(ctx context.Context, in ShowInput) (*model.ShowEvent, error) {
	show := &model.ShowEvent{Date: strings.TrimSpace(in.Date)}
	if err := s.build(in, show); err != nil {
		return nil, err
	}
	if err := s.shows.Create(ctx, show); err != nil {
		return nil, err
	}
	s.log.Info().Str("show_id", show.ID).Str("date", show.Date).Str("type", show.Type).Msg("show created")
	return show, nil
}

func (s *ShowService) Get(ctx context.Context, id string) (*model.ShowEvent, error) {
	return s.shows.GetByID(ctx, id)
}

func (s *ShowService) ListByMonth(ctx context.Context, month string) ([]model.ShowEvent, error) {
	if _, _, err := model.MonthBounds(month); err != nil {
		return nil, invalid("month must be formatted as YYYY-MM")
	}
	return s.shows.ListByMonth(ctx, month)
}

func (s *ShowService) Search(ctx context.Context, q repository.ShowSearchQuery) ([]model.ShowEvent, int64, error) {
	return s.shows.Search(ctx, q)
}

// Update rewrites a show.  The date of an existing show cannot change.
func (s *ShowService) Update(ctx context.Context, id string, in ShowInput) (*model.ShowEvent, error) {
	show, err := s.shows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := strings.TrimSpace(in.Date); d != "" && d != show.Date {
		return nil, invalid("the date of a show cannot be changed")
	}
	if err := s.build(in, show); err != nil {
		return nil, err
	}
	if err := s.shows.Update(ctx, show); err != nil {
		return nil, err
	}
	return show, nil
}

// SetClosed opens or closes a show for bookings (closed = waitlist only).
func (s *ShowService) SetClosed(ctx context.Context, id string, closed bool) (*model.ShowEvent, error) {
	if err := s.shows.SetClosed(ctx, id, closed); err != nil {
		return nil, err
	}
	s.log.Info().Str("show_id", id).Bool("closed", closed).Msg("show status changed")
	return s.shows.GetByID(ctx, id)
}

func (s *ShowService) Delete(ctx context.Context, id string) error {
	if err := s.shows.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("show_id", id).Msg("show deleted")
	return nil
}

// BulkDelete removes the shows of one month matching c.
func (s *ShowService) BulkDelete(ctx context.Context, c repository.DeleteCriteria) (repository.BulkDeleteResult, error) {
	if _, _, err := model.MonthBounds(c.Month); err != nil {
		return repository.BulkDeleteResult{}, invalid("month must be formatted as YYYY-MM")
	}
	for _, d := range []string{c.From, c.To} {
		if d == "" {
			continue
		}
		if _, err := model.ParseDate(d); err != nil {
			return repository.BulkDeleteResult{}, invalid("date %q must be formatted as YYYY-MM-DD", d)
		}
	}
	res, err := s.shows.DeleteByCriteria(ctx, c)
	if err != nil {
		return res, err
	}
	s.log.Info().Str("month", c.Month).Int("deleted", len(res.Deleted)).Int("skipped", len(res.Skipped)).Msg("shows bulk deleted")
	return res, nil
}
