package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/dinner-theater-booking/internal/capacity"
	"github.com/iliyamo/dinner-theater-booking/internal/model"
	"github.com/iliyamo/dinner-theater-booking/internal/pricing"
	"github.com/iliyamo/dinner-theater-booking/internal/queue"
	"github.com/iliyamo/dinner-theater-booking/internal/repository"
)

// BookingService manages reservations: pricing, booking rules, capacity
// and status transitions.
type BookingService struct {
	shows        ShowStore
	reservations ReservationStore
	cfg          ConfigSource
	events       EventPublisher
	log          zerolog.Logger
	loc          *time.Location
	now          func() time.Time
}

// BookingOption customises a BookingService.
type BookingOption func(*BookingService)

// WithClock replaces time.Now, for the cutoff rule.
func WithClock(now func() time.Time) BookingOption {
	return func(b *BookingService) { b.now = now }
}

// WithLocation sets the zone show start times are expressed in.
func WithLocation(loc *time.Location) BookingOption {
	return func(b *BookingService) {
		if loc != nil {
			b.loc = loc
		}
	}
}

func NewBookingService(shows ShowStore, reservations ReservationStore, cfg ConfigSource, events EventPublisher, log zerolog.Logger, opts ...BookingOption) *BookingService {
	if events == nil {
		events = NopPublisher{}
	}
	b := &BookingService{
		shows:        shows,
		reservations: reservations,
		cfg:          cfg,
		events:       events,
		log:          log,
		loc:          time.Local,
		now:          time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// BookingInput is the booking form.  Status may be left empty (pending)
// or set to confirmed when staff book directly.
type BookingInput struct {
	Date         string                  `json:"date"`
	Name         string                  `json:"name"`
	Email        string                  `json:"email"`
	Phone        string                  `json:"phone"`
	Guests       int                     `json:"guests"`
	Package      model.DrinkPackage      `json:"package"`
	Addons       map[string]int          `json:"addons"`
	DiscountCode string                  `json:"discountCode"`
	Notes        string                  `json:"notes"`
	Status       model.ReservationStatus `json:"status"`
}

// QuoteRequest prices a booking without storing it.
type QuoteRequest struct {
	Date    string             `json:"date"`
	Guests  int                `json:"guests"`
	Package model.DrinkPackage `json:"package"`
	Addons  map[string]int     `json:"addons"`
	Code    string             `json:"code"`
}

// QuoteResult is a price quote with the seats left on the date.
type QuoteResult struct {
	pricing.Quote
	ShowType  string `json:"showType"`
	Available int    `json:"available"`
	CodeError string `json:"codeError,omitempty"`
}

// Quote prices req against the show on its date.  An unusable code does
// not fail the quote; it is reported in CodeError.
func (b *BookingService) Quote(ctx context.Context, req QuoteRequest) (QuoteResult, error) {
	if req.Guests <= 0 {
		return QuoteResult{}, invalid("guests must be greater than 0")
	}
	if req.Package == "" {
		req.Package = model.PackageStandard
	}
	if !req.Package.Valid() {
		return QuoteResult{}, invalid("package must be standard or premium")
	}
	if err := model.ValidateAddons(req.Addons); err != nil {
		return QuoteResult{}, invalid("%s", err.Error())
	}
	if err := checkGuests(b.cfg.Current(), req.Guests); err != nil {
		return QuoteResult{}, err
	}
	show, err := showOn(ctx, b.shows, req.Date)
	if err != nil {
		return QuoteResult{}, err
	}
	booked, err := b.reservations.ListByDate(ctx, show.Date)
	if err != nil {
		return QuoteResult{}, err
	}
	q := pricing.Compute(pricing.Draft{Guests: req.Guests, Package: req.Package, ShowType: show.Type, Addons: req.Addons}, b.cfg.Current(), req.Code)
	res := QuoteResult{Quote: q, ShowType: show.Type, Available: capacity.Available(show, booked)}
	if q.CodeErr != nil {
		res.CodeError = q.CodeErr.Error()
	}
	return res, nil
}

// checkGuests applies the min and max guest rules.
func checkGuests(cfg model.AppConfig, guests int) error {
	r := cfg.BookingRules
	if r.MinGuests > 0 && guests < r.MinGuests {
		return invalid("at least %d guests per booking", r.MinGuests)
	}
	if r.MaxGuests > 0 && guests > r.MaxGuests {
		return invalid("at most %d guests per booking", r.MaxGuests)
	}
	return nil
}

// checkCutoff refuses bookings made less than CutoffHours before the
// show starts.
func (b *BookingService) checkCutoff(cfg model.AppConfig, show *model.ShowEvent) error {
	hours := cfg.BookingRules.CutoffHours
	if hours <= 0 {
		return nil
	}
	start, err := b.showStart(cfg, show)
	if err != nil {
		return err
	}
	if b.now().Add(time.Duration(hours) * time.Hour).After(start) {
		return fmt.Errorf("%w: bookings close %d hours before the show", ErrCutoffPassed, hours)
	}
	return nil
}

// showStart is the show's start time in the service location, falling
// back to the show type default and then to midnight.
func (b *BookingService) showStart(cfg model.AppConfig, show *model.ShowEvent) (time.Time, error) {
	clock := show.StartTime
	if clock == "" {
		if st, ok := cfg.FindShowType(show.Type); ok {
			clock = st.DefaultStartTime
		}
	}
	if clock == "" {
		clock = "00:00"
	}
	t, err := time.ParseInLocation(model.DateLayout+" 15:04", show.Date+" "+clock, b.loc)
	if err != nil {
		return time.Time{}, invalid("show %s has an unreadable start time", show.Date)
	}
	return t, nil
}

// ensureSeats enforces capacity when the config asks for it.  exclude is
// the reservation being changed, so it is not counted twice.
func (b *BookingService) ensureSeats(ctx context.Context, cfg model.AppConfig, show *model.ShowEvent, guests int, exclude string) (int, error) {
	booked, err := b.reservations.ListByDate(ctx, show.Date)
	if err != nil {
		return 0, err
	}
	others := booked[:0:0]
	for _, r := range booked {
		if r.ID != exclude {
			others = append(others, r)
		}
	}
	available := capacity.Available(show, others)
	if cfg.BookingRules.EnforceCapacity && guests > available {
		return available, fmt.Errorf("%w: %d requested, %d left", ErrCapacityExceeded, guests, capacity.Display(available))
	}
	return available, nil
}

func (b *BookingService) price(cfg model.AppConfig, show *model.ShowEvent, r *model.Reservation) error {
	q := pricing.Compute(pricing.Draft{Guests: r.Guests, Package: r.Package, ShowType: show.Type, Addons: r.Addons}, cfg, r.DiscountCode)
	if q.CodeErr != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, q.CodeErr)
	}
	r.TotalPrice = q.Total
	return nil
}

func (in BookingInput) apply(r *model.Reservation) {
	r.Date = strings.TrimSpace(in.Date)
	r.Name = strings.TrimSpace(in.Name)
	r.Email = strings.TrimSpace(in.Email)
	r.Phone = strings.TrimSpace(in.Phone)
	r.Guests = in.Guests
	r.Package = in.Package
	if r.Package == "" {
		r.Package = model.PackageStandard
	}
	r.Addons = in.Addons
	r.DiscountCode = strings.TrimSpace(in.DiscountCode)
	r.Notes = in.Notes
}

// Create stores a reservation added by staff.  The cutoff does not apply
// and closed shows can still be booked.
func (b *BookingService) Create(ctx context.Context, in BookingInput) (*model.Reservation, error) {
	return b.create(ctx, in, false)
}

// Book stores a reservation from the public booking form.  It is always
// pending, closed shows are refused and the cutoff applies.
func (b *BookingService) Book(ctx context.Context, in BookingInput) (*model.Reservation, error) {
	in.Status = model.StatusPending
	return b.create(ctx, in, true)
}

func (b *BookingService) create(ctx context.Context, in BookingInput, public bool) (*model.Reservation, error) {
	r := &model.Reservation{Status: model.StatusPending}
	in.apply(r)
	if in.Status != "" {
		if in.Status != model.StatusPending && in.Status != model.StatusConfirmed {
			return nil, invalid("new reservations are pending or confirmed")
		}
		r.Status = in.Status
	}
	if err := r.Validate(); err != nil {
		return nil, invalid("%s", err.Error())
	}
	cfg := b.cfg.Current()
	show, err := showOn(ctx, b.shows, r.Date)
	if err != nil {
		return nil, err
	}
	if err := checkGuests(cfg, r.Guests); err != nil {
		return nil, err
	}
	if public {
		if show.IsClosed {
			return nil, ErrShowClosed
		}
		if err := b.checkCutoff(cfg, show); err != nil {
			return nil, err
		}
	}
	if err := b.price(cfg, show, r); err != nil {
		return nil, err
	}
	if r.IsConfirmed() {
		if _, err := b.ensureSeats(ctx, cfg, show, r.Guests, ""); err != nil {
			return nil, err
		}
	}
	if err := b.reservations.Create(ctx, r); err != nil {
		return nil, err
	}
	b.log.Info().Str("reservation_id", r.ID).Str("date", r.Date).Int("guests", r.Guests).Str("status", string(r.Status)).Msg("reservation created")
	if r.IsConfirmed() {
		b.publishConfirmed(ctx, show, r)
	}
	return r, nil
}

func (b *BookingService) Get(ctx context.Context, id string) (*model.Reservation, error) {
	return b.reservations.GetByID(ctx, id)
}

func (b *BookingService) ListByDate(ctx context.Context, date string) ([]model.Reservation, error) {
	if _, err := model.ParseDate(date); err != nil {
		return nil, invalid("date must be formatted as YYYY-MM-DD")
	}
	return b.reservations.ListByDate(ctx, date)
}

func (b *BookingService) ListByMonth(ctx context.Context, month string) ([]model.Reservation, error) {
	if _, _, err := model.MonthBounds(month); err != nil {
		return nil, invalid("month must be formatted as YYYY-MM")
	}
	return b.reservations.ListByMonth(ctx, month)
}

// Update edits a reservation and re-prices it.  Booking rules other than
// the cutoff apply; staff may still correct a booking on the day.
func (b *BookingService) Update(ctx context.Context, id string, in BookingInput) (*model.Reservation, error) {
	r, err := b.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(r)
	if err := r.Validate(); err != nil {
		return nil, invalid("%s", err.Error())
	}
	cfg := b.cfg.Current()
	show, err := showOn(ctx, b.shows, r.Date)
	if err != nil {
		return nil, err
	}
	if err := checkGuests(cfg, r.Guests); err != nil {
		return nil, err
	}
	if err := b.price(cfg, show, r); err != nil {
		return nil, err
	}
	if r.IsConfirmed() {
		if _, err := b.ensureSeats(ctx, cfg, show, r.Guests, r.ID); err != nil {
			return nil, err
		}
	}
	if err := b.reservations.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// SetStatus moves a reservation along its lifecycle.  Confirming checks
// capacity (when enforced) and publishes a ReservationConfirmedEvent.
func (b *BookingService) SetStatus(ctx context.Context, id string, to model.ReservationStatus) (*model.Reservation, error) {
	r, err := b.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(r.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, r.Status, to)
	}
	var show *model.ShowEvent
	if to == model.StatusConfirmed {
		if show, err = showOn(ctx, b.shows, r.Date); err != nil {
			return nil, err
		}
		if _, err := b.ensureSeats(ctx, b.cfg.Current(), show, r.Guests, r.ID); err != nil {
			return nil, err
		}
	}
	if err := b.reservations.SetStatus(ctx, id, r.Status, to); err != nil {
		return nil, err
	}
	from := r.Status
	r.Status = to
	b.log.Info().Str("reservation_id", id).Str("from", string(from)).Str("to", string(to)).Msg("reservation status changed")
	if show != nil {
		b.publishConfirmed(ctx, show, r)
	}
	return r, nil
}

// SetCheckedIn marks arrival.  Only confirmed reservations can be
// checked in; unchecking is always allowed.
func (b *BookingService) SetCheckedIn(ctx context.Context, id string, checkedIn bool) (*model.Reservation, error) {
	r, err := b.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if checkedIn && !r.IsConfirmed() {
		return nil, fmt.Errorf("%w: only confirmed reservations can be checked in", ErrInvalidTransition)
	}
	if err := b.reservations.SetCheckedIn(ctx, id, checkedIn); err != nil {
		return nil, err
	}
	r.CheckedIn = checkedIn
	return r, nil
}

func (b *BookingService) Delete(ctx context.Context, id string) error {
	if err := b.reservations.Delete(ctx, id); err != nil {
		return err
	}
	b.log.Info().Str("reservation_id", id).Msg("reservation deleted")
	return nil
}

func (b *BookingService) publishConfirmed(ctx context.Context, show *model.ShowEvent, r *model.Reservation) {
	ev := queue.ReservationConfirmedEvent{
		ReservationID:   r.ID,
		Date:            r.Date,
		ShowName:        show.Name,
		ShowType:        show.Type,
		StartTime:       show.StartTime,
		GuestName:       r.Name,
		Email:           r.Email,
		Guests:          r.Guests,
		Package:         string(r.Package),
		Addons:          r.Addons,
		TotalPriceCents: r.TotalPrice,
		ConfirmedAt:     b.now().UTC().Format(time.RFC3339),
	}
	if err := b.events.PublishReservationConfirmed(ctx, ev); err != nil {
		b.log.Warn().Err(err).Str("reservation_id", r.ID).Msg("publish reservation confirmed failed")
	}
}

// CheckinList is the door list for one show date.
type CheckinList struct {
	Date            string              `json:"date"`
	Show            *model.ShowEvent    `json:"show,omitempty"`
	Entries         []model.Reservation `json:"entries"`
	TotalGuests     int                 `json:"totalGuests"`
	CheckedInGuests int                 `json:"checkedInGuests"`
}

// Checkin returns the confirmed reservations of date sorted by name.
func (b *BookingService) Checkin(ctx context.Context, date string) (CheckinList, error) {
	all, err := b.ListByDate(ctx, date)
	if err != nil {
		return CheckinList{}, err
	}
	list := CheckinList{Date: date, Entries: []model.Reservation{}}
	show, err := b.shows.GetByDate(ctx, date)
	if err == nil {
		list.Show = show
	} else if !errors.Is(err, repository.ErrShowNotFound) {
		return CheckinList{}, err
	}
	for _, r := range all {
		if !r.IsConfirmed() {
			continue
		}
		list.Entries = append(list.Entries, r)
		list.TotalGuests += r.Guests
		if r.CheckedIn {
			list.CheckedInGuests += r.Guests
		}
	}
	sort.SliceStable(list.Entries, func(i, j int) bool {
		return strings.ToLower(list.Entries[i].Name) < strings.ToLower(list.Entries[j].Name)
	})
	return list, nil
}

// CapacityReport describes seat usage on one date.
type CapacityReport struct {
	Date          string         `json:"date"`
	ShowID        string         `json:"showId"`
	Capacity      int            `json:"capacity"`
	Confirmed     int            `json:"confirmedGuests"`
	Pending       int            `json:"pendingGuests"`
	Available     int            `json:"available"`
	Remaining     int            `json:"remaining"`
	Overbooked    int            `json:"overbooked"`
	Level         capacity.Level `json:"level"`
	IsClosed      bool           `json:"isClosed"`
	EnforcedLimit bool           `json:"enforcedLimit"`
}

// Capacity reports raw and display availability for date.
func (b *BookingService) Capacity(ctx context.Context, date string) (CapacityReport, error) {
	if _, err := model.ParseDate(date); err != nil {
		return CapacityReport{}, invalid("date must be formatted as YYYY-MM-DD")
	}
	show, err := showOn(ctx, b.shows, date)
	if err != nil {
		return CapacityReport{}, err
	}
	booked, err := b.reservations.ListByDate(ctx, date)
	if err != nil {
		return CapacityReport{}, err
	}
	available := capacity.Available(show, booked)
	rep := CapacityReport{
		Date:          date,
		ShowID:        show.ID,
		Capacity:      show.Capacity,
		Confirmed:     capacity.ConfirmedGuests(booked),
		Available:     available,
		Remaining:     capacity.Display(available),
		Overbooked:    capacity.Overbooked(available),
		IsClosed:      show.IsClosed,
		EnforcedLimit: b.cfg.Current().BookingRules.EnforceCapacity,
	}
	for _, r := range booked {
		if r.Status == model.StatusPending {
			rep.Pending += r.Guests
		}
	}
	rep.Level = capacity.LevelFor(rep.Confirmed, show.Capacity)
	if show.IsClosed && rep.Level != capacity.LevelFull {
		rep.Level = capacity.LevelClosed
	}
	return rep, nil
}
