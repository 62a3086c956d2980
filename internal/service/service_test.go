package service_test

import (
	"context"
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/dinner-theater-booking/internal/capacity"
	"github.com/iliyamo/dinner-theater-booking/internal/database"
	"github.com/iliyamo/dinner-theater-booking/internal/model"
	"github.com/iliyamo/dinner-theater-booking/internal/queue"
	"github.com/iliyamo/dinner-theater-booking/internal/repository"
	"github.com/iliyamo/dinner-theater-booking/internal/service"
)

type staticConfig struct{ cfg model.AppConfig }

func (s *staticConfig) Current() model.AppConfig { return s.cfg.Clone() }

type recordingPublisher struct{ events []queue.ReservationConfirmedEvent }

func (p *recordingPublisher) PublishReservationConfirmed(_ context.Context, ev queue.ReservationConfirmedEvent) error {
	p.events = append(p.events, ev)
	return nil
}

type fixture struct {
	db       *sql.DB
	cfg      *staticConfig
	events   *recordingPublisher
	shows    *service.ShowService
	bookings *service.BookingService
	waitlist *service.WaitlistService
	calendar *service.CalendarService
	showRepo *repository.ShowRepo
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrator(db, zerolog.Nop()).Run(context.Background()))

	f := &fixture{
		db:     db,
		cfg:    &staticConfig{cfg: model.DefaultConfig()},
		events: &recordingPublisher{},
		now:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.showRepo = repository.NewShowRepo(db)
	reservations := repository.NewReservationRepo(db)
	entries := repository.NewWaitlistRepo(db)
	log := zerolog.Nop()

	f.shows = service.NewShowService(f.showRepo, f.cfg, log)
	f.bookings = service.NewBookingService(f.showRepo, reservations, f.cfg, f.events, log,
		service.WithClock(func() time.Time { return f.now }),
		service.WithLocation(time.UTC),
	)
	f.waitlist = service.NewWaitlistService(entries, f.showRepo, f.bookings, f.cfg, log)
	f.calendar = service.NewCalendarService(f.showRepo, reservations, entries)
	return f
}

func (f *fixture) addShow(t *testing.T, date string, capacity int) *model.ShowEvent {
	t.Helper()
	s, err := f.shows.Create(context.Background(), service.ShowInput{
		Date: date, Name: "Het Grote Diner Spektakel", Type: "Weekend Show", Capacity: capacity,
	})
	require.NoError(t, err)
	return s
}

func guestBooking(date string, guests int) service.BookingInput {
	return service.BookingInput{Date: date, Name: "Familie Jansen", Email: "jansen@example.nl", Guests: guests}
}

func TestShowService_CreateUsesTypeDefaults(t *testing.T) {
	f := newFixture(t)
	s, err := f.shows.Create(context.Background(), service.ShowInput{Date: "2025-03-14", Name: "Kerst Gala", Type: "Weekend Show"})
	require.NoError(t, err)
	assert.Equal(t, 240, s.Capacity)
	assert.Equal(t, "19:30", s.StartTime)
	assert.Equal(t, "23:00", s.EndTime)

	_, err = f.shows.Create(context.Background(), service.ShowInput{Date: "2025-03-15", Name: "X", Type: "Matinee"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = f.shows.Create(context.Background(), service.ShowInput{Date: "2025-03-14", Name: "Dubbel", Type: "Weekend Show"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestShowService_UpdateKeepsDate(t *testing.T) {
	f := newFixture(t)
	s := f.addShow(t, "2025-03-14", 100)

	_, err := f.shows.Update(context.Background(), s.ID, service.ShowInput{Date: "2025-03-15", Name: "X", Type: "Weekend Show"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	updated, err := f.shows.Update(context.Background(), s.ID, service.ShowInput{Name: "Kerst Gala", Type: "Doordeweekse Show", Capacity: 120})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", updated.Date)
	assert.Equal(t, "Doordeweekse Show", updated.Type)

	closed, err := f.shows.SetClosed(context.Background(), s.ID, true)
	require.NoError(t, err)
	assert.True(t, closed.IsClosed)
}

func TestBookingService_CreatePricesFromConfig(t *testing.T) {
	f := newFixture(t)
	f.addShow(t, "2025-03-14", 240)

	in := guestBooking("2025-03-14", 5)
	in.DiscountCode = "GROEP20"
	in.Addons = map[string]int{model.AddonPreShowDrinks: 2}
	r, err := f.bookings.Create(context.Background(), in)
	require.NoError(t, err)

	// 5 x 80 + 2 x 15 - 50
	assert.Equal(t, int64(38000), r.TotalPrice)
	assert.Equal(t, model.StatusPending, r.Status)
	assert.Empty(t, f.events.events)

	in.DiscountCode = "BESTAATNIET"
	_, err = f.bookings.Create(context.Background(), in)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestBookingService_Rules(t *testing.T) {
	f := newFixture(t)
	f.addShow(t, "2025-03-14", 240)
	ctx := context.Background()

	_, err := f.bookings.Create(ctx, guestBooking("2025-03-14", 13))
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = f.bookings.Create(ctx, guestBooking("2025-03-20", 2))
	assert.ErrorIs(t, err, service.ErrNoShow)

	f.now = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	_, err = f.bookings.Book(ctx, guestBooking("2025-03-14", 2))
	assert.ErrorIs(t, err, service.ErrCutoffPassed)

	// staff may still add a booking on the day
	r, err := f.bookings.Create(ctx, guestBooking("2025-03-14", 2))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, r.Status)
}

func TestBookingService_PublicBooking(t *testing.T) {
	f := newFixture(t)
	s := f.addShow(t, "2025-03-14", 240)
	ctx := context.Background()

	in := guestBooking("2025-03-14", 2)
	in.Status = model.StatusConfirmed
	r, err := f.bookings.Book(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, r.Status)
	assert.Empty(t, f.events.events)

	_, err = f.shows.SetClosed(ctx, s.ID, true)
	require.NoError(t, err)
	_, err = f.bookings.Book(ctx, guestBooking("2025-03-14", 2))
	assert.ErrorIs(t, err, service.ErrShowClosed)

	_, err = f.bookings.Create(ctx, guestBooking("2025-03-14", 2))
	require.NoError(t, err)
}

func TestBookingService_CapacityNotEnforcedByDefault(t *testing.T) {
	f := newFixture(t)
	f.addShow(t, "2025-03-14", 10)
	ctx := context.Background()

	first := guestBooking("2025-03-14", 8)
	first.Status = model.StatusConfirmed
	_, err := f.bookings.Create(ctx, first)
	require.NoError(t, err)

	second, err := f.bookings.Create(ctx, guestBooking("2025-03-14", 4))
	require.NoError(t, err)
	_, err = f.bookings.SetStatus(ctx, second.ID, model.StatusConfirmed)
	require.NoError(t, err)

	rep, err := f.bookings.Capacity(ctx, "2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, -2, rep.Available)
	assert.Equal(t, 0, rep.Remaining)
	assert.Equal(t, 2, rep.Overbooked)
	assert.Equal(t, capacity.LevelFull, rep.Level)
	assert.False(t, rep.EnforcedLimit)
	assert.Len(t, f.events.events, 2)
}

func TestBookingService_CapacityEnforced(t *testing.T) {
	f := newFixture(t)
	f.cfg.cfg.BookingRules.EnforceCapacity = true
	f.addShow(t, "2025-03-14", 10)
	ctx := context.Background()

	first := guestBooking("2025-03-14", 8)
	first.Status = model.StatusConfirmed
	_, err := f.bookings.Create(ctx, first)
	require.NoError(t, err)

	// pending bookings do not hold seats
	second, err := f.bookings.Create(ctx, guestBooking("2025-03-14", 4))
	require.NoError(t, err)

	_, err = f.bookings.SetStatus(ctx, second.ID, model.StatusConfirmed)
	assert.ErrorIs(t, err, service.ErrCapacityExceeded)

	rep, err := f.bookings.Capacity(ctx, "2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Available)
	assert.Equal(t, 4, rep.Pending)
	assert.Len(t, f.events.events, 1)
}

func TestBookingService_StatusLifecycle(t *testing.T) {
	f := newFixture(t)
	f.addShow(t, "2025-03-14", 240)
	ctx := context.Background()

	r, err := f.bookings.Create(ctx, guestBooking("2025-03-14", 2))
	require.NoError(t, err)

	_, err = f.bookings.SetCheckedIn(ctx, r.ID, true)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)

	confirmed, err := f.bookings.SetStatus(ctx, r.ID, model.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, confirmed.Status)
	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.Equal(t, r.ID, ev.ReservationID)
	assert.Equal(t, "Weekend Show", ev.ShowType)
	assert.Equal(t, int64(16000), ev.TotalPriceCents)

	_, err = f.bookings.SetStatus(ctx, r.ID, model.StatusPending)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)

	checked, err := f.bookings.SetCheckedIn(ctx, r.ID, true)
	require.NoError(t, err)
	assert.True(t, checked.CheckedIn)

	_, err = f.bookings.SetStatus(ctx, r.ID, model.StatusCancelled)
	require.NoError(t, err)
	_, err = f.bookings.SetStatus(ctx, r.ID, model.StatusConfirmed)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)
}

func TestBookingService_UpdateReprices(t *testing.T) {
	f := newFixture(t)
	f.addShow(t, "2025-03-14", 240)
	ctx := context.Background()

	r, err := f.bookings.Create(ctx, guestBooking("2025-03-14", 2))
	require.NoError(t, err)
	assert.Equal(t, int64(16000), r.TotalPrice)

	in := guestBooking("2025-03-14", 3)
	in.Package = model.PackagePremium
	updated, err := f.bookings.Update(ctx, r.ID, in)
	require.NoError(t, err)
	assert.Equal(t, int64(28500), updated.TotalPrice)

	stored, err := f.bookings.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Guests)
	assert.Equal(t, model.PackagePremium, stored.Package)
}

func TestBookingService_Quote(t *testing.T) {
	f := newFixture(t)
	f.addShow(t, "2025-03-14", 240)
	ctx := context.Background()

	q, err := f.bookings.Quote(ctx, service.QuoteRequest{Date: "2025-03-14", Guests: 2, Code: "ONBEKEND"})
	require.NoError(t, err)
	assert.Equal(t, int64(16000), q.Subtotal)
	assert.Equal(t, int64(0), q.Discount)
	assert.Equal(t, int64(16000), q.Total)
	assert.NotEmpty(t, q.CodeError)
	assert.Equal(t, 240, q.Available)

	_, err = f.bookings.Quote(ctx, service.QuoteRequest{Date: "2025-03-15", Guests: 2})
	assert.ErrorIs(t, err, service.ErrNoShow)

	_, err = f.bookings.Quote(ctx, service.QuoteRequest{Date: "2025-03-14", Guests: 13})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = f.bookings.Quote(ctx, service.QuoteRequest{
		Date: "2025-03-14", Guests: 2, Addons: map[string]int{model.AddonPreShowDrinks: math.MaxInt64 / 1000},
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = f.bookings.Create(ctx, service.BookingInput{
		Date: "2025-03-14", Name: "Jansen", Guests: 2, Addons: map[string]int{model.AddonAfterParty: model.MaxAddonQty + 1},
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestBookingService_Checkin(t *testing.T) {
	f := newFixture(t)
	f.addShow(t, "2025-03-14", 240)
	ctx := context.Background()

	for _, name := range []string{"Visser", "bakker", "De Jong"} {
		in := guestBooking("2025-03-14", 2)
		in.Name = name
		in.Status = model.StatusConfirmed
		_, err := f.bookings.Create(ctx, in)
		require.NoError(t, err)
	}
	_, err := f.bookings.Create(ctx, guestBooking("2025-03-14", 4))
	require.NoError(t, err)

	list, err := f.bookings.Checkin(ctx, "2025-03-14")
	require.NoError(t, err)
	require.Len(t, list.Entries, 3)
	assert.Equal(t, "bakker", list.Entries[0].Name)
	assert.Equal(t, "Visser", list.Entries[2].Name)
	assert.Equal(t, 6, list.TotalGuests)
	assert.NotNil(t, list.Show)

	_, err = f.bookings.SetCheckedIn(ctx, list.Entries[1].ID, true)
	require.NoError(t, err)
	list, err = f.bookings.Checkin(ctx, "2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, 2, list.CheckedInGuests)
}

func TestWaitlistService_JoinNeedsFullOrClosedShow(t *testing.T) {
	f := newFixture(t)
	f.addShow(t, "2025-03-15", 4)
	ctx := context.Background()

	in := guestBooking("2025-03-15", 3)
	in.Status = model.StatusConfirmed
	_, err := f.bookings.Create(ctx, in)
	require.NoError(t, err)

	_, err = f.waitlist.Join(ctx, service.WaitlistInput{Date: "2025-03-15", Name: "De Vries", Guests: 1})
	assert.ErrorIs(t, err, service.ErrSeatsAvailable)

	w, err := f.waitlist.Join(ctx, service.WaitlistInput{Date: "2025-03-15", Name: "De Vries", Guests: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, w.Guests)
}

func TestWaitlistService_JoinAndConvert(t *testing.T) {
	f := newFixture(t)
	s := f.addShow(t, "2025-03-14", 240)
	ctx := context.Background()

	_, err := f.waitlist.Join(ctx, service.WaitlistInput{Date: "2025-03-21", Name: "De Vries", Guests: 4})
	assert.ErrorIs(t, err, service.ErrNoShow)

	_, err = f.waitlist.Join(ctx, service.WaitlistInput{Date: "2025-03-14", Name: "De Vries", Guests: 4})
	assert.ErrorIs(t, err, service.ErrSeatsAvailable)

	_, err = f.shows.SetClosed(ctx, s.ID, true)
	require.NoError(t, err)

	w, err := f.waitlist.Join(ctx, service.WaitlistInput{Date: "2025-03-14", Name: "De Vries", Email: "devries@example.nl", Guests: 4, AcceptPartial: true})
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistActive, w.Status)
	assert.Equal(t, "web", w.Source)

	_, err = f.waitlist.SetStatus(ctx, w.ID, model.WaitlistNotified)
	require.NoError(t, err)

	_, err = f.waitlist.Convert(ctx, w.ID, service.ConvertInput{Guests: 6})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	// converting is a staff action and ignores the cutoff
	f.now = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	res, err := f.waitlist.Convert(ctx, w.ID, service.ConvertInput{Guests: 3})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, res.Status)
	assert.Equal(t, 3, res.Guests)
	assert.Equal(t, "De Vries", res.Name)

	got, err := f.waitlist.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistConverted, got.Status)

	_, err = f.waitlist.Convert(ctx, w.ID, service.ConvertInput{})
	assert.ErrorIs(t, err, service.ErrInvalidTransition)
	_, err = f.waitlist.SetStatus(ctx, w.ID, model.WaitlistActive)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)
}

func TestCalendarService_Month(t *testing.T) {
	f := newFixture(t)
	f.addShow(t, "2025-03-14", 10)
	ctx := context.Background()

	in := guestBooking("2025-03-14", 9)
	in.Status = model.StatusConfirmed
	_, err := f.bookings.Create(ctx, in)
	require.NoError(t, err)
	_, err = f.waitlist.Join(ctx, service.WaitlistInput{Date: "2025-03-14", Name: "De Vries", Guests: 2})
	require.NoError(t, err)

	cells, err := f.calendar.Month(ctx, "2025-03")
	require.NoError(t, err)
	require.Len(t, cells, 31)

	day := cells[13]
	assert.Equal(t, "2025-03-14", day.Date)
	assert.Equal(t, 9, day.Booked)
	assert.Equal(t, 1, day.Available)
	assert.Equal(t, 2, day.Waitlist)
	assert.Equal(t, capacity.LevelFilling, day.Level)
	assert.Equal(t, capacity.LevelNone, cells[0].Level)

	_, err = f.calendar.Month(ctx, "2025-13")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
