package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/dinner-theater-booking/internal/service"
)

// PublicHandler serves the unauthenticated booking widget endpoints.
type PublicHandler struct {
	Calendars *service.CalendarService
	Bookings  *service.BookingService
	Waitlist  *service.WaitlistService
	Log       zerolog.Logger
}

func NewPublicHandler(cal *service.CalendarService, bookings *service.BookingService, waitlist *service.WaitlistService, log zerolog.Logger) *PublicHandler {
	if cal == nil || bookings == nil || waitlist == nil {
		panic("nil service passed to NewPublicHandler")
	}
	return &PublicHandler{Calendars: cal, Bookings: bookings, Waitlist: waitlist, Log: log}
}

// Calendar handles GET /v1/calendar/:month.
func (h *PublicHandler) Calendar(c echo.Context) error {
	month := c.Param("month")
	cells, err := h.Calendars.Month(c.Request().Context(), month)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"month": month, "days": cells})
}

// Quote handles POST /v1/quote.
func (h *PublicHandler) Quote(c echo.Context) error {
	var req service.QuoteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	q, err := h.Bookings.Quote(c.Request().Context(), req)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, q)
}

// Book handles POST /v1/bookings, the public booking form.  The
// reservation is stored as pending for staff to confirm.
func (h *PublicHandler) Book(c echo.Context) error {
	var in service.BookingInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	r, err := h.Bookings.Book(c.Request().Context(), in)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// JoinWaitlist handles POST /v1/waitlist.
func (h *PublicHandler) JoinWaitlist(c echo.Context) error {
	var in service.WaitlistInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	w, err := h.Waitlist.Join(c.Request().Context(), in)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, w)
}
