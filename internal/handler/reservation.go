package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/dinner-theater-booking/internal/middleware"
	"github.com/iliyamo/dinner-theater-booking/internal/model"
	"github.com/iliyamo/dinner-theater-booking/internal/service"
	"github.com/iliyamo/dinner-theater-booking/internal/utils"
)

// ReservationHandler exposes reservation administration, the door list
// and capacity reports.
type ReservationHandler struct {
	Bookings *service.BookingService
	Log      zerolog.Logger
}

func NewReservationHandler(bookings *service.BookingService, log zerolog.Logger) *ReservationHandler {
	if bookings == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Bookings: bookings, Log: log}
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	var in service.BookingInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	r, err := h.Bookings.Create(c.Request().Context(), in)
	if err != nil {
		return fail(c, h.Log, err)
	}
	h.Log.Info().Str("by", middleware.Subject(c)).Str("reservation_id", r.ID).Msg("reservation created")
	return c.JSON(http.StatusCreated, r)
}

// List handles GET /v1/reservations?date=YYYY-MM-DD or ?month=YYYY-MM.
func (h *ReservationHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		items []model.Reservation
		err   error
	)
	switch {
	case c.QueryParam("date") != "":
		items, err = h.Bookings.ListByDate(ctx, c.QueryParam("date"))
	case c.QueryParam("month") != "":
		items, err = h.Bookings.ListByMonth(ctx, c.QueryParam("month"))
	default:
		return badRequest(c, "date or month is required")
	}
	if err != nil {
		return fail(c, h.Log, err)
	}
	if items == nil {
		items = []model.Reservation{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": len(items)})
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	r, err := h.Bookings.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Update handles PUT /v1/reservations/:id.
func (h *ReservationHandler) Update(c echo.Context) error {
	var in service.BookingInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	r, err := h.Bookings.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, r)
}

// SetStatus handles PATCH /v1/reservations/:id/status.
func (h *ReservationHandler) SetStatus(c echo.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	to, ok := model.ParseReservationStatus(body.Status)
	if !ok {
		return badRequest(c, "unknown status")
	}
	r, err := h.Bookings.SetStatus(c.Request().Context(), c.Param("id"), to)
	if err != nil {
		return fail(c, h.Log, err)
	}
	h.Log.Info().Str("by", middleware.Subject(c)).Str("reservation_id", r.ID).Str("status", string(to)).Msg("reservation status changed")
	return c.JSON(http.StatusOK, r)
}

// SetCheckedIn handles PATCH /v1/reservations/:id/checkin.  An empty
// body checks the guest in.
func (h *ReservationHandler) SetCheckedIn(c echo.Context) error {
	body := struct {
		CheckedIn *bool `json:"checkedIn"`
	}{}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	checked := body.CheckedIn == nil || *body.CheckedIn
	r, err := h.Bookings.SetCheckedIn(c.Request().Context(), c.Param("id"), checked)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Delete handles DELETE /v1/reservations/:id.
func (h *ReservationHandler) Delete(c echo.Context) error {
	if err := h.Bookings.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// QRCode handles GET /v1/reservations/:id/qrcode and returns a PNG the
// door staff scan at check-in.
func (h *ReservationHandler) QRCode(c echo.Context) error {
	r, err := h.Bookings.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if size > 1024 {
		size = 1024
	}
	png, err := utils.CheckinQR(r.ID, r.Date, size)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// Checkin handles GET /v1/checkin/:date.
func (h *ReservationHandler) Checkin(c echo.Context) error {
	list, err := h.Bookings.Checkin(c.Request().Context(), c.Param("date"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Capacity handles GET /v1/capacity/:date.
func (h *ReservationHandler) Capacity(c echo.Context) error {
	rep, err := h.Bookings.Capacity(c.Request().Context(), c.Param("date"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, rep)
}
