package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/dinner-theater-booking/internal/model"
	"github.com/iliyamo/dinner-theater-booking/internal/service"
)

// WaitlistHandler exposes waitlist administration.
type WaitlistHandler struct {
	Waitlist *service.WaitlistService
	Log      zerolog.Logger
}

func NewWaitlistHandler(w *service.WaitlistService, log zerolog.Logger) *WaitlistHandler {
	if w == nil {
		panic("nil service passed to NewWaitlistHandler")
	}
	return &WaitlistHandler{Waitlist: w, Log: log}
}

// List handles GET /v1/waitlist?date=YYYY-MM-DD.
func (h *WaitlistHandler) List(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return badRequest(c, "date is required")
	}
	items, err := h.Waitlist.ListByDate(c.Request().Context(), date)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if items == nil {
		items = []model.WaitingListEntry{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": len(items)})
}

// Get handles GET /v1/waitlist/:id.
func (h *WaitlistHandler) Get(c echo.Context) error {
	w, err := h.Waitlist.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, w)
}

// SetStatus handles PATCH /v1/waitlist/:id/status.
func (h *WaitlistHandler) SetStatus(c echo.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	to, ok := model.ParseWaitlistStatus(body.Status)
	if !ok {
		return badRequest(c, "unknown status")
	}
	w, err := h.Waitlist.SetStatus(c.Request().Context(), c.Param("id"), to)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, w)
}

// Convert handles POST /v1/waitlist/:id/convert and returns the new
// pending reservation.
func (h *WaitlistHandler) Convert(c echo.Context) error {
	var in service.ConvertInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	r, err := h.Waitlist.Convert(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// Delete handles DELETE /v1/waitlist/:id.
func (h *WaitlistHandler) Delete(c echo.Context) error {
	if err := h.Waitlist.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
