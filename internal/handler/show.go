package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/dinner-theater-booking/internal/repository"
	"github.com/iliyamo/dinner-theater-booking/internal/service"
)

// ShowHandler exposes show administration.
type ShowHandler struct {
	Shows *service.ShowService
	Log   zerolog.Logger
}

func NewShowHandler(shows *service.ShowService, log zerolog.Logger) *ShowHandler {
	if shows == nil {
		panic("nil service passed to NewShowHandler")
	}
	return &ShowHandler{Shows: shows, Log: log}
}

// Create handles POST /v1/shows.
func (h *ShowHandler) Create(c echo.Context) error {
	var in service.ShowInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	s, err := h.Shows.Create(c.Request().Context(), in)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, s)
}

// List handles GET /v1/shows.  With ?month=YYYY-MM it returns that
// month; otherwise it searches by name, type, from, to and closed with
// page and page_size.
func (h *ShowHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	if month := c.QueryParam("month"); month != "" {
		items, err := h.Shows.ListByMonth(ctx, month)
		if err != nil {
			return fail(c, h.Log, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"items": items, "total": len(items)})
	}

	q := repository.ShowSearchQuery{
		Name: c.QueryParam("name"),
		Type: c.QueryParam("type"),
		From: c.QueryParam("from"),
		To:   c.QueryParam("to"),
	}
	if v := c.QueryParam("closed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "closed must be true or false")
		}
		q.Closed = &b
	}
	q.Page, _ = strconv.Atoi(c.QueryParam("page"))
	q.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if q.PageSize > 200 {
		q.PageSize = 200
	}

	items, total, err := h.Shows.Search(ctx, q)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

// Get handles GET /v1/shows/:id.
func (h *ShowHandler) Get(c echo.Context) error {
	s, err := h.Shows.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Update handles PUT /v1/shows/:id.  The date cannot change.
func (h *ShowHandler) Update(c echo.Context) error {
	var in service.ShowInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	s, err := h.Shows.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

// SetStatus handles PATCH /v1/shows/:id/status with {"isClosed": bool}.
func (h *ShowHandler) SetStatus(c echo.Context) error {
	var body struct {
		IsClosed *bool `json:"isClosed"`
	}
	if err := c.Bind(&body); err != nil || body.IsClosed == nil {
		return badRequest(c, "isClosed is required")
	}
	s, err := h.Shows.SetClosed(c.Request().Context(), c.Param("id"), *body.IsClosed)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Delete handles DELETE /v1/shows/:id.
func (h *ShowHandler) Delete(c echo.Context) error {
	if err := h.Shows.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// BulkDelete handles POST /v1/shows/bulk-delete.
func (h *ShowHandler) BulkDelete(c echo.Context) error {
	var crit repository.DeleteCriteria
	if err := c.Bind(&crit); err != nil {
		return badRequest(c, "invalid request body")
	}
	res, err := h.Shows.BulkDelete(c.Request().Context(), crit)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}
