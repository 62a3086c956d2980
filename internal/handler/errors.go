// Package handler holds the echo HTTP handlers.  Handlers bind and
// validate the request shape, call one service method and map service
// errors to status codes.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/dinner-theater-booking/internal/repository"
	"github.com/iliyamo/dinner-theater-booking/internal/service"
	"github.com/iliyamo/dinner-theater-booking/internal/settings"
)

// statusFor maps a service or repository error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, settings.ErrInvalidConfig),
		errors.Is(err, repository.ErrNoCriteria):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoShow),
		errors.Is(err, repository.ErrShowNotFound),
		errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrWaitlistNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrShowClosed),
		errors.Is(err, service.ErrSeatsAvailable),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, service.ErrCutoffPassed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error body.  Unexpected errors are logged
// and hidden behind a generic message.
func fail(c echo.Context, log zerolog.Logger, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("request failed")
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
