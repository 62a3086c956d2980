package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/dinner-theater-booking/internal/middleware"
	"github.com/iliyamo/dinner-theater-booking/internal/model"
	"github.com/iliyamo/dinner-theater-booking/internal/settings"
)

// ConfigHandler reads and edits the persisted app config.
type ConfigHandler struct {
	Settings *settings.Manager
	Log      zerolog.Logger
}

func NewConfigHandler(m *settings.Manager, log zerolog.Logger) *ConfigHandler {
	if m == nil {
		panic("nil settings manager passed to NewConfigHandler")
	}
	return &ConfigHandler{Settings: m, Log: log}
}

// Get handles GET /v1/config.
func (h *ConfigHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Settings.Current())
}

// Put handles PUT /v1/config.  The body may carry any subset of the
// config; present fields replace the current values.  A malformed field
// rejects the whole request.
func (h *ConfigHandler) Put(c echo.Context) error {
	var doc settings.Document
	if err := json.NewDecoder(c.Request().Body).Decode(&doc); err != nil || doc == nil {
		return badRequest(c, "body must be a JSON object")
	}
	patch, errs := settings.DecodePatch(doc)
	if len(errs) > 0 {
		fields := make([]string, len(errs))
		for i, e := range errs {
			fields[i] = e.Error()
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed config fields", "fields": fields})
	}

	cfg, err := h.Settings.Update(c.Request().Context(), func(cfg *model.AppConfig) error {
		*cfg = patch.Apply(*cfg)
		return nil
	})
	if errors.Is(err, settings.ErrInvalidConfig) {
		return badRequest(c, err.Error())
	}
	if err != nil {
		return fail(c, h.Log, err)
	}
	h.Log.Info().Str("by", middleware.Subject(c)).Msg("app config updated")
	return c.JSON(http.StatusOK, cfg)
}
