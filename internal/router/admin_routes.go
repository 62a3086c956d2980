package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/dinner-theater-booking/internal/middleware"
)

// RegisterAdmin mounts the admin API under /v1.  Every route requires a
// token carrying the admin role, and successful writes drop the cached
// public calendar.
func RegisterAdmin(e *echo.Echo, h Handlers, opt Options) {
	role := opt.AdminRole
	if role == "" {
		role = "ADMIN"
	}
	g := e.Group(
		"/v1",
		middleware.JWTAuth(opt.JWTSecret),
		middleware.RequireRole(role),
		middleware.InvalidateCache(opt.Cache, opt.Redis, opt.Log),
	)

	// ---- Shows ----
	g.GET("/shows", h.Shows.List)
	g.POST("/shows", h.Shows.Create)
	g.POST("/shows/bulk-delete", h.Shows.BulkDelete)
	g.GET("/shows/:id", h.Shows.Get)
	g.PUT("/shows/:id", h.Shows.Update)
	g.PATCH("/shows/:id/status", h.Shows.SetStatus)
	g.DELETE("/shows/:id", h.Shows.Delete)

	// ---- Reservations ----
	g.GET("/reservations", h.Reservations.List)
	g.POST("/reservations", h.Reservations.Create)
	g.GET("/reservations/:id", h.Reservations.Get)
	g.PUT("/reservations/:id", h.Reservations.Update)
	g.PATCH("/reservations/:id/status", h.Reservations.SetStatus)
	g.PATCH("/reservations/:id/checkin", h.Reservations.SetCheckedIn)
	g.GET("/reservations/:id/qrcode", h.Reservations.QRCode)
	g.DELETE("/reservations/:id", h.Reservations.Delete)
	g.GET("/checkin/:date", h.Reservations.Checkin)
	g.GET("/capacity/:date", h.Reservations.Capacity)

	// ---- Waitlist ----
	g.GET("/waitlist", h.Waitlist.List)
	g.GET("/waitlist/:id", h.Waitlist.Get)
	g.PATCH("/waitlist/:id/status", h.Waitlist.SetStatus)
	g.POST("/waitlist/:id/convert", h.Waitlist.Convert)
	g.DELETE("/waitlist/:id", h.Waitlist.Delete)

	// ---- Config ----
	g.GET("/config", h.Config.Get)
	g.PUT("/config", h.Config.Put)
}
