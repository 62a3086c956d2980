// Package router registers the HTTP routes on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/dinner-theater-booking/internal/config"
	"github.com/iliyamo/dinner-theater-booking/internal/handler"
	"github.com/iliyamo/dinner-theater-booking/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Public       *handler.PublicHandler
	Shows        *handler.ShowHandler
	Reservations *handler.ReservationHandler
	Waitlist     *handler.WaitlistHandler
	Config       *handler.ConfigHandler
}

// Options carries the middleware settings.  A nil Redis disables the
// response cache and the rate limiter.
type Options struct {
	JWTSecret string
	AdminRole string
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Log       zerolog.Logger
}

// Register mounts the health check, the public booking endpoints and the
// admin API.
func Register(e *echo.Echo, h Handlers, opt Options) {
	e.GET("/healthz", handler.Health)
	RegisterPublic(e, h.Public, opt)
	RegisterAdmin(e, h, opt)
}

// RegisterPublic mounts the unauthenticated endpoints used by the
// booking widget.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, opt Options) {
	limit := middleware.NewTokenBucket(opt.RateLimit, opt.Redis, opt.Log)

	e.GET("/v1/calendar/:month", p.Calendar, middleware.NewRedisCache(opt.Cache, opt.Redis))
	e.POST("/v1/quote", p.Quote, limit)
	e.POST("/v1/bookings", p.Book, limit)
	e.POST("/v1/waitlist", p.JoinWaitlist, limit)
}
