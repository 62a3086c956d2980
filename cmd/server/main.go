package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/dinner-theater-booking/internal/config"
	"github.com/iliyamo/dinner-theater-booking/internal/database"
	"github.com/iliyamo/dinner-theater-booking/internal/handler"
	"github.com/iliyamo/dinner-theater-booking/internal/kvstore"
	"github.com/iliyamo/dinner-theater-booking/internal/logging"
	"github.com/iliyamo/dinner-theater-booking/internal/model"
	"github.com/iliyamo/dinner-theater-booking/internal/repository"
	"github.com/iliyamo/dinner-theater-booking/internal/router"
	"github.com/iliyamo/dinner-theater-booking/internal/service"
	"github.com/iliyamo/dinner-theater-booking/internal/service/publisher"
	"github.com/iliyamo/dinner-theater-booking/internal/settings"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open database")
	}
	defer db.Close()
	if err := database.NewMigrator(db, logging.Component(log, "migrate")).Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	rdb := config.NewRedisClient(cfg.Redis, log)
	if rdb != nil {
		defer rdb.Close()
	}

	store, closeStore, err := openSettingsStore(cfg.Settings, rdb)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Settings.Backend).Msg("open settings store")
	}
	defer closeStore()
	appCfg := settings.Open(ctx, store, cfg.Settings.Key, model.DefaultConfig(), logging.Component(log, "settings"))

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.AMQPURL != "" {
		events = publisher.New(cfg.AMQPURL, logging.Component(log, "publisher"))
	} else {
		log.Warn().Msg("RABBITMQ_URL not set, reservation events are not published")
	}

	shows := repository.NewShowRepo(db)
	reservations := repository.NewReservationRepo(db)
	entries := repository.NewWaitlistRepo(db)

	svcLog := logging.Component(log, "service")
	showSvc := service.NewShowService(shows, appCfg, svcLog)
	bookings := service.NewBookingService(shows, reservations, appCfg, events, svcLog, service.WithLocation(cfg.Location()))
	waitlist := service.NewWaitlistService(entries, shows, bookings, appCfg, svcLog)
	calendar := service.NewCalendarService(shows, reservations, entries)

	httpLog := logging.Component(log, "http")
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(requestLogger(httpLog))

	router.Register(e, router.Handlers{
		Public:       handler.NewPublicHandler(calendar, bookings, waitlist, httpLog),
		Shows:        handler.NewShowHandler(showSvc, httpLog),
		Reservations: handler.NewReservationHandler(bookings, httpLog),
		Waitlist:     handler.NewWaitlistHandler(waitlist, httpLog),
		Config:       handler.NewConfigHandler(appCfg, httpLog),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		AdminRole: cfg.AdminRole,
		Redis:     rdb,
		Cache:     cfg.Cache,
		RateLimit: cfg.RateLimit,
		Log:       httpLog,
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("db", cfg.DBDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("stopped")
}

func openDB(cfg config.Config) (*sql.DB, error) {
	if cfg.DBDriver == "sqlite" {
		if err := ensureDir(cfg.SQLitePath); err != nil {
			return nil, err
		}
		return database.OpenSQLite(cfg.SQLitePath)
	}
	return database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// openSettingsStore picks the key-value backend for the app config.
func openSettingsStore(cfg config.SettingsConfig, rdb *redis.Client) (kvstore.Store, func(), error) {
	switch cfg.Backend {
	case "memory":
		return kvstore.NewMemory(), func() {}, nil
	case "redis":
		if rdb == nil {
			return nil, nil, errors.New("settings backend redis needs a reachable redis")
		}
		return kvstore.NewRedis(rdb, cfg.RedisPrefix), func() {}, nil
	default:
		if err := ensureDir(cfg.SQLitePath); err != nil {
			return nil, nil, err
		}
		s, err := kvstore.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
}

func ensureDir(path string) error {
	if path == ":memory:" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).Str("path", v.URIPath).Int("status", v.Status).Dur("latency", v.Latency).Msg("request")
			return nil
		},
	})
}
