// Package config loads application configuration from environment
// variables.  main calls godotenv first, so a local .env file works too.
package config

import (
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.
type Config struct {
	Env      string // application environment (dev, test, prod)
	Port     string // HTTP port to listen on
	LogLevel string // zerolog level name

	DBDriver   string // "mysql" or "sqlite"
	DBUser     string
	DBPass     string // may be empty
	DBHost     string
	DBPort     string
	DBName     string
	SQLitePath string // used when DBDriver is sqlite

	// JWTSecret verifies tokens issued by the identity provider.
	JWTSecret string
	AdminRole string

	AMQPURL       string // empty disables event publishing
	BookingLogDir string // where the consumer appends booking.log
	Timezone      string // zone show start times are expressed in

	ShutdownTimeout time.Duration

	Settings  SettingsConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
}

// Load reads configuration values from environment variables.  Required
// variables are enforced by must() and missing values stop the process.
func Load() Config {
	cfg := Config{
		Env:             envStr("APP_ENV", "dev"),
		Port:            strconv.Itoa(mustInt("APP_PORT")),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		DBDriver:        envStr("DB_DRIVER", "mysql"),
		SQLitePath:      envStr("SQLITE_PATH", "data/booking.db"),
		JWTSecret:       must("JWT_SECRET"),
		AdminRole:       envStr("ADMIN_ROLE", "ADMIN"),
		AMQPURL:         firstEnv("RABBITMQ_URL", "AMQP_URL"),
		BookingLogDir:   envStr("BOOKING_LOG_DIR", "logs"),
		Timezone:        envStr("APP_TIMEZONE", "Europe/Amsterdam"),
		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
		Settings:        LoadSettingsConfig(),
		Cache:           LoadCacheConfig(),
		RateLimit:       LoadRateLimitConfig(),
		Redis:           LoadRedisConfig(),
	}
	if cfg.DBDriver == "mysql" {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = envStr("DB_PASS", "")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	}
	return cfg
}

// Location resolves Timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", c.Timezone).Msg("unknown timezone, using UTC")
		return time.UTC
	}
	return loc
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty the process exits.
func must(key string) string {
	v := envStr(key, "")
	if v == "" {
		log.Fatal().Str("key", key).Msg("missing required env var")
	}
	return v
}

// mustInt is like must() but converts the value into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatal().Str("key", key).Str("value", s).Msg("invalid int in env var")
	}
	return n
}
