// Package settings persists the application config as one JSON blob in a
// key-value store.  Loading is forgiving: whatever is stored is migrated
// to the current schema and merged onto the defaults, and anything that
// cannot be read falls back to the defaults.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iliyamo/dinner-theater-booking/internal/kvstore"
	"github.com/iliyamo/dinner-theater-booking/internal/model"
)

// DefaultKey is the store key the config lives under.
const DefaultKey = "appConfig"

// Load reads the config stored under key.  It never fails; problems are
// logged and the defaults are returned instead.
func Load(ctx context.Context, store kvstore.Store, key string, defaults model.AppConfig, log zerolog.Logger) model.AppConfig {
	cfg, _ := load(ctx, store, key, defaults, log)
	return cfg
}

func load(ctx context.Context, store kvstore.Store, key string, defaults model.AppConfig, log zerolog.Logger) (model.AppConfig, []string) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		log.Debug().Str("key", key).Msg("no stored config, using defaults")
		return defaults.Clone(), nil
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("read config failed, using defaults")
		return defaults.Clone(), nil
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("stored config is not a JSON object, using defaults")
		return defaults.Clone(), nil
	}
	if doc == nil {
		return defaults.Clone(), nil
	}

	if !WholeVersion(doc) {
		log.Warn().Interface("schemaVersion", doc["schemaVersion"]).Str("key", key).Msg("schemaVersion is not a whole number")
	}
	applied, err := Migrate(doc, Chain)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("config migration failed, using defaults")
		return defaults.Clone(), nil
	}
	for _, name := range applied {
		log.Info().Str("key", key).Str("migration", name).Msg("config migrated")
	}

	cfg, errs := Merge(defaults, doc)
	for _, e := range errs {
		log.Warn().Err(e).Str("key", key).Msg("ignoring malformed config field")
	}
	return cfg, applied
}

// Save writes the full config under key.
func Save(ctx context.Context, store kvstore.Store, key string, cfg model.AppConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Manager owns the live config and writes it through on every change.
type Manager struct {
	mu    sync.RWMutex
	cfg   model.AppConfig
	store kvstore.Store
	key   string
	log   zerolog.Logger
}

// Open loads the config and returns a Manager for it.  A config that
// needed migrating is written back straight away.
func Open(ctx context.Context, store kvstore.Store, key string, defaults model.AppConfig, log zerolog.Logger) *Manager {
	if key == "" {
		key = DefaultKey
	}
	cfg, applied := load(ctx, store, key, defaults, log)
	m := &Manager{cfg: cfg, store: store, key: key, log: log}
	if len(applied) > 0 {
		m.persist(ctx, cfg)
	}
	return m
}

// Current returns a copy of the live config.
func (m *Manager) Current() model.AppConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Clone()
}

// Update applies fn to a copy of the config.  If fn returns an error or
// the result fails validation nothing changes.  Otherwise the new config
// becomes current and is persisted; a failed write is logged only.
func (m *Manager) Update(ctx context.Context, fn func(*model.AppConfig) error) (model.AppConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.cfg.Clone()
	if err := fn(&next); err != nil {
		return m.cfg.Clone(), err
	}
	if err := next.Validate(); err != nil {
		return m.cfg.Clone(), fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	next.SchemaVersion = model.CurrentSchemaVersion
	m.cfg = next
	m.persist(ctx, next)
	return next.Clone(), nil
}

// ErrInvalidConfig wraps validation failures from Update.
var ErrInvalidConfig = errors.New("invalid config")

func (m *Manager) persist(ctx context.Context, cfg model.AppConfig) {
	if err := Save(ctx, m.store, m.key, cfg); err != nil {
		m.log.Error().Err(err).Str("key", m.key).Msg("persist config failed")
	}
}
