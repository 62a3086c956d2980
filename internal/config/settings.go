package config

// SettingsConfig selects where the app config blob is persisted.
// Backend is "sqlite" (a local file), "redis" (shared between API
// instances) or "memory" (lost on restart, for tests and demos).
type SettingsConfig struct {
	Backend     string
	SQLitePath  string
	Key         string
	RedisPrefix string
}

func LoadSettingsConfig() SettingsConfig {
	return SettingsConfig{
		Backend:     envStr("SETTINGS_BACKEND", "sqlite"),
		SQLitePath:  envStr("SETTINGS_SQLITE_PATH", "data/settings.db"),
		Key:         envStr("SETTINGS_KEY", "appConfig"),
		RedisPrefix: envStr("SETTINGS_REDIS_PREFIX", "dtb:settings:"),
	}
}
