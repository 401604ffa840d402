package config

import (
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Addr            string `toml:"addr"`
	LogLevel        string `toml:"log_level"`
	CORSAllowOrigin string `toml:"cors_allow_origin"`

	// Session store limits.
	MaxSessions          int `toml:"max_sessions"`
	MaxUpdatesPerSession int `toml:"max_updates_per_session"`
	MaxChatPerSession    int `toml:"max_chat_per_session"`
	SessionTTLMinutes    int `toml:"session_ttl_minutes"`

	// Cadence of authoritative session_state pushes per room. Joining
	// clients additionally receive a snapshot immediately, so a client that
	// reconnects never waits longer than one interval for reconciliation.
	SnapshotIntervalMs int `toml:"snapshot_interval_ms"`

	// Number of recent canvas updates included in each snapshot.
	SnapshotUpdates int `toml:"snapshot_updates"`
}

func defaults() Config {
	return Config{
		Addr:                 ":9091",
		LogLevel:             "info",
		CORSAllowOrigin:      "*",
		MaxSessions:          500,
		MaxUpdatesPerSession: 50,
		MaxChatPerSession:    200,
		SessionTTLMinutes:    120,
		SnapshotIntervalMs:   15000,
		SnapshotUpdates:      10,
	}
}

// Load builds the configuration from defaults, an optional TOML file
// (CONFIG_FILE) and environment variable overrides, in that order.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.CORSAllowOrigin = getEnv("CORS_ALLOW_ORIGIN", cfg.CORSAllowOrigin)
	cfg.MaxSessions = getEnvInt("MAX_SESSIONS", cfg.MaxSessions)
	cfg.MaxUpdatesPerSession = getEnvInt("MAX_UPDATES_PER_SESSION", cfg.MaxUpdatesPerSession)
	cfg.MaxChatPerSession = getEnvInt("MAX_CHAT_PER_SESSION", cfg.MaxChatPerSession)
	cfg.SessionTTLMinutes = getEnvInt("SESSION_TTL_MINUTES", cfg.SessionTTLMinutes)
	cfg.SnapshotIntervalMs = getEnvInt("SNAPSHOT_INTERVAL_MS", cfg.SnapshotIntervalMs)
	cfg.SnapshotUpdates = getEnvInt("SNAPSHOT_UPDATES", cfg.SnapshotUpdates)
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
