// Package config loads the service configuration with env > file > default
// precedence.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/refresh"
)

// Config is the effective service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Cache    CacheConfig    `koanf:"cache"`
	Refresh  RefreshConfig  `koanf:"refresh"`
	Fallback FallbackConfig `koanf:"fallback"`
	Horizons HorizonsConfig `koanf:"horizons"`
	Auth     AuthConfig     `koanf:"auth"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `koanf:"level"`
}

// CacheConfig locates the persistent element cache.
type CacheConfig struct {
	Path string `koanf:"path"`
}

// RefreshConfig holds per-class refresh intervals in days.
type RefreshConfig struct {
	PlanetDays      int `koanf:"planet_days"`
	DwarfPlanetDays int `koanf:"dwarf_planet_days"`
	MoonDays        int `koanf:"moon_days"`
	SmallBodyDays   int `koanf:"small_body_days"`
}

// FallbackConfig locates the analytical fallback table.
type FallbackConfig struct {
	TablePath string `koanf:"table_path"`
	Watch     bool   `koanf:"watch"`
}

// HorizonsConfig configures the ephemeris gateway. Disabling it runs the
// service offline: cached and fallback data only.
type HorizonsConfig struct {
	Enabled bool   `koanf:"enabled"`
	BaseURL string `koanf:"base_url"`
}

// AuthConfig configures bearer-token auth for the API.
type AuthConfig struct {
	Enabled bool   `koanf:"enabled"`
	Token   string `koanf:"token"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info"},
		Cache:   CacheConfig{Path: "data/orbital_elements.json"},
		Refresh: RefreshConfig{
			PlanetDays:      30,
			DwarfPlanetDays: 30,
			MoonDays:        7,
			SmallBodyDays:   14,
		},
		Fallback: FallbackConfig{TablePath: "data/fallbacks.yaml", Watch: true},
		Horizons: HorizonsConfig{Enabled: true},
		Auth:     AuthConfig{},
	}
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr is empty")
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("config: cache.path is empty")
	}
	for name, days := range map[string]int{
		"refresh.planet_days":       c.Refresh.PlanetDays,
		"refresh.dwarf_planet_days": c.Refresh.DwarfPlanetDays,
		"refresh.moon_days":         c.Refresh.MoonDays,
		"refresh.small_body_days":   c.Refresh.SmallBodyDays,
	} {
		if days <= 0 {
			return fmt.Errorf("config: %s must be positive, got %d", name, days)
		}
	}
	if c.Auth.Enabled && c.Auth.Token == "" {
		return fmt.Errorf("config: auth.enabled requires auth.token")
	}
	return nil
}

// Intervals converts the configured day counts into refresh intervals.
func (c Config) Intervals() refresh.Intervals {
	day := 24 * time.Hour
	return refresh.Intervals{
		Planet:      time.Duration(c.Refresh.PlanetDays) * day,
		DwarfPlanet: time.Duration(c.Refresh.DwarfPlanetDays) * day,
		Moon:        time.Duration(c.Refresh.MoonDays) * day,
		SmallBody:   time.Duration(c.Refresh.SmallBodyDays) * day,
	}
}

// LogLevel parses the configured level, defaulting to info.
func (c Config) LogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
