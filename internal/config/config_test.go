package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Refresh.MoonDays != 7 {
		t.Errorf("moon_days = %d, want 7", cfg.Refresh.MoonDays)
	}
	if !cfg.Horizons.Enabled {
		t.Error("horizons should be enabled by default")
	}
	if cfg.Auth.Enabled {
		t.Error("auth should be disabled by default")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `server:
  addr: ":9090"
refresh:
  moon_days: 3
horizons:
  enabled: false
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Refresh.MoonDays != 3 {
		t.Errorf("moon_days = %d, want 3", cfg.Refresh.MoonDays)
	}
	if cfg.Horizons.Enabled {
		t.Error("horizons.enabled should be false from file")
	}
	// Untouched keys keep their defaults.
	if cfg.Refresh.PlanetDays != 30 {
		t.Errorf("planet_days = %d, want default 30", cfg.Refresh.PlanetDays)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ORRERY_SERVER__ADDR", ":7070")
	t.Setenv("ORRERY_REFRESH__PLANET_DAYS", "10")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("addr = %q, want env value :7070", cfg.Server.Addr)
	}
	if cfg.Refresh.PlanetDays != 10 {
		t.Errorf("planet_days = %d, want env value 10", cfg.Refresh.PlanetDays)
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("missing config file should fall back to defaults, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"empty cache path", func(c *Config) { c.Cache.Path = "" }},
		{"zero refresh interval", func(c *Config) { c.Refresh.MoonDays = 0 }},
		{"negative refresh interval", func(c *Config) { c.Refresh.SmallBodyDays = -1 }},
		{"auth without token", func(c *Config) { c.Auth.Enabled = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestIntervals(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Refresh.MoonDays = 2
	iv := cfg.Intervals()
	if iv.Moon != 48*time.Hour {
		t.Errorf("moon interval = %v, want 48h", iv.Moon)
	}
	if iv.Planet != 30*24*time.Hour {
		t.Errorf("planet interval = %v, want 720h", iv.Planet)
	}
}

func TestLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "debug"
	if cfg.LogLevel() != slog.LevelDebug {
		t.Error("expected debug level")
	}
	cfg.Logging.Level = "bogus"
	if cfg.LogLevel() != slog.LevelInfo {
		t.Error("unknown level should default to info")
	}
}
