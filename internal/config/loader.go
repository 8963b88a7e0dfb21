package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces the service's environment variables. A double
// underscore separates nesting levels: ORRERY_REFRESH__PLANET_DAYS maps
// to refresh.planet_days.
const envPrefix = "ORRERY_"

// Load builds the effective configuration. Precedence, lowest to highest:
// built-in defaults, the YAML file at path (skipped when path is empty or
// the file does not exist), then ORRERY_* environment variables.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("checking config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envToKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func defaultMap() map[string]interface{} {
	d := DefaultConfig()
	return map[string]interface{}{
		"server.addr":               d.Server.Addr,
		"logging.level":             d.Logging.Level,
		"cache.path":                d.Cache.Path,
		"refresh.planet_days":       d.Refresh.PlanetDays,
		"refresh.dwarf_planet_days": d.Refresh.DwarfPlanetDays,
		"refresh.moon_days":         d.Refresh.MoonDays,
		"refresh.small_body_days":   d.Refresh.SmallBodyDays,
		"fallback.table_path":       d.Fallback.TablePath,
		"fallback.watch":            d.Fallback.Watch,
		"horizons.enabled":          d.Horizons.Enabled,
		"horizons.base_url":         d.Horizons.BaseURL,
		"auth.enabled":              d.Auth.Enabled,
		"auth.token":                d.Auth.Token,
	}
}
