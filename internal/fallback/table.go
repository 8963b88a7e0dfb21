// Package fallback loads the static analytical element table used for
// objects with no ephemeris coverage.
//
// The table is a YAML file of idealized Keplerian tuples. Entries become
// analytical-fallback element sets: time-invariant, never refresh-stale, and
// replaced only when an operator edits the file. A watcher picks up such
// edits at runtime and swaps the table atomically after validation.
package fallback

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/soniakeys/unit"

	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/elements"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/frame"
)

// entryConfig is the YAML shape of one fallback tuple.
type entryConfig struct {
	Center           string  `koanf:"center"`
	SemiMajorAxisKm  float64 `koanf:"semi_major_axis_km"`
	Eccentricity     float64 `koanf:"eccentricity"`
	InclinationDeg   float64 `koanf:"inclination_deg"`
	AscendingNodeDeg float64 `koanf:"ascending_node_deg"`
	ArgPeriapsisDeg  float64 `koanf:"arg_periapsis_deg"`
	MeanAnomalyDeg   float64 `koanf:"mean_anomaly_deg"`
	PeriodDays       float64 `koanf:"period_days"`
	ReferenceEpoch   string  `koanf:"reference_epoch"`
}

// Table holds the loaded fallback element sets, keyed by canonical
// "object@center" strings. Reload swaps the whole map atomically, so
// lookups never observe a half-loaded table.
type Table struct {
	path   string
	logger *slog.Logger
	sets   atomic.Pointer[map[string]*elements.Set]
}

// LoadTable reads the fallback table from path. A missing file yields an
// empty table (objects simply have no fallback); a malformed file is an
// error, since serving from a half-understood table would be silently wrong.
func LoadTable(path string, logger *slog.Logger) (*Table, error) {
	t := &Table{path: path, logger: logger}
	empty := map[string]*elements.Set{}
	t.sets.Store(&empty)

	if path == "" {
		return t, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("no fallback table file, starting empty", "path", path)
		return t, nil
	}

	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload re-reads the table file and swaps it in after validation. On any
// error the previous table stays in place.
func (t *Table) Reload() error {
	k := koanf.New(".")
	if err := k.Load(file.Provider(t.path), yaml.Parser()); err != nil {
		return fmt.Errorf("loading fallback table %s: %w", t.path, err)
	}

	var raw map[string]entryConfig
	if err := k.Unmarshal("fallbacks", &raw); err != nil {
		return fmt.Errorf("parsing fallback table %s: %w", t.path, err)
	}

	sets := make(map[string]*elements.Set, len(raw))
	for object, ec := range raw {
		set, err := ec.toSet(object)
		if err != nil {
			return fmt.Errorf("fallback entry %q: %w", object, err)
		}
		key := frame.Key{Object: frame.Canonical(object), Center: frame.Canonical(set.Center)}
		sets[key.String()] = set
	}

	t.sets.Store(&sets)
	t.logger.Info("fallback table loaded", "path", t.path, "entries", len(sets))
	return nil
}

func (ec entryConfig) toSet(object string) (*elements.Set, error) {
	if ec.Center == "" {
		ec.Center = "sun"
	}
	epoch, err := time.Parse(time.RFC3339, ec.ReferenceEpoch)
	if err != nil {
		return nil, fmt.Errorf("parsing reference_epoch %q: %w", ec.ReferenceEpoch, err)
	}

	set := &elements.Set{
		Object:              frame.Canonical(object),
		Center:              frame.Canonical(ec.Center),
		SemiMajorAxisKm:     ec.SemiMajorAxisKm,
		Eccentricity:        ec.Eccentricity,
		Inclination:         unit.AngleFromDeg(ec.InclinationDeg),
		AscendingNode:       unit.AngleFromDeg(ec.AscendingNodeDeg),
		ArgPeriapsis:        unit.AngleFromDeg(ec.ArgPeriapsisDeg),
		ArgPeriapsisDefined: ec.Eccentricity > 0,
		MeanAnomalyAtEpoch:  unit.AngleFromDeg(ec.MeanAnomalyDeg),
		Epoch:               epoch,
		Period:              time.Duration(ec.PeriodDays * 24 * float64(time.Hour)),
		Source:              elements.SourceAnalyticalFallback,
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// Lookup returns the fallback element set registered for a resolved cache
// key, or false if none is registered.
func (t *Table) Lookup(key frame.Key) (*elements.Set, bool) {
	sets := *t.sets.Load()
	set, ok := sets[key.String()]
	return set, ok
}

// Len returns the number of registered fallback entries.
func (t *Table) Len() int {
	return len(*t.sets.Load())
}

// Objects returns the canonical object names with registered fallbacks.
func (t *Table) Objects() []string {
	sets := *t.sets.Load()
	out := make([]string, 0, len(sets))
	seen := make(map[string]bool, len(sets))
	for _, s := range sets {
		if !seen[s.Object] {
			seen[s.Object] = true
			out = append(out, s.Object)
		}
	}
	return out
}
