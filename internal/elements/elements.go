// Package elements defines the orbital element set model shared by the
// cache, the ephemeris gateway, and the position calculator.
package elements

import (
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/unit"
)

// Source tags where an element set came from. The tag is decided once at
// construction; consumers branch on it instead of re-deriving provenance.
type Source int

const (
	// SourceOsculating marks instantaneous elements from an ephemeris
	// service, exact at their epoch.
	SourceOsculating Source = iota

	// SourceAnalyticalFallback marks idealized time-invariant elements from
	// the static fallback table.
	SourceAnalyticalFallback
)

// String returns the persisted tag for the source.
func (s Source) String() string {
	switch s {
	case SourceOsculating:
		return "osculating"
	case SourceAnalyticalFallback:
		return "analytical-fallback"
	default:
		return "unknown"
	}
}

// ParseSource parses a persisted source tag.
func ParseSource(s string) (Source, error) {
	switch s {
	case "osculating":
		return SourceOsculating, nil
	case "analytical-fallback":
		return SourceAnalyticalFallback, nil
	default:
		return 0, fmt.Errorf("unknown element source %q", s)
	}
}

// Set is one element set for one body relative to one center.
// Immutable once constructed; a refresh produces a new Set.
//
// Angles are ecliptic J2000. For circular fallback orbits (e = 0) the
// argument of periapsis is geometrically undefined; ArgPeriapsisDefined
// flags that explicitly rather than defaulting the angle to a misleading
// zero.
type Set struct {
	Object string
	Center string

	SemiMajorAxisKm     float64
	Eccentricity        float64
	Inclination         unit.Angle
	AscendingNode       unit.Angle
	ArgPeriapsis        unit.Angle
	ArgPeriapsisDefined bool
	MeanAnomalyAtEpoch  unit.Angle

	Epoch  time.Time
	Period time.Duration

	Source Source
}

// EpochJD returns the set's epoch as a Julian date.
func (s *Set) EpochJD() float64 {
	return julian.TimeToJD(s.Epoch)
}

// MeanMotion returns the mean motion n = 2π/T in radians per second.
func (s *Set) MeanMotion() float64 {
	return 2 * math.Pi / s.Period.Seconds()
}

// ValidationError reports a malformed element set rejected before it can
// reach the cache.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid element set: %s %s", e.Field, e.Reason)
}

// Validate checks the set against the cache admission rules. The inclination
// range check doubles as a frame sanity check: elements are expected to be
// pre-normalized to ecliptic J2000, where i must lie in [0°, 180°].
func (s *Set) Validate() error {
	if s.Object == "" {
		return &ValidationError{Field: "object", Reason: "is empty"}
	}
	if s.Center == "" {
		return &ValidationError{Field: "center", Reason: "is empty"}
	}
	if s.Eccentricity < 0 {
		return &ValidationError{Field: "eccentricity", Reason: fmt.Sprintf("%v is negative", s.Eccentricity)}
	}
	if s.Eccentricity >= 1 {
		return &ValidationError{Field: "eccentricity", Reason: fmt.Sprintf("%v is not elliptical", s.Eccentricity)}
	}
	if s.SemiMajorAxisKm <= 0 {
		return &ValidationError{Field: "semi-major axis", Reason: fmt.Sprintf("%v km is not positive", s.SemiMajorAxisKm)}
	}
	if s.Period <= 0 {
		return &ValidationError{Field: "period", Reason: "is not positive"}
	}
	if deg := s.Inclination.Deg(); deg < 0 || deg > 180 {
		return &ValidationError{Field: "inclination", Reason: fmt.Sprintf("%.3f° outside [0°, 180°]", deg)}
	}
	if s.Eccentricity == 0 && s.ArgPeriapsisDefined {
		return &ValidationError{Field: "argument of periapsis", Reason: "flagged defined for a circular orbit"}
	}
	if s.Eccentricity > 0 && !s.ArgPeriapsisDefined {
		return &ValidationError{Field: "argument of periapsis", Reason: "missing for an eccentric orbit"}
	}
	switch s.Source {
	case SourceOsculating:
		if s.Epoch.IsZero() {
			return &ValidationError{Field: "epoch", Reason: "missing for osculating elements"}
		}
	case SourceAnalyticalFallback:
		// Fallback entries carry a reference epoch for phase propagation
		// but are exempt from freshness; any epoch is acceptable.
	default:
		return &ValidationError{Field: "source", Reason: fmt.Sprintf("unknown tag %d", s.Source)}
	}
	return nil
}

// Record is the persisted JSON form of a Set. Angles are stored in degrees
// for hand inspection of the cache file.
type Record struct {
	Object              string  `json:"object"`
	Center              string  `json:"center"`
	SemiMajorAxisKm     float64 `json:"semi_major_axis_km"`
	Eccentricity        float64 `json:"eccentricity"`
	InclinationDeg      float64 `json:"inclination_deg"`
	AscendingNodeDeg    float64 `json:"ascending_node_deg"`
	ArgPeriapsisDeg     float64 `json:"arg_periapsis_deg"`
	ArgPeriapsisDefined bool    `json:"arg_periapsis_defined"`
	MeanAnomalyDeg      float64 `json:"mean_anomaly_deg"`
	Epoch               string  `json:"epoch"`
	PeriodSeconds       float64 `json:"period_seconds"`
	Source              string  `json:"source"`
}

// ToRecord converts the set to its persisted form.
func (s *Set) ToRecord() Record {
	return Record{
		Object:              s.Object,
		Center:              s.Center,
		SemiMajorAxisKm:     s.SemiMajorAxisKm,
		Eccentricity:        s.Eccentricity,
		InclinationDeg:      s.Inclination.Deg(),
		AscendingNodeDeg:    s.AscendingNode.Deg(),
		ArgPeriapsisDeg:     s.ArgPeriapsis.Deg(),
		ArgPeriapsisDefined: s.ArgPeriapsisDefined,
		MeanAnomalyDeg:      s.MeanAnomalyAtEpoch.Deg(),
		Epoch:               s.Epoch.UTC().Format(time.RFC3339Nano),
		PeriodSeconds:       s.Period.Seconds(),
		Source:              s.Source.String(),
	}
}

// FromRecord reconstructs a Set from its persisted form.
func FromRecord(r Record) (*Set, error) {
	source, err := ParseSource(r.Source)
	if err != nil {
		return nil, err
	}
	epoch, err := time.Parse(time.RFC3339Nano, r.Epoch)
	if err != nil {
		return nil, fmt.Errorf("parsing epoch %q: %w", r.Epoch, err)
	}
	return &Set{
		Object:              r.Object,
		Center:              r.Center,
		SemiMajorAxisKm:     r.SemiMajorAxisKm,
		Eccentricity:        r.Eccentricity,
		Inclination:         unit.AngleFromDeg(r.InclinationDeg),
		AscendingNode:       unit.AngleFromDeg(r.AscendingNodeDeg),
		ArgPeriapsis:        unit.AngleFromDeg(r.ArgPeriapsisDeg),
		ArgPeriapsisDefined: r.ArgPeriapsisDefined,
		MeanAnomalyAtEpoch:  unit.AngleFromDeg(r.MeanAnomalyDeg),
		Epoch:               epoch,
		Period:              time.Duration(r.PeriodSeconds * float64(time.Second)),
		Source:              source,
	}, nil
}
