// Package refresh decides when a cached element set is stale and due for a
// gateway re-fetch.
//
// Intervals are a static per-class assignment, never derived from usage.
// Analytical-fallback sets have no epoch-refresh concept at all: they are
// replaced only when an operator supplies real ephemeris coverage, so they
// are never time-stale.
package refresh

import (
	"time"

	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/elements"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/frame"
)

// Policy is one class's refresh interval.
type Policy struct {
	Class    frame.Class
	Interval time.Duration
}

// Intervals maps body classes to refresh intervals.
type Intervals struct {
	Planet      time.Duration
	DwarfPlanet time.Duration
	Moon        time.Duration
	SmallBody   time.Duration // asteroids and comets
}

// DefaultIntervals returns the stock per-class refresh intervals. Moons of
// active systems drift fastest against idealized elements, so they refresh
// most often.
func DefaultIntervals() Intervals {
	return Intervals{
		Planet:      30 * 24 * time.Hour,
		DwarfPlanet: 30 * 24 * time.Hour,
		Moon:        7 * 24 * time.Hour,
		SmallBody:   14 * 24 * time.Hour,
	}
}

// Engine selects policies and answers staleness queries.
type Engine struct {
	intervals Intervals
}

// NewEngine creates an Engine with the given per-class intervals.
func NewEngine(intervals Intervals) *Engine {
	return &Engine{intervals: intervals}
}

// PolicyFor returns the refresh policy for an object. Objects missing from
// the relationship table are treated as small bodies.
func (e *Engine) PolicyFor(object string) Policy {
	class := frame.ClassAsteroid
	if b := frame.Lookup(object); b != nil {
		class = b.Class
	}

	var interval time.Duration
	switch class {
	case frame.ClassPlanet, frame.ClassStar, frame.ClassBarycenter:
		interval = e.intervals.Planet
	case frame.ClassDwarfPlanet:
		interval = e.intervals.DwarfPlanet
	case frame.ClassMoon:
		interval = e.intervals.Moon
	default:
		interval = e.intervals.SmallBody
	}
	return Policy{Class: class, Interval: interval}
}

// IsStale reports whether set needs a re-fetch at time now. A nil set is
// maximally stale and always triggers a fetch. Analytical-fallback sets are
// never time-stale.
func (e *Engine) IsStale(set *elements.Set, policy Policy, now time.Time) bool {
	if set == nil {
		return true
	}
	if set.Source == elements.SourceAnalyticalFallback {
		return false
	}
	return now.Sub(set.Epoch) > policy.Interval
}
