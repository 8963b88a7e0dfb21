// Package position computes body positions from cached orbital elements,
// orchestrating the cache, the refresh policy, the ephemeris gateway, and
// the Kepler solver.
//
// The calculator always prefers returning an approximate, clearly-flagged
// answer over failing outright: gateway failures fall back to stale cache
// data, non-converged solves fall back to the last estimate, and both mark
// the result degraded. The only hard failure is having no data source at
// all.
package position

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/soniakeys/unit"

	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/elements"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/fallback"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/frame"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/kepler"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/metrics"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/refresh"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/store"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/transform"
)

// ErrNoData reports that no cached, fresh, or fallback elements exist for a
// requested object/center pair.
var ErrNoData = errors.New("no element data available")

// Gateway supplies fresh osculating elements from a remote ephemeris
// service. The calculator calls it only when the cache is stale or empty.
type Gateway interface {
	FetchElements(ctx context.Context, object, center string, asOf time.Time) (*elements.Set, error)
}

// Result is a computed position/velocity with its provenance. A Result
// never obscures whether it is time-fresh, cached-stale, or a low-confidence
// analytical approximation.
type Result struct {
	Object string
	Center string
	Time   time.Time

	// Ecliptic J2000, centered on the resolved center body.
	X, Y, Z    float64 // km
	VX, VY, VZ float64 // km/s

	Source   elements.Source
	Degraded bool
}

// Calculator resolves, refreshes, and propagates orbital elements.
type Calculator struct {
	store     *store.Store
	policies  *refresh.Engine
	fallbacks *fallback.Table
	gateway   Gateway // nil disables refresh (offline mode)
	solver    *kepler.Solver
	logger    *slog.Logger

	now func() time.Time
}

// NewCalculator wires a Calculator. gateway may be nil, in which case stale
// cache entries are served degraded instead of refreshed.
func NewCalculator(st *store.Store, policies *refresh.Engine, fallbacks *fallback.Table, gateway Gateway, logger *slog.Logger) *Calculator {
	return &Calculator{
		store:     st,
		policies:  policies,
		fallbacks: fallbacks,
		gateway:   gateway,
		solver:    kepler.NewSolver(),
		logger:    logger,
		now:       time.Now,
	}
}

// PositionAt computes the position of object relative to center at time t.
//
// The element set is looked up under the canonical cache key; a stale or
// missing set triggers a gateway refresh, and on gateway failure the stale
// set (if any) is used with Degraded set. With no cached set the fallback
// table is consulted; with no fallback either, ErrNoData is returned.
func (c *Calculator) PositionAt(ctx context.Context, object, center string, t time.Time) (Result, error) {
	res := frame.Resolve(object, center)
	key := res.Key

	var set *elements.Set
	if entry, err := c.store.Get(key); err == nil {
		set = entry.Set
	}

	degraded := false
	policy := c.policies.PolicyFor(key.Object)
	if c.policies.IsStale(set, policy, c.now()) {
		refreshed, stale := c.refreshElements(ctx, key, t, set)
		set = refreshed
		degraded = stale
	}

	if set == nil {
		fb, ok := c.fallbacks.Lookup(key)
		if !ok {
			return Result{}, fmt.Errorf("%w: %s", ErrNoData, key.String())
		}
		set = fb
		// The fallback's provenance tag carries the confidence signal;
		// using it as designed is not a degraded answer.
		degraded = false
	}

	result, err := c.propagate(set, t)
	if err != nil {
		return Result{}, err
	}
	result.Degraded = result.Degraded || degraded
	if result.Degraded {
		metrics.IncDegradedResults()
	}
	return result, nil
}

// refreshElements fetches fresh elements through the gateway and caches
// them. Returns the set to use and whether the answer is degraded (serving
// stale data after a failed refresh).
func (c *Calculator) refreshElements(ctx context.Context, key frame.Key, t time.Time, stale *elements.Set) (*elements.Set, bool) {
	if c.gateway == nil {
		return stale, stale != nil
	}

	start := time.Now()
	fresh, err := c.gateway.FetchElements(ctx, key.Object, key.Center, t)
	if err != nil {
		metrics.RecordRefresh("error", time.Since(start))
		c.logger.Warn("ephemeris refresh failed",
			"key", key.String(),
			"error", err,
			"have_stale", stale != nil,
		)
		return stale, stale != nil
	}
	metrics.RecordRefresh("success", time.Since(start))

	if err := c.store.Put(key, fresh, c.now()); err != nil {
		// A rejected write must not corrupt the cache, and a set that
		// failed validation is not trusted for computation either.
		c.logger.Warn("refreshed elements rejected by cache",
			"key", key.String(),
			"error", err,
		)
		return stale, stale != nil
	}

	c.logger.Info("elements refreshed",
		"key", key.String(),
		"epoch", fresh.Epoch.UTC().Format(time.RFC3339),
	)
	return fresh, false
}

// propagate advances the element set to time t and produces the rotated
// state vector.
func (c *Calculator) propagate(set *elements.Set, t time.Time) (Result, error) {
	// Linear mean-anomaly propagation from the set's epoch.
	n := set.MeanMotion() // rad/s
	dt := t.Sub(set.Epoch).Seconds()
	m := math.Mod(set.MeanAnomalyAtEpoch.Rad()+n*dt, 2*math.Pi)
	if m < 0 {
		m += 2 * math.Pi
	}

	degraded := false
	var theta unit.Angle
	if set.Eccentricity == 0 {
		// Circular orbit: mean, eccentric, and true anomaly coincide.
		theta = unit.Angle(m)
	} else {
		eAnom, err := c.solver.Solve(unit.Angle(m), set.Eccentricity)
		if err != nil {
			var nce *kepler.NonConvergenceError
			if !errors.As(err, &nce) {
				return Result{}, fmt.Errorf("solving kepler equation for %s: %w", set.Object, err)
			}
			// Best estimate is still usable; flag it, never silently wrong.
			metrics.IncSolverNonConvergence()
			c.logger.Warn("kepler solve did not converge, using last estimate",
				"object", set.Object,
				"residual", nce.Residual,
			)
			degraded = true
		}
		theta = kepler.TrueAnomaly(eAnom, set.Eccentricity)
	}

	r := kepler.Radius(set.SemiMajorAxisKm, set.Eccentricity, theta)

	// Perifocal state. μ follows from n and a (n² a³), avoiding a per-body
	// GM table.
	mu := n * n * set.SemiMajorAxisKm * set.SemiMajorAxisKm * set.SemiMajorAxisKm
	p := set.SemiMajorAxisKm * (1 - set.Eccentricity*set.Eccentricity)
	vFac := math.Sqrt(mu / p)

	sinT, cosT := math.Sin(theta.Rad()), math.Cos(theta.Rad())
	pqw := transform.StatePerifocal{
		X:  r * cosT,
		Y:  r * sinT,
		VX: -vFac * sinT,
		VY: vFac * (set.Eccentricity + cosT),
	}

	argPeriapsis := set.ArgPeriapsis
	if !set.ArgPeriapsisDefined {
		// Circular orbit: anomalies are measured from the ascending node.
		argPeriapsis = 0
	}
	state := transform.PerifocalToEcliptic(pqw, argPeriapsis, set.Inclination, set.AscendingNode)

	if !transform.ValidateState(state) {
		return Result{}, fmt.Errorf("computed state for %s@%s failed validation", set.Object, set.Center)
	}

	return Result{
		Object:   set.Object,
		Center:   set.Center,
		Time:     t,
		X:        state.X,
		Y:        state.Y,
		Z:        state.Z,
		VX:       state.VX,
		VY:       state.VY,
		VZ:       state.VZ,
		Source:   set.Source,
		Degraded: degraded,
	}, nil
}
