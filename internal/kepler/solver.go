// Package kepler solves Kepler's equation M = E - e*sin(E) for elliptical
// orbits and provides the closed-form follow-ups (true anomaly, orbit radius).
package kepler

import (
	"fmt"
	"math"

	"github.com/soniakeys/unit"
)

const (
	// DefaultTolerance is the convergence threshold on |ΔE| per iteration.
	DefaultTolerance = 1e-10

	// DefaultMaxIterations bounds the Newton-Raphson loop. Well inside the
	// elliptical range (e < 0.99) convergence takes under ten iterations.
	DefaultMaxIterations = 50
)

// NonConvergenceError reports a Newton-Raphson solve that did not reach
// tolerance within the iteration budget. LastEstimate is still the best
// available eccentric anomaly; callers may use it as a degraded answer.
type NonConvergenceError struct {
	MeanAnomaly  unit.Angle
	Eccentricity float64
	LastEstimate unit.Angle
	Residual     float64
	Iterations   int
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("kepler solve did not converge after %d iterations (e=%.6f M=%.9f rad, residual=%.3e)",
		e.Iterations, e.Eccentricity, e.MeanAnomaly.Rad(), e.Residual)
}

// Solver solves Kepler's equation with a fixed tolerance and iteration budget.
// The zero value is not usable; construct with NewSolver.
type Solver struct {
	tolerance     float64
	maxIterations int
}

// NewSolver returns a Solver with the default tolerance and iteration budget.
func NewSolver() *Solver {
	return &Solver{
		tolerance:     DefaultTolerance,
		maxIterations: DefaultMaxIterations,
	}
}

// NewSolverWithLimits returns a Solver with explicit tolerance and iteration
// budget. Values <= 0 fall back to the defaults.
func NewSolverWithLimits(tolerance float64, maxIterations int) *Solver {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Solver{tolerance: tolerance, maxIterations: maxIterations}
}

// Solve returns the eccentric anomaly E satisfying M = E - e*sin(E).
//
// M may be any real angle; e must be in [0, 1). For e = 0 the equation is
// already solved (E = M) and no iteration runs. On non-convergence the
// returned error is a *NonConvergenceError carrying the last estimate, which
// is still returned as the first value.
func (s *Solver) Solve(m unit.Angle, e float64) (unit.Angle, error) {
	if e < 0 || e >= 1 {
		return 0, fmt.Errorf("eccentricity %v outside [0, 1)", e)
	}
	if e == 0 {
		return m, nil
	}

	mRad := m.Rad()
	eAnom := mRad
	for i := 0; i < s.maxIterations; i++ {
		f := eAnom - e*math.Sin(eAnom) - mRad
		fPrime := 1 - e*math.Cos(eAnom)
		delta := f / fPrime
		eAnom -= delta
		if math.Abs(delta) < s.tolerance {
			return unit.Angle(eAnom), nil
		}
	}

	residual := math.Abs(eAnom - e*math.Sin(eAnom) - mRad)
	return unit.Angle(eAnom), &NonConvergenceError{
		MeanAnomaly:  m,
		Eccentricity: e,
		LastEstimate: unit.Angle(eAnom),
		Residual:     residual,
		Iterations:   s.maxIterations,
	}
}

// TrueAnomaly converts eccentric anomaly to true anomaly.
// θ = 2*atan2(√(1+e)*sin(E/2), √(1-e)*cos(E/2)).
func TrueAnomaly(eAnom unit.Angle, e float64) unit.Angle {
	half := eAnom.Rad() / 2
	return unit.Angle(2 * math.Atan2(
		math.Sqrt(1+e)*math.Sin(half),
		math.Sqrt(1-e)*math.Cos(half),
	))
}

// Radius returns the orbit radius for semi-major axis a at true anomaly θ.
// r = a*(1-e²)/(1+e*cosθ). Units follow a.
func Radius(a, e float64, trueAnom unit.Angle) float64 {
	return a * (1 - e*e) / (1 + e*math.Cos(trueAnom.Rad()))
}
