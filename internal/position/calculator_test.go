package position

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/soniakeys/unit"

	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/elements"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/fallback"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/frame"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/kepler"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/refresh"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/store"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// gatewayFunc adapts a function to the Gateway interface.
type gatewayFunc func(ctx context.Context, object, center string, asOf time.Time) (*elements.Set, error)

func (f gatewayFunc) FetchElements(ctx context.Context, object, center string, asOf time.Time) (*elements.Set, error) {
	return f(ctx, object, center, asOf)
}

func failingGateway(err error) Gateway {
	return gatewayFunc(func(context.Context, string, string, time.Time) (*elements.Set, error) {
		return nil, err
	})
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(filepath.Join(t.TempDir(), "elements.json"), testLogger)
}

const testMoonTable = `fallbacks:
  testmoon:
    center: makemake
    semi_major_axis_km: 22250
    eccentricity: 0
    inclination_deg: 0
    ascending_node_deg: 0
    period_days: 18.023
    reference_epoch: "2025-01-01T00:00:00Z"
`

func testFallbacks(t *testing.T, yaml string) *fallback.Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fallbacks.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	table, err := fallback.LoadTable(path, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func emptyFallbacks(t *testing.T) *fallback.Table {
	t.Helper()
	table, err := fallback.LoadTable("", testLogger)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func tritonSet(epoch time.Time) *elements.Set {
	return &elements.Set{
		Object:              "triton",
		Center:              "neptune",
		SemiMajorAxisKm:     354759,
		Eccentricity:        0.000016,
		Inclination:         unit.AngleFromDeg(129.8),
		AscendingNode:       unit.AngleFromDeg(177.6),
		ArgPeriapsis:        unit.AngleFromDeg(66.1),
		ArgPeriapsisDefined: true,
		MeanAnomalyAtEpoch:  unit.AngleFromDeg(10.0),
		Epoch:               epoch,
		Period:              time.Duration(5.877 * 24 * float64(time.Hour)),
		Source:              elements.SourceOsculating,
	}
}

// TestFallbackAtReferenceEpoch: an object with no gateway coverage and a
// circular fallback yields the reference-phase position, not degraded.
func TestFallbackAtReferenceEpoch(t *testing.T) {
	calc := NewCalculator(
		testStore(t),
		refresh.NewEngine(refresh.DefaultIntervals()),
		testFallbacks(t, testMoonTable),
		failingGateway(errors.New("no horizons coverage")),
		testLogger,
	)

	e0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	result, err := calc.PositionAt(context.Background(), "TestMoon", "Makemake", e0)
	if err != nil {
		t.Fatalf("PositionAt failed: %v", err)
	}

	if result.Source != elements.SourceAnalyticalFallback {
		t.Errorf("source = %v, want analytical-fallback", result.Source)
	}
	if result.Degraded {
		t.Error("fallback answer must not be degraded")
	}

	// M = 0 with i = Ω = 0 puts the body at (a, 0, 0).
	if math.Abs(result.X-22250) > 1e-6 {
		t.Errorf("X = %v, want 22250", result.X)
	}
	if math.Abs(result.Y) > 1e-6 || math.Abs(result.Z) > 1e-6 {
		t.Errorf("Y,Z = %v,%v, want 0,0", result.Y, result.Z)
	}
}

// TestFallbackLinearPropagation verifies M(t) advances linearly from the
// reference epoch for circular fallbacks.
func TestFallbackLinearPropagation(t *testing.T) {
	calc := NewCalculator(
		testStore(t),
		refresh.NewEngine(refresh.DefaultIntervals()),
		testFallbacks(t, testMoonTable),
		nil,
		testLogger,
	)

	e0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	period := time.Duration(18.023 * 24 * float64(time.Hour))
	quarter := e0.Add(period / 4)

	result, err := calc.PositionAt(context.Background(), "testmoon", "makemake", quarter)
	if err != nil {
		t.Fatalf("PositionAt failed: %v", err)
	}

	// Quarter period: M = 90°, so (0, a, 0).
	if math.Abs(result.X) > 1 {
		t.Errorf("X = %v, want ~0", result.X)
	}
	if math.Abs(result.Y-22250) > 1 {
		t.Errorf("Y = %v, want ~22250", result.Y)
	}

	// Circular orbital speed is 2πa/T.
	wantSpeed := 2 * math.Pi * 22250 / period.Seconds()
	gotSpeed := math.Sqrt(result.VX*result.VX + result.VY*result.VY + result.VZ*result.VZ)
	if math.Abs(gotSpeed-wantSpeed) > wantSpeed*1e-6 {
		t.Errorf("|v| = %v km/s, want %v", gotSpeed, wantSpeed)
	}
}

// TestStaleCacheGatewayFailure: a failed refresh over a stale cached entry
// serves the stale elements flagged degraded, not an error.
func TestStaleCacheGatewayFailure(t *testing.T) {
	st := testStore(t)
	key := frame.Resolve("triton", "neptune").Key
	staleEpoch := time.Now().Add(-10 * 24 * time.Hour)
	if err := st.Put(key, tritonSet(staleEpoch), staleEpoch); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	intervals := refresh.DefaultIntervals()
	intervals.Moon = 24 * time.Hour

	calc := NewCalculator(
		st,
		refresh.NewEngine(intervals),
		emptyFallbacks(t),
		failingGateway(errors.New("gateway timeout")),
		testLogger,
	)

	result, err := calc.PositionAt(context.Background(), "triton", "neptune", time.Now())
	if err != nil {
		t.Fatalf("PositionAt failed: %v", err)
	}
	if !result.Degraded {
		t.Error("result from stale elements after failed refresh must be degraded")
	}
	if result.Source != elements.SourceOsculating {
		t.Errorf("source = %v, want osculating", result.Source)
	}
}

// TestFreshCacheSkipsGateway verifies a fresh entry never triggers a fetch.
func TestFreshCacheSkipsGateway(t *testing.T) {
	st := testStore(t)
	key := frame.Resolve("triton", "neptune").Key
	freshEpoch := time.Now().Add(-1 * time.Hour)
	if err := st.Put(key, tritonSet(freshEpoch), freshEpoch); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	calc := NewCalculator(
		st,
		refresh.NewEngine(refresh.DefaultIntervals()),
		emptyFallbacks(t),
		gatewayFunc(func(context.Context, string, string, time.Time) (*elements.Set, error) {
			t.Error("gateway called for a fresh cache entry")
			return nil, errors.New("unexpected")
		}),
		testLogger,
	)

	result, err := calc.PositionAt(context.Background(), "triton", "neptune", time.Now())
	if err != nil {
		t.Fatalf("PositionAt failed: %v", err)
	}
	if result.Degraded {
		t.Error("fresh cache answer must not be degraded")
	}
}

// TestStaleCacheRefreshSuccess verifies a successful refresh replaces the
// cached entry and serves an undegraded result.
func TestStaleCacheRefreshSuccess(t *testing.T) {
	st := testStore(t)
	key := frame.Resolve("triton", "neptune").Key
	staleEpoch := time.Now().Add(-30 * 24 * time.Hour)
	if err := st.Put(key, tritonSet(staleEpoch), staleEpoch); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	freshEpoch := time.Now().Add(-time.Hour)
	calc := NewCalculator(
		st,
		refresh.NewEngine(refresh.DefaultIntervals()),
		emptyFallbacks(t),
		gatewayFunc(func(_ context.Context, object, center string, _ time.Time) (*elements.Set, error) {
			if object != "triton" || center != "neptune" {
				return nil, fmt.Errorf("unexpected fetch for %s@%s", object, center)
			}
			return tritonSet(freshEpoch), nil
		}),
		testLogger,
	)

	result, err := calc.PositionAt(context.Background(), "triton", "neptune", time.Now())
	if err != nil {
		t.Fatalf("PositionAt failed: %v", err)
	}
	if result.Degraded {
		t.Error("refreshed answer must not be degraded")
	}

	entry, err := st.Get(key)
	if err != nil {
		t.Fatalf("Get after refresh failed: %v", err)
	}
	if !entry.Set.Epoch.Equal(freshEpoch) {
		t.Errorf("cached epoch = %v, want refreshed %v", entry.Set.Epoch, freshEpoch)
	}
}

// TestAbsentEntryFetches verifies an absent entry is maximally stale and
// triggers a fetch, which is then cached.
func TestAbsentEntryFetches(t *testing.T) {
	st := testStore(t)
	freshEpoch := time.Now().Add(-time.Hour)

	calc := NewCalculator(
		st,
		refresh.NewEngine(refresh.DefaultIntervals()),
		emptyFallbacks(t),
		gatewayFunc(func(_ context.Context, object, center string, _ time.Time) (*elements.Set, error) {
			return tritonSet(freshEpoch), nil
		}),
		testLogger,
	)

	result, err := calc.PositionAt(context.Background(), "triton", "neptune", time.Now())
	if err != nil {
		t.Fatalf("PositionAt failed: %v", err)
	}
	if result.Source != elements.SourceOsculating {
		t.Errorf("source = %v, want osculating", result.Source)
	}
	if st.Len() != 1 {
		t.Errorf("store has %d entries after fetch, want 1", st.Len())
	}
}

// TestNoDataAvailable: no cache, failing gateway, no fallback.
func TestNoDataAvailable(t *testing.T) {
	calc := NewCalculator(
		testStore(t),
		refresh.NewEngine(refresh.DefaultIntervals()),
		emptyFallbacks(t),
		failingGateway(errors.New("nope")),
		testLogger,
	)

	_, err := calc.PositionAt(context.Background(), "hydra", "pluto", time.Now())
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

// TestNonConvergenceDegrades verifies a non-converged solve still answers,
// flagged degraded.
func TestNonConvergenceDegrades(t *testing.T) {
	st := testStore(t)
	key := frame.Resolve("triton", "neptune").Key
	set := tritonSet(time.Now().Add(-time.Hour))
	set.Eccentricity = 0.95
	if err := st.Put(key, set, time.Now()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	calc := NewCalculator(
		st,
		refresh.NewEngine(refresh.DefaultIntervals()),
		emptyFallbacks(t),
		nil,
		testLogger,
	)
	// Cripple the solver so the iteration budget is exhausted.
	calc.solver = kepler.NewSolverWithLimits(1e-15, 1)

	result, err := calc.PositionAt(context.Background(), "triton", "neptune", time.Now().Add(2*24*time.Hour))
	if err != nil {
		t.Fatalf("PositionAt failed: %v", err)
	}
	if !result.Degraded {
		t.Error("non-converged solve must flag the result degraded")
	}
}

// TestDistinctCentersIndependent verifies the same object under planet and
// barycenter centers uses independently cached element sets.
func TestDistinctCentersIndependent(t *testing.T) {
	st := testStore(t)
	now := time.Now()
	epoch := now.Add(-time.Hour)

	planet := tritonSet(epoch)
	planet.Object, planet.Center = "charon", "pluto"
	planet.SemiMajorAxisKm = 19591

	bary := tritonSet(epoch)
	bary.Object, bary.Center = "charon", "9"
	bary.SemiMajorAxisKm = 17536

	if err := st.Put(frame.Resolve("charon", "pluto").Key, planet, now); err != nil {
		t.Fatal(err)
	}
	if err := st.Put(frame.Resolve("charon", "9").Key, bary, now); err != nil {
		t.Fatal(err)
	}

	calc := NewCalculator(st, refresh.NewEngine(refresh.DefaultIntervals()), emptyFallbacks(t), nil, testLogger)

	rPlanet, err := calc.PositionAt(context.Background(), "charon", "pluto", epoch)
	if err != nil {
		t.Fatalf("planet-centered PositionAt failed: %v", err)
	}
	rBary, err := calc.PositionAt(context.Background(), "charon", "9", epoch)
	if err != nil {
		t.Fatalf("barycentric PositionAt failed: %v", err)
	}

	magPlanet := math.Sqrt(rPlanet.X*rPlanet.X + rPlanet.Y*rPlanet.Y + rPlanet.Z*rPlanet.Z)
	magBary := math.Sqrt(rBary.X*rBary.X + rBary.Y*rBary.Y + rBary.Z*rBary.Z)
	if magPlanet <= magBary {
		t.Errorf("planet-centered radius %v should exceed barycentric %v", magPlanet, magBary)
	}
}
