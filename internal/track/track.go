// Package track samples the position calculator over a time range to build
// trajectory arcs for plotting clients.
package track

import (
	"context"
	"fmt"
	"time"

	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/elements"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/position"
)

// Point is one sampled position along a trajectory.
type Point struct {
	Time     time.Time `json:"time"`
	X        float64   `json:"x_km"`
	Y        float64   `json:"y_km"`
	Z        float64   `json:"z_km"`
	Degraded bool      `json:"degraded,omitempty"`
}

// Path is a sampled trajectory arc for one object.
type Path struct {
	Object string        `json:"object"`
	Center string        `json:"center"`
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Step   time.Duration `json:"-"`

	// Source is the element provenance of the path, taken from the first
	// sample. A mid-path refresh can upgrade later samples; the path keeps
	// reporting what its earliest points were computed from.
	Source elements.Source `json:"-"`

	// Degraded is set if any sampled point was degraded.
	Degraded bool `json:"degraded"`

	Points []Point `json:"points"`
}

// Request bounds one sampling run.
type Request struct {
	Object string
	Center string
	Start  time.Time
	End    time.Time
	Step   time.Duration
}

// maxPoints caps a single sampling run; finer resolution should be fetched
// in smaller windows.
const maxPoints = 10000

// Sample computes positions at Step intervals over [Start, End], inclusive
// of both endpoints. The context is checked between samples so long runs can
// be cancelled.
func Sample(ctx context.Context, calc *position.Calculator, req Request) (*Path, error) {
	if req.Step <= 0 {
		return nil, fmt.Errorf("step must be positive, got %v", req.Step)
	}
	if req.End.Before(req.Start) {
		return nil, fmt.Errorf("end %v precedes start %v", req.End, req.Start)
	}
	numPoints := int(req.End.Sub(req.Start)/req.Step) + 1
	if numPoints > maxPoints {
		return nil, fmt.Errorf("%d samples exceeds limit of %d; widen the step or narrow the range", numPoints, maxPoints)
	}

	path := &Path{
		Object: req.Object,
		Center: req.Center,
		Start:  req.Start,
		End:    req.End,
		Step:   req.Step,
		Points: make([]Point, 0, numPoints),
	}

	for i := 0; i < numPoints; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		ts := req.Start.Add(time.Duration(i) * req.Step)
		result, err := calc.PositionAt(ctx, req.Object, req.Center, ts)
		if err != nil {
			return nil, fmt.Errorf("sampling %s at %s: %w", req.Object, ts.Format(time.RFC3339), err)
		}

		if i == 0 {
			path.Source = result.Source
		}
		if result.Degraded {
			path.Degraded = true
		}
		path.Points = append(path.Points, Point{
			Time:     ts,
			X:        result.X,
			Y:        result.Y,
			Z:        result.Z,
			Degraded: result.Degraded,
		})
	}

	return path, nil
}
