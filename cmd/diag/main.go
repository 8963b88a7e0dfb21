package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/fallback"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/position"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/refresh"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/store"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/track"
)

// Offline sanity check: load the cache and fallback table from disk and
// print positions without touching the network.
func main() {
	cachePath := flag.String("cache", "data/orbital_elements.json", "element cache file")
	tablePath := flag.String("fallbacks", "data/fallbacks.yaml", "fallback table file")
	object := flag.String("object", "mars", "object to compute")
	center := flag.String("center", "", "center body (default: object's primary)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	st := store.New(*cachePath, logger)
	if err := st.Load(); err != nil {
		fmt.Println("ERROR loading element cache:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d cached element sets\n", st.Len())
	for _, key := range st.Keys() {
		fmt.Printf("  %s\n", key)
	}

	table, err := fallback.LoadTable(*tablePath, logger)
	if err != nil {
		fmt.Println("ERROR loading fallback table:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d fallback entries\n", table.Len())

	calc := position.NewCalculator(st, refresh.NewEngine(refresh.DefaultIntervals()), table, nil, logger)

	now := time.Now().UTC()
	result, err := calc.PositionAt(context.Background(), *object, *center, now)
	if err != nil {
		fmt.Printf("ERROR computing %s: %v\n", *object, err)
		os.Exit(1)
	}

	r := math.Sqrt(result.X*result.X + result.Y*result.Y + result.Z*result.Z)
	v := math.Sqrt(result.VX*result.VX + result.VY*result.VY + result.VZ*result.VZ)
	fmt.Printf("\n%s relative to %s at %v\n", result.Object, result.Center, now.Format(time.RFC3339))
	fmt.Printf("  pos: (%.1f, %.1f, %.1f) km  |r|=%.1f km\n", result.X, result.Y, result.Z, r)
	fmt.Printf("  vel: (%.4f, %.4f, %.4f) km/s  |v|=%.4f km/s\n", result.VX, result.VY, result.VZ, v)
	fmt.Printf("  source=%s degraded=%v\n", result.Source, result.Degraded)

	path, err := track.Sample(context.Background(), calc, track.Request{
		Object: *object,
		Center: *center,
		Start:  now,
		End:    now.Add(24 * time.Hour),
		Step:   6 * time.Hour,
	})
	if err != nil {
		fmt.Println("ERROR sampling track:", err)
		os.Exit(1)
	}
	fmt.Printf("\n24h track (%d points):\n", len(path.Points))
	for _, p := range path.Points {
		fmt.Printf("  %s  (%.1f, %.1f, %.1f) km\n", p.Time.Format(time.RFC3339), p.X, p.Y, p.Z)
	}
}
