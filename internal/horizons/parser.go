package horizons

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/unit"

	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/elements"
)

const (
	soeMarker = "$$SOE"
	eoeMarker = "$$EOE"
)

// elementPattern matches one "KEY= value" pair in Horizons element output.
// The key may carry trailing spaces before '=' (e.g. "W =", "N =").
var elementPattern = regexp.MustCompile(`([A-Za-z]{1,2})\s*=\s*([-+0-9.eED]+)`)

// ParseElements extracts the first element record from Horizons
// EPHEM_TYPE=ELEMENTS text output and returns it as an osculating set for
// object relative to center.
//
// The record epoch comes from the Julian date heading the record. Angular
// elements are normalized into [0°, 360°); an inclination outside [0°, 180°]
// is rejected as a reference-frame mismatch rather than cached.
func ParseElements(data []byte, object, center string) (*elements.Set, error) {
	text := string(data)

	soe := strings.Index(text, soeMarker)
	eoe := strings.Index(text, eoeMarker)
	if soe < 0 || eoe < 0 || eoe < soe {
		return nil, fmt.Errorf("no $$SOE/$$EOE element block in response")
	}
	block := text[soe+len(soeMarker) : eoe]

	var epochJD float64
	values := make(map[string]float64)

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// A record starts with its Julian date: "2460876.5 = A.D. ...".
		if epochJD == 0 {
			fields := strings.Fields(line)
			jd, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				return nil, fmt.Errorf("parsing record epoch from %q: %w", line, err)
			}
			epochJD = jd
			continue
		}

		for _, m := range elementPattern.FindAllStringSubmatch(line, -1) {
			v, err := strconv.ParseFloat(fixExponent(m[2]), 64)
			if err != nil {
				continue
			}
			values[m[1]] = v
		}
	}

	if epochJD == 0 {
		return nil, fmt.Errorf("element block contains no record")
	}
	for _, required := range []string{"EC", "IN", "OM", "MA", "A", "PR"} {
		if _, ok := values[required]; !ok {
			return nil, fmt.Errorf("element block missing %s", required)
		}
	}

	ec := values["EC"]
	in := values["IN"]
	if in < 0 || in > 180 {
		return nil, fmt.Errorf("inclination %.3f° outside [0°, 180°]: elements are not ecliptic J2000", in)
	}

	set := &elements.Set{
		Object:              object,
		Center:              center,
		SemiMajorAxisKm:     values["A"],
		Eccentricity:        ec,
		Inclination:         unit.AngleFromDeg(in),
		AscendingNode:       unit.AngleFromDeg(normalizeDeg(values["OM"])),
		MeanAnomalyAtEpoch:  unit.AngleFromDeg(normalizeDeg(values["MA"])),
		Epoch:               julian.JDToTime(epochJD),
		Period:              time.Duration(values["PR"] * float64(time.Second)),
		Source:              elements.SourceOsculating,
		ArgPeriapsisDefined: ec > 0,
	}
	if ec > 0 {
		w, ok := values["W"]
		if !ok {
			return nil, fmt.Errorf("element block missing W for eccentric orbit")
		}
		set.ArgPeriapsis = unit.AngleFromDeg(normalizeDeg(w))
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// fixExponent converts Fortran-style "D" exponents to "E".
func fixExponent(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 'D' || r == 'd' {
			return 'E'
		}
		return r
	}, s)
}

// normalizeDeg folds an angle into [0, 360).
func normalizeDeg(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
