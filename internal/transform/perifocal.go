// Package transform rotates orbital-plane (perifocal) coordinates into the
// ecliptic J2000 reference frame.
//
// A Keplerian position is first computed in the orbital plane with the x-axis
// toward periapsis (the PQW frame). Rotating by the argument of periapsis ω
// about z, the inclination i about x, and the longitude of the ascending node
// Ω about z — in that order — yields ecliptic coordinates:
//
//	r_ecl = R3(-Ω) · R1(-i) · R3(-ω) · r_pqw
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 2.
package transform

import (
	"math"

	"github.com/soniakeys/unit"
)

// StateEcliptic is a position/velocity in the ecliptic J2000 frame, centered
// on the element set's center body.
type StateEcliptic struct {
	X, Y, Z    float64 // km
	VX, VY, VZ float64 // km/s
}

// StatePerifocal is a position/velocity in the orbital plane, x toward
// periapsis, z along the orbit normal.
type StatePerifocal struct {
	X, Y   float64 // km
	VX, VY float64 // km/s
}

// PerifocalToEcliptic rotates a perifocal state into the ecliptic frame by
// argument of periapsis, inclination, and ascending node, in that order.
// For circular orbits with no defined periapsis, pass argPeriapsis = 0: the
// perifocal x-axis then points at the ascending node and the true anomaly is
// measured from there.
func PerifocalToEcliptic(pqw StatePerifocal, argPeriapsis, inclination, node unit.Angle) StateEcliptic {
	cosW, sinW := math.Cos(argPeriapsis.Rad()), math.Sin(argPeriapsis.Rad())
	cosI, sinI := math.Cos(inclination.Rad()), math.Sin(inclination.Rad())
	cosO, sinO := math.Cos(node.Rad()), math.Sin(node.Rad())

	// Combined rotation matrix R3(-Ω)·R1(-i)·R3(-ω), rows applied to (x, y, 0).
	r11 := cosO*cosW - sinO*sinW*cosI
	r12 := -cosO*sinW - sinO*cosW*cosI
	r21 := sinO*cosW + cosO*sinW*cosI
	r22 := -sinO*sinW + cosO*cosW*cosI
	r31 := sinW * sinI
	r32 := cosW * sinI

	return StateEcliptic{
		X:  r11*pqw.X + r12*pqw.Y,
		Y:  r21*pqw.X + r22*pqw.Y,
		Z:  r31*pqw.X + r32*pqw.Y,
		VX: r11*pqw.VX + r12*pqw.VY,
		VY: r21*pqw.VX + r22*pqw.VY,
		VZ: r31*pqw.VX + r32*pqw.VY,
	}
}

// ValidateState checks that a computed state is numerically sane: no NaN or
// Inf components and a radius within the solar-system scale. Returns true if
// valid.
func ValidateState(s StateEcliptic) bool {
	for _, v := range [6]float64{s.X, s.Y, s.Z, s.VX, s.VY, s.VZ} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	mag := math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)

	// From low orbits around small moons out to ~100 AU.
	const minRadius = 1.0
	const maxRadius = 1.5e10

	return mag >= minRadius && mag <= maxRadius
}
