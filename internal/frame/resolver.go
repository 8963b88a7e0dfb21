// Package frame resolves (object, viewing center) pairs into canonical cache
// keys and answers relationship queries against the static body table.
//
// Orbital geometry is frame-dependent: the same object under two different
// centers has two different element sets, so the key carries the center.
// The one exception is the default center (the object's primary), which is
// normalized to a bare object key to keep the common case compact.
package frame

import "strings"

// Key is the composite identity of one cached element set.
type Key struct {
	Object string
	Center string
}

// String renders the persisted key form: bare object for the default
// center, "object@center" otherwise.
func (k Key) String() string {
	b := Lookup(k.Object)
	if b != nil && k.Center == b.Primary {
		return k.Object
	}
	if b == nil && k.Center == "sun" {
		return k.Object
	}
	return k.Object + "@" + k.Center
}

// Resolution is the outcome of resolving an (object, center) request.
type Resolution struct {
	Key Key

	// PlaneShared reports that the angular elements (inclination, node,
	// argument of periapsis) describe the same orbital plane as the
	// object's default-center elements. Plane orientation is
	// center-independent within a two-body system; only the semi-major
	// axis rescales between a primary and its system barycenter.
	PlaneShared bool

	// DefaultCenter reports that the resolved center is the object's
	// default, i.e. the key carries no center suffix.
	DefaultCenter bool

	// Known reports that the object appears in the relationship table.
	// Unknown objects still resolve (the fallback table may cover them)
	// but get no plane-sharing guarantees.
	Known bool
}

// Canonical normalizes a body identifier for table lookup and key
// construction.
func Canonical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Resolve computes the canonical cache key for an object viewed from a
// center. An empty center selects the object's default center (the primary
// from the table, or the Sun for unknown objects). Resolve is a pure
// function: same inputs, same resolution, no side effects.
func Resolve(object, center string) Resolution {
	obj := Canonical(object)
	ctr := Canonical(center)

	b := Lookup(obj)
	defaultCenter := "sun"
	if b != nil && b.Primary != "" {
		defaultCenter = b.Primary
	}
	if ctr == "" {
		ctr = defaultCenter
	}

	res := Resolution{
		Key:           Key{Object: obj, Center: ctr},
		DefaultCenter: ctr == defaultCenter,
		Known:         b != nil,
	}

	if b != nil {
		if ctr == defaultCenter {
			res.PlaneShared = true
		} else if c := Lookup(ctr); c != nil && c.System == b.System {
			// Same gravitational system, e.g. Pluto vs the Pluto-system
			// barycenter: the orbital plane is unchanged.
			res.PlaneShared = true
		}
	}
	return res
}
