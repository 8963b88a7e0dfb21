package frame

// Class groups bodies for refresh-policy selection.
type Class int

const (
	ClassPlanet Class = iota
	ClassDwarfPlanet
	ClassMoon
	ClassAsteroid
	ClassComet
	ClassBarycenter
	ClassStar
)

// String returns the class name used in logs and config.
func (c Class) String() string {
	switch c {
	case ClassPlanet:
		return "planet"
	case ClassDwarfPlanet:
		return "dwarf-planet"
	case ClassMoon:
		return "moon"
	case ClassAsteroid:
		return "asteroid"
	case ClassComet:
		return "comet"
	case ClassBarycenter:
		return "barycenter"
	case ClassStar:
		return "star"
	default:
		return "unknown"
	}
}

// Body is one entry in the static relationship table.
//
// Primary is the body's default viewing center: requesting elements relative
// to the primary yields the bare cache key. System names the gravitational
// system the body belongs to, which ties a planet, its moons, and the
// system barycenter together.
type Body struct {
	Name    string
	Class   Class
	Primary string
	System  string

	// HorizonsID is the JPL Horizons COMMAND/CENTER identifier for the body.
	HorizonsID string
}

// Numeric center identifiers follow the Horizons convention: "N" is the
// barycenter of planetary system N.
var bodies = []Body{
	{Name: "sun", Class: ClassStar, Primary: "", System: "sun", HorizonsID: "10"},
	{Name: "0", Class: ClassBarycenter, Primary: "sun", System: "sun", HorizonsID: "0"},

	{Name: "mercury", Class: ClassPlanet, Primary: "sun", System: "mercury", HorizonsID: "199"},
	{Name: "venus", Class: ClassPlanet, Primary: "sun", System: "venus", HorizonsID: "299"},
	{Name: "earth", Class: ClassPlanet, Primary: "sun", System: "earth", HorizonsID: "399"},
	{Name: "mars", Class: ClassPlanet, Primary: "sun", System: "mars", HorizonsID: "499"},
	{Name: "jupiter", Class: ClassPlanet, Primary: "sun", System: "jupiter", HorizonsID: "599"},
	{Name: "saturn", Class: ClassPlanet, Primary: "sun", System: "saturn", HorizonsID: "699"},
	{Name: "uranus", Class: ClassPlanet, Primary: "sun", System: "uranus", HorizonsID: "799"},
	{Name: "neptune", Class: ClassPlanet, Primary: "sun", System: "neptune", HorizonsID: "899"},

	{Name: "3", Class: ClassBarycenter, Primary: "sun", System: "earth", HorizonsID: "3"},
	{Name: "4", Class: ClassBarycenter, Primary: "sun", System: "mars", HorizonsID: "4"},
	{Name: "5", Class: ClassBarycenter, Primary: "sun", System: "jupiter", HorizonsID: "5"},
	{Name: "6", Class: ClassBarycenter, Primary: "sun", System: "saturn", HorizonsID: "6"},
	{Name: "7", Class: ClassBarycenter, Primary: "sun", System: "uranus", HorizonsID: "7"},
	{Name: "8", Class: ClassBarycenter, Primary: "sun", System: "neptune", HorizonsID: "8"},
	{Name: "9", Class: ClassBarycenter, Primary: "sun", System: "pluto", HorizonsID: "9"},

	{Name: "moon", Class: ClassMoon, Primary: "earth", System: "earth", HorizonsID: "301"},
	{Name: "phobos", Class: ClassMoon, Primary: "mars", System: "mars", HorizonsID: "401"},
	{Name: "deimos", Class: ClassMoon, Primary: "mars", System: "mars", HorizonsID: "402"},
	{Name: "io", Class: ClassMoon, Primary: "jupiter", System: "jupiter", HorizonsID: "501"},
	{Name: "europa", Class: ClassMoon, Primary: "jupiter", System: "jupiter", HorizonsID: "502"},
	{Name: "ganymede", Class: ClassMoon, Primary: "jupiter", System: "jupiter", HorizonsID: "503"},
	{Name: "callisto", Class: ClassMoon, Primary: "jupiter", System: "jupiter", HorizonsID: "504"},
	{Name: "mimas", Class: ClassMoon, Primary: "saturn", System: "saturn", HorizonsID: "601"},
	{Name: "enceladus", Class: ClassMoon, Primary: "saturn", System: "saturn", HorizonsID: "602"},
	{Name: "titan", Class: ClassMoon, Primary: "saturn", System: "saturn", HorizonsID: "606"},
	{Name: "miranda", Class: ClassMoon, Primary: "uranus", System: "uranus", HorizonsID: "705"},
	{Name: "titania", Class: ClassMoon, Primary: "uranus", System: "uranus", HorizonsID: "703"},
	{Name: "oberon", Class: ClassMoon, Primary: "uranus", System: "uranus", HorizonsID: "704"},
	{Name: "triton", Class: ClassMoon, Primary: "neptune", System: "neptune", HorizonsID: "801"},
	{Name: "charon", Class: ClassMoon, Primary: "pluto", System: "pluto", HorizonsID: "901"},
	{Name: "nix", Class: ClassMoon, Primary: "pluto", System: "pluto", HorizonsID: "902"},
	{Name: "hydra", Class: ClassMoon, Primary: "pluto", System: "pluto", HorizonsID: "903"},

	{Name: "pluto", Class: ClassDwarfPlanet, Primary: "sun", System: "pluto", HorizonsID: "999"},
	{Name: "ceres", Class: ClassDwarfPlanet, Primary: "sun", System: "ceres", HorizonsID: "2000001"},
	{Name: "eris", Class: ClassDwarfPlanet, Primary: "sun", System: "eris", HorizonsID: "136199"},
	{Name: "makemake", Class: ClassDwarfPlanet, Primary: "sun", System: "makemake", HorizonsID: "136472"},
	{Name: "haumea", Class: ClassDwarfPlanet, Primary: "sun", System: "haumea", HorizonsID: "136108"},

	{Name: "vesta", Class: ClassAsteroid, Primary: "sun", System: "vesta", HorizonsID: "2000004"},
	{Name: "bennu", Class: ClassAsteroid, Primary: "sun", System: "bennu", HorizonsID: "2101955"},
	{Name: "apophis", Class: ClassAsteroid, Primary: "sun", System: "apophis", HorizonsID: "2099942"},

	{Name: "halley", Class: ClassComet, Primary: "sun", System: "halley", HorizonsID: "90000030"},
}

var bodyIndex = func() map[string]*Body {
	m := make(map[string]*Body, len(bodies))
	for i := range bodies {
		m[bodies[i].Name] = &bodies[i]
	}
	return m
}()

// Lookup returns the table entry for a canonical name, or nil if unknown.
func Lookup(name string) *Body {
	return bodyIndex[Canonical(name)]
}

// Known reports whether the relationship table has an entry for name.
func Known(name string) bool {
	return Lookup(name) != nil
}

// Names returns the canonical names of all table entries except barycenters,
// sorted as declared (planets, moons, dwarfs, small bodies).
func Names() []string {
	out := make([]string, 0, len(bodies))
	for i := range bodies {
		if bodies[i].Class == ClassBarycenter {
			continue
		}
		out = append(out, bodies[i].Name)
	}
	return out
}

// SatelliteOf reports whether object orbits center directly: either center
// is the object's primary, or center is the barycenter of the object's
// system. The relationship is a table query keyed by the pair — a body is
// never globally "a satellite", only a satellite of a specific center.
func SatelliteOf(object, center string) bool {
	o := Lookup(object)
	c := Lookup(center)
	if o == nil || c == nil || o.Class != ClassMoon {
		return false
	}
	if o.Primary == c.Name {
		return true
	}
	return c.Class == ClassBarycenter && c.System == o.System
}
