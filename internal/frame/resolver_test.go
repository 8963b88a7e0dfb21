package frame

import "testing"

func TestResolveDefaultCenterBareKey(t *testing.T) {
	cases := []struct {
		object, center, wantKey string
	}{
		{"Earth", "", "earth"},
		{"Earth", "sun", "earth"},
		{"Charon", "Pluto", "charon"},
		{"Charon", "", "charon"},
		{"Moon", "earth", "moon"},
		{"Pluto", "sun", "pluto"},
	}

	for _, tc := range cases {
		res := Resolve(tc.object, tc.center)
		if got := res.Key.String(); got != tc.wantKey {
			t.Errorf("Resolve(%q, %q).Key = %q, want %q", tc.object, tc.center, got, tc.wantKey)
		}
		if !res.DefaultCenter {
			t.Errorf("Resolve(%q, %q): DefaultCenter = false, want true", tc.object, tc.center)
		}
	}
}

// TestResolveDistinctCenters verifies the same object under different centers
// yields distinct keys that are never merged.
func TestResolveDistinctCenters(t *testing.T) {
	planet := Resolve("Charon", "Pluto")
	bary := Resolve("Charon", "9")

	if planet.Key.String() != "charon" {
		t.Errorf("planet-centered key = %q, want %q", planet.Key.String(), "charon")
	}
	if bary.Key.String() != "charon@9" {
		t.Errorf("barycentric key = %q, want %q", bary.Key.String(), "charon@9")
	}
	if planet.Key == bary.Key {
		t.Error("planet-centered and barycentric keys must be distinct")
	}
	if bary.DefaultCenter {
		t.Error("barycentric resolution flagged as default center")
	}
}

// TestResolvePlaneShared verifies plane sharing within a system and not
// across systems.
func TestResolvePlaneShared(t *testing.T) {
	if !Resolve("Charon", "9").PlaneShared {
		t.Error("Charon@9: plane should be shared with the Pluto-system default")
	}
	if !Resolve("Charon", "Pluto").PlaneShared {
		t.Error("Charon@Pluto: default center always shares its own plane")
	}
	if Resolve("Charon", "earth").PlaneShared {
		t.Error("Charon@earth: foreign center must not claim plane sharing")
	}
}

func TestResolveUnknownObject(t *testing.T) {
	res := Resolve("TestMoon", "Makemake")
	if res.Known {
		t.Error("TestMoon should not be in the relationship table")
	}
	if got := res.Key.String(); got != "testmoon@makemake" {
		t.Errorf("key = %q, want %q", got, "testmoon@makemake")
	}
	if res.PlaneShared {
		t.Error("unknown objects get no plane-sharing guarantee")
	}

	// Unknown object with no center defaults to heliocentric, bare key.
	helio := Resolve("TestMoon", "")
	if got := helio.Key.String(); got != "testmoon" {
		t.Errorf("heliocentric key = %q, want %q", got, "testmoon")
	}
}

func TestSatelliteOf(t *testing.T) {
	cases := []struct {
		object, center string
		want           bool
	}{
		{"moon", "earth", true},
		{"charon", "pluto", true},
		{"charon", "9", true}, // barycenter of the same system
		{"moon", "mars", false},
		{"earth", "sun", false}, // planets are not satellites here
		{"charon", "earth", false},
		{"nosuch", "earth", false},
	}

	for _, tc := range cases {
		if got := SatelliteOf(tc.object, tc.center); got != tc.want {
			t.Errorf("SatelliteOf(%q, %q) = %v, want %v", tc.object, tc.center, got, tc.want)
		}
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	if Lookup("EARTH") == nil {
		t.Error("Lookup should canonicalize case")
	}
	if Lookup(" charon ") == nil {
		t.Error("Lookup should trim whitespace")
	}
}
