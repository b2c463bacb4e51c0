package export

// Units selects the length unit positions are written in.
type Units int

const (
	UnitsMeters Units = iota
	UnitsCentimeters
	UnitsMillimeters
	UnitsInches

	unitsCount
)

var unitScales = [...]float64{
	UnitsMeters:      1.0,
	UnitsCentimeters: 100.0,
	UnitsMillimeters: 1000.0,
	UnitsInches:      39.3701,
}

var unitNames = [...]string{
	UnitsMeters:      "meters",
	UnitsCentimeters: "centimeters",
	UnitsMillimeters: "millimeters",
	UnitsInches:      "inches",
}

// UnitsFromPreference normalizes a raw preference value. Anything outside
// the known range falls back to meters.
func UnitsFromPreference(pref int) Units {
	if pref < 0 || pref >= int(unitsCount) {
		return UnitsMeters
	}
	return Units(pref)
}

// ParseUnits maps a unit name to Units.
func ParseUnits(name string) (Units, bool) {
	for i, n := range unitNames {
		if n == name {
			return Units(i), true
		}
	}
	return UnitsMeters, false
}

// ResolveScale returns the factor applied to every position for the raw
// unit preference.
func ResolveScale(pref int) float64 {
	return unitScales[UnitsFromPreference(pref)]
}

// Scale returns the position factor for u.
func (u Units) Scale() float64 {
	return unitScales[UnitsFromPreference(int(u))]
}

func (u Units) String() string {
	if u < 0 || u >= unitsCount {
		return "unknown"
	}
	return unitNames[u]
}
