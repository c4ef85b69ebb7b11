package domain

const kgToLb = 2.2046226218

// Supported measurement units.
const (
	UnitKg = "kg"
	UnitLb = "lb"
)

// ValidUnit reports whether unit is one of the supported weight units.
func ValidUnit(unit string) bool {
	return unit == UnitKg || unit == UnitLb
}

// ConvertWeight converts a weight value between "kg" and "lb".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertWeight(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	if from == UnitKg && to == UnitLb {
		return v * kgToLb
	}
	if from == UnitLb && to == UnitKg {
		return v / kgToLb
	}
	return v
}

// Kg returns the measurement value expressed in kilograms.
func (m Measurement) Kg() float64 {
	return ConvertWeight(m.Value, m.Unit, UnitKg)
}
