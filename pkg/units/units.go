// Package units converts lengths between metres and imperial feet/inches.
//
// Imperial values are kept at quarter-inch granularity; conversions are
// therefore lossy by design of the input forms, and round trips are stable
// within 0.25 in.
package units

import (
	"math"
	"strconv"
	"strings"
)

const (
	// MetersPerFoot is the exact international foot.
	MetersPerFoot = 0.3048
	// InchesPerFoot is the number of inches in a foot.
	InchesPerFoot = 12
	// InchStep is the granularity imperial inches are rounded to.
	InchStep = 0.25
)

// Unit names a length unit as it appears on audit records.
type Unit string

const (
	Meters Unit = "m"
	Feet   Unit = "ft"
)

// ParseUnit normalises a stored unit token. Anything that is not feet is
// treated as metres, matching the form default.
func ParseUnit(raw string) Unit {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ft", "feet", "foot", "'":
		return Feet
	default:
		return Meters
	}
}

// FeetInchesToMeters converts an imperial breakdown to metres using the
// total-feet form (feet + inches/12) * 0.3048.
func FeetInchesToMeters(feet int, inches float64) float64 {
	return TotalFeet(feet, inches) * MetersPerFoot
}

// TotalFeet folds an imperial breakdown into decimal feet.
func TotalFeet(feet int, inches float64) float64 {
	return float64(feet) + inches/InchesPerFoot
}

// MetersToFeetInches converts metres to whole feet plus inches rounded to the
// nearest quarter inch. A rounding result of 12 in carries into the feet.
// Negative input is clamped to zero.
func MetersToFeetInches(m float64) (int, float64) {
	if m <= 0 || math.IsNaN(m) {
		return 0, 0
	}
	total := m / MetersPerFoot
	feet := math.Floor(total)
	inches := RoundInches((total - feet) * InchesPerFoot)
	if inches >= InchesPerFoot {
		feet++
		inches -= InchesPerFoot
	}
	return int(feet), inches
}

// RoundInches rounds to the nearest quarter inch.
func RoundInches(in float64) float64 {
	return math.Round(in/InchStep) * InchStep
}

// FormatTotalFeet renders decimal feet with three decimals, the form used for
// a height edited in imperial units (8 ft 6 in -> "8.500").
func FormatTotalFeet(feet int, inches float64) string {
	return strconv.FormatFloat(TotalFeet(feet, inches), 'f', 3, 64)
}

// FormatMeters renders metres with the given precision.
func FormatMeters(m float64, precision int) string {
	return strconv.FormatFloat(m, 'f', precision, 64)
}

// FormatInches renders inches without trailing zeros ("6", "6.25").
func FormatInches(in float64) string {
	return strconv.FormatFloat(in, 'f', -1, 64)
}

// ParseNumber reads a decimal from user-entered text. Empty or invalid input
// reports false.
func ParseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
