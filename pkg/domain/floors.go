package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"auditcore/pkg/units"
)

// Fixed floor identifiers present on every walls section.
const (
	FloorBasement = "basement"
	FloorMain     = "main"
)

// Floor is one storey with its own dual-unit wall height.
type Floor struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	WallHeight       Value  `json:"wallHeight,omitempty"`
	WallHeightUnit   Value  `json:"wallHeightUnit,omitempty"`
	WallHeightFeet   Value  `json:"wallHeightFeet,omitempty"`
	WallHeightInches Value  `json:"wallHeightInches,omitempty"`
}

// Fixed reports whether the floor may not be removed.
func (f Floor) Fixed() bool { return f.ID == FloorBasement || f.ID == FloorMain }

// Height returns the dual-unit view of the floor's wall height.
func (f Floor) Height() Length {
	return Length{Value: f.WallHeight, Unit: f.WallHeightUnit, Feet: f.WallHeightFeet, Inches: f.WallHeightInches}
}

func (f *Floor) setHeight(l Length) {
	f.WallHeight, f.WallHeightUnit, f.WallHeightFeet, f.WallHeightInches = l.Value, l.Unit, l.Feet, l.Inches
}

// Length is a height stored in the unit the user last edited plus the
// imperial breakdown. When Unit is ft, Value holds decimal feet; otherwise it
// holds metres.
type Length struct {
	Value  Value
	Unit   Value
	Feet   Value
	Inches Value
}

// Meters returns the canonical metric value read by exporters.
func (l Length) Meters() (float64, bool) {
	if units.ParseUnit(l.Unit.String()) == units.Feet {
		feet, okFeet := units.ParseNumber(l.Feet.String())
		inches, okInches := units.ParseNumber(l.Inches.String())
		if okFeet || okInches {
			return (feet + inches/units.InchesPerFoot) * units.MetersPerFoot, true
		}
		total, ok := units.ParseNumber(l.Value.String())
		if !ok {
			return 0, false
		}
		return total * units.MetersPerFoot, true
	}
	m, ok := units.ParseNumber(l.Value.String())
	return m, ok
}

// IsSet reports whether any representation is present.
func (l Length) IsSet() bool {
	return l.Value.IsSet() || l.Feet.IsSet() || l.Inches.IsSet()
}

// EditImperial records a feet/inches edit and derives the decimal-feet
// value. Inches are rounded to the nearest quarter.
func EditImperial(feet, inches string) (Length, error) {
	ft, inch, err := parseImperial(feet, inches)
	if err != nil {
		return Length{}, err
	}
	return Length{
		Value:  Value(units.FormatTotalFeet(ft, inch)),
		Unit:   Value(units.Feet),
		Feet:   Value(strconv.Itoa(ft)),
		Inches: Value(units.FormatInches(inch)),
	}, nil
}

// EditMetric records a metres edit and derives the imperial breakdown.
func EditMetric(meters string) (Length, error) {
	m, ok := units.ParseNumber(meters)
	if !ok || m < 0 {
		return Length{}, fmt.Errorf("%w: invalid metres %q", ErrInvalidSection, meters)
	}
	ft, inch := units.MetersToFeetInches(m)
	return Length{
		Value:  Value(meters),
		Unit:   Value(units.Meters),
		Feet:   Value(strconv.Itoa(ft)),
		Inches: Value(units.FormatInches(inch)),
	}, nil
}

// reconcile re-derives the secondary representation from the primary one
// named by Unit. Unparseable input is left untouched.
func (l Length) reconcile() Length {
	if units.ParseUnit(l.Unit.String()) == units.Feet {
		if !l.Feet.IsSet() && !l.Inches.IsSet() {
			return l
		}
		edited, err := EditImperial(l.Feet.String(), l.Inches.String())
		if err != nil {
			return l
		}
		return edited
	}
	if !l.Value.IsSet() {
		return l
	}
	edited, err := EditMetric(l.Value.String())
	if err != nil {
		return l
	}
	if !l.Unit.IsSet() {
		edited.Unit = ""
	}
	return edited
}

func parseImperial(feet, inches string) (int, float64, error) {
	ft := 0.0
	if feet != "" {
		v, ok := units.ParseNumber(feet)
		if !ok || v < 0 {
			return 0, 0, fmt.Errorf("%w: invalid feet %q", ErrInvalidSection, feet)
		}
		ft = v
	}
	in := 0.0
	if inches != "" {
		v, ok := units.ParseNumber(inches)
		if !ok || v < 0 {
			return 0, 0, fmt.Errorf("%w: invalid inches %q", ErrInvalidSection, inches)
		}
		in = v
	}
	// Fractional feet fold into inches so the breakdown stays whole feet.
	whole := math.Floor(ft)
	in = units.RoundInches(in + (ft-whole)*units.InchesPerFoot)
	for in >= units.InchesPerFoot {
		whole++
		in -= units.InchesPerFoot
	}
	return int(whole), in, nil
}

// DefaultFloors returns the fixed basement and main floors.
func DefaultFloors() []Floor {
	return []Floor{
		{ID: FloorBasement, Name: "Basement", WallHeightUnit: Value(units.Meters)},
		{ID: FloorMain, Name: "Main Floor", WallHeightUnit: Value(units.Meters)},
	}
}

// EnsureFixedFloors guarantees basement and main lead the list, keeping any
// stored data for them and the order of the remaining floors.
func EnsureFixedFloors(floors []Floor) []Floor {
	fixed := DefaultFloors()
	rest := make([]Floor, 0, len(floors))
	for _, f := range floors {
		switch f.ID {
		case FloorBasement:
			fixed[0] = f
		case FloorMain:
			fixed[1] = f
		default:
			rest = append(rest, f)
		}
	}
	return append(fixed, rest...)
}

// floorName names the storey added when n floors exist: "Second Floor",
// "Third Floor", then "Floor N".
func floorName(n int) string {
	switch n {
	case 2:
		return "Second Floor"
	case 3:
		return "Third Floor"
	}
	return fmt.Sprintf("Floor %d", n+1)
}

// NextFloor builds the floor appended after existing ones. It takes the
// first name in the sequence that no existing floor uses, so removing a
// storey never leads to two floors with the same name.
func NextFloor(existing []Floor, now time.Time) Floor {
	taken := make(map[string]bool, len(existing))
	for _, f := range existing {
		taken[f.Name] = true
	}
	n := 2
	for taken[floorName(n)] {
		n++
	}
	name := floorName(n)
	id := fmt.Sprintf("floor-%d", now.UnixMilli())
	for _, f := range existing {
		if f.ID == id {
			id = fmt.Sprintf("%s-%d", id, len(existing))
		}
	}
	return Floor{ID: id, Name: name, WallHeightUnit: Value(units.Meters)}
}

// AddFloor appends a new storey.
func (w *WallsInfo) AddFloor(now time.Time) Floor {
	w.Floors = EnsureFixedFloors(w.Floors)
	f := NextFloor(w.Floors, now)
	w.Floors = append(w.Floors, f)
	return f
}

// RemoveFloor drops a non-fixed storey.
func (w *WallsInfo) RemoveFloor(id string) error {
	for i, f := range w.Floors {
		if f.ID != id {
			continue
		}
		if f.Fixed() {
			return ErrFixedFloor
		}
		w.Floors = append(w.Floors[:i:i], w.Floors[i+1:]...)
		return nil
	}
	if id == FloorBasement || id == FloorMain {
		return ErrFixedFloor
	}
	return fmt.Errorf("floor %q: %w", id, ErrNotFound)
}

// Normalize restores the fixed floors and re-derives every floor's height
// from the unit last edited.
func (w *WallsInfo) Normalize() {
	w.Floors = EnsureFixedFloors(w.Floors)
	for i := range w.Floors {
		w.Floors[i].setHeight(w.Floors[i].Height().reconcile())
	}
}

// AboveGrade returns the dual-unit above-grade height.
func (h HouseInfo) AboveGrade() Length {
	return Length{Value: h.AboveGradeHeight, Unit: h.AboveGradeHeightUnit, Feet: h.AboveGradeFeet, Inches: h.AboveGradeInches}
}

// Normalize re-derives the above-grade height breakdown.
func (h *HouseInfo) Normalize() {
	if !h.AboveGrade().IsSet() {
		return
	}
	l := h.AboveGrade().reconcile()
	h.AboveGradeHeight, h.AboveGradeHeightUnit, h.AboveGradeFeet, h.AboveGradeInches = l.Value, l.Unit, l.Feet, l.Inches
}
