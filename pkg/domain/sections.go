package domain

import (
	"encoding/json"
	"reflect"
)

// SectionName is the wire key of an independently updatable audit section.
type SectionName string

const (
	SectionEligibility          SectionName = "eligibilityCriteria"
	SectionPreAuditDiscussion   SectionName = "preAuditDiscussion"
	SectionAtypicalLoads        SectionName = "atypicalLoads"
	SectionHouse                SectionName = "houseInfo"
	SectionFoundation           SectionName = "foundationInfo"
	SectionWalls                SectionName = "wallsInfo"
	SectionCeiling              SectionName = "ceilingInfo"
	SectionWindows              SectionName = "windowsInfo"
	SectionDoors                SectionName = "doorsInfo"
	SectionVentilation          SectionName = "ventilationInfo"
	SectionHeating              SectionName = "heatingInfo"
	SectionDomesticHotWater     SectionName = "domesticHotWaterInfo"
	SectionRenewables           SectionName = "renewablesInfo"
	SectionBlowerDoorTest       SectionName = "blowerDoorTest"
	SectionDepressurizationTest SectionName = "depressurizationTest"
)

// SectionNames lists every section in form order.
var SectionNames = []SectionName{
	SectionEligibility,
	SectionPreAuditDiscussion,
	SectionAtypicalLoads,
	SectionHouse,
	SectionFoundation,
	SectionWalls,
	SectionCeiling,
	SectionWindows,
	SectionDoors,
	SectionVentilation,
	SectionHeating,
	SectionDomesticHotWater,
	SectionRenewables,
	SectionBlowerDoorTest,
	SectionDepressurizationTest,
}

// IsSection reports whether key names an audit section.
func IsSection(key string) bool {
	for _, name := range SectionNames {
		if string(name) == key {
			return true
		}
	}
	return false
}

// EligibilityCriteria records the program eligibility checklist.
type EligibilityCriteria struct {
	Registered   Flag `json:"registered,omitempty"`
	Documents    Flag `json:"documents,omitempty"`
	Storeys      Flag `json:"storeys,omitempty"`
	Size         Flag `json:"size,omitempty"`
	Foundation   Flag `json:"foundation,omitempty"`
	Mechanical   Flag `json:"mechanical,omitempty"`
	DoorsWindows Flag `json:"doors_windows,omitempty"`
	Envelope     Flag `json:"envelope,omitempty"`
	Renovations  Flag `json:"renovations,omitempty"`
	Ashes        Flag `json:"ashes,omitempty"`
	Electrical   Flag `json:"electrical,omitempty"`
}

// PreAuditDiscussion records what was covered with the homeowner.
type PreAuditDiscussion struct {
	Authorization Flag `json:"authorization,omitempty"`
	Process       Flag `json:"process,omitempty"`
	Access        Flag `json:"access,omitempty"`
	Documents     Flag `json:"documents,omitempty"`
}

// AtypicalLoads flags electrical loads outside the modelled baseline.
type AtypicalLoads struct {
	Deicing        Flag `json:"deicing,omitempty"`
	Lighting       Flag `json:"lighting,omitempty"`
	HotTub         Flag `json:"hot_tub,omitempty"`
	AirConditioner Flag `json:"air_conditioner,omitempty"`
	Pool           Flag `json:"pool,omitempty"`
}

// HouseInfo holds general house characteristics. The above-grade height is
// a dual-unit quantity.
type HouseInfo struct {
	HouseType            Value `json:"houseType,omitempty"`
	YearBuilt            Value `json:"yearBuilt,omitempty"`
	AboveGradeHeight     Value `json:"aboveGradeHeight,omitempty"`
	AboveGradeHeightUnit Value `json:"aboveGradeHeightUnit,omitempty"`
	AboveGradeFeet       Value `json:"aboveGradeFeet,omitempty"`
	AboveGradeInches     Value `json:"aboveGradeInches,omitempty"`
	FrontOrientation     Value `json:"frontOrientation,omitempty"`
}

// FoundationInfo describes the foundation assembly.
type FoundationInfo struct {
	FoundationType           []string `json:"foundationType,omitempty"`
	CrawlspaceType           Value    `json:"crawlspaceType,omitempty"`
	SheathingType            Value    `json:"sheathingType,omitempty"`
	SheathingThickness       Value    `json:"sheathingThickness,omitempty"`
	WallHeight               Value    `json:"wallHeight,omitempty"`
	WallHeightUnit           Value    `json:"wallHeightUnit,omitempty"`
	AverageHeightAboveGrade  Value    `json:"averageHeightAboveGrade,omitempty"`
	PonyWall                 Value    `json:"ponyWall,omitempty"`
	Corners                  Value    `json:"corners,omitempty"`
	Walls                    Value    `json:"walls,omitempty"`
	InteriorWalls            []string `json:"interiorWalls,omitempty"`
	InteriorWallConstruction Value    `json:"interiorWallConstruction,omitempty"`
	FramingSpacing           []string `json:"framingSpacing,omitempty"`
	Insulation               Value    `json:"insulation,omitempty"`
	InsulationThickness      Value    `json:"insulationThickness,omitempty"`
	SlabInsulation           Value    `json:"slabInsulation,omitempty"`
	SlabInsulationType       Value    `json:"slabInsulationType,omitempty"`
	SlabInsulationThickness  Value    `json:"slabInsulationThickness,omitempty"`
	SlabHeated               Value    `json:"slabHeated,omitempty"`
}

// PerFloor carries one value per above-grade storey.
type PerFloor struct {
	Main   Value `json:"main,omitempty"`
	Second Value `json:"second,omitempty"`
	Third  Value `json:"third,omitempty"`
}

// WallsInfo describes above-grade walls, including per-floor heights.
type WallsInfo struct {
	Floors                      []Floor  `json:"floors,omitempty"`
	WallFraming                 Value    `json:"wallFraming,omitempty"`
	Centres                     Value    `json:"centres,omitempty"`
	CavityInsulation            []string `json:"cavityInsulation,omitempty"`
	ExteriorInsulationType      []string `json:"exteriorInsulationType,omitempty"`
	ExteriorInsulationThickness Value    `json:"exteriorInsulationThickness,omitempty"`
	ExteriorSheathing           Value    `json:"exteriorSheathing,omitempty"`
	SheathingThickness          Value    `json:"sheathingThickness,omitempty"`
	ExteriorFinish              Value    `json:"exteriorFinish,omitempty"`
	ExteriorFinishOther         Value    `json:"exteriorFinishOther,omitempty"`
	StudsCorner                 Value    `json:"studsCorner,omitempty"`
	Corners                     PerFloor `json:"corners,omitzero"`
	Intersections               PerFloor `json:"intersections,omitzero"`
	StudCornerType              []string `json:"studCornerType,omitempty"`
}

// CeilingInfo describes the ceiling and attic.
type CeilingInfo struct {
	AtticFraming             Value    `json:"atticFraming,omitempty"`
	AtticInsulationType      []string `json:"atticInsulationType,omitempty"`
	AtticInsulationThickness Value    `json:"atticInsulationThickness,omitempty"`
	CeilingType              Value    `json:"ceilingType,omitempty"`
	Spacing                  Value    `json:"spacing,omitempty"`
}

// WindowsInfo describes the predominant window type.
type WindowsInfo struct {
	Frame       Value `json:"frame,omitempty"`
	LowECoating Value `json:"lowECoating,omitempty"`
	GasFill     Value `json:"gasFill,omitempty"`
	LintelType  Value `json:"lintelType,omitempty"`
	Glazing     Value `json:"glazing,omitempty"`
}

// DoorsInfo describes exterior doors.
type DoorsInfo struct {
	Skin       Value `json:"skin,omitempty"`
	Insulation Value `json:"insulation,omitempty"`
}

// Airflow is a single CFM reading.
type Airflow struct {
	CFM Value `json:"cfm,omitempty"`
}

// VentilationDevices groups the exhaust fan airflow readings.
type VentilationDevices struct {
	BathFan    Airflow `json:"bathFan,omitzero"`
	RangeHood  Airflow `json:"rangeHood,omitzero"`
	UtilityFan Airflow `json:"utilityFan,omitzero"`
}

// SupplyExhaust is an HRV supply/exhaust pair.
type SupplyExhaust struct {
	Supply  Value `json:"supply,omitempty"`
	Exhaust Value `json:"exhaust,omitempty"`
}

// FanPower holds fan wattage at the two rating temperatures.
type FanPower struct {
	At0C      Value `json:"at0C,omitempty"`
	AtMinus25 Value `json:"atMinus25,omitempty"`
}

// SensibleEfficiency holds HRV efficiency at the two rating temperatures.
type SensibleEfficiency struct {
	At0C       Value `json:"at0C,omitempty"`
	AtMinus25C Value `json:"atMinus25C,omitempty"`
}

// BathFanDetails describes the bathroom exhaust fan.
type BathFanDetails struct {
	Manufacturer Value `json:"manufacturer,omitempty"`
	Model        Value `json:"model,omitempty"`
	ExhaustFlow  Value `json:"exhaustFlow,omitempty"`
	FanPower     Value `json:"fanPower,omitempty"`
}

// UtilityFanDetails describes the utility room fan.
type UtilityFanDetails struct {
	Manufacturer Value `json:"manufacturer,omitempty"`
	FlowRate     Value `json:"flowRate,omitempty"`
}

// RangeHoodDetails describes the kitchen range hood.
type RangeHoodDetails struct {
	Manufacturer Value `json:"manufacturer,omitempty"`
}

// VentilationInfo describes mechanical ventilation.
type VentilationInfo struct {
	VentilationType    Value              `json:"ventilationType,omitempty"`
	Device             VentilationDevices `json:"device,omitzero"`
	HRVManufacturer    Value              `json:"hrvManufacturer,omitempty"`
	HRVModel           Value              `json:"hrvModel,omitempty"`
	HVICertified       Value              `json:"hviCertified,omitempty"`
	HRVCFM             SupplyExhaust      `json:"hrvCfm,omitzero"`
	FanPower           FanPower           `json:"fanPower,omitzero"`
	SensibleEfficiency SensibleEfficiency `json:"sensibleEfficiency,omitzero"`
	BathFanDetails     BathFanDetails     `json:"bathFanDetails,omitzero"`
	UtilityFanDetails  UtilityFanDetails  `json:"utilityFanDetails,omitzero"`
	RangeHoodDetails   RangeHoodDetails   `json:"rangeHoodDetails,omitzero"`
}

// RatedEfficiency holds the heating appliance efficiency ratings.
type RatedEfficiency struct {
	Overall     Value `json:"overall,omitempty"`
	AFUE        Value `json:"afue,omitempty"`
	SteadyState Value `json:"steadyState,omitempty"`
}

// HeatingInfo describes the primary heating system.
type HeatingInfo struct {
	HeatingSystemType          []string        `json:"heatingSystemType,omitempty"`
	Source                     Value           `json:"source,omitempty"`
	Manufacturer               Value           `json:"manufacturer,omitempty"`
	Model                      Value           `json:"model,omitempty"`
	RatedEfficiency            RatedEfficiency `json:"ratedEfficiency,omitzero"`
	IgnitionType               Value           `json:"ignitionType,omitempty"`
	AutomaticVentDamper        Value           `json:"automaticVentDamper,omitempty"`
	DedicatedCombustionAirDuct Value           `json:"dedicatedCombustionAirDuct,omitempty"`
	FanPumpMotorType           Value           `json:"fanPumpMotorType,omitempty"`
	VentingConfiguration       Value           `json:"ventingConfiguration,omitempty"`
	HeatPumpManufacturer       Value           `json:"heatPumpManufacturer,omitempty"`
	HeatPumpModel              Value           `json:"heatPumpModel,omitempty"`
	SupplementaryHeatingSystem Value           `json:"supplementaryHeatingSystem,omitempty"`
	ACCoil                     Value           `json:"acCoil,omitempty"`
	CondenserUnit              Value           `json:"condenserUnit,omitempty"`
}

// DWHR describes a drain-water heat-recovery unit.
type DWHR struct {
	Present      Value `json:"present,omitempty"`
	Manufacturer Value `json:"manufacturer,omitempty"`
	Model        Value `json:"model,omitempty"`
	Size         Value `json:"size,omitempty"`
}

// DomesticHotWaterInfo describes the primary water heater.
type DomesticHotWaterInfo struct {
	DomesticHotWaterType Value `json:"domesticHotWaterType,omitempty"`
	Fuel                 Value `json:"fuel,omitempty"`
	Manufacturer         Value `json:"manufacturer,omitempty"`
	Model                Value `json:"model,omitempty"`
	TankVolume           Value `json:"tankVolume,omitempty"`
	EfficiencyFactor     Value `json:"efficiencyFactor,omitempty"`
	COP                  Value `json:"cop,omitempty"`
	Pilot                Value `json:"pilot,omitempty"`
	CoVented             Value `json:"coVented,omitempty"`
	FlueDiameter         Value `json:"flueDiameter,omitempty"`
	ShowersToMainStack   Value `json:"showersToMainStack,omitempty"`
	DWHR                 DWHR  `json:"dwhr,omitzero"`
	DWHRToShower         Value `json:"dwhrToShower,omitempty"`
	LowFlushToilets      Value `json:"lowFlushToilets,omitempty"`
}

// SolarPV describes a photovoltaic array.
type SolarPV struct {
	Present      Value    `json:"present,omitempty"`
	Manufacturer Value    `json:"manufacturer,omitempty"`
	Area         Value    `json:"area,omitempty"`
	Slope        Value    `json:"slope,omitempty"`
	Azimuth      Value    `json:"azimuth,omitempty"`
	ModuleType   []string `json:"moduleType,omitempty"`
}

// SolarDHW describes a solar domestic hot water collector.
type SolarDHW struct {
	Manufacturer  Value `json:"manufacturer,omitempty"`
	Model         Value `json:"model,omitempty"`
	CSAF379Rating Value `json:"csaF379Rating,omitempty"`
	Slope         Value `json:"slope,omitempty"`
	Azimuth       Value `json:"azimuth,omitempty"`
}

// RenewablesInfo groups on-site renewable systems.
type RenewablesInfo struct {
	SolarPV  SolarPV  `json:"solarPv,omitzero"`
	SolarDHW SolarDHW `json:"solarDhw,omitzero"`
}

// LeakageAreas flags where leakage was observed during the blower-door test.
type LeakageAreas struct {
	Rims              Flag `json:"rims,omitempty"`
	ElectricOutlet    Flag `json:"electric_outlet,omitempty"`
	Doors             Flag `json:"doors,omitempty"`
	WallIntersections Flag `json:"wall_intersections,omitempty"`
	Baseboards        Flag `json:"baseboards,omitempty"`
	CeilingFixtures   Flag `json:"ceiling_fixtures,omitempty"`
	WindowFrames      Flag `json:"window_frames,omitempty"`
	ElectricPanel     Flag `json:"electric_panel,omitempty"`
	AtticAccess       Flag `json:"attic_access,omitempty"`
}

// BlowerDoorTest records blower-door observations.
type BlowerDoorTest struct {
	AreasOfLeakage  LeakageAreas `json:"areasOfLeakage,omitzero"`
	WindowComponent Value        `json:"windowComponent,omitempty"`
	Other           Value        `json:"other,omitempty"`
}

// DepressurizationTest records the final depressurization observations.
type DepressurizationTest struct {
	WindowLeakage Value `json:"windowLeakage,omitempty"`
	OtherLeakage  Value `json:"otherLeakage,omitempty"`
}

// UnmarshalJSON also accepts the legacy shape where the answers were nested
// under a second "depressurizationTest" key. Top-level answers win.
func (d *DepressurizationTest) UnmarshalJSON(data []byte) error {
	type plain DepressurizationTest
	var wire struct {
		plain
		Nested *plain `json:"depressurizationTest"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out := DepressurizationTest(wire.plain)
	if wire.Nested != nil {
		if !out.WindowLeakage.IsSet() {
			out.WindowLeakage = wire.Nested.WindowLeakage
		}
		if !out.OtherLeakage.IsSet() {
			out.OtherLeakage = wire.Nested.OtherLeakage
		}
	}
	*d = out
	return nil
}

// Answered reports whether the final form carries any answer.
func (d DepressurizationTest) Answered() bool {
	return d.WindowLeakage.IsSet() || d.OtherLeakage.IsSet()
}

// Sections groups every audit section. A nil section was never saved.
type Sections struct {
	EligibilityCriteria  *EligibilityCriteria  `json:"eligibilityCriteria,omitempty"`
	PreAuditDiscussion   *PreAuditDiscussion   `json:"preAuditDiscussion,omitempty"`
	AtypicalLoads        *AtypicalLoads        `json:"atypicalLoads,omitempty"`
	HouseInfo            *HouseInfo            `json:"houseInfo,omitempty"`
	FoundationInfo       *FoundationInfo       `json:"foundationInfo,omitempty"`
	WallsInfo            *WallsInfo            `json:"wallsInfo,omitempty"`
	CeilingInfo          *CeilingInfo          `json:"ceilingInfo,omitempty"`
	WindowsInfo          *WindowsInfo          `json:"windowsInfo,omitempty"`
	DoorsInfo            *DoorsInfo            `json:"doorsInfo,omitempty"`
	VentilationInfo      *VentilationInfo      `json:"ventilationInfo,omitempty"`
	HeatingInfo          *HeatingInfo          `json:"heatingInfo,omitempty"`
	DomesticHotWaterInfo *DomesticHotWaterInfo `json:"domesticHotWaterInfo,omitempty"`
	RenewablesInfo       *RenewablesInfo       `json:"renewablesInfo,omitempty"`
	BlowerDoorTest       *BlowerDoorTest       `json:"blowerDoorTest,omitempty"`
	DepressurizationTest *DepressurizationTest `json:"depressurizationTest,omitempty"`
}

// slot returns a pointer to the section field addressed by name.
func (s *Sections) slot(name SectionName) (any, bool) {
	switch name {
	case SectionEligibility:
		return &s.EligibilityCriteria, true
	case SectionPreAuditDiscussion:
		return &s.PreAuditDiscussion, true
	case SectionAtypicalLoads:
		return &s.AtypicalLoads, true
	case SectionHouse:
		return &s.HouseInfo, true
	case SectionFoundation:
		return &s.FoundationInfo, true
	case SectionWalls:
		return &s.WallsInfo, true
	case SectionCeiling:
		return &s.CeilingInfo, true
	case SectionWindows:
		return &s.WindowsInfo, true
	case SectionDoors:
		return &s.DoorsInfo, true
	case SectionVentilation:
		return &s.VentilationInfo, true
	case SectionHeating:
		return &s.HeatingInfo, true
	case SectionDomesticHotWater:
		return &s.DomesticHotWaterInfo, true
	case SectionRenewables:
		return &s.RenewablesInfo, true
	case SectionBlowerDoorTest:
		return &s.BlowerDoorTest, true
	case SectionDepressurizationTest:
		return &s.DepressurizationTest, true
	}
	return nil, false
}

// Saved reports whether the named section has been stored with any content.
func (s Sections) Saved(name SectionName) bool {
	slot, ok := s.slot(name)
	if !ok {
		return false
	}
	ptr := reflect.ValueOf(slot).Elem()
	if ptr.IsNil() {
		return false
	}
	return !ptr.Elem().IsZero()
}

// Clone returns a deep copy.
func (s Sections) Clone() Sections {
	data, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	var out Sections
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return out
}
