package h2k

import (
	"auditcore/internal/export/render"
	"auditcore/pkg/domain"
	"fmt"
	"io"
	"strings"
	"time"
)

// Format and tool identifiers written into the header.
const (
	FormatVersion    = "HOT2000 v11.10b Input File"
	DefaultGenerator = "Enerva Audit Tool"
	DefaultEvaluator = "Enerva Energy Solutions"
	EndOfFile        = "END_OF_FILE"
)

// Options controls the values that do not come from the audit.
type Options struct {
	Generator string
	Evaluator string
	// Now is the generation timestamp. A zero value uses the current time,
	// which makes the output non-reproducible.
	Now time.Time
}

func (o Options) withDefaults() Options {
	if o.Generator == "" {
		o.Generator = DefaultGenerator
	}
	if o.Evaluator == "" {
		o.Evaluator = DefaultEvaluator
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	o.Now = o.Now.UTC()
	return o
}

// Filename returns the download name of an audit's file.
func Filename(a domain.Audit) string {
	last := strings.TrimSpace(a.CustomerLastName)
	if last == "" {
		last = "audit"
	}
	return fmt.Sprintf("%s_%s.h2k", last, a.ID)
}

// Write generates and encodes the file for an audit.
func Write(w io.Writer, a domain.Audit, opts Options) error {
	return Generate(a, opts).Encode(w)
}

type builder struct {
	a    domain.Audit
	opts Options
	date string
}

type sectionFunc func(b builder) []Entry

var sections = map[render.SectionID]sectionFunc{
	render.Identification:       identification,
	render.Eligibility:          eligibility,
	render.PreAuditDiscussion:   discussion,
	render.AtypicalLoads:        atypicalLoads,
	render.ProgramInformation:   programInformation,
	render.HouseMeasurements:    houseMeasurements,
	render.Walls:                walls,
	render.Foundation:           foundation,
	render.Windows:              windows,
	render.Doors:                doors,
	render.Ceiling:              ceiling,
	render.HeatingPrimary:       heating,
	render.DHWPrimary:           hotWater,
	render.Ventilation:          ventilation,
	render.SolarPV:              solarPV,
	render.SolarDHW:             solarDHW,
	render.BlowerDoorTest:       blowerDoor,
	render.DepressurizationTest: depressurization,
	render.AuditCompletion:      completion,
}

// Generate builds the document for an audit. For a fixed Options.Now the
// result depends only on the audit.
func Generate(a domain.Audit, opts Options) Document {
	opts = opts.withDefaults()
	b := builder{a: a, opts: opts, date: opts.Now.Format(time.DateOnly)}
	doc := Document{
		Header: []string{
			FormatVersion,
			"Generated by " + opts.Generator,
			"Generated on: " + opts.Now.Format("2006-01-02T15:04:05.000Z07:00"),
			"Audit ID: " + a.ID,
		},
	}
	for _, s := range render.Order {
		doc.Sections = append(doc.Sections, Section{Name: string(s.ID), Entries: sections[s.ID](b)})
	}
	doc.Sections = append(doc.Sections, Section{Name: EndOfFile})
	return doc
}

func kv(key, value string) Entry { return Entry{Key: key, Value: value} }

func comment(text string) Entry { return Entry{Comment: text} }

func identification(b builder) []Entry {
	a, house := b.a, b.a.House()
	houseName := render.NotSpecified
	if name := a.CustomerName(); name != "" {
		houseName = name + " Residence"
	}
	below := "0"
	if domain.Contains(a.Foundation().FoundationType, "basement") {
		below = "1"
	}
	above := "1"
	switch house.HouseType.String() {
	case "2_storey":
		above = "2"
	case "bi_level":
		above = "1.5"
	}
	return []Entry{
		kv("HouseName", houseName),
		kv("Builder", render.NotSpecified),
		kv("EvaluatorName", b.opts.Evaluator),
		kv("EvaluationDate", render.Str(a.AuditDate, b.date)),
		kv("ModificationDate", b.date),
		kv("WeatherLocation", render.Str(a.CustomerCity, "")+", "+render.Str(a.CustomerProvince, "")),
		kv("HouseType", render.Lookup(render.HouseTypes, house.HouseType, "Bungalow")),
		kv("YearBuilt", render.Text(house.YearBuilt, "1980")),
		kv("StoreysBelowGrade", below),
		kv("StoreysAboveGrade", above),
		kv("Address", render.Str(a.CustomerAddress, "")),
		kv("City", render.Str(a.CustomerCity, "")),
		kv("Province", render.Str(a.CustomerProvince, "")),
		kv("PostalCode", render.Str(a.CustomerPostalCode, "")),
		kv("AuditType", render.Str(string(a.AuditType), string(domain.AuditBeforeUpgrade))),
		kv("HomeType", render.Str(string(a.HomeType), string(domain.HomeSingleDetached))),
	}
}

func flag(f domain.Flag) string { return render.YesNo(f.Set()) }

func eligibility(b builder) []Entry {
	e := b.a.Eligibility()
	return []Entry{
		kv("RegisteredWithUtility", flag(e.Registered)),
		kv("DocumentsAvailable", flag(e.Documents)),
		kv("StoreyRequirement", flag(e.Storeys)),
		kv("SizeRequirement", flag(e.Size)),
		kv("FoundationRequirement", flag(e.Foundation)),
		kv("MechanicalRequirement", flag(e.Mechanical)),
		kv("DoorsWindowsRequirement", flag(e.DoorsWindows)),
		kv("EnvelopeRequirement", flag(e.Envelope)),
		kv("RenovationsCompliant", flag(e.Renovations)),
		kv("AshesRemoved", flag(e.Ashes)),
		kv("ElectricalCompliant", flag(e.Electrical)),
	}
}

func discussion(b builder) []Entry {
	d := b.a.Discussion()
	return []Entry{
		kv("AuthorizationObtained", flag(d.Authorization)),
		kv("ProcessExplained", flag(d.Process)),
		kv("AccessDiscussed", flag(d.Access)),
		kv("DocumentsReviewed", flag(d.Documents)),
	}
}

func atypicalLoads(b builder) []Entry {
	l := b.a.Atypical()
	return []Entry{
		kv("DeicingCables", flag(l.Deicing)),
		kv("ExteriorLighting", flag(l.Lighting)),
		kv("HotTub", flag(l.HotTub)),
		kv("AirConditioner", flag(l.AirConditioner)),
		kv("SwimmingPool", flag(l.Pool)),
	}
}

func programInformation(b builder) []Entry {
	return []Entry{
		kv("WeatherRegion", "7A"),
		kv("DesignTemperature", "-25"),
		kv("CalculationProcedure", "NBC"),
		kv("BlowerDoorTest", render.YesNo(b.a.Saved(domain.SectionBlowerDoorTest))),
		kv("AirChangesPerHour", "2.5"),
	}
}

func houseMeasurements(b builder) []Entry {
	house := b.a.House()
	return []Entry{
		kv("Length", "12.0"),
		kv("Width", "8.0"),
		kv("Height", render.Meters(house.AboveGrade(), "2.4")),
		kv("Volume", "230.4"),
		kv("Orientation", render.Text(house.FrontOrientation, "S")),
	}
}

func walls(b builder) []Entry {
	w := b.a.Walls()
	entries := []Entry{
		kv("WallFraming", render.Text(w.WallFraming, "2x6")),
		kv("StudSpacing", render.Text(w.Centres, "16")),
		kv("CavityInsulation", render.List(w.CavityInsulation, "R22")),
		kv("ExteriorInsulationType", render.List(w.ExteriorInsulationType, "None")),
		kv("ExteriorInsulationThickness", render.Text(w.ExteriorInsulationThickness, "0")),
		kv("ExteriorSheathing", render.Text(w.ExteriorSheathing, "OSB")),
		kv("SheathingThickness", render.Text(w.SheathingThickness, "7/16")),
		kv("ExteriorFinish", render.Text(w.ExteriorFinish, "Vinyl")),
		kv("ExteriorFinishOther", render.Text(w.ExteriorFinishOther, "")),
		kv("StudsCorner", render.Answer(w.StudsCorner)),
		kv("StudCornerType", render.List(w.StudCornerType, "Standard")),
		kv("MainFloorCorners", render.Text(w.Corners.Main, "Standard")),
		kv("SecondFloorCorners", render.Text(w.Corners.Second, "Standard")),
		kv("ThirdFloorCorners", render.Text(w.Corners.Third, "Standard")),
		kv("MainFloorIntersections", render.Text(w.Intersections.Main, "Standard")),
		kv("SecondFloorIntersections", render.Text(w.Intersections.Second, "Standard")),
		kv("ThirdFloorIntersections", render.Text(w.Intersections.Third, "Standard")),
		kv("FramingFactor", "0.25"),
		comment("Wall Heights by Floor"),
	}
	used := make(map[string]bool)
	for _, f := range domain.EnsureFixedFloors(w.Floors) {
		height := render.NotSpecified
		if m := render.Meters(f.Height(), ""); m != render.NotSpecified {
			height = m + "m"
		}
		entries = append(entries, kv(floorKey(f, used), height))
	}
	return entries
}

// floorKey derives a floor's wall height key from its name. Names that
// collide with an earlier floor fall back to the floor id.
func floorKey(f domain.Floor, used map[string]bool) string {
	key := render.ASCII(strings.Join(strings.Fields(f.Name), "")) + "WallHeight"
	if f.Name == "" || used[key] {
		key = render.ASCII(strings.Join(strings.Fields(f.Name+" "+f.ID), "")) + "WallHeight"
	}
	used[key] = true
	return key
}

func foundation(b builder) []Entry {
	f := b.a.Foundation()
	wallHeight := domain.Length{Value: f.WallHeight, Unit: f.WallHeightUnit}
	return []Entry{
		kv("FoundationType", render.List(f.FoundationType, "Basement")),
		kv("WallConstruction", render.Text(f.Walls, "Concrete")),
		kv("WallHeight", render.Meters(wallHeight, "2.4")),
		kv("WallHeightUnit", "m"),
		kv("AverageHeightAboveGrade", render.Text(f.AverageHeightAboveGrade, "0.2")),
		kv("InsulationType", render.Text(f.Insulation, "Fibreglass")),
		kv("InsulationThickness", render.Text(f.InsulationThickness, "3.5")),
		kv("SheathingType", render.Text(f.SheathingType, "None")),
		kv("SheathingThickness", render.Text(f.SheathingThickness, "0")),
		kv("CrawlspaceType", render.Text(f.CrawlspaceType, "Vented")),
		kv("PonyWall", render.Answer(f.PonyWall)),
		kv("FoundationCorners", render.Text(f.Corners, "Standard")),
		kv("InteriorWalls", render.List(f.InteriorWalls, "None")),
		kv("InteriorWallConstruction", render.Text(f.InteriorWallConstruction, "Wood")),
		kv("FramingSpacing", render.List(f.FramingSpacing, "16")),
		kv("SlabInsulation", render.Answer(f.SlabInsulation)),
		kv("SlabInsulationType", render.Text(f.SlabInsulationType, "None")),
		kv("SlabInsulationThickness", render.Text(f.SlabInsulationThickness, "0")),
		kv("SlabHeated", render.Answer(f.SlabHeated)),
	}
}

// windowUValue follows the rendered glazing so the default of two layers
// carries the double-glazed U-value.
func windowUValue(glazing string) string {
	switch glazing {
	case "3":
		return "0.25"
	case "2":
		return "0.35"
	}
	return "0.50"
}

func windows(b builder) []Entry {
	w := b.a.Windows()
	glazing := render.Text(w.Glazing, "2")
	return []Entry{
		kv("FrameType", render.Text(w.Frame, "Wood")),
		kv("GlazingLayers", glazing),
		kv("LowECoating", render.Text(w.LowECoating, "None")),
		kv("GasFill", render.Text(w.GasFill, "No")),
		kv("UValue", windowUValue(glazing)),
		kv("SHGC", "0.65"),
		kv("VT", "0.70"),
		kv("LintelType", render.Text(w.LintelType, "Single angle steel")),
	}
}

func doors(b builder) []Entry {
	d := b.a.Doors()
	return []Entry{
		kv("DoorType", render.Text(d.Skin, "Steel")),
		kv("CoreMaterial", render.Text(d.Insulation, "Fibreglass")),
		kv("UValue", "0.40"),
		kv("SHGC", "0.65"),
	}
}

func ceiling(b builder) []Entry {
	c := b.a.Ceiling()
	return []Entry{
		kv("CeilingType", render.Text(c.CeilingType, "Flat")),
		kv("AtticFraming", render.Text(c.AtticFraming, "Wood")),
		kv("FramingSpacing", render.Text(c.Spacing, "16")),
		kv("AtticInsulationType", render.List(c.AtticInsulationType, "Fibreglass")),
		kv("AtticInsulationThickness", render.Text(c.AtticInsulationThickness, "R40")),
	}
}

func heating(b builder) []Entry {
	h := b.a.Heating()
	var primary domain.Value
	if len(h.HeatingSystemType) > 0 {
		primary = domain.Value(h.HeatingSystemType[0])
	}
	return []Entry{
		kv("SystemType", render.Lookup(render.HeatingSystems, primary, "Forced air furnace")),
		kv("FuelType", render.Lookup(render.Fuels, h.Source, "Natural gas")),
		kv("Manufacturer", render.Text(h.Manufacturer, "")),
		kv("Model", render.Text(h.Model, "")),
		kv("OutputCapacity", "60"),
		kv("InputCapacity", "75"),
		kv("SteadyStateEfficiency", render.Text(h.RatedEfficiency.SteadyState, "80")),
		kv("AFUE", render.Text(h.RatedEfficiency.AFUE, "80")),
		kv("OverallEfficiency", render.Text(h.RatedEfficiency.Overall, "78")),
		kv("IgnitionType", render.Text(h.IgnitionType, "Electric ignition")),
		kv("PilotLight", render.YesNo(h.IgnitionType.String() == "pilot")),
		kv("AutomaticVentDamper", render.Text(h.AutomaticVentDamper, "No fixed barometric")),
		kv("DedicatedCombustionAirDuct", render.Answer(h.DedicatedCombustionAirDuct)),
		kv("FanPumpMotorType", render.Text(h.FanPumpMotorType, "PSC motor")),
		kv("VentingConfiguration", render.Text(h.VentingConfiguration, "Induced draft")),
		kv("HeatPumpManufacturer", render.Text(h.HeatPumpManufacturer, "")),
		kv("HeatPumpModel", render.Text(h.HeatPumpModel, "")),
		kv("SupplementaryHeatingSystem", render.Text(h.SupplementaryHeatingSystem, "")),
		kv("ACCoil", render.Text(h.ACCoil, "")),
		kv("CondenserUnit", render.Text(h.CondenserUnit, "")),
	}
}

func hotWater(b builder) []Entry {
	d := b.a.HotWater()
	return []Entry{
		kv("DHWType", render.Text(d.DomesticHotWaterType, "Conventional tank")),
		kv("FuelType", render.Lookup(render.Fuels, d.Fuel, "Natural gas")),
		kv("Manufacturer", render.Text(d.Manufacturer, "")),
		kv("Model", render.Text(d.Model, "")),
		kv("TankVolume", render.Text(d.TankVolume, "40")),
		kv("EnergyFactor", render.Text(d.EfficiencyFactor, "0.60")),
		kv("COP", render.Text(d.COP, "1.0")),
		kv("PilotLight", render.AnswerOr(d.Pilot, "No")),
		kv("CoVented", render.AnswerOr(d.CoVented, "No")),
		kv("FlueDiameter", render.Text(d.FlueDiameter, "4")),
		kv("DWHRPresent", render.AnswerOr(d.DWHR.Present, "No")),
		kv("DWHRManufacturer", render.Text(d.DWHR.Manufacturer, "")),
		kv("DWHRModel", render.Text(d.DWHR.Model, "")),
		kv("DWHRSize", render.Text(d.DWHR.Size, "")),
		kv("ShowersToMainStack", render.Text(d.ShowersToMainStack, "2")),
		kv("LowFlushToilets", render.Text(d.LowFlushToilets, "2")),
	}
}

func ventilation(b builder) []Entry {
	v := b.a.Ventilation()
	return []Entry{
		kv("VentilationType", render.Text(v.VentilationType, "Exhaust only")),
		kv("HRVManufacturer", render.Text(v.HRVManufacturer, "")),
		kv("HRVModel", render.Text(v.HRVModel, "")),
		kv("HVICertified", render.Answer(v.HVICertified)),
		kv("SupplyCFM", render.Text(v.HRVCFM.Supply, "75")),
		kv("ExhaustCFM", render.Text(v.HRVCFM.Exhaust, "75")),
		kv("FanPowerAt0C", render.Text(v.FanPower.At0C, "75")),
		kv("FanPowerAtMinus25", render.Text(v.FanPower.AtMinus25, "90")),
		kv("SensibleEfficiencyAt0C", render.Text(v.SensibleEfficiency.At0C, "75")),
		kv("SensibleEfficiencyAtMinus25", render.Text(v.SensibleEfficiency.AtMinus25C, "70")),
		comment("Exhaust Fans"),
		kv("BathFanCFM", render.Text(v.Device.BathFan.CFM, "50")),
		kv("BathFanManufacturer", render.Text(v.BathFanDetails.Manufacturer, "")),
		kv("BathFanModel", render.Text(v.BathFanDetails.Model, "")),
		kv("BathFanExhaustFlow", render.Text(v.BathFanDetails.ExhaustFlow, "")),
		kv("BathFanPower", render.Text(v.BathFanDetails.FanPower, "")),
		kv("RangeHoodCFM", render.Text(v.Device.RangeHood.CFM, "150")),
		kv("RangeHoodManufacturer", render.Text(v.RangeHoodDetails.Manufacturer, "")),
		kv("UtilityFanCFM", render.Text(v.Device.UtilityFan.CFM, "100")),
		kv("UtilityFanManufacturer", render.Text(v.UtilityFanDetails.Manufacturer, "")),
		kv("UtilityFanFlowRate", render.Text(v.UtilityFanDetails.FlowRate, "")),
	}
}

func solarPV(b builder) []Entry {
	pv := b.a.Renewables().SolarPV
	if !pv.Present.Yes() {
		return []Entry{kv("SystemPresent", "No")}
	}
	return []Entry{
		kv("SystemPresent", "Yes"),
		kv("Manufacturer", render.Text(pv.Manufacturer, "")),
		kv("PanelArea", render.Text(pv.Area, "20")),
		kv("Slope", render.Text(pv.Slope, "30")),
		kv("Azimuth", render.Text(pv.Azimuth, "180")),
		kv("ModuleType", render.List(pv.ModuleType, "Mono-crystalline silicon")),
	}
}

func solarDHW(b builder) []Entry {
	s := b.a.Renewables().SolarDHW
	if !s.Manufacturer.IsSet() {
		return []Entry{kv("SystemPresent", "No")}
	}
	return []Entry{
		kv("SystemPresent", "Yes"),
		kv("Manufacturer", render.Text(s.Manufacturer, "")),
		kv("Model", render.Text(s.Model, "")),
		kv("CSAF379Rating", render.Text(s.CSAF379Rating, "")),
		kv("Slope", render.Text(s.Slope, "45")),
		kv("Azimuth", render.Text(s.Azimuth, "180")),
	}
}

func blowerDoor(b builder) []Entry {
	t := b.a.BlowerDoor()
	flags := render.LeakageFlags(b.a)
	var areas []string
	for _, opt := range render.LeakageOptions {
		if flags[opt.Key].Set() {
			areas = append(areas, strings.ReplaceAll(opt.Key, "_", " "))
		}
	}
	l := t.AreasOfLeakage
	return []Entry{
		kv("TestPerformed", render.YesNo(b.a.Saved(domain.SectionBlowerDoorTest))),
		kv("AreasOfLeakage", render.JoinList(areas, ", ", "None specified")),
		kv("WindowComponent", render.Text(t.WindowComponent, "")),
		kv("OtherLeakage", render.Text(t.Other, "")),
		comment("Specific Areas of Leakage Details"),
		kv("Rims", flag(l.Rims)),
		kv("ElectricOutlets", flag(l.ElectricOutlet)),
		kv("Doors", flag(l.Doors)),
		kv("WallIntersections", flag(l.WallIntersections)),
		kv("Baseboards", flag(l.Baseboards)),
		kv("CeilingFixtures", flag(l.CeilingFixtures)),
		kv("WindowFrames", flag(l.WindowFrames)),
		kv("ElectricalPanel", flag(l.ElectricPanel)),
		kv("AtticAccess", flag(l.AtticAccess)),
	}
}

func depressurization(b builder) []Entry {
	d := b.a.Depressurization()
	return []Entry{
		kv("TestPerformed", render.YesNo(d.Answered())),
		kv("WindowLeakage", render.Text(d.WindowLeakage, "No")),
		kv("OtherLeakage", render.Text(d.OtherLeakage, "None specified")),
	}
}

func completion(b builder) []Entry {
	return []Entry{
		kv("AuditStatus", render.Str(string(b.a.Status), string(domain.StatusInProgress))),
		kv("AuditCompleted", render.YesNo(b.a.Status == domain.StatusCompleted)),
		kv("ReportGenerationDate", b.date),
		kv("EvaluatorSignature", b.opts.Evaluator),
	}
}
