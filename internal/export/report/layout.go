package report

import (
	"auditcore/internal/export/render"
	"auditcore/pkg/domain"
	"fmt"
)

// PhotosPerPage is the number of photos laid out on one page.
const PhotosPerPage = 2

// Placeholder replaces a photo that could not be fetched or decoded.
const Placeholder = "Image could not be rendered in PDF"

// Field is one labelled value of a report block.
type Field struct {
	Label string
	Value string
}

// ChecklistBlock is a checklist with every option marked for the audit.
type ChecklistBlock struct {
	Title string
	Items []render.Item
}

// Block is one report section.
type Block struct {
	ID         render.SectionID
	Title      string
	Checklists []ChecklistBlock
	Fields     []Field
}

// Cover is the first page of the report.
type Cover struct {
	Company    string
	Subtitle   string
	Heading    string
	AuditLabel string
	Boxes      []Box
}

// Box is a titled group of fields on the cover.
type Box struct {
	Title  string
	Fields []Field
}

// PhotoSlot is one photo position on a photo page. Image holds JPEG bytes;
// a nil Image renders Placeholder.
type PhotoSlot struct {
	Photo   domain.Photo
	Title   string
	Caption string
	Image   []byte
	Width   int
	Height  int
	Err     error
}

// PhotoPage holds up to PhotosPerPage slots.
type PhotoPage struct {
	Number int
	Total  int
	Slots  []PhotoSlot
}

// Header is the page heading of a photo page.
func (p PhotoPage) Header() string {
	return fmt.Sprintf("Audit Photos (Page %d of %d)", p.Number, p.Total)
}

// Layout is the report content ready to be drawn.
type Layout struct {
	Cover      Cover
	Blocks     []Block
	PhotoPages []PhotoPage
}

// paginate splits slots into pages of PhotosPerPage, so N slots give
// ceil(N/PhotosPerPage) pages and none for N=0.
func paginate(slots []PhotoSlot) []PhotoPage {
	total := (len(slots) + PhotosPerPage - 1) / PhotosPerPage
	pages := make([]PhotoPage, 0, total)
	for i := 0; i < len(slots); i += PhotosPerPage {
		end := min(i+PhotosPerPage, len(slots))
		pages = append(pages, PhotoPage{Number: len(pages) + 1, Total: total, Slots: slots[i:end]})
	}
	return pages
}

func cover(a domain.Audit, opts Options, date string) Cover {
	v := func(s string) string { return render.Str(s, "") }
	return Cover{
		Company:    opts.Company,
		Subtitle:   opts.CompanySubtitle,
		Heading:    "ENERGY AUDIT REPORT",
		AuditLabel: render.Lookup(render.AuditTypes, domain.Value(a.AuditType), "Residential Energy Assessment"),
		Boxes: []Box{
			{Title: "Report Details", Fields: []Field{
				{"Audit ID", v(a.ID)},
				{"Report Date", date},
				{"Audit Date", v(a.AuditDate)},
			}},
			{Title: "Customer Information", Fields: []Field{
				{"First Name", v(a.CustomerFirstName)},
				{"Last Name", v(a.CustomerLastName)},
				{"Email", v(a.CustomerEmail)},
				{"Phone", v(a.CustomerPhone)},
			}},
			{Title: "Property Information", Fields: []Field{
				{"Address", v(a.CustomerAddress)},
				{"City", v(a.CustomerCity)},
				{"Province", v(a.CustomerProvince)},
				{"Postal Code", v(a.CustomerPostalCode)},
			}},
			{Title: "Audit Details", Fields: []Field{
				{"Audit Type", render.Lookup(render.AuditTypes, domain.Value(a.AuditType), "")},
				{"Home Type", render.Lookup(render.HomeTypes, domain.Value(a.HomeType), "")},
			}},
		},
	}
}

// blocks lays out every report section in the shared section order.
// Sections carried by the cover or without customer-facing content are
// skipped.
func blocks(a domain.Audit, date string) []Block {
	var out []Block
	for _, s := range render.Order {
		build, ok := sectionFields[s.ID]
		if !ok {
			continue
		}
		b := Block{ID: s.ID, Title: s.Title, Fields: build(a, date)}
		for _, c := range render.ChecklistsFor(s.ID) {
			b.Checklists = append(b.Checklists, ChecklistBlock{Title: c.Title, Items: c.Items(a)})
		}
		out = append(out, b)
	}
	return out
}

type fieldsFunc func(a domain.Audit, date string) []Field

func text(v domain.Value) string  { return render.Text(v, "") }
func label(v domain.Value) string { return render.Label(v, "") }
func list(items []string) string {
	labels := make([]string, 0, len(items))
	for _, it := range items {
		labels = append(labels, render.Label(domain.Value(it), ""))
	}
	return render.JoinList(labels, ", ", "")
}

func length(l domain.Length) string {
	m := render.Meters(l, "")
	if m == render.NotSpecified {
		return m
	}
	return m + " m (" + render.FeetInches(l, "") + ")"
}

var sectionFields = map[render.SectionID]fieldsFunc{
	render.Eligibility:          noFields,
	render.PreAuditDiscussion:   noFields,
	render.AtypicalLoads:        noFields,
	render.HouseMeasurements:    houseFields,
	render.Walls:                wallFields,
	render.Foundation:           foundationFields,
	render.Windows:              windowFields,
	render.Doors:                doorFields,
	render.Ceiling:              ceilingFields,
	render.HeatingPrimary:       heatingFields,
	render.DHWPrimary:           hotWaterFields,
	render.Ventilation:          ventilationFields,
	render.SolarPV:              solarPVFields,
	render.SolarDHW:             solarDHWFields,
	render.BlowerDoorTest:       blowerDoorFields,
	render.DepressurizationTest: depressurizationFields,
	render.AuditCompletion:      completionFields,
}

func noFields(domain.Audit, string) []Field { return nil }

func houseFields(a domain.Audit, _ string) []Field {
	h := a.House()
	return []Field{
		{"House Type", render.Lookup(render.HouseTypes, h.HouseType, "")},
		{"Year Built", text(h.YearBuilt)},
		{"Above Grade Height", length(h.AboveGrade())},
		{"Front Orientation", text(h.FrontOrientation)},
	}
}

func wallFields(a domain.Audit, _ string) []Field {
	w := a.Walls()
	fields := []Field{
		{"Wall Framing", text(w.WallFraming)},
		{"Stud Spacing", text(w.Centres)},
		{"Exterior Insulation Thickness", text(w.ExteriorInsulationThickness)},
		{"Exterior Sheathing", label(w.ExteriorSheathing)},
		{"Sheathing Thickness", text(w.SheathingThickness)},
		{"Exterior Finish", label(w.ExteriorFinish)},
		{"Studs at Corners", render.AnswerOr(w.StudsCorner, "")},
		{"Stud Corner Type", list(w.StudCornerType)},
		{"Main Floor Corners", label(w.Corners.Main)},
		{"Second Floor Corners", label(w.Corners.Second)},
		{"Third Floor Corners", label(w.Corners.Third)},
	}
	if w.ExteriorFinishOther.IsSet() {
		fields = append(fields, Field{"Other Exterior Finish", text(w.ExteriorFinishOther)})
	}
	for _, f := range domain.EnsureFixedFloors(w.Floors) {
		fields = append(fields, Field{render.Str(f.Name, f.ID) + " Wall Height", length(f.Height())})
	}
	return fields
}

func foundationFields(a domain.Audit, _ string) []Field {
	f := a.Foundation()
	return []Field{
		{"Wall Construction", label(f.Walls)},
		{"Wall Height", length(domain.Length{Value: f.WallHeight, Unit: f.WallHeightUnit})},
		{"Average Height Above Grade", text(f.AverageHeightAboveGrade)},
		{"Crawlspace Type", label(f.CrawlspaceType)},
		{"Insulation", label(f.Insulation)},
		{"Insulation Thickness", text(f.InsulationThickness)},
		{"Sheathing Type", label(f.SheathingType)},
		{"Sheathing Thickness", text(f.SheathingThickness)},
		{"Pony Wall", render.AnswerOr(f.PonyWall, "")},
		{"Corners", label(f.Corners)},
		{"Interior Walls", list(f.InteriorWalls)},
		{"Interior Wall Construction", label(f.InteriorWallConstruction)},
		{"Framing Spacing", render.JoinList(f.FramingSpacing, ", ", "")},
		{"Slab Insulation", render.AnswerOr(f.SlabInsulation, "")},
		{"Slab Insulation Type", label(f.SlabInsulationType)},
		{"Slab Insulation Thickness", text(f.SlabInsulationThickness)},
		{"Heated Slab", render.AnswerOr(f.SlabHeated, "")},
	}
}

func windowFields(a domain.Audit, _ string) []Field {
	w := a.Windows()
	return []Field{
		{"Frame", label(w.Frame)},
		{"Glazing Layers", text(w.Glazing)},
		{"Low-E Coating", label(w.LowECoating)},
		{"Gas Fill", label(w.GasFill)},
		{"Lintel Type", label(w.LintelType)},
	}
}

func doorFields(a domain.Audit, _ string) []Field {
	d := a.Doors()
	return []Field{
		{"Door Skin", label(d.Skin)},
		{"Core Insulation", label(d.Insulation)},
	}
}

func ceilingFields(a domain.Audit, _ string) []Field {
	c := a.Ceiling()
	return []Field{
		{"Ceiling Type", label(c.CeilingType)},
		{"Attic Framing", label(c.AtticFraming)},
		{"Framing Spacing", text(c.Spacing)},
		{"Attic Insulation Thickness", text(c.AtticInsulationThickness)},
	}
}

func heatingFields(a domain.Audit, _ string) []Field {
	h := a.Heating()
	return []Field{
		{"Fuel Source", render.Lookup(render.Fuels, h.Source, "")},
		{"Manufacturer", text(h.Manufacturer)},
		{"Model", text(h.Model)},
		{"Steady State Efficiency", text(h.RatedEfficiency.SteadyState)},
		{"AFUE", text(h.RatedEfficiency.AFUE)},
		{"Overall Efficiency", text(h.RatedEfficiency.Overall)},
		{"Ignition Type", label(h.IgnitionType)},
		{"Automatic Vent Damper", label(h.AutomaticVentDamper)},
		{"Dedicated Combustion Air Duct", render.AnswerOr(h.DedicatedCombustionAirDuct, "")},
		{"Fan/Pump Motor Type", label(h.FanPumpMotorType)},
		{"Venting Configuration", label(h.VentingConfiguration)},
		{"Heat Pump Manufacturer", text(h.HeatPumpManufacturer)},
		{"Heat Pump Model", text(h.HeatPumpModel)},
		{"Supplementary Heating", text(h.SupplementaryHeatingSystem)},
		{"AC Coil", text(h.ACCoil)},
		{"Condenser Unit", text(h.CondenserUnit)},
	}
}

func hotWaterFields(a domain.Audit, _ string) []Field {
	d := a.HotWater()
	return []Field{
		{"Water Heater Type", label(d.DomesticHotWaterType)},
		{"Fuel", render.Lookup(render.Fuels, d.Fuel, "")},
		{"Manufacturer", text(d.Manufacturer)},
		{"Model", text(d.Model)},
		{"Tank Volume", text(d.TankVolume)},
		{"Energy Factor", text(d.EfficiencyFactor)},
		{"COP", text(d.COP)},
		{"Pilot", render.AnswerOr(d.Pilot, "")},
		{"Co-Vented", render.AnswerOr(d.CoVented, "")},
		{"Flue Diameter", text(d.FlueDiameter)},
		{"DWHR Present", render.AnswerOr(d.DWHR.Present, "")},
		{"DWHR Manufacturer", text(d.DWHR.Manufacturer)},
		{"DWHR Model", text(d.DWHR.Model)},
		{"DWHR Size", text(d.DWHR.Size)},
		{"DWHR to Shower", text(d.DWHRToShower)},
		{"Showers to Main Stack", text(d.ShowersToMainStack)},
		{"Low Flush Toilets", text(d.LowFlushToilets)},
	}
}

func ventilationFields(a domain.Audit, _ string) []Field {
	v := a.Ventilation()
	return []Field{
		{"Ventilation Type", label(v.VentilationType)},
		{"HRV Manufacturer", text(v.HRVManufacturer)},
		{"HRV Model", text(v.HRVModel)},
		{"HVI Certified", render.AnswerOr(v.HVICertified, "")},
		{"Supply CFM", text(v.HRVCFM.Supply)},
		{"Exhaust CFM", text(v.HRVCFM.Exhaust)},
		{"Fan Power at 0°C", text(v.FanPower.At0C)},
		{"Fan Power at -25°C", text(v.FanPower.AtMinus25)},
		{"Sensible Efficiency at 0°C", text(v.SensibleEfficiency.At0C)},
		{"Sensible Efficiency at -25°C", text(v.SensibleEfficiency.AtMinus25C)},
		{"Bath Fan CFM", text(v.Device.BathFan.CFM)},
		{"Bath Fan Manufacturer", text(v.BathFanDetails.Manufacturer)},
		{"Bath Fan Model", text(v.BathFanDetails.Model)},
		{"Range Hood CFM", text(v.Device.RangeHood.CFM)},
		{"Range Hood Manufacturer", text(v.RangeHoodDetails.Manufacturer)},
		{"Utility Fan CFM", text(v.Device.UtilityFan.CFM)},
		{"Utility Fan Manufacturer", text(v.UtilityFanDetails.Manufacturer)},
	}
}

func solarPVFields(a domain.Audit, _ string) []Field {
	pv := a.Renewables().SolarPV
	return []Field{
		{"System Present", render.AnswerOr(pv.Present, "")},
		{"Manufacturer", text(pv.Manufacturer)},
		{"Panel Area", text(pv.Area)},
		{"Slope", text(pv.Slope)},
		{"Azimuth", text(pv.Azimuth)},
	}
}

func solarDHWFields(a domain.Audit, _ string) []Field {
	s := a.Renewables().SolarDHW
	return []Field{
		{"Manufacturer", text(s.Manufacturer)},
		{"Model", text(s.Model)},
		{"CSA F379 Rating", text(s.CSAF379Rating)},
		{"Slope", text(s.Slope)},
		{"Azimuth", text(s.Azimuth)},
	}
}

func blowerDoorFields(a domain.Audit, _ string) []Field {
	t := a.BlowerDoor()
	return []Field{
		{"Window Component", text(t.WindowComponent)},
		{"Other Leakage", text(t.Other)},
	}
}

func depressurizationFields(a domain.Audit, _ string) []Field {
	d := a.Depressurization()
	return []Field{
		{"Window Leakage", text(d.WindowLeakage)},
		{"Other Leakage", text(d.OtherLeakage)},
	}
}

func completionFields(a domain.Audit, date string) []Field {
	return []Field{
		{"Audit Status", render.Humanize(domain.Value(a.Status), "")},
		{"Audit Completed", render.YesNo(a.Status == domain.StatusCompleted)},
		{"Report Date", date},
	}
}
