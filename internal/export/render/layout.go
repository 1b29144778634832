package render

import "auditcore/pkg/domain"

// SectionID names one block of an exported artifact.
type SectionID string

const (
	Identification       SectionID = "IDENTIFICATION"
	Eligibility          SectionID = "ELIGIBILITY_CRITERIA"
	PreAuditDiscussion   SectionID = "PRE_AUDIT_DISCUSSION"
	AtypicalLoads        SectionID = "ATYPICAL_LOADS"
	ProgramInformation   SectionID = "PROGRAM_INFORMATION"
	HouseMeasurements    SectionID = "HOUSE_MEASUREMENTS"
	Walls                SectionID = "WALLS"
	Foundation           SectionID = "FOUNDATION"
	Windows              SectionID = "WINDOWS"
	Doors                SectionID = "DOORS"
	Ceiling              SectionID = "CEILING"
	HeatingPrimary       SectionID = "HEATING_PRIMARY"
	DHWPrimary           SectionID = "DHW_PRIMARY"
	Ventilation          SectionID = "VENTILATION"
	SolarPV              SectionID = "SOLAR_PV"
	SolarDHW             SectionID = "SOLAR_DHW"
	BlowerDoorTest       SectionID = "BLOWER_DOOR_TEST"
	DepressurizationTest SectionID = "DEPRESSURIZATION_TEST"
	AuditCompletion      SectionID = "AUDIT_COMPLETION"
)

// Section is one entry of the artifact layout.
type Section struct {
	ID    SectionID
	Title string
}

// Order is the section sequence both exporters follow.
var Order = []Section{
	{Identification, "Identification"},
	{Eligibility, "Eligibility Criteria"},
	{PreAuditDiscussion, "Pre-Audit Discussion"},
	{AtypicalLoads, "Atypical Loads"},
	{ProgramInformation, "Program Information"},
	{HouseMeasurements, "House Measurements"},
	{Walls, "Walls"},
	{Foundation, "Foundation"},
	{Windows, "Windows"},
	{Doors, "Doors"},
	{Ceiling, "Ceiling"},
	{HeatingPrimary, "Heating System"},
	{DHWPrimary, "Domestic Hot Water"},
	{Ventilation, "Ventilation"},
	{SolarPV, "Solar PV"},
	{SolarDHW, "Solar Domestic Hot Water"},
	{BlowerDoorTest, "Blower Door Test"},
	{DepressurizationTest, "Depressurization Test"},
	{AuditCompletion, "Audit Completion"},
}

// Option is one enumerated checklist entry.
type Option struct {
	Key   string
	Label string
}

// Item is an option with its checked state for one audit.
type Item struct {
	Option
	Checked bool
}

// Checklist is a closed enumeration rendered in full, checked or not.
type Checklist struct {
	Key     string
	Title   string
	Section SectionID
	Options []Option
	checked func(a domain.Audit, key string) bool
}

// Items returns every option of the checklist marked against the audit.
// The result length always equals len(Options).
func (c Checklist) Items(a domain.Audit) []Item {
	items := make([]Item, len(c.Options))
	for i, opt := range c.Options {
		items[i] = Item{Option: opt, Checked: c.checked(a, opt.Key)}
	}
	return items
}

func flags(get func(domain.Audit) map[string]domain.Flag) func(domain.Audit, string) bool {
	return func(a domain.Audit, key string) bool { return get(a)[key].Set() }
}

func eligibilityFlags(a domain.Audit) map[string]domain.Flag {
	e := a.Eligibility()
	return map[string]domain.Flag{
		"registered":    e.Registered,
		"documents":     e.Documents,
		"storeys":       e.Storeys,
		"size":          e.Size,
		"foundation":    e.Foundation,
		"mechanical":    e.Mechanical,
		"doors_windows": e.DoorsWindows,
		"envelope":      e.Envelope,
		"renovations":   e.Renovations,
		"ashes":         e.Ashes,
		"electrical":    e.Electrical,
	}
}

func discussionFlags(a domain.Audit) map[string]domain.Flag {
	d := a.Discussion()
	return map[string]domain.Flag{
		"authorization": d.Authorization,
		"process":       d.Process,
		"access":        d.Access,
		"documents":     d.Documents,
	}
}

func atypicalFlags(a domain.Audit) map[string]domain.Flag {
	l := a.Atypical()
	return map[string]domain.Flag{
		"deicing":         l.Deicing,
		"lighting":        l.Lighting,
		"hot_tub":         l.HotTub,
		"air_conditioner": l.AirConditioner,
		"pool":            l.Pool,
	}
}

// LeakageFlags maps each blower-door leakage option onto the audit's answer.
func LeakageFlags(a domain.Audit) map[string]domain.Flag {
	l := a.BlowerDoor().AreasOfLeakage
	return map[string]domain.Flag{
		"rims":               l.Rims,
		"electric_outlet":    l.ElectricOutlet,
		"doors":              l.Doors,
		"wall_intersections": l.WallIntersections,
		"baseboards":         l.Baseboards,
		"ceiling_fixtures":   l.CeilingFixtures,
		"window_frames":      l.WindowFrames,
		"electric_panel":     l.ElectricPanel,
		"attic_access":       l.AtticAccess,
	}
}

func multiSelect(get func(domain.Audit) []string) func(domain.Audit, string) bool {
	return func(a domain.Audit, key string) bool { return domain.Contains(get(a), key) }
}

// LeakageOptions lists the blower-door leakage areas in form order.
var LeakageOptions = []Option{
	{"rims", "Rims"},
	{"electric_outlet", "Electric Outlet"},
	{"doors", "Doors"},
	{"wall_intersections", "Wall Intersections"},
	{"baseboards", "Baseboards"},
	{"ceiling_fixtures", "Ceiling Fixtures"},
	{"window_frames", "Window Frames"},
	{"electric_panel", "Electric Panel"},
	{"attic_access", "Attic Access"},
}

// Checklists enumerates every checklist of the report in layout order.
var Checklists = []Checklist{
	{
		Key: "eligibility", Title: "Eligibility Criteria", Section: Eligibility,
		Options: []Option{
			{"registered", "Energy Advisor Registered"},
			{"documents", "Required Documents Available"},
			{"storeys", "Home is ≤3 Storeys Above Grade"},
			{"size", "Home is <600 m²"},
			{"foundation", "Foundation Accessible"},
			{"mechanical", "Mechanical Systems Accessible"},
			{"doors_windows", "Doors/Windows Accessible"},
			{"envelope", "Building Envelope Accessible"},
			{"renovations", "No Recent Major Renovations"},
			{"ashes", "No Wood Ash Storage"},
			{"electrical", "Electrical Panel Accessible"},
		},
		checked: flags(eligibilityFlags),
	},
	{
		Key: "discussion", Title: "Pre-Audit Discussion", Section: PreAuditDiscussion,
		Options: []Option{
			{"authorization", "Homeowner Authorization Obtained"},
			{"process", "Audit Process Explained"},
			{"access", "Home Access Requirements Discussed"},
			{"documents", "Required Documentation Reviewed"},
		},
		checked: flags(discussionFlags),
	},
	{
		Key: "atypical_loads", Title: "Atypical Loads", Section: AtypicalLoads,
		Options: []Option{
			{"deicing", "Deicing Cables"},
			{"lighting", "High-Intensity Lighting"},
			{"hot_tub", "Hot Tub/Spa"},
			{"air_conditioner", "Room Air Conditioner"},
			{"pool", "Swimming Pool Equipment"},
		},
		checked: flags(atypicalFlags),
	},
	{
		Key: "cavity_insulation", Title: "Cavity Insulation", Section: Walls,
		Options: []Option{
			{"R10", "R10"}, {"R12", "R12"}, {"R18", "R18"}, {"R19", "R19"},
			{"R22", "R22"}, {"R24", "R24"}, {"other", "Other"},
		},
		checked: multiSelect(func(a domain.Audit) []string { return a.Walls().CavityInsulation }),
	},
	{
		Key: "exterior_insulation", Title: "Exterior Insulation", Section: Walls,
		Options: []Option{
			{"eps", "EPS"}, {"xps", "XPS"}, {"mineral_wool", "Mineral Wool"},
		},
		checked: multiSelect(func(a domain.Audit) []string { return a.Walls().ExteriorInsulationType }),
	},
	{
		Key: "foundation_types", Title: "Foundation Type", Section: Foundation,
		Options: []Option{
			{"basement", "Basement"}, {"crawlspace", "Crawlspace"}, {"slab", "Slab"},
		},
		checked: multiSelect(func(a domain.Audit) []string { return a.Foundation().FoundationType }),
	},
	{
		Key: "attic_insulation", Title: "Attic Insulation", Section: Ceiling,
		Options: []Option{
			{"fibreglass", "Fibreglass"}, {"cellulose", "Cellulose"}, {"foam", "Foam"},
		},
		checked: multiSelect(func(a domain.Audit) []string { return a.Ceiling().AtticInsulationType }),
	},
	{
		Key: "heating_systems", Title: "Heating System Type", Section: HeatingPrimary,
		Options: []Option{
			{"furnace", "Furnace"}, {"boiler", "Boiler"}, {"combo", "Combo"},
			{"integrated", "Integrated"}, {"csa_p9_11", "CSA P.9-11"}, {"heat_pump", "Heat Pump"},
		},
		checked: multiSelect(func(a domain.Audit) []string { return a.Heating().HeatingSystemType }),
	},
	{
		Key: "solar_modules", Title: "Solar PV Module Type", Section: SolarPV,
		Options: []Option{
			{"mono_si", "Mono-Si"}, {"poly_si", "Poly-Si"}, {"a_si", "a-Si"},
			{"cd_te", "CdTe"}, {"cis", "CIS"},
		},
		checked: multiSelect(func(a domain.Audit) []string { return a.Renewables().SolarPV.ModuleType }),
	},
	{
		Key: "leakage_areas", Title: "Areas of Leakage", Section: BlowerDoorTest,
		Options: LeakageOptions,
		checked: flags(LeakageFlags),
	},
}

// ChecklistsFor returns the checklists rendered inside one section.
func ChecklistsFor(id SectionID) []Checklist {
	var out []Checklist
	for _, c := range Checklists {
		if c.Section == id {
			out = append(out, c)
		}
	}
	return out
}

// HouseTypes maps house types onto the modelling tool's vocabulary.
var HouseTypes = map[string]string{
	"bungalow":    "Bungalow",
	"2_storey":    "Two-storey",
	"bi_level":    "Bi-level",
	"split_level": "Split-level",
}

// HeatingSystems maps heating system types onto the modelling tool's vocabulary.
var HeatingSystems = map[string]string{
	"furnace":    "Forced air furnace",
	"boiler":     "Boiler",
	"combo":      "Combination heating/DHW",
	"heat_pump":  "Heat pump",
	"integrated": "Integrated heating",
}

// Fuels maps fuel sources onto the modelling tool's vocabulary.
var Fuels = map[string]string{
	"ng":       "Natural gas",
	"nat_gas":  "Natural gas",
	"propane":  "Propane",
	"electric": "Electricity",
	"oil":      "Oil",
}

// AuditTypes labels audit types on the report cover.
var AuditTypes = map[string]string{
	string(domain.AuditBeforeUpgrade): "Pre-Retrofit Assessment",
	string(domain.AuditAfterUpgrade):  "Post-Retrofit Verification",
}

// HomeTypes labels home types on the report cover.
var HomeTypes = map[string]string{
	string(domain.HomeSingleDetached): "Single Detached",
	string(domain.HomeAttached):       "Attached",
	string(domain.HomeRowEnd):         "Row End Unit",
	string(domain.HomeRowMid):         "Row Mid Unit",
}

// Labels holds option labels that do not humanize cleanly.
var Labels = map[string]string{
	"yes_motorized":        "Yes - Motorized",
	"no_fixed_barometric":  "No - Fixed Barometric",
	"na_sealed_combustion": "N/A - Sealed Combustion",
	"ecm_motor":            "ECM Motor",
	"psc_motor":            "PSC Motor",
	"vfd_motor":            "VFD Motor",
}

// Label renders an option for people: a known label, else the humanized key.
func Label(v domain.Value, def string) string {
	if l, ok := Labels[v.String()]; ok {
		return l
	}
	return Humanize(v, def)
}
