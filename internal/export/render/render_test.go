package render

import (
	"auditcore/pkg/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueDefaults(t *testing.T) {
	assert.Equal(t, "R22", Text("", "R22"))
	assert.Equal(t, NotSpecified, Text("   ", ""))
	assert.Equal(t, "2x4", Text(" 2x4 ", "2x6"))
	assert.Equal(t, "R22,R24", List([]string{"R22", "", "R24"}, "R22"))
	assert.Equal(t, "R22", List(nil, "R22"))
	assert.Equal(t, NotSpecified, JoinList([]string{" "}, ", ", ""))
}

func TestAnswers(t *testing.T) {
	assert.Equal(t, "Yes", Answer("yes"))
	assert.Equal(t, "Yes", Answer("true"))
	assert.Equal(t, "No", Answer("no"))
	assert.Equal(t, "No", Answer(""))
	assert.Equal(t, "Unknown", AnswerOr("", "Unknown"))
	assert.Equal(t, "No", AnswerOr("no", "Unknown"))
}

func TestLookupPassesUnknownValuesThrough(t *testing.T) {
	assert.Equal(t, "Two-storey", Lookup(HouseTypes, "2_storey", "Bungalow"))
	assert.Equal(t, "triplex", Lookup(HouseTypes, "triplex", "Bungalow"))
	assert.Equal(t, "Bungalow", Lookup(HouseTypes, "", "Bungalow"))
	assert.Equal(t, "Natural gas", Lookup(Fuels, "nat_gas", ""))
}

func TestHumanizeAndLabel(t *testing.T) {
	assert.Equal(t, "Heat Pump", Humanize("heat_pump", ""))
	assert.Equal(t, NotSpecified, Humanize("", ""))
	assert.Equal(t, "PSC Motor", Label("psc_motor", ""))
	assert.Equal(t, "No - Fixed Barometric", Label("no_fixed_barometric", ""))
	assert.Equal(t, "Induced Draft", Label("induced_draft", ""))
}

func TestLengths(t *testing.T) {
	imperial := domain.Length{Value: "8.500", Unit: "ft", Feet: "8", Inches: "6"}
	assert.Equal(t, "2.591", Meters(imperial, ""))
	assert.Equal(t, "8 ft 6 in", FeetInches(imperial, ""))
	assert.Equal(t, "2.4", Meters(domain.Length{Value: "2.400", Unit: "m"}, ""))
	assert.Equal(t, "2.4", Meters(domain.Length{}, "2.4"))
}

func TestASCII(t *testing.T) {
	assert.Equal(t, "Montreal, Quebec", ASCII("Montréal, Québec"))
	assert.Equal(t, "line one line two", ASCII("line one\nline two"))
	assert.Equal(t, "a?b", ASCII("a☃b"))
}

func TestChecklistsRenderEveryOption(t *testing.T) {
	empty := domain.Audit{}
	full := domain.Audit{}
	full.FoundationInfo = &domain.FoundationInfo{FoundationType: []string{"basement"}}
	full.EligibilityCriteria = &domain.EligibilityCriteria{Registered: true, Electrical: true}
	full.BlowerDoorTest = &domain.BlowerDoorTest{AreasOfLeakage: domain.LeakageAreas{AtticAccess: true}}

	for _, c := range Checklists {
		require.Len(t, c.Items(empty), len(c.Options), c.Key)
		require.Len(t, c.Items(full), len(c.Options), c.Key)
		for _, it := range c.Items(empty) {
			require.False(t, it.Checked, "%s/%s", c.Key, it.Key)
		}
	}

	foundation := ChecklistsFor(Foundation)
	require.Len(t, foundation, 1)
	items := foundation[0].Items(full)
	assert.Equal(t, []Item{
		{Option{"basement", "Basement"}, true},
		{Option{"crawlspace", "Crawlspace"}, false},
		{Option{"slab", "Slab"}, false},
	}, items)

	var checked []string
	for _, c := range Checklists {
		for _, it := range c.Items(full) {
			if it.Checked {
				checked = append(checked, c.Key+"/"+it.Key)
			}
		}
	}
	assert.ElementsMatch(t, []string{
		"eligibility/registered", "eligibility/electrical",
		"foundation_types/basement", "leakage_areas/attic_access",
	}, checked)
}

func TestEveryChecklistBelongsToALaidOutSection(t *testing.T) {
	known := map[SectionID]bool{}
	for _, s := range Order {
		known[s.ID] = true
	}
	for _, c := range Checklists {
		assert.True(t, known[c.Section], c.Key)
	}
}
