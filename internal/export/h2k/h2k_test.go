package h2k

import (
	"auditcore/internal/export/render"
	"auditcore/pkg/domain"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 15, 9, 26, 535_000_000, time.UTC)

func sampleAudit() domain.Audit {
	a := domain.Audit{
		ID:     "a-1",
		Status: domain.StatusInProgress,
		Details: domain.Details{
			CustomerFirstName: "Ada",
			CustomerLastName:  "Lovelace",
			CustomerCity:      "Montréal",
			CustomerProvince:  "QC",
			AuditDate:         "2025-03-01",
		},
	}
	a.HouseInfo = &domain.HouseInfo{HouseType: "2_storey", YearBuilt: "1962"}
	a.FoundationInfo = &domain.FoundationInfo{FoundationType: []string{"basement", "slab"}}
	a.WallsInfo = &domain.WallsInfo{
		CavityInsulation: []string{"R22", "R24"},
		Floors: []domain.Floor{
			{ID: domain.FloorBasement, Name: "Basement", WallHeight: "2.400", WallHeightUnit: "m"},
			{ID: domain.FloorMain, Name: "Main Floor", WallHeight: "8.500", WallHeightUnit: "ft", WallHeightFeet: "8", WallHeightInches: "6"},
			{ID: "floor-1", Name: "Second Floor"},
		},
	}
	a.HeatingInfo = &domain.HeatingInfo{HeatingSystemType: []string{"heat_pump", "furnace"}, Source: "geothermal"}
	a.BlowerDoorTest = &domain.BlowerDoorTest{AreasOfLeakage: domain.LeakageAreas{Rims: true, AtticAccess: true}}
	return a
}

func generate(t *testing.T, a domain.Audit) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, a, Options{Now: fixedNow}))
	return buf.String()
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := sampleAudit()
	first := generate(t, a)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, generate(t, a))
	}
	assert.True(t, strings.HasPrefix(first, "# HOT2000 v11.10b Input File\n# Generated by Enerva Audit Tool\n# Generated on: 2025-03-14T15:09:26.535Z\n# Audit ID: a-1\n"))
	assert.True(t, strings.HasSuffix(first, "[END_OF_FILE]\n"))
}

func TestGenerateRendersAuditValues(t *testing.T) {
	out := generate(t, sampleAudit())
	for _, line := range []string{
		"HouseName=Ada Lovelace Residence",
		"WeatherLocation=Montreal, QC",
		"EvaluationDate=2025-03-01",
		"ModificationDate=2025-03-14",
		"HouseType=Two-storey",
		"StoreysBelowGrade=1",
		"StoreysAboveGrade=2",
		"CavityInsulation=R22,R24",
		"FoundationType=basement,slab",
		"BasementWallHeight=2.4m",
		"MainFloorWallHeight=2.591m",
		"SecondFloorWallHeight=Not specified",
		"SystemType=Heat pump",
		"FuelType=geothermal",
		"AreasOfLeakage=rims, attic access",
		"Rims=Yes",
		"AtticAccess=Yes",
		"Doors=No",
		"AuditStatus=in_progress",
		"AuditCompleted=No",
	} {
		assert.Contains(t, out, "\n"+line+"\n")
	}
}

func TestGenerateDefaultsEveryField(t *testing.T) {
	doc := Generate(domain.Audit{ID: "empty"}, Options{Now: fixedNow})
	require.Len(t, doc.Sections, len(render.Order)+1)
	for i, s := range render.Order {
		assert.Equal(t, string(s.ID), doc.Sections[i].Name)
	}
	for _, s := range doc.Sections {
		for _, e := range s.Entries {
			if e.Key != "" {
				assert.NotEmpty(t, e.Value, "%s.%s", s.Name, e.Key)
			}
		}
	}

	walls, ok := doc.Section("WALLS")
	require.True(t, ok)
	v, _ := walls.Get("CavityInsulation")
	assert.Equal(t, "R22", v)
	v, _ = walls.Get("MainFloorWallHeight")
	assert.Equal(t, render.NotSpecified, v)

	windows, _ := doc.Section("WINDOWS")
	v, _ = windows.Get("GlazingLayers")
	assert.Equal(t, "2", v)
	v, _ = windows.Get("UValue")
	assert.Equal(t, "0.35", v)

	ident, _ := doc.Section("IDENTIFICATION")
	v, _ = ident.Get("HouseName")
	assert.Equal(t, render.NotSpecified, v)
	v, _ = ident.Get("EvaluationDate")
	assert.Equal(t, "2025-03-14", v)

	pv, _ := doc.Section("SOLAR_PV")
	assert.Equal(t, []Entry{{Key: "SystemPresent", Value: "No"}}, pv.Entries)
	bd, _ := doc.Section("BLOWER_DOOR_TEST")
	v, _ = bd.Get("AreasOfLeakage")
	assert.Equal(t, "None specified", v)
	v, _ = bd.Get("TestPerformed")
	assert.Equal(t, "No", v)
}

func TestGenerateKeepsFloorKeysUnique(t *testing.T) {
	a := domain.Audit{ID: "dup"}
	a.WallsInfo = &domain.WallsInfo{Floors: []domain.Floor{
		{ID: domain.FloorBasement, Name: "Basement"},
		{ID: domain.FloorMain, Name: "Main Floor"},
		{ID: "floor-1", Name: "Floor 5", WallHeight: "2.5", WallHeightUnit: "m"},
		{ID: "floor-2", Name: "Floor 5", WallHeight: "3", WallHeightUnit: "m"},
	}}
	walls, ok := Generate(a, Options{Now: fixedNow}).Section("WALLS")
	require.True(t, ok)

	seen := map[string]bool{}
	for _, e := range walls.Entries {
		if e.Key == "" {
			continue
		}
		assert.False(t, seen[e.Key], "duplicate key %s", e.Key)
		seen[e.Key] = true
	}
	v, _ := walls.Get("Floor5WallHeight")
	assert.Equal(t, "2.5m", v)
	v, _ = walls.Get("Floor5floor-2WallHeight")
	assert.Equal(t, "3m", v)
}

func TestParseRoundTrip(t *testing.T) {
	doc := Generate(sampleAudit(), Options{Now: fixedNow})
	parsed, err := Parse(strings.NewReader(doc.String()))
	require.NoError(t, err)
	assert.Equal(t, doc.Header, parsed.Header)
	require.Len(t, parsed.Sections, len(doc.Sections))
	for i, s := range doc.Sections {
		var statements []Entry
		for _, e := range s.Entries {
			if e.Key != "" {
				e.Value = render.ASCII(e.Value)
				statements = append(statements, e)
			}
		}
		assert.Equal(t, s.Name, parsed.Sections[i].Name)
		assert.Equal(t, statements, parsed.Sections[i].Entries, s.Name)
	}
}

func TestParseRejectsMalformedLines(t *testing.T) {
	_, err := Parse(strings.NewReader("Key=Value\n"))
	require.ErrorIs(t, err, ErrMalformed)
	_, err = Parse(strings.NewReader("[WALLS]\nnot a statement\n"))
	require.ErrorIs(t, err, ErrMalformed)
	require.ErrorContains(t, err, "line 2")
	_, err = Parse(strings.NewReader("[]\n"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestEncodeKeepsValuesOnOneLine(t *testing.T) {
	doc := Document{Sections: []Section{{Name: "X", Entries: []Entry{{Key: "Note", Value: "a\nb"}}}}}
	assert.Equal(t, "\n[X]\nNote=a b\n", doc.String())
}

func TestFilename(t *testing.T) {
	a := sampleAudit()
	assert.Equal(t, "Lovelace_a-1.h2k", Filename(a))
	a.CustomerLastName = " "
	assert.Equal(t, "audit_a-1.h2k", Filename(a))
}
