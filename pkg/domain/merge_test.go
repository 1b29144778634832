package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSectionUpdateIsShallowOverwrite(t *testing.T) {
	var a Audit
	first := json.RawMessage(`{"manufacturer":"Navien","dwhr":{"present":"yes","model":"R3-60"},"fuel":"nat_gas"}`)
	if err := ApplySectionUpdate(&a, SectionDomesticHotWater, first); err != nil {
		t.Fatalf("first update: %v", err)
	}
	second := json.RawMessage(`{"dwhr":{"present":"no"},"fuel":null,"model":"NPE-240A"}`)
	if err := ApplySectionUpdate(&a, SectionDomesticHotWater, second); err != nil {
		t.Fatalf("second update: %v", err)
	}
	dhw := a.HotWater()
	if dhw.Manufacturer != "Navien" || dhw.Model != "NPE-240A" {
		t.Fatalf("untouched keys should survive, got %+v", dhw)
	}
	if dhw.DWHR.Present != "no" || dhw.DWHR.Model != "" {
		t.Fatalf("nested objects should be replaced wholesale, got %+v", dhw.DWHR)
	}
	if dhw.Fuel.IsSet() {
		t.Fatalf("null should clear the key, got %q", dhw.Fuel)
	}
}

func TestSectionUpdateReplacesArrays(t *testing.T) {
	var a Audit
	if err := ApplySectionUpdate(&a, SectionFoundation, json.RawMessage(`{"foundationType":["basement","slab"]}`)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := ApplySectionUpdate(&a, SectionFoundation, json.RawMessage(`{"foundationType":["crawlspace"]}`)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got := a.Foundation().FoundationType
	if len(got) != 1 || got[0] != "crawlspace" {
		t.Fatalf("expected array replaced, got %v", got)
	}
}

func TestSectionUpdateAcceptsLooseScalars(t *testing.T) {
	var a Audit
	partial := json.RawMessage(`{"yearBuilt":1987,"houseType":"bungalow"}`)
	if err := ApplySectionUpdate(&a, SectionHouse, partial); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if a.House().YearBuilt != "1987" {
		t.Fatalf("expected numeric year as text, got %q", a.House().YearBuilt)
	}
	checks := json.RawMessage(`{"registered":true,"documents":"yes","storeys":"no"}`)
	if err := ApplySectionUpdate(&a, SectionEligibility, checks); err != nil {
		t.Fatalf("apply: %v", err)
	}
	e := a.Eligibility()
	if !e.Registered.Set() || !e.Documents.Set() || e.Storeys.Set() {
		t.Fatalf("unexpected flags %+v", e)
	}
}

func TestSectionUpdateRejectsNonObject(t *testing.T) {
	var a Audit
	err := ApplySectionUpdate(&a, SectionDoors, json.RawMessage(`[1,2]`))
	if !errors.Is(err, ErrInvalidSection) {
		t.Fatalf("expected invalid section, got %v", err)
	}
	if a.DoorsInfo != nil {
		t.Fatalf("failed update must not touch the section")
	}
	if err := ApplySectionUpdate(&a, SectionName("garage"), json.RawMessage(`{}`)); !errors.Is(err, ErrInvalidSection) {
		t.Fatalf("expected unknown section error, got %v", err)
	}
}

func TestSectionUpdateNullClears(t *testing.T) {
	a := Audit{Sections: Sections{DoorsInfo: &DoorsInfo{Skin: "steel"}}}
	if err := ApplySectionUpdate(&a, SectionDoors, json.RawMessage(`null`)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if a.DoorsInfo != nil {
		t.Fatalf("expected section cleared")
	}
}

func TestApplyPatchIgnoresIdentityAndUnknownKeys(t *testing.T) {
	a := Audit{ID: "a1", UserID: "u1", Status: StatusDraft}
	a.CustomerFirstName = "Ada"
	patch := Patch{
		"id":                json.RawMessage(`"other"`),
		"status":            json.RawMessage(`"completed"`),
		"customerLastName":  json.RawMessage(`"Lovelace"`),
		"customerFirstName": json.RawMessage(`null`),
		"customerPhone":     json.RawMessage(`5551234`),
		"garage":            json.RawMessage(`{"doors":2}`),
		"windowsInfo":       json.RawMessage(`"{\"glazing\":\"3\"}"`),
	}
	if err := ApplyPatch(&a, patch); err != nil {
		t.Fatalf("apply patch: %v", err)
	}
	if a.ID != "a1" || a.Status != StatusDraft {
		t.Fatalf("identity keys must not change, got %s %s", a.ID, a.Status)
	}
	if a.CustomerFirstName != "" || a.CustomerLastName != "Lovelace" || a.CustomerPhone != "5551234" {
		t.Fatalf("unexpected details %+v", a.Details)
	}
	if a.Windows().Glazing != "3" {
		t.Fatalf("expected stringified section to decode, got %+v", a.Windows())
	}
	if (Patch{"id": json.RawMessage(`"x"`)}).Empty() != true {
		t.Fatalf("identity-only patch should be empty")
	}
}
