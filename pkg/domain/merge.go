package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Patch is one partial update of an audit as sent by the forms: any mix of
// customer scalars and whole or partial sections keyed by their wire names.
type Patch map[string]json.RawMessage

// identityKeys are owned by the store and never taken from a patch.
var identityKeys = map[string]struct{}{
	"id": {}, "userId": {}, "status": {}, "createdAt": {}, "updatedAt": {},
}

var detailKeys = jsonKeys(reflect.TypeFor[Details]())

func jsonKeys(t reflect.Type) map[string]struct{} {
	keys := make(map[string]struct{}, t.NumField())
	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = struct{}{}
		}
	}
	return keys
}

// Empty reports whether the patch carries no applicable keys.
func (p Patch) Empty() bool {
	for key := range p {
		if _, skip := identityKeys[key]; !skip {
			return false
		}
	}
	return true
}

// ApplyPatch applies scalars first and then sections in form order. Identity
// keys and unknown keys are ignored.
func ApplyPatch(a *Audit, p Patch) error {
	scalars := make(map[string]json.RawMessage)
	for key, raw := range p {
		if _, ok := detailKeys[key]; ok {
			scalars[key] = raw
		}
	}
	if len(scalars) > 0 {
		if err := ApplyScalarUpdate(a, scalars); err != nil {
			return err
		}
	}
	for _, name := range SectionNames {
		raw, ok := p[string(name)]
		if !ok {
			continue
		}
		if err := ApplySectionUpdate(a, name, raw); err != nil {
			return err
		}
	}
	return nil
}

// ApplyScalarUpdate overwrites the customer and property scalars named in
// fields. A null clears the field.
func ApplyScalarUpdate(a *Audit, fields map[string]json.RawMessage) error {
	current, err := toObject(a.Details)
	if err != nil {
		return err
	}
	for key, raw := range fields {
		if _, ok := detailKeys[key]; !ok {
			continue
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if !v.IsSet() {
			delete(current, key)
			continue
		}
		encoded, _ := json.Marshal(string(v))
		current[key] = encoded
	}
	var next Details
	if err := fromObject(current, &next); err != nil {
		return err
	}
	a.Details = next
	return nil
}

// ApplySectionUpdate merges partial into the named section by shallow key
// overwrite. Nested objects and arrays replace the stored value wholesale and
// a null removes the key. A null partial clears the section.
func ApplySectionUpdate(a *Audit, name SectionName, partial json.RawMessage) error {
	slot, ok := a.Sections.slot(name)
	if !ok {
		return fmt.Errorf("%w: unknown section %q", ErrInvalidSection, name)
	}
	field := reflect.ValueOf(slot).Elem()
	partial = unquoteSection(partial)
	if isNull(partial) {
		field.SetZero()
		return nil
	}
	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(partial, &overlay); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSection, name, err)
	}
	current := map[string]json.RawMessage{}
	if !field.IsNil() {
		obj, err := toObject(field.Interface())
		if err != nil {
			return err
		}
		current = obj
	}
	for key, raw := range overlay {
		if isNull(raw) {
			delete(current, key)
			continue
		}
		current[key] = raw
	}
	next := reflect.New(field.Type().Elem())
	if err := fromObject(current, next.Interface()); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSection, name, err)
	}
	field.Set(next)
	normalizeSection(&a.Sections, name)
	return nil
}

func normalizeSection(s *Sections, name SectionName) {
	switch name {
	case SectionWalls:
		s.WallsInfo.Normalize()
	case SectionHouse:
		s.HouseInfo.Normalize()
	}
}

// unquoteSection accepts sections that were stored as a JSON string holding
// the encoded object.
func unquoteSection(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return trimmed
	}
	var inner string
	if err := json.Unmarshal(trimmed, &inner); err != nil {
		return trimmed
	}
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return json.RawMessage("null")
	}
	return json.RawMessage(inner)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func toObject(v any) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromObject(obj map[string]json.RawMessage, dst any) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
