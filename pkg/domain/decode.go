package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// SectionError reports a stored section that could not be decoded and was
// treated as absent.
type SectionError struct {
	Section SectionName
	Err     error
}

func (e SectionError) Error() string {
	return fmt.Sprintf("section %s: %v", e.Section, e.Err)
}

func (e SectionError) Unwrap() error { return e.Err }

type auditHeader struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Status Status `json:"status"`
	Details
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DecodeAudit reads a stored audit. Sections that fail to decode, including
// sections stored as an encoded JSON string, are dropped and reported rather
// than failing the record.
func DecodeAudit(data []byte) (Audit, []SectionError, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Audit{}, nil, fmt.Errorf("decode audit: %w", err)
	}
	scalars := make(map[string]json.RawMessage, len(raw))
	for key, value := range raw {
		if !IsSection(key) {
			scalars[key] = value
		}
	}
	var header auditHeader
	if err := fromObject(scalars, &header); err != nil {
		return Audit{}, nil, fmt.Errorf("decode audit: %w", err)
	}
	a := Audit{
		ID:        header.ID,
		UserID:    header.UserID,
		Status:    header.Status,
		Details:   header.Details,
		CreatedAt: header.CreatedAt,
		UpdatedAt: header.UpdatedAt,
	}
	var problems []SectionError
	for _, name := range SectionNames {
		value, ok := raw[string(name)]
		if !ok {
			continue
		}
		if err := decodeSection(&a.Sections, name, value); err != nil {
			problems = append(problems, SectionError{Section: name, Err: err})
		}
	}
	return a, problems, nil
}

// ParseAudit decodes client input. Unlike DecodeAudit it fails when any
// section is malformed.
func ParseAudit(data []byte) (Audit, error) {
	a, problems, err := DecodeAudit(data)
	if err != nil {
		return Audit{}, err
	}
	if len(problems) > 0 {
		msgs := make([]string, 0, len(problems))
		for _, p := range problems {
			msgs = append(msgs, p.Error())
		}
		return Audit{}, fmt.Errorf("%w: %s", ErrInvalidSection, strings.Join(msgs, "; "))
	}
	return a, nil
}

func decodeSection(s *Sections, name SectionName, raw json.RawMessage) error {
	slot, _ := s.slot(name)
	field := reflect.ValueOf(slot).Elem()
	raw = unquoteSection(raw)
	if isNull(raw) {
		return nil
	}
	next := reflect.New(field.Type().Elem())
	if err := json.Unmarshal(raw, next.Interface()); err != nil {
		return err
	}
	field.Set(next)
	normalizeSection(s, name)
	return nil
}

// UnmarshalJSON decodes leniently. Malformed sections are left empty.
func (a *Audit) UnmarshalJSON(data []byte) error {
	decoded, _, err := DecodeAudit(data)
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}
