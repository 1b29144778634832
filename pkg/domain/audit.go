// Package domain defines the audit record model, photo attachments and the
// rule evaluation primitives shared by persistence and services.
package domain

import (
	"strings"
	"time"
)

// Status is the lifecycle state of an audit.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the three lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus validates a wire status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// AuditType distinguishes pre- and post-retrofit evaluations.
type AuditType string

const (
	AuditBeforeUpgrade AuditType = "before_upgrade"
	AuditAfterUpgrade  AuditType = "after_upgrade"
)

// HomeType is the dwelling configuration.
type HomeType string

const (
	HomeSingleDetached HomeType = "single_detached"
	HomeAttached       HomeType = "attached"
	HomeRowEnd         HomeType = "row_end"
	HomeRowMid         HomeType = "row_mid"
)

// Details holds the customer and property scalars of an audit.
type Details struct {
	CustomerFirstName  string    `json:"customerFirstName,omitempty"`
	CustomerLastName   string    `json:"customerLastName,omitempty"`
	CustomerEmail      string    `json:"customerEmail,omitempty"`
	CustomerPhone      string    `json:"customerPhone,omitempty"`
	CustomerAddress    string    `json:"customerAddress,omitempty"`
	CustomerCity       string    `json:"customerCity,omitempty"`
	CustomerProvince   string    `json:"customerProvince,omitempty"`
	CustomerPostalCode string    `json:"customerPostalCode,omitempty"`
	AuditType          AuditType `json:"auditType,omitempty"`
	HomeType           HomeType  `json:"homeType,omitempty"`
	AuditDate          string    `json:"auditDate,omitempty"`
}

// Audit is one residential energy audit. Details and Sections flatten into
// the record's JSON object.
type Audit struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Status Status `json:"status"`
	Details
	Sections
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CustomerName joins the customer's first and last name.
func (a Audit) CustomerName() string {
	return strings.TrimSpace(a.CustomerFirstName + " " + a.CustomerLastName)
}

// Clone returns a deep copy of the audit.
func (a Audit) Clone() Audit {
	out := a
	out.Sections = a.Sections.Clone()
	return out
}

// The accessors below return a section by value, or its zero value when the
// section was never saved, so readers never need nil checks.

func (a Audit) Eligibility() EligibilityCriteria { return deref(a.EligibilityCriteria) }
func (a Audit) Discussion() PreAuditDiscussion { return deref(a.PreAuditDiscussion) }
func (a Audit) Atypical() AtypicalLoads { return deref(a.AtypicalLoads) }
func (a Audit) House() HouseInfo { return deref(a.HouseInfo) }
func (a Audit) Foundation() FoundationInfo { return deref(a.FoundationInfo) }
func (a Audit) Walls() WallsInfo { return deref(a.WallsInfo) }
func (a Audit) Ceiling() CeilingInfo { return deref(a.CeilingInfo) }
func (a Audit) Windows() WindowsInfo { return deref(a.WindowsInfo) }
func (a Audit) Doors() DoorsInfo { return deref(a.DoorsInfo) }
func (a Audit) Ventilation() VentilationInfo { return deref(a.VentilationInfo) }
func (a Audit) Heating() HeatingInfo { return deref(a.HeatingInfo) }
func (a Audit) HotWater() DomesticHotWaterInfo { return deref(a.DomesticHotWaterInfo) }
func (a Audit) Renewables() RenewablesInfo { return deref(a.RenewablesInfo) }
func (a Audit) BlowerDoor() BlowerDoorTest { return deref(a.BlowerDoorTest) }
func (a Audit) Depressurization() DepressurizationTest { return deref(a.DepressurizationTest) }

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
