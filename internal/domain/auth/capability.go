package auth

import (
	"encoding/json"
	"sort"
	"strings"
)

type Capability string

const (
	CapViewDashboard     Capability = "view_dashboard"
	CapViewEmployees     Capability = "view_employees"
	CapManageEmployees   Capability = "manage_employees"
	CapViewAttendance    Capability = "view_attendance"
	CapManageAttendance  Capability = "manage_attendance"
	CapViewDepartments   Capability = "view_departments"
	CapManageDepartments Capability = "manage_departments"
	CapViewSalary        Capability = "view_salary"
	CapManageSalary      Capability = "manage_salary"
	CapViewReports       Capability = "view_reports"
	CapViewCalendar      Capability = "view_calendar"
	CapViewSettings      Capability = "view_settings"
	CapManageSettings    Capability = "manage_settings"

	// CapAll is the serialized form of a grants-all set.
	CapAll Capability = "*"
)

var KnownCapabilities = []Capability{
	CapViewDashboard,
	CapViewEmployees,
	CapManageEmployees,
	CapViewAttendance,
	CapManageAttendance,
	CapViewDepartments,
	CapManageDepartments,
	CapViewSalary,
	CapManageSalary,
	CapViewReports,
	CapViewCalendar,
	CapViewSettings,
	CapManageSettings,
}

// Capabilities is a set of granted capabilities. A set built from the
// wildcard token grants everything; the zero value grants nothing.
type Capabilities struct {
	all bool
	set map[Capability]struct{}
}

func NewCapabilities(caps ...Capability) Capabilities {
	out := Capabilities{set: make(map[Capability]struct{}, len(caps))}
	for _, c := range caps {
		c = Capability(strings.TrimSpace(string(c)))
		if c == "" {
			continue
		}
		if c == CapAll {
			out.all = true
			continue
		}
		out.set[c] = struct{}{}
	}
	return out
}

func AllCapabilities() Capabilities {
	return Capabilities{all: true}
}

func (c Capabilities) GrantsAll() bool {
	return c.all
}

func (c Capabilities) Has(capability Capability) bool {
	if c.all {
		return true
	}
	_, ok := c.set[capability]
	return ok
}

func (c Capabilities) Len() int {
	return len(c.set)
}

// List returns the granted capabilities sorted, with the wildcard token
// first when the set grants everything.
func (c Capabilities) List() []Capability {
	out := make([]Capability, 0, len(c.set)+1)
	if c.all {
		out = append(out, CapAll)
	}
	rest := make([]Capability, 0, len(c.set))
	for capability := range c.set {
		rest = append(rest, capability)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}

func (c Capabilities) Equal(other Capabilities) bool {
	if c.all != other.all || len(c.set) != len(other.set) {
		return false
	}
	for capability := range c.set {
		if _, ok := other.set[capability]; !ok {
			return false
		}
	}
	return true
}

func (c Capabilities) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.List())
}

func (c *Capabilities) UnmarshalJSON(data []byte) error {
	var raw []Capability
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = NewCapabilities(raw...)
	return nil
}
