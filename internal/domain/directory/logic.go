package directory

import (
	"slices"
	"sort"
	"strings"
	"time"
)

// containsFold reports whether any field contains query, ignoring case. An
// empty query matches everything.
func containsFold(query string, fields ...string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

func matchesEmployee(e Employee, f EmployeeFilter) bool {
	if f.Department != "" && !strings.EqualFold(e.Department, f.Department) {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	return containsFold(f.Query, e.Name, e.Email, e.Role)
}

func matchesAttendance(r AttendanceRecord, f AttendanceFilter) bool {
	if f.Date != nil && !sameDay(r.Date, *f.Date) {
		return false
	}
	return containsFold(f.Query, r.EmployeeName, r.Department)
}

// sortSalaries orders records in place. Unknown keys keep the input order.
func sortSalaries(records []SalaryRecord, by string, desc bool) {
	var less func(a, b SalaryRecord) bool
	switch by {
	case SortByName:
		less = func(a, b SalaryRecord) bool {
			return strings.ToLower(a.EmployeeName) < strings.ToLower(b.EmployeeName)
		}
	case SortByAmount:
		less = func(a, b SalaryRecord) bool { return a.Amount < b.Amount }
	case SortByDate:
		less = func(a, b SalaryRecord) bool { return a.EffectiveDate.Before(b.EffectiveDate) }
	default:
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		if desc {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}

// AnnualAmount converts a salary to a yearly figure. Hourly pay assumes a
// 2080 hour year.
func AnnualAmount(r SalaryRecord) float64 {
	switch r.Type {
	case PayMonthly:
		return r.Amount * 12
	case PayHourly:
		return r.Amount * 2080
	default:
		return r.Amount
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func validStatus(value string, allowed []string) bool {
	return slices.Contains(allowed, value)
}
