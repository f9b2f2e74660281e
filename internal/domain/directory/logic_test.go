package directory

import (
	"testing"
	"time"
)

func TestContainsFold(t *testing.T) {
	tests := []struct {
		query  string
		fields []string
		want   bool
	}{
		{query: "", fields: []string{"anything"}, want: true},
		{query: "  ", fields: nil, want: true},
		{query: "ALEX", fields: []string{"Alex Johnson"}, want: true},
		{query: "dev", fields: []string{"Alex", "alex@x.com", "Frontend Developer"}, want: true},
		{query: "zoe", fields: []string{"Alex", "alex@x.com"}, want: false},
	}
	for _, tc := range tests {
		if got := containsFold(tc.query, tc.fields...); got != tc.want {
			t.Fatalf("containsFold(%q, %v) = %v, want %v", tc.query, tc.fields, got, tc.want)
		}
	}
}

func TestSortSalaries(t *testing.T) {
	records := []SalaryRecord{
		{ID: "1", EmployeeName: "bob", Amount: 300, EffectiveDate: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "2", EmployeeName: "Alice", Amount: 100, EffectiveDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "3", EmployeeName: "carol", Amount: 200, EffectiveDate: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
	ids := func(rs []SalaryRecord) string {
		out := ""
		for _, r := range rs {
			out += r.ID
		}
		return out
	}

	tests := []struct {
		by   string
		desc bool
		want string
	}{
		{by: SortByName, want: "213"},
		{by: SortByName, desc: true, want: "312"},
		{by: SortByAmount, want: "231"},
		{by: SortByAmount, desc: true, want: "132"},
		{by: SortByDate, want: "231"},
		{by: SortByDate, desc: true, want: "132"},
		{by: "", want: "123"},
	}
	for _, tc := range tests {
		got := append([]SalaryRecord(nil), records...)
		sortSalaries(got, tc.by, tc.desc)
		if ids(got) != tc.want {
			t.Fatalf("sort %q desc=%v = %s, want %s", tc.by, tc.desc, ids(got), tc.want)
		}
	}
}

func TestAnnualAmount(t *testing.T) {
	if got := AnnualAmount(SalaryRecord{Amount: 5000, Type: PayMonthly}); got != 60000 {
		t.Fatalf("monthly = %v", got)
	}
	if got := AnnualAmount(SalaryRecord{Amount: 50, Type: PayHourly}); got != 104000 {
		t.Fatalf("hourly = %v", got)
	}
	if got := AnnualAmount(SalaryRecord{Amount: 90000, Type: PayAnnual}); got != 90000 {
		t.Fatalf("annual = %v", got)
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)
	b := time.Date(2024, 5, 1, 0, 1, 0, 0, time.UTC)
	if !sameDay(a, b) {
		t.Fatal("expected same day")
	}
	if sameDay(a, b.AddDate(0, 0, 1)) {
		t.Fatal("expected different days")
	}
}
