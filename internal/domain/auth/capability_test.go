package auth

import (
	"encoding/json"
	"testing"
)

func TestCapabilitiesHas(t *testing.T) {
	all := NewCapabilities(CapAll)
	for _, c := range append(KnownCapabilities, "anything", "") {
		if !all.Has(c) {
			t.Fatalf("wildcard set must grant %q", c)
		}
	}

	some := NewCapabilities(CapViewSalary, CapManageSalary)
	for _, c := range KnownCapabilities {
		want := c == CapViewSalary || c == CapManageSalary
		if some.Has(c) != want {
			t.Fatalf("Has(%q) = %v, want %v", c, some.Has(c), want)
		}
	}

	var empty Capabilities
	for _, c := range KnownCapabilities {
		if empty.Has(c) {
			t.Fatalf("zero set must not grant %q", c)
		}
	}
}

func TestCapabilitiesJSON(t *testing.T) {
	data, err := json.Marshal(NewCapabilities(CapViewSalary, CapAll, CapViewDashboard))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["*","view_dashboard","view_salary"]` {
		t.Fatalf("unexpected json %s", data)
	}

	var decoded Capabilities
	if err := json.Unmarshal([]byte(`["view_employees"," ",""]`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.GrantsAll() || decoded.Len() != 1 || !decoded.Has(CapViewEmployees) {
		t.Fatalf("unexpected decoded set %+v", decoded.List())
	}
}

func TestIdentityValidate(t *testing.T) {
	if err := (Identity{ID: "1", Email: "a@b.c"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Identity{ID: " ", Email: "a@b.c"}).Validate(); err == nil {
		t.Fatal("expected blank id to fail")
	}
	if err := (Identity{ID: "1"}).Validate(); err == nil {
		t.Fatal("expected missing email to fail")
	}
}
