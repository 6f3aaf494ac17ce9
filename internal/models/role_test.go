package models

import (
	"encoding/json"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Role
		wantErr bool
	}{
		{"general student", "General Student", RoleGeneralStudent, false},
		{"case insensitive", "associate member", RoleAssociateMember, false},
		{"trimmed", "  Admin ", RoleAdmin, false},
		{"unknown", "Overlord", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseRole() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoleNext(t *testing.T) {
	tests := []struct {
		role   Role
		want   Role
		wantOK bool
	}{
		{RoleGeneralStudent, RoleGeneralMember, true},
		{RoleGeneralMember, RoleAssociateMember, true},
		{RoleAssociateMember, RoleAssociateMember, false},
		{RoleAdmin, RoleAdmin, false},
	}
	for _, tt := range tests {
		got, ok := tt.role.Next()
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("%v.Next() = %v, %v; want %v, %v", tt.role, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRoleJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Role Role `json:"role"`
	}{RoleExecutiveMember})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"role":"Executive Member"}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var out struct {
		Role Role `json:"role"`
	}
	if err := json.Unmarshal([]byte(`{"role":"Lifetime Member"}`), &out); err != nil {
		t.Fatal(err)
	}
	if out.Role != RoleLifetimeMember {
		t.Errorf("Unmarshal role = %v", out.Role)
	}
	if err := json.Unmarshal([]byte(`{"role":"Nobody"}`), &out); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestRoleOrdering(t *testing.T) {
	if !RoleAdmin.AtLeast(RoleGeneralMember) {
		t.Error("Admin should outrank General Member")
	}
	if RoleGeneralStudent.AtLeast(RoleGeneralMember) {
		t.Error("General Student should not reach General Member")
	}
	if Role(42).Valid() {
		t.Error("Role(42) should be invalid")
	}
}
