package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is a member tier. Higher values outrank lower ones.
type Role int16

const (
	RoleGeneralStudent Role = iota
	RoleGeneralMember
	RoleAssociateMember
	RoleExecutiveMember
	RoleLifetimeMember
	RoleAdmin
)

var roleNames = [...]string{
	RoleGeneralStudent:  "General Student",
	RoleGeneralMember:   "General Member",
	RoleAssociateMember: "Associate Member",
	RoleExecutiveMember: "Executive Member",
	RoleLifetimeMember:  "Lifetime Member",
	RoleAdmin:           "Admin",
}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("Role(%d)", int16(r))
	}
	return roleNames[r]
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r >= RoleGeneralStudent && r <= RoleAdmin
}

// AtLeast reports whether r ranks at or above min
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// Next returns the role a member may request promotion to. Only the
// general tiers can self-request; ok is false otherwise.
func (r Role) Next() (Role, bool) {
	switch r {
	case RoleGeneralStudent:
		return RoleGeneralMember, true
	case RoleGeneralMember:
		return RoleAssociateMember, true
	default:
		return r, false
	}
}

// ParseRole parses a display name such as "General Member". Matching is
// case-insensitive.
func ParseRole(name string) (Role, error) {
	name = strings.TrimSpace(name)
	for i, n := range roleNames {
		if strings.EqualFold(n, name) {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", name)
}

// ParseRoles parses a list of display names
func ParseRoles(names []string) ([]Role, error) {
	roles := make([]Role, 0, len(names))
	for _, n := range names {
		r, err := ParseRole(n)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
