package models

import (
	"errors"
	"fmt"
)

// Role is the closed, ordered set of portal roles. Every authorization
// decision goes through AtLeast; nothing compares raw role strings.
type Role string

const (
	RoleInvestor Role = "investor"
	RolePartner  Role = "partner"
	RoleTeam     Role = "team"
	RoleOwner    Role = "owner"
)

var roleRank = map[Role]int{
	RoleInvestor: 0,
	RolePartner:  1,
	RoleTeam:     2,
	RoleOwner:    3,
}

var ErrUnknownRole = errors.New("unknown role")

// ParseRole validates a role value read from the profile store. Unknown
// values are rejected rather than defaulted, so a malformed profile can
// never come back with more (or silently fewer) privileges than stored.
func ParseRole(value string) (Role, error) {
	role := Role(value)
	if _, known := roleRank[role]; !known {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, value)
	}
	return role, nil
}

func (role Role) Valid() bool {
	_, known := roleRank[role]
	return known
}

// AtLeast reports whether role sits at or above required in the fixed
// total order investor < partner < team < owner. Unknown values on either
// side never satisfy the check.
func (role Role) AtLeast(required Role) bool {
	rank, known := roleRank[role]
	if !known {
		return false
	}
	requiredRank, known := roleRank[required]
	if !known {
		return false
	}
	return rank >= requiredRank
}

func (role Role) String() string {
	return string(role)
}
