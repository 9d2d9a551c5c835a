// Package authz implements the role hierarchy, the two authorization
// decision primitives and the per-resource scoped visibility policy.
// Everything in this package is a pure reader: principals, roles and row
// metadata are never mutated here.
package authz

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// Role is one of a fixed, ordered set of roles. The order is total and
// defined at compile time; it is never recomputed from external data.
type Role string

const (
	// RoleGod is the unrestricted superuser role.
	RoleGod Role = "god"
	// RoleAdmin can see and mutate all rows across departments.
	RoleAdmin Role = "admin"
	// RoleManager is scoped to a single department.
	RoleManager Role = "manager"
	// RoleUser only sees rows it owns, plus active org-wide SOPs.
	RoleUser Role = "user"
	// RoleGuest has the same row visibility as RoleUser but the lowest rank.
	RoleGuest Role = "guest"
)

// roleLevels is the total order over the role set. An unknown role is
// absent and therefore maps to level 0, below every real role.
var roleLevels = map[Role]int{ //nolint:gochecknoglobals
	RoleGod:     5,
	RoleAdmin:   4,
	RoleManager: 3,
	RoleUser:    2,
	RoleGuest:   1,
}

// Level returns the numeric rank of the role. Unknown roles return 0,
// which ranks below Guest and therefore never grants access.
func (r Role) Level() int {
	return roleLevels[r]
}

// Known reports whether the role is part of the fixed catalog.
func (r Role) Known() bool {
	_, ok := roleLevels[r]
	return ok
}

// Roles returns the fixed role catalog ordered from highest to lowest.
func Roles() []Role {
	return []Role{RoleGod, RoleAdmin, RoleManager, RoleUser, RoleGuest}
}

// ParseRole normalizes a role string from an external source. An
// unrecognized value is passed through unchanged so that Level() treats it
// as rank 0; the fallback is counted and logged so misconfigured
// identities stay observable.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Known() {
		roleFallbacks.Inc()
		log.Warn().Str("role", s).Msg("unknown role, treating as below guest")
	}

	return r
}
