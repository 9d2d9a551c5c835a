package authz

// ResourceKind names a scoped resource type.
type ResourceKind string

const (
	// ResourceTask rows are owned via assigned_to and created_by.
	ResourceTask ResourceKind = "tasks"
	// ResourceSOP rows are department scoped with org-wide NULL rows.
	ResourceSOP ResourceKind = "sops"
	// ResourceClockSession rows are owned via user_id.
	ResourceClockSession ResourceKind = "clock_sessions"
	// ResourceReminder rows are owned via user_id and created_by.
	ResourceReminder ResourceKind = "reminders"
	// ResourceFeedback rows are owned via user_id and target_user_id.
	ResourceFeedback ResourceKind = "feedback"
	// ResourceUser rows are owned by the user itself.
	ResourceUser ResourceKind = "users"
)

// ownershipFields maps each resource kind to the row fields that grant
// per-row access independent of department.
var ownershipFields = map[ResourceKind][]string{ //nolint:gochecknoglobals
	ResourceTask:         {"assigned_to", "created_by"},
	ResourceSOP:          {"created_by"},
	ResourceClockSession: {"user_id"},
	ResourceReminder:     {"user_id", "created_by"},
	ResourceFeedback:     {"user_id", "target_user_id"},
	ResourceUser:         {"id"},
}

// Scope derives the row filter for a principal listing rows of the given
// resource kind. explicitDept is a department filter supplied by the
// caller; it is only honored for Manager rank and above, and a Manager can
// never widen its scope with it, which closes the privilege escalation via
// request parameter.
func Scope(p Principal, kind ResourceKind, explicitDept string) Expr {
	switch {
	case HasMinimumRole(p.Role, RoleAdmin, RoleGod):
		if explicitDept != "" {
			return Eq("department_id", explicitDept)
		}

		return MatchAll

	case p.Role == RoleManager && p.DepartmentID != nil:
		return managerScope(p, kind)

	default:
		// User, Guest, unknown roles and managers without a department all
		// fall back to ownership-based visibility. The explicit department
		// filter is ignored for them.
		return ownerScope(p, kind)
	}
}

// managerScope is the department-wide view. The explicit filter is not
// consulted: a Manager's scope is its own department, and a redundant
// filter for that same department changes nothing.
func managerScope(p Principal, kind ResourceKind) Expr {
	dept := Eq("department_id", *p.DepartmentID)

	if kind == ResourceSOP {
		// org-wide SOPs have no department and are visible to managers
		return Or{dept, IsNull("department_id")}
	}

	return dept
}

// ownerScope restricts visibility to rows the principal is a party to,
// plus, for SOPs, active procedures of its department or org-wide ones.
func ownerScope(p Principal, kind ResourceKind) Expr {
	owned := make(Or, 0, 3)
	for _, field := range ownershipFields[kind] {
		owned = append(owned, Eq(field, p.ID))
	}

	if kind != ResourceSOP {
		return owned
	}

	deptBranch := Or{IsNull("department_id")}
	if p.DepartmentID != nil {
		deptBranch = append(deptBranch, Eq("department_id", *p.DepartmentID))
	}

	active := And{Eq("status", "active"), deptBranch}

	return append(owned, active)
}
