package authz

// Principal is the authenticated caller, resolved once per request by the
// external identity collaborator and treated as read-only afterwards.
type Principal struct {
	ID           string
	Email        string
	Role         Role
	DepartmentID *string
}

// InDepartment reports whether the principal belongs to the given department.
func (p Principal) InDepartment(departmentID string) bool {
	return p.DepartmentID != nil && *p.DepartmentID == departmentID
}

// HasMinimumRole reports whether actual ranks at least as high as the
// lowest role in required. It implements "any of these roles suffices"
// semantics: {Admin, God} admits Admin and above.
//
// An empty required set always returns true. Callers must never pass an
// empty set for a real restriction; this is a caller contract, not
// enforced here.
func HasMinimumRole(actual Role, required ...Role) bool {
	if len(required) == 0 {
		return true
	}

	min := required[0].Level()
	for _, r := range required[1:] {
		if l := r.Level(); l < min {
			min = l
		}
	}

	return actual.Level() >= min
}

// Outranks reports whether a ranks strictly higher than b. Equality is
// deliberately insufficient: a role can never manage a principal of its
// own rank, which blocks same-level privilege assignment.
func Outranks(a, b Role) bool {
	return a.Level() > b.Level()
}

// RowMeta carries the scoping attributes of an existing row, used by the
// per-row mutation guard. Fields that a resource type does not have stay
// empty.
type RowMeta struct {
	DepartmentID *string
	CreatedBy    string
	AssignedTo   string
	UserID       string
}

// CanMutate is the per-row mutation guard of the visibility policy. It is
// evaluated against the existing row, never against caller-supplied state:
// Admin and above may always act, a Manager may act inside its own
// department, and anyone may act on rows it owns.
func CanMutate(p Principal, row RowMeta) bool {
	if HasMinimumRole(p.Role, RoleAdmin, RoleGod) {
		return true
	}

	if p.Role == RoleManager && row.DepartmentID != nil && p.InDepartment(*row.DepartmentID) {
		return true
	}

	return ownsRow(p, row)
}

func ownsRow(p Principal, row RowMeta) bool {
	if p.ID == "" {
		return false
	}

	return row.AssignedTo == p.ID || row.CreatedBy == p.ID || row.UserID == p.ID
}

// CanReassign decides whether the principal may change a row's assignee.
// Reassignment needs Manager rank on top of the base mutation guard, and a
// Manager may only assign within its own department, which requires the
// target principal's department to be looked up first.
func CanReassign(p Principal, row RowMeta, newAssigneeDept *string) error {
	if !CanMutate(p, row) {
		return Denied("no access to this row")
	}

	if !HasMinimumRole(p.Role, RoleManager, RoleAdmin, RoleGod) {
		return Denied("reassignment requires manager rank")
	}

	if p.Role == RoleManager {
		if newAssigneeDept == nil || !p.InDepartment(*newAssigneeDept) {
			return Denied("managers may only assign within their own department")
		}
	}

	return nil
}
