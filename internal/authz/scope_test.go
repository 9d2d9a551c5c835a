package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// rows for Matches-based policy tests
func taskRow(dept any, assignedTo, createdBy string) map[string]any {
	row := map[string]any{
		"assigned_to": assignedTo,
		"created_by":  createdBy,
	}
	if dept != nil {
		row["department_id"] = dept
	}

	return row
}

func sopRow(dept any, createdBy, status string) map[string]any {
	row := map[string]any{
		"created_by": createdBy,
		"status":     status,
	}
	if dept != nil {
		row["department_id"] = dept
	}

	return row
}

func TestScopeAdminSeesEverything(t *testing.T) {
	p := Principal{ID: "a", Role: RoleAdmin}
	scope := Scope(p, ResourceTask, "")

	assert.True(t, Matches(scope, taskRow("dept_001", "x", "y")))
	assert.True(t, Matches(scope, taskRow(nil, "x", "y")))
}

func TestScopeAdminHonorsExplicitDepartmentFilter(t *testing.T) {
	p := Principal{ID: "a", Role: RoleGod}
	scope := Scope(p, ResourceTask, "dept_005")

	assert.True(t, Matches(scope, taskRow("dept_005", "x", "y")))
	assert.False(t, Matches(scope, taskRow("dept_002", "x", "y")))
}

func TestScopeManagerIsDepartmentBound(t *testing.T) {
	p := Principal{ID: "m", Role: RoleManager, DepartmentID: strPtr("dept_002")}
	scope := Scope(p, ResourceTask, "")

	assert.True(t, Matches(scope, taskRow("dept_002", "x", "y")))
	assert.False(t, Matches(scope, taskRow("dept_005", "x", "y")))
	assert.False(t, Matches(scope, taskRow(nil, "x", "y")))
}

// A manager requesting another department's rows via the explicit filter
// keeps its own scope: the parameter cannot widen visibility.
func TestScopeManagerExplicitFilterIgnored(t *testing.T) {
	p := Principal{ID: "m", Role: RoleManager, DepartmentID: strPtr("dept_002")}
	scope := Scope(p, ResourceTask, "dept_005")

	assert.True(t, Matches(scope, taskRow("dept_002", "x", "y")))
	assert.False(t, Matches(scope, taskRow("dept_005", "x", "y")))
}

func TestScopeManagerSeesOrgWideSOPs(t *testing.T) {
	p := Principal{ID: "m", Role: RoleManager, DepartmentID: strPtr("dept_002")}
	scope := Scope(p, ResourceSOP, "")

	assert.True(t, Matches(scope, sopRow("dept_002", "x", "draft")))
	assert.True(t, Matches(scope, sopRow(nil, "x", "draft")))
	assert.False(t, Matches(scope, sopRow("dept_005", "x", "active")))
}

func TestScopeUserOwnershipOnly(t *testing.T) {
	p := Principal{ID: "u_1", Role: RoleUser, DepartmentID: strPtr("dept_002")}
	scope := Scope(p, ResourceTask, "")

	assert.True(t, Matches(scope, taskRow("dept_002", "u_1", "x")))
	assert.True(t, Matches(scope, taskRow("dept_005", "x", "u_1")))
	assert.False(t, Matches(scope, taskRow("dept_002", "x", "y")), "department membership alone grants nothing")
}

// The explicit department filter is ignored below manager rank.
func TestScopeUserExplicitFilterIgnored(t *testing.T) {
	p := Principal{ID: "u_1", Role: RoleUser, DepartmentID: strPtr("dept_002")}
	scope := Scope(p, ResourceTask, "dept_002")

	assert.True(t, Matches(scope, taskRow("dept_005", "u_1", "x")), "own rows stay visible outside the requested department")
	assert.False(t, Matches(scope, taskRow("dept_002", "x", "y")))
}

func TestScopeUserSOPVisibility(t *testing.T) {
	p := Principal{ID: "u_1", Role: RoleUser, DepartmentID: strPtr("dept_002")}
	scope := Scope(p, ResourceSOP, "")

	assert.True(t, Matches(scope, sopRow("dept_002", "x", "active")), "active SOP in own department")
	assert.True(t, Matches(scope, sopRow(nil, "x", "active")), "active org-wide SOP")
	assert.True(t, Matches(scope, sopRow("dept_005", "u_1", "draft")), "own SOP regardless of status")
	assert.False(t, Matches(scope, sopRow("dept_002", "x", "draft")), "draft SOP of someone else")
	assert.False(t, Matches(scope, sopRow("dept_005", "x", "active")), "active SOP of another department")
}

func TestScopeGuestWithoutDepartment(t *testing.T) {
	p := Principal{ID: "g_1", Role: RoleGuest}
	scope := Scope(p, ResourceSOP, "")

	assert.True(t, Matches(scope, sopRow(nil, "x", "active")))
	assert.False(t, Matches(scope, sopRow("dept_002", "x", "active")))
}

func TestScopeManagerWithoutDepartmentFallsBackToOwnership(t *testing.T) {
	p := Principal{ID: "m_1", Role: RoleManager}
	scope := Scope(p, ResourceTask, "")

	assert.True(t, Matches(scope, taskRow("dept_002", "m_1", "x")))
	assert.False(t, Matches(scope, taskRow("dept_002", "x", "y")))
}

func TestScopeClockSessionsAndFeedbackOwnership(t *testing.T) {
	p := Principal{ID: "u_1", Role: RoleUser}

	clock := Scope(p, ResourceClockSession, "")
	assert.True(t, Matches(clock, map[string]any{"user_id": "u_1"}))
	assert.False(t, Matches(clock, map[string]any{"user_id": "u_2"}))

	feedback := Scope(p, ResourceFeedback, "")
	assert.True(t, Matches(feedback, map[string]any{"user_id": "u_1"}))
	assert.True(t, Matches(feedback, map[string]any{"target_user_id": "u_1"}))
	assert.False(t, Matches(feedback, map[string]any{"user_id": "u_2", "target_user_id": "u_3"}))
}

func TestScopeUserRowsOwnOnly(t *testing.T) {
	p := Principal{ID: "u_1", Role: RoleUser}
	scope := Scope(p, ResourceUser, "")

	assert.True(t, Matches(scope, map[string]any{"id": "u_1"}))
	assert.False(t, Matches(scope, map[string]any{"id": "u_2"}))
}

func TestMatchAllAndMatchNone(t *testing.T) {
	assert.True(t, Matches(MatchAll, map[string]any{}))
	assert.False(t, Matches(MatchNone, map[string]any{"id": "x"}))
}

func TestMatchesNullSemantics(t *testing.T) {
	e := IsNull("department_id")

	assert.True(t, Matches(e, map[string]any{}))
	assert.True(t, Matches(e, map[string]any{"department_id": nil}))
	assert.False(t, Matches(e, map[string]any{"department_id": "dept_001"}))
}
