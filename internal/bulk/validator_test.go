package bulk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftdesk/shiftdesk/internal/authz"
)

func strPtr(s string) *string { return &s }

func manager(dept string) authz.Principal {
	return authz.Principal{ID: "m_1", Role: authz.RoleManager, DepartmentID: strPtr(dept)}
}

func deptRow(id, dept string) Target {
	return Target{ID: id, Meta: authz.RowMeta{DepartmentID: strPtr(dept)}}
}

func TestValidateEmptyBatch(t *testing.T) {
	err := Validate(manager("dept_002"), nil, nil, Options{})
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestValidateCountMismatchIsNotFound(t *testing.T) {
	// row B does not exist, the fetch came back one row short
	err := Validate(manager("dept_002"),
		[]string{"A", "B"},
		[]Target{deptRow("A", "dept_002")},
		Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, authz.ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 2, nf.Requested)
	assert.Equal(t, 1, nf.Fetched)
}

// Duplicate ids are not deduplicated; the count check rejects them.
func TestValidateDuplicateIDs(t *testing.T) {
	err := Validate(manager("dept_002"),
		[]string{"A", "A"},
		[]Target{deptRow("A", "dept_002")},
		Options{})

	assert.ErrorIs(t, err, authz.ErrNotFound)
}

func TestValidateUnauthorizedRowsRejectWholeBatch(t *testing.T) {
	// caller is a plain user who created only task A
	p := authz.Principal{ID: "u_1", Role: authz.RoleUser}

	fetched := []Target{
		{ID: "A", Meta: authz.RowMeta{CreatedBy: "u_1"}},
		{ID: "B", Meta: authz.RowMeta{CreatedBy: "u_2"}},
		{ID: "C", Meta: authz.RowMeta{AssignedTo: "u_3"}},
	}

	err := Validate(p, []string{"A", "B", "C"}, fetched, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, authz.ErrForbidden)

	var ua *UnauthorizedError
	require.ErrorAs(t, err, &ua)
	assert.Equal(t, 2, ua.Count)
}

func TestValidateAlreadyCompletedBlocksBatch(t *testing.T) {
	p := manager("dept_002")

	fetched := []Target{
		{ID: "A", Meta: authz.RowMeta{DepartmentID: strPtr("dept_002")}, Completed: true},
		{ID: "B", Meta: authz.RowMeta{DepartmentID: strPtr("dept_002")}},
	}

	err := Validate(p, []string{"A", "B"}, fetched, Options{RejectCompleted: true})
	require.Error(t, err)

	var ce *CompletedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Count)
}

// The completed-state guard runs after authorization: an unauthorized row
// wins over an already-completed one.
func TestValidateAuthorizationBeforeBusinessState(t *testing.T) {
	p := authz.Principal{ID: "u_1", Role: authz.RoleUser}

	fetched := []Target{
		{ID: "A", Meta: authz.RowMeta{CreatedBy: "u_1"}, Completed: true},
		{ID: "B", Meta: authz.RowMeta{CreatedBy: "u_2"}},
	}

	err := Validate(p, []string{"A", "B"}, fetched, Options{RejectCompleted: true})

	var ua *UnauthorizedError
	require.ErrorAs(t, err, &ua)
	assert.Equal(t, 1, ua.Count)
}

func TestValidateCompletedIgnoredWithoutOption(t *testing.T) {
	p := manager("dept_002")

	fetched := []Target{
		{ID: "A", Meta: authz.RowMeta{DepartmentID: strPtr("dept_002")}, Completed: true},
	}

	assert.NoError(t, Validate(p, []string{"A"}, fetched, Options{}))
}

func TestValidateAccepts(t *testing.T) {
	p := manager("dept_002")

	fetched := []Target{
		deptRow("A", "dept_002"),
		deptRow("B", "dept_002"),
	}

	assert.NoError(t, Validate(p, []string{"A", "B"}, fetched, Options{RejectCompleted: true}))
}
