package audit

// SensitiveAction is one of a closed catalog of action kinds that always
// produce an audit entry, regardless of other logging.
type SensitiveAction string

const (
	// ActionClockIn records the start of a clock session.
	ActionClockIn SensitiveAction = "clock_in"
	// ActionClockOut records the end of a clock session.
	ActionClockOut SensitiveAction = "clock_out"
	// ActionTaskAssign records a task (re)assignment.
	ActionTaskAssign SensitiveAction = "task_assign"
	// ActionTaskComplete records a task completion.
	ActionTaskComplete SensitiveAction = "task_complete"
	// ActionSOPCreate records the creation of a procedure.
	ActionSOPCreate SensitiveAction = "sop_create"
	// ActionBulkDelete records an all-or-nothing batch deletion.
	ActionBulkDelete SensitiveAction = "bulk_delete"
	// ActionBulkUpdate records an all-or-nothing batch update.
	ActionBulkUpdate SensitiveAction = "bulk_update"
	// ActionBulkComplete records an all-or-nothing batch completion.
	ActionBulkComplete SensitiveAction = "bulk_complete"
	// ActionRoleChange records a change of a user's role.
	ActionRoleChange SensitiveAction = "role_change"
	// ActionUserProvision records the creation of a user account.
	ActionUserProvision SensitiveAction = "user_provision"
)
