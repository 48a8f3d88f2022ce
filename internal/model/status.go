package model

// Job status constants.
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusPaused    = "paused"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// JobTerminalStatuses lists the states a job can never leave.
var JobTerminalStatuses = []string{JobStatusCompleted, JobStatusFailed, JobStatusCancelled}

// Target status constants.
const (
	TargetStatusQueued    = "queued"
	TargetStatusRunning   = "running"
	TargetStatusCompleted = "completed"
	TargetStatusFailed    = "failed"
	TargetStatusSkipped   = "skipped"
)

// TargetIsTerminal reports whether a target status counts toward job completion.
func TargetIsTerminal(status string) bool {
	return status == TargetStatusCompleted || status == TargetStatusFailed || status == TargetStatusSkipped
}

// Schedule status constants.
const (
	ScheduleStatusActive   = "active"
	ScheduleStatusPaused   = "paused"
	ScheduleStatusDisabled = "disabled"
)

// Schedule type constants.
const (
	ScheduleTypeRecurring = "recurring"
	ScheduleTypeOneTime   = "one_time"
)

// Schedule execution status constants.
const (
	ExecutionStatusRunning   = "running"
	ExecutionStatusCompleted = "completed"
	ExecutionStatusFailed    = "failed"
)

// Job type constants.
const (
	JobTypeInstall  = "install"
	JobTypeRollback = "rollback"
	JobTypeVerify   = "verify"
)

// Dependency failure actions.
const (
	FailureActionBlock = "block"
	FailureActionSkip  = "skip"
	FailureActionWarn  = "warn"
)
