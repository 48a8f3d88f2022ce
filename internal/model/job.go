package model

import "time"

// Job is one unit of patch-deployment work fanned out over a set of assets.
type Job struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Description        *string    `json:"description,omitempty"`
	PatchID            string     `json:"patch_id"`
	JobType            string     `json:"job_type"`
	Status             string     `json:"status"`
	Priority           string     `json:"priority"`
	ExecutionMode      string     `json:"execution_mode"`
	ScheduledStartTime *time.Time `json:"scheduled_start_time,omitempty"`
	ActualStartTime    *time.Time `json:"actual_start_time,omitempty"`
	CompletedTime      *time.Time `json:"completed_time,omitempty"`
	EstimatedDuration  *int       `json:"estimated_duration_seconds,omitempty"`
	ActualDuration     *int       `json:"actual_duration_seconds,omitempty"`
	TotalTargets       int        `json:"total_targets"`
	CompletedTargets   int        `json:"completed_targets"`
	SuccessfulTargets  int        `json:"successful_targets"`
	FailedTargets      int        `json:"failed_targets"`
	SkippedTargets     int        `json:"skipped_targets"`
	ProgressPercentage float64    `json:"progress_percentage"`
	ExitCode           *int       `json:"exit_code,omitempty"`
	ErrorMessage       *string    `json:"error_message,omitempty"`
	ParentJobID        *string    `json:"parent_job_id,omitempty"`
	BatchID            *string    `json:"batch_id,omitempty"`
	RequiresApproval   bool       `json:"requires_approval"`
	ApprovedBy         *string    `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	CreatedBy          *string    `json:"created_by,omitempty"`
	UpdatedBy          *string    `json:"updated_by,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
